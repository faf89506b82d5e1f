package uploads

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/internal/platformspec"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	dbtypes "github.com/orthodeskhq/orthodesk-backend/pkg/db/types"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

type mediaRepository interface {
	CreateBatch(ctx context.Context, assets []*models.MediaAsset) error
	MarkUploaded(ctx context.Context, practiceID, assetID uuid.UUID, uploadedAt time.Time) (*models.MediaAsset, error)
}

type gcsSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
}

// Service exposes the staged-upload workflow: stage file descriptors against
// the current platform constraint, then submit the valid ones for presigned
// upload.
type Service interface {
	CreateSession(ctx context.Context, userID, practiceID uuid.UUID, platforms []enums.Platform) (*SessionView, error)
	GetSession(ctx context.Context, practiceID, sessionID uuid.UUID) (*SessionView, error)
	SetPlatforms(ctx context.Context, practiceID, sessionID uuid.UUID, platforms []enums.Platform) (*SessionView, error)
	AddFiles(ctx context.Context, practiceID, sessionID uuid.UUID, files []FileDescriptor) (*SessionView, error)
	RemoveFile(ctx context.Context, practiceID, sessionID uuid.UUID, index int) (*SessionView, error)
	Submit(ctx context.Context, practiceID, sessionID uuid.UUID, input SubmitInput) (*SubmitOutput, error)
	FinalizeFile(ctx context.Context, practiceID, assetID uuid.UUID) (*models.MediaAsset, error)
	CancelSession(ctx context.Context, practiceID, sessionID uuid.UUID) error
}

type service struct {
	store     *sessionStore
	repo      mediaRepository
	gcs       gcsSigner
	bucket    string
	signTTL   time.Duration
	maxBatch  int
	maxTagLen int
}

// SessionBackend is the Redis surface the service needs. *redis.Client from
// pkg/redis satisfies it.
type SessionBackend interface {
	sessionKV
	sessionKeyer
}

// NewService constructs the upload-session service. uploadTTL bounds how long
// a signed PUT URL stays usable.
func NewService(backend SessionBackend, repo mediaRepository, gcs gcsSigner, bucket string, uploadTTL time.Duration, cfg config.MediaConfig) (Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("session backend required")
	}
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if gcs == nil {
		return nil, fmt.Errorf("gcs signer required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if uploadTTL <= 0 {
		return nil, fmt.Errorf("upload url ttl must be positive")
	}
	if cfg.MaxBatchFiles <= 0 {
		return nil, fmt.Errorf("max batch files must be positive")
	}
	return &service{
		store:     &sessionStore{kv: backend, keyer: backend, ttl: cfg.UploadSessionTTL},
		repo:      repo,
		gcs:       gcs,
		bucket:    bucket,
		signTTL:   uploadTTL,
		maxBatch:  cfg.MaxBatchFiles,
		maxTagLen: cfg.MaxTagLength,
	}, nil
}

// FileDescriptor is client-declared metadata for a file being staged.
type FileDescriptor struct {
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// SessionView is the session plus its derived constraint, as returned to the
// client after every mutation.
type SessionView struct {
	Session    *Session                `json:"session"`
	Constraint platformspec.Constraint `json:"constraint"`
	ValidFiles int                     `json:"valid_files"`
}

// SubmitInput carries the submit-time options for the staged files.
type SubmitInput struct {
	Tags     []string   `json:"tags"`
	FolderID *uuid.UUID `json:"folder_id"`
}

// SubmitTarget pairs a created asset with the signed PUT URL the client
// uploads its bytes to.
type SubmitTarget struct {
	AssetID      uuid.UUID `json:"asset_id"`
	FileName     string    `json:"file_name"`
	GCSKey       string    `json:"gcs_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SubmitOutput reports the presigned targets for valid files and echoes the
// files that were excluded, with their reasons.
type SubmitOutput struct {
	Targets []SubmitTarget `json:"targets"`
	Skipped []PendingFile  `json:"skipped,omitempty"`
}

func (s *service) CreateSession(ctx context.Context, userID, practiceID uuid.UUID, platforms []enums.Platform) (*SessionView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if practiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice identity missing")
	}
	platforms, err := checkPlatforms(platforms)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:         uuid.New(),
		PracticeID: practiceID,
		UserID:     userID,
		Platforms:  platforms,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return view(session), nil
}

func (s *service) GetSession(ctx context.Context, practiceID, sessionID uuid.UUID) (*SessionView, error) {
	session, err := s.ownedSession(ctx, practiceID, sessionID)
	if err != nil {
		return nil, err
	}
	return view(session), nil
}

// SetPlatforms replaces the session's platform selection and re-validates
// every staged file against the new constraint, so a file staged under a loose
// envelope cannot slip through after the selection tightens.
func (s *service) SetPlatforms(ctx context.Context, practiceID, sessionID uuid.UUID, platforms []enums.Platform) (*SessionView, error) {
	platforms, err := checkPlatforms(platforms)
	if err != nil {
		return nil, err
	}
	session, err := s.ownedSession(ctx, practiceID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Submitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session already submitted")
	}

	session.Platforms = platforms
	revalidate(session)

	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return view(session), nil
}

func (s *service) AddFiles(ctx context.Context, practiceID, sessionID uuid.UUID, files []FileDescriptor) (*SessionView, error) {
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required")
	}
	session, err := s.ownedSession(ctx, practiceID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Submitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session already submitted")
	}
	// The batch cap is all-or-nothing: a selection that would overflow the
	// session is rejected whole rather than truncated.
	if len(session.Files)+len(files) > s.maxBatch {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("session holds at most %d files", s.maxBatch))
	}

	constraint := session.Constraint()
	for _, f := range files {
		pending, err := stageFile(f, constraint)
		if err != nil {
			return nil, err
		}
		session.Files = append(session.Files, pending)
	}

	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return view(session), nil
}

func (s *service) RemoveFile(ctx context.Context, practiceID, sessionID uuid.UUID, index int) (*SessionView, error) {
	session, err := s.ownedSession(ctx, practiceID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Submitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session already submitted")
	}
	if index < 0 || index >= len(session.Files) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file index out of range")
	}

	session.Files = append(session.Files[:index], session.Files[index+1:]...)

	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return view(session), nil
}

func (s *service) Submit(ctx context.Context, practiceID, sessionID uuid.UUID, input SubmitInput) (*SubmitOutput, error) {
	session, err := s.ownedSession(ctx, practiceID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Submitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session already submitted")
	}
	if session.ValidCount() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid files to upload")
	}

	tags, err := normalizeTags(input.Tags, s.maxTagLen)
	if err != nil {
		return nil, err
	}

	out := &SubmitOutput{}
	assets := make([]*models.MediaAsset, 0, len(session.Files))
	now := time.Now().UTC()

	for _, f := range session.Files {
		if !f.Valid() {
			out.Skipped = append(out.Skipped, f)
			continue
		}
		assetID := uuid.New()
		asset := &models.MediaAsset{
			ID:         assetID,
			PracticeID: session.PracticeID,
			UserID:     session.UserID,
			FolderID:   input.FolderID,
			Kind:       enums.MediaKindFromMime(f.MimeType),
			Status:     enums.MediaStatusPending,
			GCSKey:     buildObjectKey(session.PracticeID, assetID, f.Name, f.MimeType),
			FileName:   f.Name,
			MimeType:   f.MimeType,
			SizeBytes:  f.SizeBytes,
			Tags:       dbtypes.StringArray(tags),
		}
		assets = append(assets, asset)
	}

	if err := s.repo.CreateBatch(ctx, assets); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media assets")
	}

	for i, asset := range assets {
		signedURL, err := s.gcs.SignedURL(s.bucket, asset.GCSKey, asset.MimeType, s.signTTL)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
		}
		out.Targets = append(out.Targets, SubmitTarget{
			AssetID:      asset.ID,
			FileName:     asset.FileName,
			GCSKey:       asset.GCSKey,
			SignedPUTURL: signedURL,
			ContentType:  asset.MimeType,
			ExpiresAt:    now.Add(s.signTTL),
		})
		// Persist per-file progress so a concurrent session fetch sees the
		// register/sign loop advance. 100 is reserved for a completed submit.
		session.Progress = ((i + 1) * 90) / len(assets)
		if err := s.store.save(ctx, session); err != nil {
			return nil, err
		}
	}

	// Single-flight: the submitted session stays around (with its TTL) so a
	// retried submit surfaces a conflict instead of double-creating assets.
	session.Progress = 100
	session.Submitted = true
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) FinalizeFile(ctx context.Context, practiceID, assetID uuid.UUID) (*models.MediaAsset, error) {
	if assetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}
	asset, err := s.repo.MarkUploaded(ctx, practiceID, assetID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *service) CancelSession(ctx context.Context, practiceID, sessionID uuid.UUID) error {
	if _, err := s.ownedSession(ctx, practiceID, sessionID); err != nil {
		return err
	}
	return s.store.delete(ctx, sessionID)
}

func (s *service) ownedSession(ctx context.Context, practiceID, sessionID uuid.UUID) (*Session, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PracticeID != practiceID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "upload session not found or expired")
	}
	return session, nil
}

func view(session *Session) *SessionView {
	return &SessionView{
		Session:    session,
		Constraint: session.Constraint(),
		ValidFiles: session.ValidCount(),
	}
}

func revalidate(session *Session) {
	constraint := session.Constraint()
	for i, f := range session.Files {
		session.Files[i].Reason = reasonFor(platformspec.FileInfo{
			Name:      f.Name,
			MimeType:  f.MimeType,
			SizeBytes: f.SizeBytes,
		}, constraint)
	}
}

func stageFile(f FileDescriptor, constraint platformspec.Constraint) (PendingFile, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return PendingFile{}, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	mime := strings.TrimSpace(f.MimeType)
	if mime == "" {
		return PendingFile{}, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if f.SizeBytes <= 0 {
		return PendingFile{}, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}

	pending := PendingFile{Name: name, MimeType: mime, SizeBytes: f.SizeBytes}
	if mimetype.Lookup(mime) == nil {
		pending.Reason = fmt.Sprintf("unrecognized file type %q", mime)
		return pending, nil
	}
	pending.Reason = reasonFor(platformspec.FileInfo{Name: name, MimeType: mime, SizeBytes: f.SizeBytes}, constraint)
	return pending, nil
}

func reasonFor(file platformspec.FileInfo, constraint platformspec.Constraint) string {
	if err := platformspec.Validate(file, constraint); err != nil {
		return err.Error()
	}
	return ""
}

func checkPlatforms(platforms []enums.Platform) ([]enums.Platform, error) {
	out := make([]enums.Platform, 0, len(platforms))
	seen := make(map[enums.Platform]struct{}, len(platforms))
	for _, p := range platforms {
		if !p.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", p))
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func normalizeTags(tags []string, maxLen int) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if maxLen > 0 && len(t) > maxLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("tag exceeds %d characters", maxLen))
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

func buildObjectKey(practiceID, assetID uuid.UUID, fileName, mime string) string {
	clean := sanitizeFileName(fileName)
	if clean == "" {
		clean = assetID.String()
		if mt := mimetype.Lookup(mime); mt != nil {
			clean += mt.Extension()
		}
	}
	return fmt.Sprintf("media/%s/%s/%s", practiceID, assetID, clean)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
