package socialposts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/internal/platformspec"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	dbtypes "github.com/orthodeskhq/orthodesk-backend/pkg/db/types"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

const maxCaptionLen = 2200

type postRepository interface {
	Create(ctx context.Context, post *models.SocialPost, mediaIDs []uuid.UUID) (*models.SocialPost, error)
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.SocialPost, error)
	ListAttachments(ctx context.Context, postID uuid.UUID) ([]models.PostMedia, error)
	List(ctx context.Context, practiceID uuid.UUID, status *enums.PostStatus, limit, offset int) ([]models.SocialPost, int64, error)
	Update(ctx context.Context, post *models.SocialPost, mediaIDs []uuid.UUID) (*models.SocialPost, error)
	Delete(ctx context.Context, practiceID, id uuid.UUID) error
}

type assetChecker interface {
	FindByIDs(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID) ([]models.MediaAsset, error)
}

// Service exposes post-composer semantics: drafting, scheduling, editing, and
// cancelling posts whose media must satisfy every targeted platform.
type Service interface {
	Compose(ctx context.Context, userID, practiceID uuid.UUID, input ComposeInput) (*ComposeOutput, error)
	Get(ctx context.Context, practiceID, postID uuid.UUID) (*Post, error)
	List(ctx context.Context, practiceID uuid.UUID, params ListParams) (*ListPage, error)
	Update(ctx context.Context, practiceID, postID uuid.UUID, input ComposeInput) (*ComposeOutput, error)
	Cancel(ctx context.Context, practiceID, postID uuid.UUID) (*Post, error)
	Delete(ctx context.Context, practiceID, postID uuid.UUID) error
}

type service struct {
	repo     postRepository
	assets   assetChecker
	maxMedia int
}

// NewService constructs the post-composer service.
func NewService(repo postRepository, assets assetChecker, cfg config.SocialConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("post repository required")
	}
	if assets == nil {
		return nil, fmt.Errorf("asset checker required")
	}
	if cfg.MaxPostMedia <= 0 {
		return nil, fmt.Errorf("max post media must be positive")
	}
	return &service{repo: repo, assets: assets, maxMedia: cfg.MaxPostMedia}, nil
}

// ComposeInput models a post create/update request. A nil ScheduledAt leaves
// the post in draft.
type ComposeInput struct {
	Caption     string           `json:"caption"`
	Platforms   []enums.Platform `json:"platforms"`
	MediaIDs    []uuid.UUID      `json:"media_ids"`
	ScheduledAt *time.Time       `json:"scheduled_at"`
}

// Post is the client-facing post shape with its ordered media IDs.
type Post struct {
	ID            uuid.UUID        `json:"id"`
	PracticeID    uuid.UUID        `json:"practice_id"`
	Caption       string           `json:"caption"`
	Platforms     []enums.Platform `json:"platforms"`
	Status        enums.PostStatus `json:"status"`
	MediaIDs      []uuid.UUID      `json:"media_ids"`
	ScheduledAt   *time.Time       `json:"scheduled_at"`
	PublishedAt   *time.Time       `json:"published_at"`
	FailureReason *string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ComposeOutput wraps the saved post. Warning is set when the media list was
// truncated to the composer cap.
type ComposeOutput struct {
	Post    *Post  `json:"post"`
	Warning string `json:"warning,omitempty"`
}

// ListParams pages the post listing, optionally by status.
type ListParams struct {
	Status string
	Page   int
	Limit  int
}

// ListPage is one page of posts.
type ListPage struct {
	Posts []Post `json:"posts"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Total int64  `json:"total"`
}

func (s *service) Compose(ctx context.Context, userID, practiceID uuid.UUID, input ComposeInput) (*ComposeOutput, error) {
	if userID == uuid.Nil || practiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and practice identity required")
	}
	caption, platforms, err := validateComposeBasics(input)
	if err != nil {
		return nil, err
	}

	mediaIDs, warning, err := s.checkMedia(ctx, practiceID, input.MediaIDs, platforms)
	if err != nil {
		return nil, err
	}

	status := enums.PostStatusDraft
	if input.ScheduledAt != nil {
		if input.ScheduledAt.Before(time.Now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_at must be in the future")
		}
		status = enums.PostStatusScheduled
	}

	row := &models.SocialPost{
		ID:          uuid.New(),
		PracticeID:  practiceID,
		UserID:      userID,
		Caption:     caption,
		Platforms:   platformStrings(platforms),
		Status:      status,
		ScheduledAt: input.ScheduledAt,
	}
	if _, err := s.repo.Create(ctx, row, mediaIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create post")
	}

	return &ComposeOutput{Post: toPost(row, mediaIDs), Warning: warning}, nil
}

func (s *service) Get(ctx context.Context, practiceID, postID uuid.UUID) (*Post, error) {
	row, mediaIDs, err := s.fetch(ctx, practiceID, postID)
	if err != nil {
		return nil, err
	}
	return toPost(row, mediaIDs), nil
}

func (s *service) List(ctx context.Context, practiceID uuid.UUID, params ListParams) (*ListPage, error) {
	if practiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice identity missing")
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	var status *enums.PostStatus
	if raw := strings.TrimSpace(params.Status); raw != "" {
		parsed, err := enums.ParsePostStatus(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown post status")
		}
		status = &parsed
	}

	rows, total, err := s.repo.List(ctx, practiceID, status, limit, (page-1)*limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list posts")
	}

	out := &ListPage{Page: page, Limit: limit, Total: total, Posts: make([]Post, len(rows))}
	for i := range rows {
		attachments, err := s.repo.ListAttachments(ctx, rows[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list post media")
		}
		out.Posts[i] = *toPost(&rows[i], attachmentIDs(attachments))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, practiceID, postID uuid.UUID, input ComposeInput) (*ComposeOutput, error) {
	row, _, err := s.fetch(ctx, practiceID, postID)
	if err != nil {
		return nil, err
	}
	if row.Status != enums.PostStatusDraft && row.Status != enums.PostStatusScheduled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft or scheduled posts can be edited")
	}

	caption, platforms, err := validateComposeBasics(input)
	if err != nil {
		return nil, err
	}
	mediaIDs, warning, err := s.checkMedia(ctx, practiceID, input.MediaIDs, platforms)
	if err != nil {
		return nil, err
	}

	row.Caption = caption
	row.Platforms = platformStrings(platforms)
	row.ScheduledAt = input.ScheduledAt
	if input.ScheduledAt != nil {
		if input.ScheduledAt.Before(time.Now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_at must be in the future")
		}
		row.Status = enums.PostStatusScheduled
	} else {
		row.Status = enums.PostStatusDraft
	}

	if _, err := s.repo.Update(ctx, row, mediaIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update post")
	}
	return &ComposeOutput{Post: toPost(row, mediaIDs), Warning: warning}, nil
}

// Cancel pulls a scheduled post back to draft before the worker claims it.
func (s *service) Cancel(ctx context.Context, practiceID, postID uuid.UUID) (*Post, error) {
	row, mediaIDs, err := s.fetch(ctx, practiceID, postID)
	if err != nil {
		return nil, err
	}
	if row.Status != enums.PostStatusScheduled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only scheduled posts can be cancelled")
	}
	row.Status = enums.PostStatusDraft
	row.ScheduledAt = nil
	if _, err := s.repo.Update(ctx, row, mediaIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel post")
	}
	return toPost(row, mediaIDs), nil
}

func (s *service) Delete(ctx context.Context, practiceID, postID uuid.UUID) error {
	row, _, err := s.fetch(ctx, practiceID, postID)
	if err != nil {
		return err
	}
	if row.Status == enums.PostStatusPublished {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "published posts cannot be deleted")
	}
	if err := s.repo.Delete(ctx, practiceID, postID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete post")
	}
	return nil
}

func (s *service) fetch(ctx context.Context, practiceID, postID uuid.UUID) (*models.SocialPost, []uuid.UUID, error) {
	if practiceID == uuid.Nil || postID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "practice and post ids are required")
	}
	row, err := s.repo.FindByID(ctx, practiceID, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch post")
	}
	attachments, err := s.repo.ListAttachments(ctx, row.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list post media")
	}
	return row, attachmentIDs(attachments), nil
}

// checkMedia dedupes the attachment list, enforces the composer cap by
// truncation, and validates every surviving asset against the intersection of
// the targeted platforms.
func (s *service) checkMedia(ctx context.Context, practiceID uuid.UUID, mediaIDs []uuid.UUID, platforms []enums.Platform) ([]uuid.UUID, string, error) {
	deduped := make([]uuid.UUID, 0, len(mediaIDs))
	seen := make(map[uuid.UUID]struct{}, len(mediaIDs))
	for _, id := range mediaIDs {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}

	warning := ""
	if len(deduped) > s.maxMedia {
		deduped = deduped[:s.maxMedia]
		warning = fmt.Sprintf("media list truncated to the first %d items", s.maxMedia)
	}
	if len(deduped) == 0 {
		return nil, warning, nil
	}

	rows, err := s.assets.FindByIDs(ctx, practiceID, deduped)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch post media")
	}
	byID := make(map[uuid.UUID]models.MediaAsset, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	constraint := platformspec.Effective(platforms)
	for _, id := range deduped {
		row, ok := byID[id]
		if !ok || row.Status != enums.MediaStatusUploaded {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "attached media is missing or not uploaded yet")
		}
		if err := platformspec.Validate(platformspec.FileInfo{
			Name:      row.FileName,
			MimeType:  row.MimeType,
			SizeBytes: row.SizeBytes,
		}, constraint); err != nil {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s: %s", row.FileName, err.Error()))
		}
	}
	return deduped, warning, nil
}

func validateComposeBasics(input ComposeInput) (string, []enums.Platform, error) {
	caption := strings.TrimSpace(input.Caption)
	if caption == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "caption is required")
	}
	if len(caption) > maxCaptionLen {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("caption exceeds %d characters", maxCaptionLen))
	}
	if len(input.Platforms) == 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one platform is required")
	}
	platforms := make([]enums.Platform, 0, len(input.Platforms))
	seen := make(map[enums.Platform]struct{}, len(input.Platforms))
	for _, p := range input.Platforms {
		if !p.IsValid() {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", p))
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		platforms = append(platforms, p)
	}
	return caption, platforms, nil
}

func platformStrings(platforms []enums.Platform) dbtypes.StringArray {
	out := make(dbtypes.StringArray, len(platforms))
	for i, p := range platforms {
		out[i] = p.String()
	}
	return out
}

func attachmentIDs(rows []models.PostMedia) []uuid.UUID {
	out := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		out[i] = row.MediaAssetID
	}
	return out
}

func toPost(row *models.SocialPost, mediaIDs []uuid.UUID) *Post {
	return &Post{
		ID:            row.ID,
		PracticeID:    row.PracticeID,
		Caption:       row.Caption,
		Platforms:     row.PlatformList(),
		Status:        row.Status,
		MediaIDs:      mediaIDs,
		ScheduledAt:   row.ScheduledAt,
		PublishedAt:   row.PublishedAt,
		FailureReason: row.FailureReason,
		CreatedAt:     row.CreatedAt,
	}
}
