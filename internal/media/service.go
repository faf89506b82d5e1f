package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

type assetRepository interface {
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.MediaAsset, error)
	FindByIDs(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID) ([]models.MediaAsset, error)
	List(ctx context.Context, q listQuery) ([]models.MediaAsset, error)
	Search(ctx context.Context, q searchQuery) ([]models.MediaAsset, error)
	UpdateTags(ctx context.Context, practiceID, id uuid.UUID, tags []string) (*models.MediaAsset, error)
	ListUsedTags(ctx context.Context, practiceID uuid.UUID) ([]string, error)
	MoveBatch(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID, folderID *uuid.UUID) (int64, error)
	MarkDeleted(ctx context.Context, practiceID, id uuid.UUID) (*models.MediaAsset, error)
}

type folderRepository interface {
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Folder, error)
	FindByIDs(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID) ([]models.Folder, error)
}

type gcsClient interface {
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Service exposes media-library semantics: listing, grouped search, tagging,
// moving between folders, and deletion.
type Service interface {
	ListMedia(ctx context.Context, params ListParams) (*ListResult, error)
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
	GetAsset(ctx context.Context, practiceID, assetID uuid.UUID) (*Asset, error)
	UpdateTags(ctx context.Context, practiceID, assetID uuid.UUID, tags []string) (*Asset, error)
	UsedTags(ctx context.Context, practiceID uuid.UUID) ([]string, error)
	Move(ctx context.Context, practiceID uuid.UUID, assetIDs []uuid.UUID, folderID *uuid.UUID) (int64, error)
	Delete(ctx context.Context, practiceID, assetID uuid.UUID) error
}

type service struct {
	repo        assetRepository
	folders     folderRepository
	gcs         gcsClient
	bucket      string
	downloadTTL time.Duration
	maxTagLen   int
}

// NewService constructs the media-library service.
func NewService(repo assetRepository, folders folderRepository, gcs gcsClient, bucket string, downloadTTL time.Duration, maxTagLen int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if folders == nil {
		return nil, fmt.Errorf("folder repository required")
	}
	if gcs == nil {
		return nil, fmt.Errorf("gcs client required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if downloadTTL <= 0 {
		return nil, fmt.Errorf("download ttl must be positive")
	}
	return &service{
		repo:        repo,
		folders:     folders,
		gcs:         gcs,
		bucket:      bucket,
		downloadTTL: downloadTTL,
		maxTagLen:   maxTagLen,
	}, nil
}

// Asset is the client-facing shape of a media record, including a short-lived
// signed read URL for uploaded assets.
type Asset struct {
	ID         uuid.UUID         `json:"id"`
	PracticeID uuid.UUID         `json:"practice_id"`
	FolderID   *uuid.UUID        `json:"folder_id"`
	Kind       enums.MediaKind   `json:"kind"`
	Status     enums.MediaStatus `json:"status"`
	FileName   string            `json:"file_name"`
	MimeType   string            `json:"mime_type"`
	SizeBytes  int64             `json:"size_bytes"`
	Tags       []string          `json:"tags"`
	CreatedAt  time.Time         `json:"created_at"`
	UploadedAt *time.Time        `json:"uploaded_at"`
	SignedURL  string            `json:"signed_url,omitempty"`
}

// SearchParams filters the grouped search across the whole library.
type SearchParams struct {
	PracticeID uuid.UUID
	Kind       string // "all", "image", or "video"
	Search     string
	Tags       []string
}

// FolderGroup is one folder's slice of a search result. A nil Folder means
// unfiled assets.
type FolderGroup struct {
	Folder *FolderRef `json:"folder"`
	Assets []Asset    `json:"assets"`
}

// FolderRef is the minimal folder identity carried in grouped results.
type FolderRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SearchResult is the grouped-by-folder search response.
type SearchResult struct {
	Groups []FolderGroup `json:"groups"`
	Total  int           `json:"total"`
}

func (s *service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.PracticeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice identity missing")
	}

	q := searchQuery{
		practiceID: params.PracticeID,
		search:     strings.TrimSpace(params.Search),
		tags:       trimTags(params.Tags),
	}
	switch strings.ToLower(strings.TrimSpace(params.Kind)) {
	case "", "all":
	case "image", "images":
		kind := enums.MediaKindImage
		q.kind = &kind
	case "video", "videos":
		kind := enums.MediaKindVideo
		q.kind = &kind
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kind must be all, image, or video")
	}

	rows, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search media")
	}

	names, err := s.folderNames(ctx, params.PracticeID, rows)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Total: len(rows)}
	var current *FolderGroup
	for _, row := range rows {
		key := folderKey(row.FolderID)
		if current == nil || folderKeyOf(current) != key {
			group := FolderGroup{}
			if row.FolderID != nil {
				group.Folder = &FolderRef{ID: *row.FolderID, Name: names[*row.FolderID]}
			}
			result.Groups = append(result.Groups, group)
			current = &result.Groups[len(result.Groups)-1]
		}
		asset, err := s.toAsset(row)
		if err != nil {
			return nil, err
		}
		current.Assets = append(current.Assets, asset)
	}
	return result, nil
}

func (s *service) GetAsset(ctx context.Context, practiceID, assetID uuid.UUID) (*Asset, error) {
	if practiceID == uuid.Nil || assetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice and asset ids are required")
	}
	row, err := s.repo.FindByID(ctx, practiceID, assetID)
	if err != nil {
		return nil, wrapRepoErr(err, "fetch media asset")
	}
	if row.Status == enums.MediaStatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media asset not found")
	}
	asset, err := s.toAsset(*row)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *service) UpdateTags(ctx context.Context, practiceID, assetID uuid.UUID, tags []string) (*Asset, error) {
	if practiceID == uuid.Nil || assetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice and asset ids are required")
	}
	clean := trimTags(tags)
	for _, t := range clean {
		if s.maxTagLen > 0 && len(t) > s.maxTagLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("tag exceeds %d characters", s.maxTagLen))
		}
	}

	row, err := s.repo.UpdateTags(ctx, practiceID, assetID, clean)
	if err != nil {
		return nil, wrapRepoErr(err, "update media tags")
	}
	asset, err := s.toAsset(*row)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *service) UsedTags(ctx context.Context, practiceID uuid.UUID) ([]string, error) {
	if practiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice identity missing")
	}
	tags, err := s.repo.ListUsedTags(ctx, practiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media tags")
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func (s *service) Move(ctx context.Context, practiceID uuid.UUID, assetIDs []uuid.UUID, folderID *uuid.UUID) (int64, error) {
	if practiceID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "practice identity missing")
	}
	if len(assetIDs) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one asset id is required")
	}
	if folderID != nil {
		if _, err := s.folders.FindByID(ctx, practiceID, *folderID); err != nil {
			return 0, wrapRepoErr(err, "fetch destination folder")
		}
	}
	moved, err := s.repo.MoveBatch(ctx, practiceID, assetIDs, folderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move media assets")
	}
	return moved, nil
}

func (s *service) Delete(ctx context.Context, practiceID, assetID uuid.UUID) error {
	if practiceID == uuid.Nil || assetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "practice and asset ids are required")
	}
	row, err := s.repo.MarkDeleted(ctx, practiceID, assetID)
	if err != nil {
		return wrapRepoErr(err, "delete media asset")
	}
	// Object removal is best-effort here; the reaper sweeps leftovers.
	if err := s.gcs.DeleteObject(ctx, s.bucket, row.GCSKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete media object")
	}
	return nil
}

func (s *service) toAsset(row models.MediaAsset) (Asset, error) {
	asset := Asset{
		ID:         row.ID,
		PracticeID: row.PracticeID,
		FolderID:   row.FolderID,
		Kind:       row.Kind,
		Status:     row.Status,
		FileName:   row.FileName,
		MimeType:   row.MimeType,
		SizeBytes:  row.SizeBytes,
		Tags:       row.Tags,
		CreatedAt:  row.CreatedAt,
		UploadedAt: row.UploadedAt,
	}
	if row.Status == enums.MediaStatusUploaded {
		url, err := s.gcs.SignedReadURL(s.bucket, row.GCSKey, s.downloadTTL)
		if err != nil {
			return Asset{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate signed read url")
		}
		asset.SignedURL = url
	}
	return asset, nil
}

func (s *service) folderNames(ctx context.Context, practiceID uuid.UUID, rows []models.MediaAsset) (map[uuid.UUID]string, error) {
	idSet := make(map[uuid.UUID]struct{})
	for _, row := range rows {
		if row.FolderID != nil {
			idSet[*row.FolderID] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	folders, err := s.folders.FindByIDs(ctx, practiceID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve folder names")
	}
	names := make(map[uuid.UUID]string, len(folders))
	for _, f := range folders {
		names[f.ID] = f.Name
	}
	return names, nil
}

func folderKey(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func folderKeyOf(group *FolderGroup) string {
	if group.Folder == nil {
		return ""
	}
	return group.Folder.ID.String()
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func wrapRepoErr(err error, msg string) error {
	if isNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media asset or folder not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
