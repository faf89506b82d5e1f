package media

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	dbtypes "github.com/orthodeskhq/orthodesk-backend/pkg/db/types"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

type stubAssetRepo struct {
	assets      map[uuid.UUID]*models.MediaAsset
	searchRows  []models.MediaAsset
	lastSearch  searchQuery
	movedIDs    []uuid.UUID
	movedFolder *uuid.UUID
	updatedTags []string
}

func newStubAssetRepo() *stubAssetRepo {
	return &stubAssetRepo{assets: map[uuid.UUID]*models.MediaAsset{}}
}

func (s *stubAssetRepo) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.MediaAsset, error) {
	a, ok := s.assets[id]
	if !ok || a.PracticeID != practiceID {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (s *stubAssetRepo) FindByIDs(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID) ([]models.MediaAsset, error) {
	var out []models.MediaAsset
	for _, id := range ids {
		if a, ok := s.assets[id]; ok && a.PracticeID == practiceID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *stubAssetRepo) List(ctx context.Context, q listQuery) ([]models.MediaAsset, error) {
	return s.searchRows, nil
}

func (s *stubAssetRepo) Search(ctx context.Context, q searchQuery) ([]models.MediaAsset, error) {
	s.lastSearch = q
	return s.searchRows, nil
}

func (s *stubAssetRepo) UpdateTags(ctx context.Context, practiceID, id uuid.UUID, tags []string) (*models.MediaAsset, error) {
	a, ok := s.assets[id]
	if !ok || a.PracticeID != practiceID {
		return nil, gorm.ErrRecordNotFound
	}
	s.updatedTags = tags
	a.Tags = dbtypes.StringArray(tags)
	return a, nil
}

func (s *stubAssetRepo) ListUsedTags(ctx context.Context, practiceID uuid.UUID) ([]string, error) {
	seen := map[string]struct{}{}
	var tags []string
	for _, a := range s.assets {
		if a.PracticeID != practiceID || a.Status == enums.MediaStatusDeleted {
			continue
		}
		for _, t := range a.Tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *stubAssetRepo) MoveBatch(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID, folderID *uuid.UUID) (int64, error) {
	s.movedIDs = ids
	s.movedFolder = folderID
	return int64(len(ids)), nil
}

func (s *stubAssetRepo) MarkDeleted(ctx context.Context, practiceID, id uuid.UUID) (*models.MediaAsset, error) {
	a, ok := s.assets[id]
	if !ok || a.PracticeID != practiceID {
		return nil, gorm.ErrRecordNotFound
	}
	a.Status = enums.MediaStatusDeleted
	return a, nil
}

type stubFolderRepo struct {
	folders map[uuid.UUID]*models.Folder
}

func (s *stubFolderRepo) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Folder, error) {
	f, ok := s.folders[id]
	if !ok || f.PracticeID != practiceID {
		return nil, gorm.ErrRecordNotFound
	}
	return f, nil
}

func (s *stubFolderRepo) FindByIDs(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID) ([]models.Folder, error) {
	var out []models.Folder
	for _, id := range ids {
		if f, ok := s.folders[id]; ok && f.PracticeID == practiceID {
			out = append(out, *f)
		}
	}
	return out, nil
}

type stubGCS struct {
	deleted []string
}

func (s *stubGCS) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	return "https://read.example/" + object, nil
}

func (s *stubGCS) DeleteObject(ctx context.Context, bucket, object string) error {
	s.deleted = append(s.deleted, object)
	return nil
}

func newLibraryService(t *testing.T, repo *stubAssetRepo, folders *stubFolderRepo, gcs *stubGCS) Service {
	t.Helper()
	svc, err := NewService(repo, folders, gcs, "bucket", time.Minute, 40)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func uploadedAsset(practiceID uuid.UUID, folderID *uuid.UUID, name string) models.MediaAsset {
	now := time.Now()
	return models.MediaAsset{
		ID:         uuid.New(),
		PracticeID: practiceID,
		FolderID:   folderID,
		Kind:       enums.MediaKindImage,
		Status:     enums.MediaStatusUploaded,
		GCSKey:     "media/" + name,
		FileName:   name,
		MimeType:   "image/jpeg",
		SizeBytes:  100,
		UploadedAt: &now,
		CreatedAt:  now,
	}
}

func TestSearchGroupsByFolder(t *testing.T) {
	t.Parallel()

	practiceID := uuid.New()
	folderID := uuid.New()
	repo := newStubAssetRepo()
	folders := &stubFolderRepo{folders: map[uuid.UUID]*models.Folder{
		folderID: {ID: folderID, PracticeID: practiceID, Name: "Before & After"},
	}}

	// Rows arrive ordered by folder, unfiled first, like the repo returns them.
	repo.searchRows = []models.MediaAsset{
		uploadedAsset(practiceID, nil, "loose.jpg"),
		uploadedAsset(practiceID, &folderID, "case1.jpg"),
		uploadedAsset(practiceID, &folderID, "case2.jpg"),
	}

	svc := newLibraryService(t, repo, folders, &stubGCS{})
	result, err := svc.Search(context.Background(), SearchParams{
		PracticeID: practiceID,
		Kind:       "image",
		Tags:       []string{" before ", ""},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if result.Total != 3 {
		t.Fatalf("expected 3 results, got %d", result.Total)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}
	if result.Groups[0].Folder != nil {
		t.Fatal("first group should be unfiled")
	}
	if result.Groups[1].Folder == nil || result.Groups[1].Folder.Name != "Before & After" {
		t.Fatalf("second group should carry the folder name, got %+v", result.Groups[1].Folder)
	}
	if len(result.Groups[1].Assets) != 2 {
		t.Fatalf("expected 2 assets in folder group, got %d", len(result.Groups[1].Assets))
	}
	if result.Groups[0].Assets[0].SignedURL == "" {
		t.Fatal("uploaded assets should carry a signed read url")
	}
	if len(repo.lastSearch.tags) != 1 || repo.lastSearch.tags[0] != "before" {
		t.Fatalf("tags should be trimmed before querying, got %v", repo.lastSearch.tags)
	}
}

func TestSearchRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	svc := newLibraryService(t, newStubAssetRepo(), &stubFolderRepo{}, &stubGCS{})
	_, err := svc.Search(context.Background(), SearchParams{PracticeID: uuid.New(), Kind: "audio"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateTagsTrimsAndDedupes(t *testing.T) {
	t.Parallel()

	practiceID := uuid.New()
	repo := newStubAssetRepo()
	asset := uploadedAsset(practiceID, nil, "a.jpg")
	repo.assets[asset.ID] = &asset

	svc := newLibraryService(t, repo, &stubFolderRepo{}, &stubGCS{})
	updated, err := svc.UpdateTags(context.Background(), practiceID, asset.ID, []string{" invisalign ", "Invisalign", "", "retainer"})
	if err != nil {
		t.Fatalf("UpdateTags: %v", err)
	}
	if len(updated.Tags) != 2 {
		t.Fatalf("expected 2 tags after dedupe, got %v", updated.Tags)
	}
}

func TestUsedTagsSkipsDeleted(t *testing.T) {
	t.Parallel()

	practiceID := uuid.New()
	repo := newStubAssetRepo()

	tagged := uploadedAsset(practiceID, nil, "a.jpg")
	tagged.Tags = dbtypes.StringArray{"invisalign", "retainer"}
	repo.assets[tagged.ID] = &tagged

	gone := uploadedAsset(practiceID, nil, "b.jpg")
	gone.Status = enums.MediaStatusDeleted
	gone.Tags = dbtypes.StringArray{"archived"}
	repo.assets[gone.ID] = &gone

	svc := newLibraryService(t, repo, &stubFolderRepo{}, &stubGCS{})
	tags, err := svc.UsedTags(context.Background(), practiceID)
	if err != nil {
		t.Fatalf("UsedTags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "invisalign" || tags[1] != "retainer" {
		t.Fatalf("expected tags from live assets only, got %v", tags)
	}
}

func TestMoveValidatesDestinationFolder(t *testing.T) {
	t.Parallel()

	practiceID := uuid.New()
	repo := newStubAssetRepo()
	svc := newLibraryService(t, repo, &stubFolderRepo{folders: map[uuid.UUID]*models.Folder{}}, &stubGCS{})

	missing := uuid.New()
	_, err := svc.Move(context.Background(), practiceID, []uuid.UUID{uuid.New()}, &missing)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found for missing folder, got %v", err)
	}

	moved, err := svc.Move(context.Background(), practiceID, []uuid.UUID{uuid.New(), uuid.New()}, nil)
	if err != nil {
		t.Fatalf("Move to unfiled: %v", err)
	}
	if moved != 2 {
		t.Fatalf("expected 2 moved, got %d", moved)
	}
}

func TestDeleteRemovesObjectAfterSoftDelete(t *testing.T) {
	t.Parallel()

	practiceID := uuid.New()
	repo := newStubAssetRepo()
	asset := uploadedAsset(practiceID, nil, "gone.jpg")
	repo.assets[asset.ID] = &asset
	gcs := &stubGCS{}

	svc := newLibraryService(t, repo, &stubFolderRepo{}, gcs)
	if err := svc.Delete(context.Background(), practiceID, asset.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if asset.Status != enums.MediaStatusDeleted {
		t.Fatalf("expected deleted status, got %s", asset.Status)
	}
	if len(gcs.deleted) != 1 || gcs.deleted[0] != asset.GCSKey {
		t.Fatalf("expected object %q deleted, got %v", asset.GCSKey, gcs.deleted)
	}
}

func TestGetAssetHidesDeleted(t *testing.T) {
	t.Parallel()

	practiceID := uuid.New()
	repo := newStubAssetRepo()
	asset := uploadedAsset(practiceID, nil, "hidden.jpg")
	asset.Status = enums.MediaStatusDeleted
	repo.assets[asset.ID] = &asset

	svc := newLibraryService(t, repo, &stubFolderRepo{}, &stubGCS{})
	_, err := svc.GetAsset(context.Background(), practiceID, asset.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}
