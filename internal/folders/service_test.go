package folders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

type stubFolderRepo struct {
	folders     map[uuid.UUID]*models.Folder
	assetCounts map[uuid.UUID]int64
	deletedID   uuid.UUID
}

func newStubFolderRepo() *stubFolderRepo {
	return &stubFolderRepo{
		folders:     map[uuid.UUID]*models.Folder{},
		assetCounts: map[uuid.UUID]int64{},
	}
}

func (s *stubFolderRepo) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	s.folders[folder.ID] = folder
	return folder, nil
}

func (s *stubFolderRepo) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Folder, error) {
	f, ok := s.folders[id]
	if !ok || f.PracticeID != practiceID {
		return nil, gorm.ErrRecordNotFound
	}
	return f, nil
}

func (s *stubFolderRepo) ListChildren(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID) ([]models.Folder, error) {
	var out []models.Folder
	for _, f := range s.folders {
		if f.PracticeID != practiceID {
			continue
		}
		switch {
		case parentID == nil && f.ParentID == nil:
			out = append(out, *f)
		case parentID != nil && f.ParentID != nil && *f.ParentID == *parentID:
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *stubFolderRepo) ListPaged(ctx context.Context, practiceID uuid.UUID, page, limit int) ([]models.Folder, int64, error) {
	var out []models.Folder
	for _, f := range s.folders {
		if f.PracticeID == practiceID {
			out = append(out, *f)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubFolderRepo) AssetCounts(ctx context.Context, practiceID uuid.UUID, folderIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(folderIDs))
	for _, id := range folderIDs {
		if n, ok := s.assetCounts[id]; ok {
			counts[id] = n
		}
	}
	return counts, nil
}

func (s *stubFolderRepo) NameExists(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID, name string) (bool, error) {
	siblings, _ := s.ListChildren(ctx, practiceID, parentID)
	for _, f := range siblings {
		if f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubFolderRepo) Rename(ctx context.Context, practiceID, id uuid.UUID, name string) (*models.Folder, error) {
	f, err := s.FindByID(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}
	f.Name = name
	return f, nil
}

func (s *stubFolderRepo) Delete(ctx context.Context, practiceID, id uuid.UUID) error {
	if _, err := s.FindByID(ctx, practiceID, id); err != nil {
		return err
	}
	delete(s.folders, id)
	s.deletedID = id
	return nil
}

func newFolderService(t *testing.T, repo *stubFolderRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateFolderTrimsName(t *testing.T) {
	t.Parallel()

	repo := newStubFolderRepo()
	svc := newFolderService(t, repo)

	folder, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{Name: "  Patients  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if folder.Name != "Patients" {
		t.Fatalf("expected trimmed name, got %q", folder.Name)
	}
}

func TestCreateFolderRejectsDuplicateSibling(t *testing.T) {
	t.Parallel()

	repo := newStubFolderRepo()
	svc := newFolderService(t, repo)
	practiceID := uuid.New()
	userID := uuid.New()

	if _, err := svc.Create(context.Background(), userID, practiceID, CreateInput{Name: "Cases"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), userID, practiceID, CreateInput{Name: "Cases"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateFolderValidatesParent(t *testing.T) {
	t.Parallel()

	repo := newStubFolderRepo()
	svc := newFolderService(t, repo)
	missing := uuid.New()

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{Name: "Orphan", ParentID: &missing})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found for missing parent, got %v", err)
	}
}

func TestGetReturnsSubfolders(t *testing.T) {
	t.Parallel()

	repo := newStubFolderRepo()
	svc := newFolderService(t, repo)
	practiceID := uuid.New()
	userID := uuid.New()

	parent, err := svc.Create(context.Background(), userID, practiceID, CreateInput{Name: "2026"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if _, err := svc.Create(context.Background(), userID, practiceID, CreateInput{Name: "Q1", ParentID: &parent.ID}); err != nil {
		t.Fatalf("create child: %v", err)
	}

	details, err := svc.Get(context.Background(), practiceID, parent.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(details.Subfolders) != 1 || details.Subfolders[0].Name != "Q1" {
		t.Fatalf("unexpected subfolders: %+v", details.Subfolders)
	}
}

func TestFolderShapesCarryItemCount(t *testing.T) {
	t.Parallel()

	repo := newStubFolderRepo()
	svc := newFolderService(t, repo)
	practiceID := uuid.New()
	userID := uuid.New()

	parent, err := svc.Create(context.Background(), userID, practiceID, CreateInput{Name: "Cases"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := svc.Create(context.Background(), userID, practiceID, CreateInput{Name: "Retainers", ParentID: &parent.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	repo.assetCounts[parent.ID] = 4
	repo.assetCounts[child.ID] = 2

	details, err := svc.Get(context.Background(), practiceID, parent.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if details.Folder.ItemCount != 4 {
		t.Fatalf("expected 4 items in parent, got %d", details.Folder.ItemCount)
	}
	if len(details.Subfolders) != 1 || details.Subfolders[0].ItemCount != 2 {
		t.Fatalf("expected subfolder count 2, got %+v", details.Subfolders)
	}

	page, err := svc.List(context.Background(), practiceID, 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	byID := make(map[uuid.UUID]int64, len(page.Folders))
	for _, f := range page.Folders {
		byID[f.ID] = f.ItemCount
	}
	if byID[parent.ID] != 4 || byID[child.ID] != 2 {
		t.Fatalf("unexpected listed counts: %v", byID)
	}

	roots, err := svc.ListChildren(context.Background(), practiceID, nil)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(roots) != 1 || roots[0].ItemCount != 4 {
		t.Fatalf("expected root count 4, got %+v", roots)
	}
}

func TestRenameChecksSiblingConflict(t *testing.T) {
	t.Parallel()

	repo := newStubFolderRepo()
	svc := newFolderService(t, repo)
	practiceID := uuid.New()
	userID := uuid.New()

	a, _ := svc.Create(context.Background(), userID, practiceID, CreateInput{Name: "A"})
	if _, err := svc.Create(context.Background(), userID, practiceID, CreateInput{Name: "B"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Rename(context.Background(), practiceID, a.ID, "B")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	renamed, err := svc.Rename(context.Background(), practiceID, a.ID, "A2")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Name != "A2" {
		t.Fatalf("unexpected name %q", renamed.Name)
	}
}

func TestDeleteMissingFolder(t *testing.T) {
	t.Parallel()

	svc := newFolderService(t, newStubFolderRepo())
	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}
