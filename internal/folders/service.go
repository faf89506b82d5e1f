package folders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

const (
	maxFolderNameLen = 120

	defaultPageLimit = 25
	maxPageLimit     = 100
)

type folderRepository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Folder, error)
	ListChildren(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID) ([]models.Folder, error)
	ListPaged(ctx context.Context, practiceID uuid.UUID, page, limit int) ([]models.Folder, int64, error)
	AssetCounts(ctx context.Context, practiceID uuid.UUID, folderIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	NameExists(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID, name string) (bool, error)
	Rename(ctx context.Context, practiceID, id uuid.UUID, name string) (*models.Folder, error)
	Delete(ctx context.Context, practiceID, id uuid.UUID) error
}

// Service exposes folder-tree semantics. The tree is materialized lazily:
// callers only ever see one level of children at a time.
type Service interface {
	Create(ctx context.Context, userID, practiceID uuid.UUID, input CreateInput) (*Folder, error)
	Get(ctx context.Context, practiceID, folderID uuid.UUID) (*Details, error)
	List(ctx context.Context, practiceID uuid.UUID, page, limit int) (*Page, error)
	ListChildren(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID) ([]Folder, error)
	Rename(ctx context.Context, practiceID, folderID uuid.UUID, name string) (*Folder, error)
	Delete(ctx context.Context, practiceID, folderID uuid.UUID) error
}

type service struct {
	repo folderRepository
}

// NewService constructs the folder service.
func NewService(repo folderRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("folder repository required")
	}
	return &service{repo: repo}, nil
}

// CreateInput models a folder-creation request.
type CreateInput struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// Folder is the client-facing folder shape. ItemCount is the number of live
// assets filed directly in the folder, not a recursive total.
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Name      string     `json:"name"`
	ItemCount int64      `json:"item_count"`
	CreatedAt time.Time  `json:"created_at"`
}

// Details is a folder plus its direct subfolders.
type Details struct {
	Folder     Folder   `json:"folder"`
	Subfolders []Folder `json:"subfolders"`
}

// Page is one page of the flat folder listing.
type Page struct {
	Folders []Folder `json:"folders"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
	Total   int64    `json:"total"`
}

func (s *service) Create(ctx context.Context, userID, practiceID uuid.UUID, input CreateInput) (*Folder, error) {
	if userID == uuid.Nil || practiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and practice identity required")
	}
	name, err := cleanName(input.Name)
	if err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, practiceID, *input.ParentID); err != nil {
			return nil, asFolderErr(err, "fetch parent folder")
		}
	}
	taken, err := s.repo.NameExists(ctx, practiceID, input.ParentID, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check folder name")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a folder with this name already exists here")
	}

	row, err := s.repo.Create(ctx, &models.Folder{
		ID:         uuid.New(),
		PracticeID: practiceID,
		UserID:     userID,
		ParentID:   input.ParentID,
		Name:       name,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create folder")
	}
	out := toFolder(*row)
	return &out, nil
}

func (s *service) Get(ctx context.Context, practiceID, folderID uuid.UUID) (*Details, error) {
	if practiceID == uuid.Nil || folderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice and folder ids are required")
	}
	row, err := s.repo.FindByID(ctx, practiceID, folderID)
	if err != nil {
		return nil, asFolderErr(err, "fetch folder")
	}
	children, err := s.repo.ListChildren(ctx, practiceID, &folderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subfolders")
	}
	all := make([]Folder, 0, 1+len(children))
	all = append(all, toFolder(*row))
	for _, c := range children {
		all = append(all, toFolder(c))
	}
	if err := s.fillItemCounts(ctx, practiceID, all); err != nil {
		return nil, err
	}
	return &Details{Folder: all[0], Subfolders: all[1:]}, nil
}

func (s *service) List(ctx context.Context, practiceID uuid.UUID, page, limit int) (*Page, error) {
	if practiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice identity missing")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	rows, total, err := s.repo.ListPaged(ctx, practiceID, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list folders")
	}
	out := &Page{Page: page, Limit: limit, Total: total, Folders: make([]Folder, len(rows))}
	for i, row := range rows {
		out.Folders[i] = toFolder(row)
	}
	if err := s.fillItemCounts(ctx, practiceID, out.Folders); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ListChildren(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID) ([]Folder, error) {
	if practiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice identity missing")
	}
	rows, err := s.repo.ListChildren(ctx, practiceID, parentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list folders")
	}
	out := make([]Folder, len(rows))
	for i, row := range rows {
		out[i] = toFolder(row)
	}
	if err := s.fillItemCounts(ctx, practiceID, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Rename(ctx context.Context, practiceID, folderID uuid.UUID, name string) (*Folder, error) {
	if practiceID == uuid.Nil || folderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice and folder ids are required")
	}
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.FindByID(ctx, practiceID, folderID)
	if err != nil {
		return nil, asFolderErr(err, "fetch folder")
	}
	if !strings.EqualFold(current.Name, clean) {
		taken, err := s.repo.NameExists(ctx, practiceID, current.ParentID, clean)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check folder name")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a folder with this name already exists here")
		}
	}
	row, err := s.repo.Rename(ctx, practiceID, folderID, clean)
	if err != nil {
		return nil, asFolderErr(err, "rename folder")
	}
	out := []Folder{toFolder(*row)}
	if err := s.fillItemCounts(ctx, practiceID, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) Delete(ctx context.Context, practiceID, folderID uuid.UUID) error {
	if practiceID == uuid.Nil || folderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "practice and folder ids are required")
	}
	if err := s.repo.Delete(ctx, practiceID, folderID); err != nil {
		return asFolderErr(err, "delete folder")
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "folder name is required")
	}
	if len(name) > maxFolderNameLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("folder name exceeds %d characters", maxFolderNameLen))
	}
	return name, nil
}

// fillItemCounts stamps each folder with its live-asset count in one query.
func (s *service) fillItemCounts(ctx context.Context, practiceID uuid.UUID, folders []Folder) error {
	if len(folders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(folders))
	for i, f := range folders {
		ids[i] = f.ID
	}
	counts, err := s.repo.AssetCounts(ctx, practiceID, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count folder assets")
	}
	for i := range folders {
		folders[i].ItemCount = counts[folders[i].ID]
	}
	return nil
}

func toFolder(row models.Folder) Folder {
	return Folder{
		ID:        row.ID,
		ParentID:  row.ParentID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
}

func asFolderErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "folder not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
