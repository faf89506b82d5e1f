package media

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/pagination"
)

// ListParams configures flat library listing filters/pagination.
type ListParams struct {
	PracticeID   uuid.UUID
	HasKind      bool
	Kind         enums.MediaKind
	FolderScoped bool
	FolderID     *uuid.UUID
	Search       string
	Tags         []string
	Limit        int
	Cursor       string
}

// ListResult returns paginated media metadata.
type ListResult struct {
	Items  []Asset `json:"items"`
	Cursor string  `json:"cursor"`
}

type listQuery struct {
	practiceID   uuid.UUID
	kind         *enums.MediaKind
	folderScoped bool
	folderID     *uuid.UUID
	search       string
	tags         []string
	limit        int
	cursor       *pagination.Cursor
}

type searchQuery struct {
	practiceID uuid.UUID
	kind       *enums.MediaKind
	search     string
	tags       []string
}

func (s *service) ListMedia(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.PracticeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice identity missing")
	}

	limit := pagination.NormalizeLimit(params.Limit)

	query := listQuery{
		practiceID:   params.PracticeID,
		folderScoped: params.FolderScoped,
		folderID:     params.FolderID,
		search:       strings.TrimSpace(params.Search),
		tags:         trimTags(params.Tags),
		limit:        pagination.LimitWithBuffer(params.Limit),
	}
	if params.HasKind {
		query.kind = &params.Kind
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]Asset, len(rows))
	for i, row := range rows {
		item, err := s.toAsset(row)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
