package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/internal/folders"
	"github.com/orthodeskhq/orthodesk-backend/internal/media"
	"github.com/orthodeskhq/orthodesk-backend/internal/platformspec"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

type folderBrowser interface {
	Get(ctx context.Context, practiceID, folderID uuid.UUID) (*folders.Details, error)
	ListChildren(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID) ([]folders.Folder, error)
}

type mediaLister interface {
	ListMedia(ctx context.Context, params media.ListParams) (*media.ListResult, error)
}

type assetFinder interface {
	FindByIDs(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID) ([]models.MediaAsset, error)
}

// Service drives media-picker dialogs: folder navigation with a breadcrumb,
// tag/kind/text filtering, and a constraint-aware selection set that is
// handed back to the consumer on confirm.
type Service interface {
	Open(ctx context.Context, userID, practiceID uuid.UUID, input OpenInput) (*View, error)
	Navigate(ctx context.Context, practiceID, pickerID uuid.UUID, folderID *uuid.UUID) (*View, error)
	SetFilters(ctx context.Context, practiceID, pickerID uuid.UUID, input FiltersInput) (*View, error)
	ToggleTag(ctx context.Context, practiceID, pickerID uuid.UUID, tag string) (*View, error)
	ClearTags(ctx context.Context, practiceID, pickerID uuid.UUID) (*View, error)
	ToggleSelection(ctx context.Context, practiceID, pickerID, assetID uuid.UUID, selected bool) (*View, error)
	Confirm(ctx context.Context, practiceID, pickerID uuid.UUID) (*ConfirmOutput, error)
	Cancel(ctx context.Context, practiceID, pickerID uuid.UUID) error
}

type service struct {
	store   *pickerStore
	folders folderBrowser
	library mediaLister
	assets  assetFinder
}

// PickerBackend is the Redis surface the service needs.
type PickerBackend interface {
	pickerKV
	pickerKeyer
}

// NewService constructs the picker service.
func NewService(backend PickerBackend, folderSvc folderBrowser, library mediaLister, assets assetFinder, cfg config.MediaConfig) (Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("picker backend required")
	}
	if folderSvc == nil {
		return nil, fmt.Errorf("folder service required")
	}
	if library == nil {
		return nil, fmt.Errorf("media lister required")
	}
	if assets == nil {
		return nil, fmt.Errorf("asset finder required")
	}
	return &service{
		store:   &pickerStore{kv: backend, keyer: backend, ttl: cfg.PickerSessionTTL},
		folders: folderSvc,
		library: library,
		assets:  assets,
	}, nil
}

// OpenInput configures a new picker dialog. Platforms puts the picker into
// constrained (composer) mode; PreselectedIDs seeds the selection exactly
// once, when the dialog opens.
type OpenInput struct {
	Platforms      []enums.Platform `json:"platforms"`
	MaxSelection   int              `json:"max_selection"`
	PreselectedIDs []uuid.UUID      `json:"preselected_ids"`
}

// FiltersInput updates the global search/kind filters. Nil fields are left
// unchanged.
type FiltersInput struct {
	Search *string `json:"search"`
	Kind   *string `json:"kind"`
}

// AssetItem is one listed asset plus its picker-specific flags.
type AssetItem struct {
	media.Asset
	Eligible bool `json:"eligible"`
	Selected bool `json:"selected"`
}

// View is the picker state plus the listing for the current folder under the
// active filters.
type View struct {
	Picker     *Picker                  `json:"picker"`
	Constraint *platformspec.Constraint `json:"constraint,omitempty"`
	Folders    []folders.Folder         `json:"folders"`
	Assets     []AssetItem              `json:"assets"`
}

// ConfirmOutput hands the selection back to the consumer. Warning is set when
// the selection was truncated to the picker's cap.
type ConfirmOutput struct {
	Assets  []SelectedAsset `json:"assets"`
	Warning string          `json:"warning,omitempty"`
}

func (s *service) Open(ctx context.Context, userID, practiceID uuid.UUID, input OpenInput) (*View, error) {
	if userID == uuid.Nil || practiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and practice identity required")
	}
	if input.MaxSelection < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max selection must not be negative")
	}
	for _, p := range input.Platforms {
		if !p.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", p))
		}
	}

	picker := &Picker{
		ID:           uuid.New(),
		PracticeID:   practiceID,
		UserID:       userID,
		Platforms:    input.Platforms,
		Constrained:  len(input.Platforms) > 0,
		MaxSelection: input.MaxSelection,
		CreatedAt:    time.Now().UTC(),
	}

	if len(input.PreselectedIDs) > 0 {
		rows, err := s.assets.FindByIDs(ctx, practiceID, input.PreselectedIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed preselection")
		}
		for _, row := range rows {
			if row.Status != enums.MediaStatusUploaded {
				continue
			}
			picker.Selected = append(picker.Selected, toSelected(row))
		}
	}

	if err := s.store.save(ctx, picker); err != nil {
		return nil, err
	}
	return s.view(ctx, picker)
}

// Navigate moves the picker to a folder. A nil folderID returns to root. When
// the target already appears in the breadcrumb, the trail is truncated to
// that entry; otherwise the folder is appended. Filters survive navigation.
func (s *service) Navigate(ctx context.Context, practiceID, pickerID uuid.UUID, folderID *uuid.UUID) (*View, error) {
	picker, err := s.ownedPicker(ctx, practiceID, pickerID)
	if err != nil {
		return nil, err
	}

	switch {
	case folderID == nil:
		picker.Breadcrumb = nil
	default:
		if idx := crumbIndex(picker.Breadcrumb, *folderID); idx >= 0 {
			picker.Breadcrumb = picker.Breadcrumb[:idx+1]
			break
		}
		details, err := s.folders.Get(ctx, practiceID, *folderID)
		if err != nil {
			return nil, err
		}
		picker.Breadcrumb = append(picker.Breadcrumb, Crumb{ID: details.Folder.ID, Name: details.Folder.Name})
	}

	if err := s.store.save(ctx, picker); err != nil {
		return nil, err
	}
	return s.view(ctx, picker)
}

func (s *service) SetFilters(ctx context.Context, practiceID, pickerID uuid.UUID, input FiltersInput) (*View, error) {
	picker, err := s.ownedPicker(ctx, practiceID, pickerID)
	if err != nil {
		return nil, err
	}
	if input.Search != nil {
		picker.Search = strings.TrimSpace(*input.Search)
	}
	if input.Kind != nil {
		kind := strings.ToLower(strings.TrimSpace(*input.Kind))
		switch kind {
		case "", "all", "image", "video":
			picker.KindFilter = kind
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "kind must be all, image, or video")
		}
	}
	if err := s.store.save(ctx, picker); err != nil {
		return nil, err
	}
	return s.view(ctx, picker)
}

// ToggleTag adds the tag to the active set if absent, removes it otherwise.
// Assets match when they carry any active tag.
func (s *service) ToggleTag(ctx context.Context, practiceID, pickerID uuid.UUID, tag string) (*View, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tag is required")
	}
	picker, err := s.ownedPicker(ctx, practiceID, pickerID)
	if err != nil {
		return nil, err
	}

	removed := false
	for i, t := range picker.Tags {
		if strings.EqualFold(t, tag) {
			picker.Tags = append(picker.Tags[:i], picker.Tags[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		picker.Tags = append(picker.Tags, tag)
	}

	if err := s.store.save(ctx, picker); err != nil {
		return nil, err
	}
	return s.view(ctx, picker)
}

func (s *service) ClearTags(ctx context.Context, practiceID, pickerID uuid.UUID) (*View, error) {
	picker, err := s.ownedPicker(ctx, practiceID, pickerID)
	if err != nil {
		return nil, err
	}
	picker.Tags = nil
	if err := s.store.save(ctx, picker); err != nil {
		return nil, err
	}
	return s.view(ctx, picker)
}

// ToggleSelection adds or removes an asset from the selection set. Adding
// enforces the selection cap and re-validates the asset against the picker's
// constraint, so an ineligible asset is refused with a warning rather than
// silently included.
func (s *service) ToggleSelection(ctx context.Context, practiceID, pickerID, assetID uuid.UUID, selected bool) (*View, error) {
	if assetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}
	picker, err := s.ownedPicker(ctx, practiceID, pickerID)
	if err != nil {
		return nil, err
	}

	if !selected {
		for i, sel := range picker.Selected {
			if sel.ID == assetID {
				picker.Selected = append(picker.Selected[:i], picker.Selected[i+1:]...)
				break
			}
		}
	} else if !picker.IsSelected(assetID) {
		if picker.MaxSelection > 0 && len(picker.Selected) >= picker.MaxSelection {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("selection holds at most %d items", picker.MaxSelection))
		}
		rows, err := s.assets.FindByIDs(ctx, practiceID, []uuid.UUID{assetID})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch asset")
		}
		if len(rows) == 0 || rows[0].Status != enums.MediaStatusUploaded {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media asset not found")
		}
		row := rows[0]
		if c := picker.Constraint(); c != nil {
			if err := platformspec.Validate(fileInfo(row), *c); err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
			}
		}
		picker.Selected = append(picker.Selected, toSelected(row))
	}

	if err := s.store.save(ctx, picker); err != nil {
		return nil, err
	}
	return s.view(ctx, picker)
}

// Confirm closes the picker and returns the selection. A capped picker
// truncates to the first MaxSelection items and says so in the warning.
func (s *service) Confirm(ctx context.Context, practiceID, pickerID uuid.UUID) (*ConfirmOutput, error) {
	picker, err := s.ownedPicker(ctx, practiceID, pickerID)
	if err != nil {
		return nil, err
	}

	out := &ConfirmOutput{Assets: picker.Selected}
	if picker.MaxSelection > 0 && len(out.Assets) > picker.MaxSelection {
		out.Assets = out.Assets[:picker.MaxSelection]
		out.Warning = fmt.Sprintf("selection truncated to the first %d items", picker.MaxSelection)
	}

	if err := s.store.delete(ctx, pickerID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Cancel(ctx context.Context, practiceID, pickerID uuid.UUID) error {
	if _, err := s.ownedPicker(ctx, practiceID, pickerID); err != nil {
		return err
	}
	return s.store.delete(ctx, pickerID)
}

func (s *service) ownedPicker(ctx context.Context, practiceID, pickerID uuid.UUID) (*Picker, error) {
	if pickerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "picker id is required")
	}
	picker, err := s.store.load(ctx, pickerID)
	if err != nil {
		return nil, err
	}
	if picker.PracticeID != practiceID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "picker session not found or expired")
	}
	return picker, nil
}

func (s *service) view(ctx context.Context, picker *Picker) (*View, error) {
	current := picker.CurrentFolder()

	children, err := s.folders.ListChildren(ctx, picker.PracticeID, current)
	if err != nil {
		return nil, err
	}

	params := media.ListParams{
		PracticeID:   picker.PracticeID,
		FolderScoped: true,
		FolderID:     current,
		Search:       picker.Search,
		Tags:         picker.Tags,
	}
	switch picker.KindFilter {
	case "image":
		params.HasKind = true
		params.Kind = enums.MediaKindImage
	case "video":
		params.HasKind = true
		params.Kind = enums.MediaKindVideo
	}

	listed, err := s.library.ListMedia(ctx, params)
	if err != nil {
		return nil, err
	}

	constraint := picker.Constraint()
	view := &View{
		Picker:     picker,
		Constraint: constraint,
		Folders:    children,
		Assets:     make([]AssetItem, len(listed.Items)),
	}
	for i, item := range listed.Items {
		eligible := item.Status == enums.MediaStatusUploaded
		if eligible && constraint != nil {
			eligible = platformspec.Validate(platformspec.FileInfo{
				Name:      item.FileName,
				MimeType:  item.MimeType,
				SizeBytes: item.SizeBytes,
			}, *constraint) == nil
		}
		view.Assets[i] = AssetItem{
			Asset:    item,
			Eligible: eligible,
			Selected: picker.IsSelected(item.ID),
		}
	}
	return view, nil
}

func crumbIndex(crumbs []Crumb, id uuid.UUID) int {
	for i, c := range crumbs {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func toSelected(row models.MediaAsset) SelectedAsset {
	return SelectedAsset{
		ID:        row.ID,
		FileName:  row.FileName,
		MimeType:  row.MimeType,
		SizeBytes: row.SizeBytes,
		Kind:      row.Kind,
	}
}

func fileInfo(row models.MediaAsset) platformspec.FileInfo {
	return platformspec.FileInfo{
		Name:      row.FileName,
		MimeType:  row.MimeType,
		SizeBytes: row.SizeBytes,
	}
}
