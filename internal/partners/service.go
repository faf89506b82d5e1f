package partners

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

const maxPartnerNameLen = 160

// partnerRepository is the persistence surface the service needs.
type partnerRepository interface {
	Create(ctx context.Context, partner *models.Partner) (*models.Partner, error)
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Partner, error)
	List(ctx context.Context, q listQuery) ([]models.Partner, int64, error)
	Save(ctx context.Context, partner *models.Partner) (*models.Partner, error)
}

// Service manages the referring-partner network for a practice.
type Service struct {
	repo partnerRepository
}

// NewService constructs the partner service.
func NewService(repo partnerRepository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields for a new partner.
type CreateInput struct {
	PracticeID   uuid.UUID
	Name         string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Specialty    *string
	Tier         enums.PartnerTier
	Notes        *string
}

// Create registers a new referring partner.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Partner, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner name is required")
	}
	if len(name) > maxPartnerNameLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner name is too long")
	}
	tier := in.Tier
	if tier == "" {
		tier = enums.PartnerTierStandard
	}
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown partner tier")
	}

	partner, err := s.repo.Create(ctx, &models.Partner{
		PracticeID:   in.PracticeID,
		Name:         name,
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Specialty:    in.Specialty,
		Tier:         tier,
		Notes:        in.Notes,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create partner")
	}
	return partner, nil
}

// Get fetches a single partner scoped to the practice.
func (s *Service) Get(ctx context.Context, practiceID, id uuid.UUID) (*models.Partner, error) {
	return s.find(ctx, practiceID, id)
}

// ListParams filters the partner listing.
type ListParams struct {
	PracticeID      uuid.UUID
	Search          string
	Tier            *enums.PartnerTier
	IncludeArchived bool
	Page            int
	Limit           int
}

// ListPage is one page of partners.
type ListPage struct {
	Partners []models.Partner `json:"partners"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// List returns the practice's partners ordered by name.
func (s *Service) List(ctx context.Context, params ListParams) (*ListPage, error) {
	if params.Tier != nil && !params.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown partner tier")
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 || limit > 100 {
		limit = 25
	}

	rows, total, err := s.repo.List(ctx, listQuery{
		practiceID:      params.PracticeID,
		search:          strings.TrimSpace(params.Search),
		tier:            params.Tier,
		includeArchived: params.IncludeArchived,
		offset:          (page - 1) * limit,
		limit:           limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list partners")
	}
	return &ListPage{Partners: rows, Total: total, Page: page, Limit: limit}, nil
}

// UpdateInput carries partial partner edits. Nil fields are left unchanged.
type UpdateInput struct {
	Name         *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Specialty    *string
	Tier         *enums.PartnerTier
	Notes        *string
}

// Update edits a partner's profile.
func (s *Service) Update(ctx context.Context, practiceID, id uuid.UUID, in UpdateInput) (*models.Partner, error) {
	partner, err := s.find(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner name is required")
		}
		if len(name) > maxPartnerNameLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner name is too long")
		}
		partner.Name = name
	}
	if in.Tier != nil {
		if !in.Tier.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown partner tier")
		}
		partner.Tier = *in.Tier
	}
	if in.ContactName != nil {
		partner.ContactName = in.ContactName
	}
	if in.ContactEmail != nil {
		partner.ContactEmail = in.ContactEmail
	}
	if in.ContactPhone != nil {
		partner.ContactPhone = in.ContactPhone
	}
	if in.Specialty != nil {
		partner.Specialty = in.Specialty
	}
	if in.Notes != nil {
		partner.Notes = in.Notes
	}

	saved, err := s.repo.Save(ctx, partner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update partner")
	}
	return saved, nil
}

// Archive hides the partner from default listings without deleting its
// referral history.
func (s *Service) Archive(ctx context.Context, practiceID, id uuid.UUID) (*models.Partner, error) {
	partner, err := s.find(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}
	if partner.ArchivedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "partner is already archived")
	}
	now := time.Now().UTC()
	partner.ArchivedAt = &now

	saved, err := s.repo.Save(ctx, partner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to archive partner")
	}
	return saved, nil
}

// Unarchive restores an archived partner.
func (s *Service) Unarchive(ctx context.Context, practiceID, id uuid.UUID) (*models.Partner, error) {
	partner, err := s.find(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}
	if partner.ArchivedAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "partner is not archived")
	}
	partner.ArchivedAt = nil

	saved, err := s.repo.Save(ctx, partner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to unarchive partner")
	}
	return saved, nil
}

func (s *Service) find(ctx context.Context, practiceID, id uuid.UUID) (*models.Partner, error) {
	partner, err := s.repo.FindByID(ctx, practiceID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load partner")
	}
	return partner, nil
}

// listQuery is the repo-level filter for List.
type listQuery struct {
	practiceID      uuid.UUID
	search          string
	tier            *enums.PartnerTier
	includeArchived bool
	offset          int
	limit           int
}
