package referrals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

// referralRepository is the persistence surface the service needs.
type referralRepository interface {
	Create(ctx context.Context, referral *models.Referral) (*models.Referral, error)
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Referral, error)
	List(ctx context.Context, q listQuery) ([]models.Referral, int64, error)
	Save(ctx context.Context, referral *models.Referral) (*models.Referral, error)
	Delete(ctx context.Context, practiceID, id uuid.UUID) error
}

// partnerChecker verifies that a linked partner exists for the practice.
type partnerChecker interface {
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Partner, error)
}

// Service manages the referral intake pipeline.
type Service struct {
	repo     referralRepository
	partners partnerChecker
}

// NewService constructs the referral service.
func NewService(repo referralRepository, partners partnerChecker) *Service {
	return &Service{repo: repo, partners: partners}
}

// CreateInput carries the fields for a new referral.
type CreateInput struct {
	PracticeID     uuid.UUID
	PartnerID      *uuid.UUID
	PatientName    string
	PatientPhone   *string
	Procedure      string
	EstimatedValue decimal.Decimal
	Notes          *string
	ReceivedAt     *time.Time
}

// Create records a new referral in the received state.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Referral, error) {
	patient := strings.TrimSpace(in.PatientName)
	if patient == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient name is required")
	}
	procedure := strings.TrimSpace(in.Procedure)
	if procedure == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "procedure is required")
	}
	if in.EstimatedValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated value cannot be negative")
	}
	if in.PartnerID != nil {
		if err := s.checkPartner(ctx, in.PracticeID, *in.PartnerID); err != nil {
			return nil, err
		}
	}

	receivedAt := time.Now().UTC()
	if in.ReceivedAt != nil {
		receivedAt = in.ReceivedAt.UTC()
	}

	referral, err := s.repo.Create(ctx, &models.Referral{
		PracticeID:     in.PracticeID,
		PartnerID:      in.PartnerID,
		PatientName:    patient,
		PatientPhone:   in.PatientPhone,
		Procedure:      procedure,
		EstimatedValue: in.EstimatedValue,
		Status:         enums.ReferralStatusReceived,
		Notes:          in.Notes,
		ReceivedAt:     receivedAt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create referral")
	}
	return referral, nil
}

// Get fetches a single referral scoped to the practice.
func (s *Service) Get(ctx context.Context, practiceID, id uuid.UUID) (*models.Referral, error) {
	return s.find(ctx, practiceID, id)
}

// ListParams filters the referral listing.
type ListParams struct {
	PracticeID   uuid.UUID
	Status       *enums.ReferralStatus
	PartnerID    *uuid.UUID
	ReceivedFrom *time.Time
	ReceivedTo   *time.Time
	Search       string
	Page         int
	Limit        int
}

// ListPage is one page of referrals.
type ListPage struct {
	Referrals []models.Referral `json:"referrals"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
}

// List returns the practice's referrals, newest first.
func (s *Service) List(ctx context.Context, params ListParams) (*ListPage, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown referral status")
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
		practiceID:   params.PracticeID,
		status:       params.Status,
		partnerID:    params.PartnerID,
		receivedFrom: params.ReceivedFrom,
		receivedTo:   params.ReceivedTo,
		search:       strings.TrimSpace(params.Search),
		offset:       (page - 1) * limit,
		limit:        limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list referrals")
	}
	return &ListPage{Referrals: rows, Total: total, Page: page, Limit: limit}, nil
}

// UpdateInput carries partial referral edits. Nil fields are left unchanged.
// Status moves go through Transition, not Update.
type UpdateInput struct {
	PartnerID      *uuid.UUID
	ClearPartner   bool
	PatientName    *string
	PatientPhone   *string
	Procedure      *string
	EstimatedValue *decimal.Decimal
	Notes          *string
}

// Update edits a referral's details.
func (s *Service) Update(ctx context.Context, practiceID, id uuid.UUID, in UpdateInput) (*models.Referral, error) {
	referral, err := s.find(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}

	if in.PatientName != nil {
		patient := strings.TrimSpace(*in.PatientName)
		if patient == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient name is required")
		}
		referral.PatientName = patient
	}
	if in.Procedure != nil {
		procedure := strings.TrimSpace(*in.Procedure)
		if procedure == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "procedure is required")
		}
		referral.Procedure = procedure
	}
	if in.EstimatedValue != nil {
		if in.EstimatedValue.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated value cannot be negative")
		}
		referral.EstimatedValue = *in.EstimatedValue
	}
	if in.ClearPartner {
		referral.PartnerID = nil
	} else if in.PartnerID != nil {
		if err := s.checkPartner(ctx, practiceID, *in.PartnerID); err != nil {
			return nil, err
		}
		referral.PartnerID = in.PartnerID
	}
	if in.PatientPhone != nil {
		referral.PatientPhone = in.PatientPhone
	}
	if in.Notes != nil {
		referral.Notes = in.Notes
	}

	saved, err := s.repo.Save(ctx, referral)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update referral")
	}
	return saved, nil
}

// Transition moves a referral along the intake pipeline. Only the moves the
// pipeline defines are allowed; completed and lost are terminal.
func (s *Service) Transition(ctx context.Context, practiceID, id uuid.UUID, next enums.ReferralStatus) (*models.Referral, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown referral status")
	}

	referral, err := s.find(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}
	if !referral.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("referral cannot move from %s to %s", referral.Status, next))
	}
	referral.Status = next

	saved, err := s.repo.Save(ctx, referral)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update referral status")
	}
	return saved, nil
}

// Delete removes a referral.
func (s *Service) Delete(ctx context.Context, practiceID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, practiceID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "referral not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete referral")
	}
	return nil
}

func (s *Service) find(ctx context.Context, practiceID, id uuid.UUID) (*models.Referral, error) {
	referral, err := s.repo.FindByID(ctx, practiceID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "referral not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load referral")
	}
	return referral, nil
}

func (s *Service) checkPartner(ctx context.Context, practiceID, partnerID uuid.UUID) error {
	partner, err := s.partners.FindByID(ctx, practiceID, partnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "referring partner not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load referring partner")
	}
	if partner.ArchivedAt != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "referring partner is archived")
	}
	return nil
}
