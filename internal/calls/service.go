package calls

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

// callRepository is the persistence surface the service needs.
type callRepository interface {
	Create(ctx context.Context, call *models.CallRecord) (*models.CallRecord, error)
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.CallRecord, error)
	List(ctx context.Context, q listQuery) ([]models.CallRecord, int64, error)
	Save(ctx context.Context, call *models.CallRecord) (*models.CallRecord, error)
	Delete(ctx context.Context, practiceID, id uuid.UUID) error
}

// partnerChecker verifies a linked partner exists for the practice.
type partnerChecker interface {
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Partner, error)
}

// referralChecker verifies a linked referral exists for the practice.
type referralChecker interface {
	FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Referral, error)
}

// Service manages the practice call log.
type Service struct {
	repo      callRepository
	partners  partnerChecker
	referrals referralChecker
}

// NewService constructs the call-log service.
func NewService(repo callRepository, partners partnerChecker, referrals referralChecker) *Service {
	return &Service{repo: repo, partners: partners, referrals: referrals}
}

// LogInput carries the fields for a new call record.
type LogInput struct {
	PracticeID      uuid.UUID
	Direction       enums.CallDirection
	CallerName      *string
	CallerPhone     string
	DurationSeconds int
	Outcome         enums.CallOutcome
	PartnerID       *uuid.UUID
	ReferralID      *uuid.UUID
	Notes           *string
	OccurredAt      *time.Time
}

// Log records a call.
func (s *Service) Log(ctx context.Context, in LogInput) (*models.CallRecord, error) {
	if !in.Direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown call direction")
	}
	if !in.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown call outcome")
	}
	phone := strings.TrimSpace(in.CallerPhone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "caller phone is required")
	}
	if in.DurationSeconds < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "call duration cannot be negative")
	}
	if in.PartnerID != nil {
		if err := s.checkPartner(ctx, in.PracticeID, *in.PartnerID); err != nil {
			return nil, err
		}
	}
	if in.ReferralID != nil {
		if err := s.checkReferral(ctx, in.PracticeID, *in.ReferralID); err != nil {
			return nil, err
		}
	}

	occurredAt := time.Now().UTC()
	if in.OccurredAt != nil {
		occurredAt = in.OccurredAt.UTC()
	}

	call, err := s.repo.Create(ctx, &models.CallRecord{
		PracticeID:      in.PracticeID,
		Direction:       in.Direction,
		CallerName:      in.CallerName,
		CallerPhone:     phone,
		DurationSeconds: in.DurationSeconds,
		Outcome:         in.Outcome,
		PartnerID:       in.PartnerID,
		ReferralID:      in.ReferralID,
		Notes:           in.Notes,
		OccurredAt:      occurredAt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to log call")
	}
	return call, nil
}

// Get fetches a single call record scoped to the practice.
func (s *Service) Get(ctx context.Context, practiceID, id uuid.UUID) (*models.CallRecord, error) {
	return s.find(ctx, practiceID, id)
}

// ListParams filters the call log listing.
type ListParams struct {
	PracticeID uuid.UUID
	Direction  *enums.CallDirection
	Outcome    *enums.CallOutcome
	PartnerID  *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// ListPage is one page of call records.
type ListPage struct {
	Calls []models.CallRecord `json:"calls"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// List returns the practice's call log, most recent first.
func (s *Service) List(ctx context.Context, params ListParams) (*ListPage, error) {
	if params.Direction != nil && !params.Direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown call direction")
	}
	if params.Outcome != nil && !params.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown call outcome")
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
		practiceID: params.PracticeID,
		direction:  params.Direction,
		outcome:    params.Outcome,
		partnerID:  params.PartnerID,
		from:       params.From,
		to:         params.To,
		offset:     (page - 1) * limit,
		limit:      limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list calls")
	}
	return &ListPage{Calls: rows, Total: total, Page: page, Limit: limit}, nil
}

// UpdateInput carries partial call edits. Nil fields are left unchanged.
type UpdateInput struct {
	Outcome    *enums.CallOutcome
	PartnerID  *uuid.UUID
	ReferralID *uuid.UUID
	Notes      *string
}

// Update amends an existing call record, typically to set the outcome or
// link the call to a referral after the fact.
func (s *Service) Update(ctx context.Context, practiceID, id uuid.UUID, in UpdateInput) (*models.CallRecord, error) {
	call, err := s.find(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}

	if in.Outcome != nil {
		if !in.Outcome.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown call outcome")
		}
		call.Outcome = *in.Outcome
	}
	if in.PartnerID != nil {
		if err := s.checkPartner(ctx, practiceID, *in.PartnerID); err != nil {
			return nil, err
		}
		call.PartnerID = in.PartnerID
	}
	if in.ReferralID != nil {
		if err := s.checkReferral(ctx, practiceID, *in.ReferralID); err != nil {
			return nil, err
		}
		call.ReferralID = in.ReferralID
	}
	if in.Notes != nil {
		call.Notes = in.Notes
	}

	saved, err := s.repo.Save(ctx, call)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update call")
	}
	return saved, nil
}

// Delete removes a call record.
func (s *Service) Delete(ctx context.Context, practiceID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, practiceID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "call not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete call")
	}
	return nil
}

func (s *Service) find(ctx context.Context, practiceID, id uuid.UUID) (*models.CallRecord, error) {
	call, err := s.repo.FindByID(ctx, practiceID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "call not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load call")
	}
	return call, nil
}

func (s *Service) checkPartner(ctx context.Context, practiceID, partnerID uuid.UUID) error {
	if _, err := s.partners.FindByID(ctx, practiceID, partnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "linked partner not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load linked partner")
	}
	return nil
}

func (s *Service) checkReferral(ctx context.Context, practiceID, referralID uuid.UUID) error {
	if _, err := s.referrals.FindByID(ctx, practiceID, referralID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "linked referral not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load linked referral")
	}
	return nil
}
