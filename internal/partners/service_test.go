package partners

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

type stubPartnerRepo struct {
	partners map[uuid.UUID]*models.Partner
}

func newStubPartnerRepo() *stubPartnerRepo {
	return &stubPartnerRepo{partners: map[uuid.UUID]*models.Partner{}}
}

func (s *stubPartnerRepo) Create(_ context.Context, partner *models.Partner) (*models.Partner, error) {
	partner.ID = uuid.New()
	clone := *partner
	s.partners[partner.ID] = &clone
	return partner, nil
}

func (s *stubPartnerRepo) FindByID(_ context.Context, practiceID, id uuid.UUID) (*models.Partner, error) {
	partner, ok := s.partners[id]
	if !ok || partner.PracticeID != practiceID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *partner
	return &clone, nil
}

func (s *stubPartnerRepo) List(_ context.Context, q listQuery) ([]models.Partner, int64, error) {
	var rows []models.Partner
	for _, partner := range s.partners {
		if partner.PracticeID != q.practiceID {
			continue
		}
		if !q.includeArchived && partner.ArchivedAt != nil {
			continue
		}
		if q.tier != nil && partner.Tier != *q.tier {
			continue
		}
		rows = append(rows, *partner)
	}
	return rows, int64(len(rows)), nil
}

func (s *stubPartnerRepo) Save(_ context.Context, partner *models.Partner) (*models.Partner, error) {
	clone := *partner
	s.partners[partner.ID] = &clone
	return partner, nil
}

func TestCreateDefaultsTier(t *testing.T) {
	t.Parallel()

	svc := NewService(newStubPartnerRepo())

	partner, err := svc.Create(context.Background(), CreateInput{
		PracticeID: uuid.New(),
		Name:       "  Lakeside Dental  ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if partner.Name != "Lakeside Dental" {
		t.Fatalf("expected trimmed name, got %q", partner.Name)
	}
	if partner.Tier != enums.PartnerTierStandard {
		t.Fatalf("expected standard tier default, got %s", partner.Tier)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	t.Parallel()

	svc := NewService(newStubPartnerRepo())

	_, err := svc.Create(context.Background(), CreateInput{PracticeID: uuid.New(), Name: "   "})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestArchiveHidesFromDefaultListing(t *testing.T) {
	t.Parallel()

	repo := newStubPartnerRepo()
	svc := NewService(repo)
	practiceID := uuid.New()

	partner, err := svc.Create(context.Background(), CreateInput{PracticeID: practiceID, Name: "Summit Ortho"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Archive(context.Background(), practiceID, partner.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	page, err := svc.List(context.Background(), ListParams{PracticeID: practiceID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Partners) != 0 {
		t.Fatalf("expected archived partner hidden, got %d rows", len(page.Partners))
	}

	page, err = svc.List(context.Background(), ListParams{PracticeID: practiceID, IncludeArchived: true})
	if err != nil {
		t.Fatalf("List archived: %v", err)
	}
	if len(page.Partners) != 1 {
		t.Fatalf("expected archived partner listed, got %d rows", len(page.Partners))
	}
}

func TestArchiveTwiceConflicts(t *testing.T) {
	t.Parallel()

	repo := newStubPartnerRepo()
	svc := NewService(repo)
	practiceID := uuid.New()

	partner, err := svc.Create(context.Background(), CreateInput{PracticeID: practiceID, Name: "Summit Ortho"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Archive(context.Background(), practiceID, partner.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	_, err = svc.Archive(context.Background(), practiceID, partner.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if _, err := svc.Unarchive(context.Background(), practiceID, partner.ID); err != nil {
		t.Fatalf("Unarchive: %v", err)
	}
	_, err = svc.Unarchive(context.Background(), practiceID, partner.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double unarchive, got %v", err)
	}
}

func TestUpdateScopedToPractice(t *testing.T) {
	t.Parallel()

	repo := newStubPartnerRepo()
	svc := NewService(repo)

	partner, err := svc.Create(context.Background(), CreateInput{PracticeID: uuid.New(), Name: "Summit Ortho"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Update(context.Background(), uuid.New(), partner.ID, UpdateInput{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign practice, got %v", err)
	}
}

func TestUpdateTier(t *testing.T) {
	t.Parallel()

	repo := newStubPartnerRepo()
	svc := NewService(repo)
	practiceID := uuid.New()

	partner, err := svc.Create(context.Background(), CreateInput{PracticeID: practiceID, Name: "Summit Ortho"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	gold := enums.PartnerTierGold
	updated, err := svc.Update(context.Background(), practiceID, partner.ID, UpdateInput{Tier: &gold})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Tier != enums.PartnerTierGold {
		t.Fatalf("expected gold tier, got %s", updated.Tier)
	}

	bogus := enums.PartnerTier("diamond")
	_, err = svc.Update(context.Background(), practiceID, partner.ID, UpdateInput{Tier: &bogus})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown tier, got %v", err)
	}
}
