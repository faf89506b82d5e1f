package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/internal/practices"
	"github.com/orthodeskhq/orthodesk-backend/internal/users"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	pkgmodels "github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/security"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	data    map[string]*pkgmodels.User
	created *pkgmodels.User
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{data: map[string]*pkgmodels.User{}}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	user := &pkgmodels.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PasswordHash: dto.PasswordHash,
		Phone:        dto.Phone,
		IsActive:     true,
	}
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

type stubPracticeRepository struct {
	created *pkgmodels.Practice
}

func (s *stubPracticeRepository) Create(ctx context.Context, dto practices.CreatePracticeDTO) (*pkgmodels.Practice, error) {
	practice := &pkgmodels.Practice{
		ID:      uuid.New(),
		Name:    dto.Name,
		Phone:   dto.Phone,
		Email:   dto.Email,
		Website: dto.Website,
		Address: dto.Address,
	}
	s.created = practice
	return practice, nil
}

type stubMembershipRepository struct {
	calledWith struct {
		practiceID uuid.UUID
		userID     uuid.UUID
		role       enums.MemberRole
		status     enums.MembershipStatus
	}
}

func (s *stubMembershipRepository) CreateMembership(ctx context.Context, practiceID, userID uuid.UUID, role enums.MemberRole, status enums.MembershipStatus) (*pkgmodels.PracticeMembership, error) {
	s.calledWith.practiceID = practiceID
	s.calledWith.userID = userID
	s.calledWith.role = role
	s.calledWith.status = status
	return &pkgmodels.PracticeMembership{
		PracticeID: practiceID,
		UserID:     userID,
		Role:       role,
		Status:     status,
	}, nil
}

type registerTestSetup struct {
	service      RegisterService
	userRepo     *stubUserRepository
	practiceRepo *stubPracticeRepository
	memberRepo   *stubMembershipRepository
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubUserRepository()
	practiceRepo := &stubPracticeRepository{}
	memberRepo := &stubMembershipRepository{}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		PracticeRepoFactory: func(tx *gorm.DB) registerPracticeRepository {
			return practiceRepo
		},
		MembershipRepoFactory: func(tx *gorm.DB) registerMembershipRepository {
			return memberRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{
		service:      svc,
		userRepo:     userRepo,
		practiceRepo: practiceRepo,
		memberRepo:   memberRepo,
	}
}

func sampleRegisterRequest(email, practiceName string) RegisterRequest {
	return RegisterRequest{
		FirstName:    "Jamie",
		LastName:     "Rivera",
		Email:        email,
		Password:     "Secret123!",
		PracticeName: practiceName,
		AcceptTOS:    true,
	}
}

func TestRegisterCreatesPracticeForNewUser(t *testing.T) {
	setup := newRegisterTestSetup(t)
	req := sampleRegisterRequest("new@example.com", "Lakeside Orthodontics")

	if err := setup.service.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if setup.userRepo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if setup.practiceRepo.created == nil {
		t.Fatalf("expected practice to be created")
	}
	if setup.memberRepo.calledWith.practiceID != setup.practiceRepo.created.ID {
		t.Fatalf("membership not linked to created practice")
	}
	if setup.memberRepo.calledWith.userID != setup.userRepo.created.ID {
		t.Fatalf("membership not linked to created user")
	}
	if setup.memberRepo.calledWith.role != enums.MemberRoleOwner {
		t.Fatalf("expected owner role, got %s", setup.memberRepo.calledWith.role)
	}
	if setup.memberRepo.calledWith.status != enums.MembershipStatusActive {
		t.Fatalf("expected active membership, got %s", setup.memberRepo.calledWith.status)
	}
}

func TestRegisterCreatesSecondPracticeForExistingUser(t *testing.T) {
	setup := newRegisterTestSetup(t)
	password := "Secret123!"
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &pkgmodels.User{
		ID:           uuid.New(),
		Email:        "existing@example.com",
		FirstName:    "Existing",
		LastName:     "User",
		PasswordHash: hash,
		IsActive:     true,
	}
	setup.userRepo.data[user.Email] = user

	req := sampleRegisterRequest(user.Email, "Second Location")
	req.Password = password

	if err := setup.service.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if setup.userRepo.created != nil {
		t.Fatalf("expected no new user")
	}
	if setup.memberRepo.calledWith.userID != user.ID {
		t.Fatalf("membership not linked to existing user")
	}
}

func TestRegisterExistingEmailWrongPasswordConflicts(t *testing.T) {
	setup := newRegisterTestSetup(t)
	hash, err := security.HashPassword("their-real-password", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &pkgmodels.User{
		ID:           uuid.New(),
		Email:        "taken@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}
	setup.userRepo.data[user.Email] = user

	req := sampleRegisterRequest(user.Email, "Another Practice")
	req.Password = "not-their-password"

	err = setup.service.Register(context.Background(), req)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if setup.practiceRepo.created != nil {
		t.Fatalf("expected no practice created")
	}
}

func TestRegisterValidation(t *testing.T) {
	setup := newRegisterTestSetup(t)

	req := sampleRegisterRequest("", "Lakeside Orthodontics")
	if err := setup.service.Register(context.Background(), req); err == nil {
		t.Fatal("expected error for missing email")
	}

	req = sampleRegisterRequest("ok@example.com", "   ")
	if err := setup.service.Register(context.Background(), req); err == nil {
		t.Fatal("expected error for blank practice name")
	}

	req = sampleRegisterRequest("ok@example.com", "Lakeside Orthodontics")
	req.AcceptTOS = false
	err := setup.service.Register(context.Background(), req)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for TOS, got %v", err)
	}
}
