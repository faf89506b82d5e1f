package practices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/internal/memberships"
	"github.com/orthodeskhq/orthodesk-backend/internal/users"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/security"
)

type practiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Practice, error)
	Update(ctx context.Context, practice *models.Practice) error
}

type membershipsRepository interface {
	UserHasRole(ctx context.Context, userID, practiceID uuid.UUID, roles ...enums.MemberRole) (bool, error)
	ListPracticeUsers(ctx context.Context, practiceID uuid.UUID) ([]memberships.PracticeUserDTO, error)
	GetMembership(ctx context.Context, userID, practiceID uuid.UUID) (*models.PracticeMembership, error)
	CreateMembership(ctx context.Context, practiceID, userID uuid.UUID, role enums.MemberRole, status enums.MembershipStatus) (*models.PracticeMembership, error)
	DeleteMembership(ctx context.Context, practiceID, userID uuid.UUID) error
	CountMembersWithRoles(ctx context.Context, practiceID uuid.UUID, roles ...enums.MemberRole) (int64, error)
}

type usersRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Service exposes practice operations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*PracticeDTO, error)
	Update(ctx context.Context, userID, practiceID uuid.UUID, input UpdatePracticeInput) (*PracticeDTO, error)
	ListUsers(ctx context.Context, userID, practiceID uuid.UUID) ([]memberships.PracticeUserDTO, error)
	InviteUser(ctx context.Context, inviterID, practiceID uuid.UUID, input InviteUserInput) (*memberships.PracticeUserDTO, string, error)
	RemoveUser(ctx context.Context, actorID, practiceID, targetUserID uuid.UUID) error
}

type service struct {
	repo        practiceRepository
	memberships membershipsRepository
	users       usersRepository
	passwordCfg config.PasswordConfig
}

// NewService builds a practice service with the provided repositories.
func NewService(repo practiceRepository, membershipsRepo membershipsRepository, usersRepo usersRepository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("practice repository required")
	}
	if membershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{
		repo:        repo,
		memberships: membershipsRepo,
		users:       usersRepo,
		passwordCfg: passwordCfg,
	}, nil
}

// UpdatePracticeInput captures the allowed practice fields for mutation.
type UpdatePracticeInput struct {
	Name    *string
	Phone   *string
	Email   *string
	Website *string
	Address *string
}

// InviteUserInput captures the data required to invite a practice user.
type InviteUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      enums.MemberRole
}

var managingRoles = []enums.MemberRole{enums.MemberRoleOwner, enums.MemberRoleAdmin}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*PracticeDTO, error) {
	practice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "practice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load practice")
	}
	return FromModel(practice), nil
}

func (s *service) Update(ctx context.Context, userID, practiceID uuid.UUID, input UpdatePracticeInput) (*PracticeDTO, error) {
	if err := s.requireManagingRole(ctx, userID, practiceID); err != nil {
		return nil, err
	}

	practice, err := s.repo.FindByID(ctx, practiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "practice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load practice")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "practice name is required")
		}
		practice.Name = name
	}
	if input.Phone != nil {
		practice.Phone = input.Phone
	}
	if input.Email != nil {
		practice.Email = input.Email
	}
	if input.Website != nil {
		practice.Website = input.Website
	}
	if input.Address != nil {
		practice.Address = input.Address
	}

	if err := s.repo.Update(ctx, practice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update practice")
	}
	return FromModel(practice), nil
}

func (s *service) ListUsers(ctx context.Context, userID, practiceID uuid.UUID) ([]memberships.PracticeUserDTO, error) {
	if err := s.requireManagingRole(ctx, userID, practiceID); err != nil {
		return nil, err
	}

	members, err := s.memberships.ListPracticeUsers(ctx, practiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list practice users")
	}
	return members, nil
}

func (s *service) InviteUser(ctx context.Context, inviterID, practiceID uuid.UUID, input InviteUserInput) (*memberships.PracticeUserDTO, string, error) {
	if err := s.requireManagingRole(ctx, inviterID, practiceID); err != nil {
		return nil, "", err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !input.Role.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	var usr *models.User
	var tempPassword string
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			usr, tempPassword, err = s.createNewUser(ctx, email, input.FirstName, input.LastName)
			if err != nil {
				return nil, "", err
			}
		} else {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
		}
	} else {
		usr = user
	}

	membership, err := s.memberships.GetMembership(ctx, usr.ID, practiceID)
	if err == nil && membership != nil {
		dto, fetchErr := s.fetchPracticeUser(ctx, practiceID, usr.ID)
		if fetchErr != nil {
			return nil, "", fetchErr
		}
		return dto, "", nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}

	if tempPassword == "" {
		tempPassword, err = s.resetUserPassword(ctx, usr.ID)
		if err != nil {
			return nil, "", err
		}
	}

	if _, err := s.memberships.CreateMembership(ctx, practiceID, usr.ID, input.Role, enums.MembershipStatusInvited); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
	}

	dto, fetchErr := s.fetchPracticeUser(ctx, practiceID, usr.ID)
	if fetchErr != nil {
		return nil, "", fetchErr
	}
	return dto, tempPassword, nil
}

func (s *service) RemoveUser(ctx context.Context, actorID, practiceID, targetUserID uuid.UUID) error {
	if err := s.requireManagingRole(ctx, actorID, practiceID); err != nil {
		return err
	}

	membership, err := s.memberships.GetMembership(ctx, targetUserID, practiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}

	if membership.Role == enums.MemberRoleOwner {
		count, err := s.memberships.CountMembersWithRoles(ctx, practiceID, enums.MemberRoleOwner)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count owners")
		}
		if count <= 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot remove last owner")
		}
	}

	if err := s.memberships.DeleteMembership(ctx, practiceID, targetUserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete membership")
	}

	return nil
}

func (s *service) requireManagingRole(ctx context.Context, userID, practiceID uuid.UUID) error {
	ok, err := s.memberships.UserHasRole(ctx, userID, practiceID, managingRoles...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient practice role")
	}
	return nil
}

func (s *service) createNewUser(ctx context.Context, email, firstName, lastName string) (*models.User, string, error) {
	if !strings.Contains(email, "@") {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}

	tempPassword, err := security.GenerateTempPassword(16)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, tempPassword, nil
}

func (s *service) resetUserPassword(ctx context.Context, userID uuid.UUID) (string, error) {
	tempPassword, err := security.GenerateTempPassword(16)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return tempPassword, nil
}

func (s *service) fetchPracticeUser(ctx context.Context, practiceID, userID uuid.UUID) (*memberships.PracticeUserDTO, error) {
	members, err := s.memberships.ListPracticeUsers(ctx, practiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list practice users")
	}
	for i := range members {
		if members[i].UserID == userID {
			return &members[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "practice user not found")
}
