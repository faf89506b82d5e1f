package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/internal/memberships"
	"github.com/orthodeskhq/orthodesk-backend/internal/practices"
	"github.com/orthodeskhq/orthodesk-backend/internal/users"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/security"
)

// RegisterRequest contains the payload required for onboarding a new practice.
type RegisterRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required"`
	Phone        *string `json:"phone,omitempty"`
	PracticeName string  `json:"practice_name" validate:"required"`
	Website      *string `json:"website,omitempty"`
	Address      *string `json:"address,omitempty"`
	AcceptTOS    bool    `json:"accept_tos"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerPracticeRepository interface {
	Create(ctx context.Context, dto practices.CreatePracticeDTO) (*models.Practice, error)
}

type registerMembershipRepository interface {
	CreateMembership(ctx context.Context, practiceID, userID uuid.UUID, role enums.MemberRole, status enums.MembershipStatus) (*models.PracticeMembership, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner              txRunner
	UserRepoFactory       func(tx *gorm.DB) registerUserRepository
	PracticeRepoFactory   func(tx *gorm.DB) registerPracticeRepository
	MembershipRepoFactory func(tx *gorm.DB) registerMembershipRepository
	PasswordConfig        config.PasswordConfig
}

type registerService struct {
	tx              txRunner
	userRepos       func(tx *gorm.DB) registerUserRepository
	practiceRepos   func(tx *gorm.DB) registerPracticeRepository
	membershipRepos func(tx *gorm.DB) registerMembershipRepository
	passwordCfg     config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository factory required")
	}
	if params.PracticeRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "practice repository factory required")
	}
	if params.MembershipRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "membership repository factory required")
	}
	return &registerService{
		tx:              params.TxRunner,
		userRepos:       params.UserRepoFactory,
		practiceRepos:   params.PracticeRepoFactory,
		membershipRepos: params.MembershipRepoFactory,
		passwordCfg:     params.PasswordConfig,
	}, nil
}

// NewRegisterServiceFromDB wires the default GORM-backed repositories.
func NewRegisterServiceFromDB(client *db.Client, passwordCfg config.PasswordConfig) (RegisterService, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return NewRegisterService(RegisterServiceParams{
		TxRunner: client,
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		},
		PracticeRepoFactory: func(tx *gorm.DB) registerPracticeRepository {
			return practices.NewRepository(tx)
		},
		MembershipRepoFactory: func(tx *gorm.DB) registerMembershipRepository {
			return memberships.NewRepository(tx)
		},
		PasswordConfig: passwordCfg,
	})
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	practiceName := strings.TrimSpace(req.PracticeName)
	if practiceName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "practice name is required")
	}
	if !req.AcceptTOS {
		return pkgerrors.New(pkgerrors.CodeValidation, "accept_tos must be true")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		practiceRepo := s.practiceRepos(tx)
		membershipRepo := s.membershipRepos(tx)

		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
			}
			user, err = userRepo.Create(ctx, users.CreateUserDTO{
				Email:        email,
				PasswordHash: passwordHash,
				FirstName:    req.FirstName,
				LastName:     req.LastName,
				Phone:        req.Phone,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
			}
		} else {
			// Existing account opening a second practice must prove the
			// password they already have.
			valid, verifyErr := security.VerifyPassword(req.Password, user.PasswordHash)
			if verifyErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, verifyErr, "verify password")
			}
			if !valid {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
		}

		practice, err := practiceRepo.Create(ctx, practices.CreatePracticeDTO{
			Name:    practiceName,
			Phone:   req.Phone,
			Email:   &email,
			Website: req.Website,
			Address: req.Address,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create practice")
		}

		if _, err := membershipRepo.CreateMembership(
			ctx,
			practice.ID,
			user.ID,
			enums.MemberRoleOwner,
			enums.MembershipStatusActive,
		); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create membership")
		}

		return nil
	})
}
