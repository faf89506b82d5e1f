package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/internal/memberships"
	pkgAuth "github.com/orthodeskhq/orthodesk-backend/pkg/auth"
	"github.com/orthodeskhq/orthodesk-backend/pkg/auth/session"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

// SwitchPracticeInput captures the data required to switch practices.
type SwitchPracticeInput struct {
	UserID        uuid.UUID
	PracticeID    uuid.UUID
	AccessTokenID string
	RefreshToken  string
}

// SwitchPracticeResult returns the tokens issued after switching practices.
type SwitchPracticeResult struct {
	AccessToken  string
	RefreshToken string
	Practice     PracticeSummary
}

type switchPracticeService struct {
	memberships switchMembershipsRepository
	session     switchSessionRotator
	jwtCfg      config.JWTConfig
}

type switchMembershipsRepository interface {
	GetMembershipWithPractice(ctx context.Context, userID, practiceID uuid.UUID) (*memberships.MembershipWithPractice, error)
}

type switchSessionRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
}

// SwitchPracticeServiceParams bundles dependencies for the switch flow.
type SwitchPracticeServiceParams struct {
	MembershipsRepo switchMembershipsRepository
	SessionManager  switchSessionRotator
	JWTConfig       config.JWTConfig
}

// NewSwitchPracticeService constructs the service.
func NewSwitchPracticeService(params SwitchPracticeServiceParams) (SwitchPracticeService, error) {
	if params.MembershipsRepo == nil {
		return nil, errors.New("memberships repository required")
	}
	if params.SessionManager == nil {
		return nil, errors.New("session manager required")
	}
	return &switchPracticeService{
		memberships: params.MembershipsRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
	}, nil
}

// SwitchPracticeService is the interface exposed to the controller.
type SwitchPracticeService interface {
	Switch(ctx context.Context, input SwitchPracticeInput) (*SwitchPracticeResult, error)
}

func (s *switchPracticeService) Switch(ctx context.Context, input SwitchPracticeInput) (*SwitchPracticeResult, error) {
	membership, err := s.memberships.GetMembershipWithPractice(ctx, input.UserID, input.PracticeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "practice membership required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup membership")
	}
	if membership.Status != enums.MembershipStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "practice membership inactive")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, input.AccessTokenID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	payload := pkgAuth.AccessTokenPayload{
		UserID:           input.UserID,
		ActivePracticeID: &input.PracticeID,
		Role:             membership.Role,
		JTI:              newAccessID,
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &SwitchPracticeResult{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		Practice: PracticeSummary{
			ID:   membership.PracticeID,
			Name: membership.PracticeName,
			Role: membership.Role,
		},
	}, nil
}
