package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/internal/socialposts"
	pkgAuth "github.com/orthodeskhq/orthodesk-backend/pkg/auth"
	"github.com/orthodeskhq/orthodesk-backend/pkg/auth/session"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
	"github.com/orthodeskhq/orthodesk-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubMembershipChecker struct {
	allowed bool
}

func (s stubMembershipChecker) UserHasRole(ctx context.Context, userID, practiceID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	return s.allowed, nil
}

type stubPostsService struct{}

func (stubPostsService) Compose(ctx context.Context, userID, practiceID uuid.UUID, input socialposts.ComposeInput) (*socialposts.ComposeOutput, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubPostsService) Get(ctx context.Context, practiceID, postID uuid.UUID) (*socialposts.Post, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubPostsService) List(ctx context.Context, practiceID uuid.UUID, params socialposts.ListParams) (*socialposts.ListPage, error) {
	return &socialposts.ListPage{Page: params.Page, Limit: params.Limit}, nil
}

func (stubPostsService) Update(ctx context.Context, practiceID, postID uuid.UUID, input socialposts.ComposeInput) (*socialposts.ComposeOutput, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubPostsService) Cancel(ctx context.Context, practiceID, postID uuid.UUID) (*socialposts.Post, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubPostsService) Delete(ctx context.Context, practiceID, postID uuid.UUID) error {
	return fmt.Errorf("not implemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "orthodesk", ExpirationMinutes: 10},
	}
}

func newTestRouter(cfg *config.Config, svcs Services) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubPinger{},
		stubSessionManager{},
		svcs,
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live probe got %d", resp.Code)
	}
}

func TestPublicPingNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public ping got %d", resp.Code)
	}
}

func TestPrivateGroupRequiresJWT(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{})
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleOwner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestPracticeContextRequired(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{})
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildTokenWithoutPractice(t, cfg, enums.MemberRoleOwner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without practice context got %d", resp.Code)
	}
}

func TestPostsRouteEnforcesMembershipRole(t *testing.T) {
	cfg := testConfig()

	denied := newTestRouter(cfg, Services{
		Memberships: stubMembershipChecker{allowed: false},
		Posts:       stubPostsService{},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleFrontDesk))
	resp := httptest.NewRecorder()
	denied.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for front desk on posts got %d", resp.Code)
	}

	granted := newTestRouter(cfg, Services{
		Memberships: stubMembershipChecker{allowed: true},
		Posts:       stubPostsService{},
	})
	req = httptest.NewRequest(http.MethodGet, "/api/v1/posts/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleMarketing))
	resp = httptest.NewRecorder()
	granted.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for marketing on posts got %d", resp.Code)
	}
}

func TestPlatformConstraintEndpoint(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/platforms/constraint?platforms=instagram,facebook", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleOwner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for constraint endpoint got %d", resp.Code)
	}
}

func TestPublicValidateRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestPublicValidateAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	body := `{"name":"Zed","email":"zed@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid payload got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	practiceID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:           uuid.New(),
		ActivePracticeID: &practiceID,
		Role:             role,
		JTI:              session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func buildTokenWithoutPractice(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
