package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/internal/auth"
	"github.com/orthodeskhq/orthodesk-backend/internal/users"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

type stubAuthService struct {
	resp *auth.LoginResponse
	err  error
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.resp, s.err
}

func TestAuthLoginSuccess(t *testing.T) {
	practiceID := uuid.New()
	resp := &auth.LoginResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Practices: []auth.PracticeSummary{
			{ID: practiceID, Name: "Bright Smiles Ortho", Role: enums.MemberRoleOwner},
		},
		User: &users.UserDTO{ID: uuid.New(), Email: "front@brightsmiles.test"},
	}
	handler := AuthLogin(stubAuthService{resp: resp}, nil)

	body := []byte(`{"email":"front@brightsmiles.test","password":"Secret#1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("X-OD-Token"); got != "access-token" {
		t.Fatalf("expected token header access-token got %s", got)
	}

	var envelope struct {
		Data struct {
			AccessToken string                 `json:"access_token"`
			Practices   []auth.PracticeSummary `json:"practices"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Practices) != 1 || envelope.Data.Practices[0].ID != practiceID {
		t.Fatalf("expected practice summary in payload got %+v", envelope.Data.Practices)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	handler := AuthLogin(stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}, nil)

	body := []byte(`{"email":"front@brightsmiles.test","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthLoginMalformedBody(t *testing.T) {
	handler := AuthLogin(stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
