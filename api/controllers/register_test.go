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

type stubRegisterService struct {
	err error
}

func (s stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) error {
	return s.err
}

func TestAuthRegisterSuccess(t *testing.T) {
	token := "new-token"
	resp := &auth.LoginResponse{
		AccessToken:  token,
		RefreshToken: "refresh",
		Practices: []auth.PracticeSummary{
			{ID: uuid.New(), Name: "Bright Smiles Ortho", Role: enums.MemberRoleOwner},
		},
		User: &users.UserDTO{ID: uuid.New(), Email: "alice@example.com"},
	}
	handler := AuthRegister(stubRegisterService{}, stubAuthService{resp: resp}, nil)

	body := []byte(`{
		"first_name": "Alice",
		"last_name": "Ortho",
		"email": "alice@example.com",
		"password": "Secret123!",
		"practice_name": "Bright Smiles Ortho",
		"accept_tos": true
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if got := rec.Header().Get("X-OD-Token"); got != token {
		t.Fatalf("expected token header %s got %s", token, got)
	}

	var envelope struct {
		Data struct {
			Practices []auth.PracticeSummary `json:"practices"`
			User      *users.UserDTO         `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != "alice@example.com" {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
	if len(envelope.Data.Practices) != 1 {
		t.Fatalf("expected one practice got %d", len(envelope.Data.Practices))
	}
}

func TestAuthRegisterConflict(t *testing.T) {
	handler := AuthRegister(
		stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")},
		stubAuthService{},
		nil,
	)

	body := []byte(`{
		"first_name": "Alice",
		"last_name": "Ortho",
		"email": "alice@example.com",
		"password": "Secret123!",
		"practice_name": "Bright Smiles Ortho",
		"accept_tos": true
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestAuthRegisterInvalidPayload(t *testing.T) {
	handler := AuthRegister(stubRegisterService{}, stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(`{"password":"Secret#1"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
