package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/api/validators"
	"github.com/orthodeskhq/orthodesk-backend/internal/referrals"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

type referralCreateRequest struct {
	PartnerID      *uuid.UUID       `json:"partner_id,omitempty"`
	PatientName    string           `json:"patient_name" validate:"required,min=1"`
	PatientPhone   *string          `json:"patient_phone,omitempty"`
	Procedure      string           `json:"procedure" validate:"required,min=1"`
	EstimatedValue *decimal.Decimal `json:"estimated_value,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	ReceivedAt     *time.Time       `json:"received_at,omitempty"`
}

// ReferralCreate records an incoming referral in the received state.
func ReferralCreate(svc *referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload referralCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		value := decimal.Zero
		if payload.EstimatedValue != nil {
			value = *payload.EstimatedValue
		}

		referral, err := svc.Create(r.Context(), referrals.CreateInput{
			PracticeID:     practiceID,
			PartnerID:      payload.PartnerID,
			PatientName:    payload.PatientName,
			PatientPhone:   payload.PatientPhone,
			Procedure:      payload.Procedure,
			EstimatedValue: value,
			Notes:          payload.Notes,
			ReceivedAt:     payload.ReceivedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, referral)
	}
}

// ReferralList pages referrals with pipeline and date filters.
func ReferralList(svc *referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := referrals.ListParams{
			PracticeID: practiceID,
			Search:     strings.TrimSpace(r.URL.Query().Get("search")),
			Page:       page,
			Limit:      limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseReferralStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			params.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("partner_id")); raw != "" {
			partnerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid partner_id"))
				return
			}
			params.PartnerID = &partnerID
		}
		if params.ReceivedFrom, err = parseQueryTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.ReceivedTo, err = parseQueryTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ReferralDetail returns one referral by id.
func ReferralDetail(svc *referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		referralID, err := pathUUID(chi.URLParam(r, "referralId"), "referral id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		referral, err := svc.Get(r.Context(), practiceID, referralID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, referral)
	}
}

type referralUpdateRequest struct {
	PartnerID      *uuid.UUID       `json:"partner_id,omitempty"`
	ClearPartner   bool             `json:"clear_partner,omitempty"`
	PatientName    *string          `json:"patient_name,omitempty" validate:"omitempty,min=1"`
	PatientPhone   *string          `json:"patient_phone,omitempty"`
	Procedure      *string          `json:"procedure,omitempty" validate:"omitempty,min=1"`
	EstimatedValue *decimal.Decimal `json:"estimated_value,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// ReferralUpdate edits a referral's details without touching its status.
func ReferralUpdate(svc *referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		referralID, err := pathUUID(chi.URLParam(r, "referralId"), "referral id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload referralUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		referral, err := svc.Update(r.Context(), practiceID, referralID, referrals.UpdateInput{
			PartnerID:      payload.PartnerID,
			ClearPartner:   payload.ClearPartner,
			PatientName:    payload.PatientName,
			PatientPhone:   payload.PatientPhone,
			Procedure:      payload.Procedure,
			EstimatedValue: payload.EstimatedValue,
			Notes:          payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, referral)
	}
}

type referralTransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// ReferralTransition moves a referral along its pipeline.
func ReferralTransition(svc *referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		referralID, err := pathUUID(chi.URLParam(r, "referralId"), "referral id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload referralTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseReferralStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
			return
		}

		referral, err := svc.Transition(r.Context(), practiceID, referralID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, referral)
	}
}

// ReferralDelete removes a referral outright.
func ReferralDelete(svc *referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		referralID, err := pathUUID(chi.URLParam(r, "referralId"), "referral id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), practiceID, referralID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// parseQueryTime reads an RFC 3339 timestamp query parameter, nil when absent.
func parseQueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key+" timestamp")
	}
	return &ts, nil
}
