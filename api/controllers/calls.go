package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/api/validators"
	"github.com/orthodeskhq/orthodesk-backend/internal/calls"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

type callLogRequest struct {
	Direction       string     `json:"direction" validate:"required"`
	CallerName      *string    `json:"caller_name,omitempty"`
	CallerPhone     string     `json:"caller_phone" validate:"required"`
	DurationSeconds int        `json:"duration_seconds" validate:"min=0"`
	Outcome         string     `json:"outcome" validate:"required"`
	PartnerID       *uuid.UUID `json:"partner_id,omitempty"`
	ReferralID      *uuid.UUID `json:"referral_id,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	OccurredAt      *time.Time `json:"occurred_at,omitempty"`
}

// CallLog records a phone call against the active practice.
func CallLog(svc *calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "call service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload callLogRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		direction, err := enums.ParseCallDirection(strings.TrimSpace(payload.Direction))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid direction"))
			return
		}
		outcome, err := enums.ParseCallOutcome(strings.TrimSpace(payload.Outcome))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid outcome"))
			return
		}

		call, err := svc.Log(r.Context(), calls.LogInput{
			PracticeID:      practiceID,
			Direction:       direction,
			CallerName:      payload.CallerName,
			CallerPhone:     payload.CallerPhone,
			DurationSeconds: payload.DurationSeconds,
			Outcome:         outcome,
			PartnerID:       payload.PartnerID,
			ReferralID:      payload.ReferralID,
			Notes:           payload.Notes,
			OccurredAt:      payload.OccurredAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, call)
	}
}

// CallList pages call records with direction/outcome/date filters.
func CallList(svc *calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "call service unavailable"))
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

		params := calls.ListParams{
			PracticeID: practiceID,
			Page:       page,
			Limit:      limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("direction")); raw != "" {
			direction, err := enums.ParseCallDirection(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid direction"))
				return
			}
			params.Direction = &direction
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("outcome")); raw != "" {
			outcome, err := enums.ParseCallOutcome(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid outcome"))
				return
			}
			params.Outcome = &outcome
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("partner_id")); raw != "" {
			partnerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid partner_id"))
				return
			}
			params.PartnerID = &partnerID
		}
		if params.From, err = parseQueryTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.To, err = parseQueryTime(r, "to"); err != nil {
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

// CallDetail returns one call record by id.
func CallDetail(svc *calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "call service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		callID, err := pathUUID(chi.URLParam(r, "callId"), "call id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		call, err := svc.Get(r.Context(), practiceID, callID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, call)
	}
}

type callUpdateRequest struct {
	Outcome    *string    `json:"outcome,omitempty"`
	PartnerID  *uuid.UUID `json:"partner_id,omitempty"`
	ReferralID *uuid.UUID `json:"referral_id,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// CallUpdate amends a call record, typically to set the outcome or link the
// call to a referral after the fact.
func CallUpdate(svc *calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "call service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		callID, err := pathUUID(chi.URLParam(r, "callId"), "call id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload callUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := calls.UpdateInput{
			PartnerID:  payload.PartnerID,
			ReferralID: payload.ReferralID,
			Notes:      payload.Notes,
		}
		if payload.Outcome != nil {
			outcome, err := enums.ParseCallOutcome(strings.TrimSpace(*payload.Outcome))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid outcome"))
				return
			}
			input.Outcome = &outcome
		}

		call, err := svc.Update(r.Context(), practiceID, callID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, call)
	}
}

// CallDelete removes a call record.
func CallDelete(svc *calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "call service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		callID, err := pathUUID(chi.URLParam(r, "callId"), "call id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), practiceID, callID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
