package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/api/validators"
	"github.com/orthodeskhq/orthodesk-backend/internal/partners"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

type partnerCreateRequest struct {
	Name         string  `json:"name" validate:"required,min=1"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Specialty    *string `json:"specialty,omitempty"`
	Tier         string  `json:"tier,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// PartnerCreate registers a referring partner for the active practice.
func PartnerCreate(svc *partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload partnerCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var tier enums.PartnerTier
		if raw := strings.TrimSpace(payload.Tier); raw != "" {
			tier, err = enums.ParsePartnerTier(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid tier"))
				return
			}
		}

		partner, err := svc.Create(r.Context(), partners.CreateInput{
			PracticeID:   practiceID,
			Name:         payload.Name,
			ContactName:  payload.ContactName,
			ContactEmail: payload.ContactEmail,
			ContactPhone: payload.ContactPhone,
			Specialty:    payload.Specialty,
			Tier:         tier,
			Notes:        payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, partner)
	}
}

// PartnerList pages the partner directory with optional search/tier filters.
func PartnerList(svc *partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
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

		params := partners.ListParams{
			PracticeID:      practiceID,
			Search:          strings.TrimSpace(r.URL.Query().Get("search")),
			IncludeArchived: r.URL.Query().Get("include_archived") == "true",
			Page:            page,
			Limit:           limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("tier")); raw != "" {
			tier, err := enums.ParsePartnerTier(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid tier"))
				return
			}
			params.Tier = &tier
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PartnerDetail returns one partner by id.
func PartnerDetail(svc *partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := pathUUID(chi.URLParam(r, "partnerId"), "partner id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partner, err := svc.Get(r.Context(), practiceID, partnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, partner)
	}
}

type partnerUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Specialty    *string `json:"specialty,omitempty"`
	Tier         *string `json:"tier,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// PartnerUpdate edits a partner's profile fields.
func PartnerUpdate(svc *partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := pathUUID(chi.URLParam(r, "partnerId"), "partner id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload partnerUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := partners.UpdateInput{
			Name:         payload.Name,
			ContactName:  payload.ContactName,
			ContactEmail: payload.ContactEmail,
			ContactPhone: payload.ContactPhone,
			Specialty:    payload.Specialty,
			Notes:        payload.Notes,
		}
		if payload.Tier != nil {
			tier, err := enums.ParsePartnerTier(strings.TrimSpace(*payload.Tier))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid tier"))
				return
			}
			input.Tier = &tier
		}

		partner, err := svc.Update(r.Context(), practiceID, partnerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, partner)
	}
}

// PartnerArchive hides a partner from active listings while keeping its
// referral history intact.
func PartnerArchive(svc *partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerToggle(svc, logg, w, r, true)
	}
}

// PartnerUnarchive restores an archived partner.
func PartnerUnarchive(svc *partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerToggle(svc, logg, w, r, false)
	}
}

func partnerToggle(svc *partners.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request, archive bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
		return
	}

	practiceID, err := practiceFromContext(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	partnerID, err := pathUUID(chi.URLParam(r, "partnerId"), "partner id")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	var partner any
	if archive {
		partner, err = svc.Archive(r.Context(), practiceID, partnerID)
	} else {
		partner, err = svc.Unarchive(r.Context(), practiceID, partnerID)
	}
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	responses.WriteSuccess(w, partner)
}
