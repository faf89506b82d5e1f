package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/api/validators"
	"github.com/orthodeskhq/orthodesk-backend/internal/browse"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

// PickerOpen starts a media-picker dialog at the library root.
func PickerOpen(svc browse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := userFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload browse.OpenInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Open(r.Context(), userID, practiceID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

type pickerNavigateRequest struct {
	FolderID *uuid.UUID `json:"folder_id"`
}

// PickerNavigate descends into a folder or jumps back along the breadcrumb.
// A null folder_id returns to the root.
func PickerNavigate(svc browse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		practiceID, pickerID, err := pickerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pickerNavigateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Navigate(r.Context(), practiceID, pickerID, payload.FolderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// PickerSetFilters updates the search/kind filters.
func PickerSetFilters(svc browse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		practiceID, pickerID, err := pickerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload browse.FiltersInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetFilters(r.Context(), practiceID, pickerID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type pickerTagRequest struct {
	Tag string `json:"tag" validate:"required,min=1"`
}

// PickerToggleTag flips one tag in the active tag filter.
func PickerToggleTag(svc browse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		practiceID, pickerID, err := pickerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pickerTagRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ToggleTag(r.Context(), practiceID, pickerID, strings.TrimSpace(payload.Tag))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// PickerClearTags drops the whole tag filter at once.
func PickerClearTags(svc browse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		practiceID, pickerID, err := pickerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ClearTags(r.Context(), practiceID, pickerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type pickerSelectRequest struct {
	AssetID  uuid.UUID `json:"asset_id" validate:"required"`
	Selected bool      `json:"selected"`
}

// PickerToggleSelection adds or removes one asset from the selection.
func PickerToggleSelection(svc browse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		practiceID, pickerID, err := pickerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pickerSelectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ToggleSelection(r.Context(), practiceID, pickerID, payload.AssetID, payload.Selected)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// PickerConfirm hands the selection back to the consumer and closes the
// dialog.
func PickerConfirm(svc browse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		practiceID, pickerID, err := pickerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.Confirm(r.Context(), practiceID, pickerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}

// PickerCancel discards the dialog without handing anything back.
func PickerCancel(svc browse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		practiceID, pickerID, err := pickerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), practiceID, pickerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

func pickerIdentity(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	practiceID, err := practiceFromContext(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	pickerID, err := pathUUID(chi.URLParam(r, "pickerId"), "picker id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return practiceID, pickerID, nil
}
