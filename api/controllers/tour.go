package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orthodeskhq/orthodesk-backend/api/middleware"
	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/internal/tour"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

func tourIdentity(r *http.Request) (string, string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	name := strings.TrimSpace(chi.URLParam(r, "tourName"))
	if name == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "tour name required")
	}
	return userID, name, nil
}

// TourState returns the user's current state for a tour.
func TourState(svc *tour.Service, logg *logger.Logger) http.HandlerFunc {
	return tourHandler(svc, logg, func(r *http.Request, userID, name string) (tour.State, error) {
		return svc.Get(r.Context(), userID, name)
	})
}

// TourStart opens a tour at its first step.
func TourStart(svc *tour.Service, logg *logger.Logger) http.HandlerFunc {
	return tourHandler(svc, logg, func(r *http.Request, userID, name string) (tour.State, error) {
		return svc.Start(r.Context(), userID, name)
	})
}

// TourNext advances an open tour; stepping past the last step completes it.
func TourNext(svc *tour.Service, logg *logger.Logger) http.HandlerFunc {
	return tourHandler(svc, logg, func(r *http.Request, userID, name string) (tour.State, error) {
		return svc.Next(r.Context(), userID, name)
	})
}

// TourPrev steps an open tour backwards.
func TourPrev(svc *tour.Service, logg *logger.Logger) http.HandlerFunc {
	return tourHandler(svc, logg, func(r *http.Request, userID, name string) (tour.State, error) {
		return svc.Prev(r.Context(), userID, name)
	})
}

// TourClose dismisses an open tour without completing it.
func TourClose(svc *tour.Service, logg *logger.Logger) http.HandlerFunc {
	return tourHandler(svc, logg, func(r *http.Request, userID, name string) (tour.State, error) {
		return svc.Close(r.Context(), userID, name)
	})
}

// TourReset clears the stored state so the tour can run again from scratch.
func TourReset(svc *tour.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tour service unavailable"))
			return
		}

		userID, name, err := tourIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Reset(r.Context(), userID, name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "reset"})
	}
}

func tourHandler(svc *tour.Service, logg *logger.Logger, op func(*http.Request, string, string) (tour.State, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tour service unavailable"))
			return
		}

		userID, name, err := tourIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := op(r, userID, name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}
