package controllers

import (
	"net/http"

	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/api/validators"
	"github.com/orthodeskhq/orthodesk-backend/internal/analytics"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

// analyticsWindow reads the optional from/to query range.
func analyticsWindow(r *http.Request) (analytics.Window, error) {
	var window analytics.Window
	from, err := parseQueryTime(r, "from")
	if err != nil {
		return window, err
	}
	to, err := parseQueryTime(r, "to")
	if err != nil {
		return window, err
	}
	if from != nil {
		window.From = *from
	}
	if to != nil {
		window.To = *to
	}
	return window, nil
}

// AnalyticsPipeline reports referral counts and value grouped by status.
func AnalyticsPipeline(svc *analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		window, err := analyticsWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.ReferralPipeline(r.Context(), practiceID, window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// AnalyticsCalls reports call volume and booking rate.
func AnalyticsCalls(svc *analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		window, err := analyticsWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.CallVolume(r.Context(), practiceID, window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// AnalyticsLeaderboard ranks referring partners by referral volume.
func AnalyticsLeaderboard(svc *analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		window, err := analyticsWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.PartnerLeaderboard(r.Context(), practiceID, window, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// AnalyticsMediaUsage reports media library counts and stored bytes by kind.
func AnalyticsMediaUsage(svc *analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.MediaUsage(r.Context(), practiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// AnalyticsTrend reports daily referral counts with gap days zero-filled.
func AnalyticsTrend(svc *analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		practiceID, err := practiceFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		window, err := analyticsWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.ReferralTrend(r.Context(), practiceID, window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
