package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/internal/address"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

type resolveAddressRequest struct {
	PlaceID string `json:"place_id"`
}

// AddressSuggest returns autocomplete suggestions for the practice profile
// address form.
func AddressSuggest(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		req := address.SuggestRequest{
			Query:    strings.TrimSpace(r.URL.Query().Get("query")),
			Country:  strings.TrimSpace(r.URL.Query().Get("country")),
			Language: strings.TrimSpace(r.URL.Query().Get("language")),
		}

		suggestions, err := svc.Suggest(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"suggestions": suggestions})
	}
}

// AddressResolve resolves a place ID into a canonical address.
func AddressResolve(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		var payload resolveAddressRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid json payload"))
			return
		}

		resolved, err := svc.Resolve(ctx, payload.PlaceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resolved)
	}
}
