package controllers

import (
	"net/http"
	"strings"

	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/internal/platformspec"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

// PlatformConstraint evaluates the effective constraint for a comma-separated
// platforms query, so clients can render upload rules before staging files.
func PlatformConstraint(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var platforms []enums.Platform
		if raw := strings.TrimSpace(r.URL.Query().Get("platforms")); raw != "" {
			parsed, err := enums.ParsePlatforms(strings.Split(raw, ","))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platforms"))
				return
			}
			platforms = parsed
		}

		responses.WriteSuccess(w, map[string]any{
			"platforms":  platforms,
			"constraint": platformspec.Effective(platforms),
		})
	}
}
