package controllers

import (
	"context"
	"net/http"

	"github.com/orthodeskhq/orthodesk-backend/api/responses"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
	"github.com/orthodeskhq/orthodesk-backend/pkg/redis"
	"github.com/orthodeskhq/orthodesk-backend/pkg/storage/gcs"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OrthoDesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each backing dependency. A failing dependency flips the
// response to 503 so the probe pulls the instance out of rotation.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OrthoDesk-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		ping := func(name string, fn func(context.Context) error) {
			if fn == nil {
				checks[name] = "skipped"
				return
			}
			if err := fn(r.Context()); err != nil {
				healthy = false
				checks[name] = "down"
				if logg != nil {
					logg.Error(r.Context(), "health check failed: "+name, err)
				}
				return
			}
			checks[name] = "up"
		}

		if dbP != nil {
			ping("database", dbP.Ping)
		} else {
			ping("database", nil)
		}
		if redisP != nil {
			ping("redis", redisP.Ping)
		} else {
			ping("redis", nil)
		}
		if gcsP != nil {
			ping("gcs", gcsP.Ping)
		} else {
			ping("gcs", nil)
		}

		status := http.StatusOK
		payload := map[string]any{"status": "ready", "checks": checks}
		if !healthy {
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}
