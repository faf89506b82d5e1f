package controllers

import (
	"net/http"

	"github.com/orthodeskhq/orthodesk-backend/api/middleware"
	"github.com/orthodeskhq/orthodesk-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if practice := middleware.PracticeIDFromContext(r.Context()); practice != "" {
			payload["practice_id"] = practice
		}
		responses.WriteSuccess(w, payload)
	}
}
