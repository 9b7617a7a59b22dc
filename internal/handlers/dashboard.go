package handlers

import (
	"net/http"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/guard"
	"github.com/farmkit/agrorent/internal/middleware"
	"github.com/farmkit/agrorent/internal/models"
	"github.com/farmkit/agrorent/internal/websocket"
)

func (r *Router) adminStats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.stats.Admin(req.Context(), principal(req))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (r *Router) farmerStats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.stats.Farmer(req.Context(), principal(req))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// guardStatus answers guard(role) for client-side navigation: pending, redirect or ok
func (r *Router) guardStatus(w http.ResponseWriter, req *http.Request) {
	role := models.Role(req.URL.Query().Get("role"))
	if !role.Valid() {
		r.respondAppError(w, req, apperr.Validation("error.auth.invalid_role", "unknown role"))
		return
	}
	respondJSON(w, http.StatusOK, guard.Decide(middleware.GuardState(req, role)))
}

func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	websocket.ServeWs(r.hub, w, req, middleware.TokenFrom(req))
}
