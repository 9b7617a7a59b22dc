package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/booking"
	"github.com/farmkit/agrorent/internal/buildinfo"
	"github.com/farmkit/agrorent/internal/config"
	"github.com/farmkit/agrorent/internal/i18n"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/listing"
	"github.com/farmkit/agrorent/internal/machine"
	"github.com/farmkit/agrorent/internal/middleware"
	"github.com/farmkit/agrorent/internal/models"
	"github.com/farmkit/agrorent/internal/payment"
	"github.com/farmkit/agrorent/internal/services/dashboard"
	"github.com/farmkit/agrorent/internal/websocket"
)

// Services are the collaborators the HTTP layer calls into
type Services struct {
	DB       *gorm.DB
	Identity *identity.Provider
	Bookings *booking.Engine
	Machines *machine.Catalog
	Listings *listing.Market
	Stats    *dashboard.Service
	Hub      *websocket.Hub
	I18n     *i18n.Catalog
}

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	cfg *config.Config
	db  *gorm.DB

	identity *identity.Provider
	bookings *booking.Engine
	machines *machine.Catalog
	listings *listing.Market
	stats    *dashboard.Service
	hub      *websocket.Hub
	i18n     *i18n.Catalog
	payee    payment.Payee
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, s Services) *Router {
	if s.I18n == nil {
		s.I18n = i18n.New(cfg.Locale.DefaultLanguage)
	}
	r := &Router{
		Router:   mux.NewRouter(),
		cfg:      cfg,
		db:       s.DB,
		identity: s.Identity,
		bookings: s.Bookings,
		machines: s.Machines,
		listings: s.Listings,
		stats:    s.Stats,
		hub:      s.Hub,
		i18n:     s.I18n,
		payee:    payment.Payee{UPIID: cfg.Payment.UPIID, Name: cfg.Payment.Payee},
	}

	r.Use(middleware.Locale(r.i18n))
	r.Use(middleware.Auth(r.identity, r.identity.Profiles()))

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")
	auth.HandleFunc("/refresh", r.refresh).Methods("POST")
	auth.HandleFunc("/session", r.currentSession).Methods("GET")
	auth.HandleFunc("/profile", r.updateProfile).Methods("PATCH")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", r.getStatus).Methods("GET")
	api.HandleFunc("/guard", r.guardStatus).Methods("GET")

	// Farmer routes. Registered before the member routes so /listings/mine wins over /listings/{id}.
	farmer := api.NewRoute().Subrouter()
	farmer.Use(middleware.RequireRole(models.RoleFarmer, r.respondAppError))
	farmer.HandleFunc("/bookings", r.createBooking).Methods("POST")
	farmer.HandleFunc("/bookings/mine", r.myBookings).Methods("GET")
	farmer.HandleFunc("/bookings/{id}/payment", r.confirmPayment).Methods("POST")
	farmer.HandleFunc("/bookings/{id}/payment-qr.png", r.paymentQR).Methods("GET")
	farmer.HandleFunc("/listings/mine", r.myListings).Methods("GET")
	farmer.HandleFunc("/listings", r.addListing).Methods("POST")
	farmer.HandleFunc("/farmer/stats", r.farmerStats).Methods("GET")

	// Routes for any signed-in user
	member := api.NewRoute().Subrouter()
	member.Use(middleware.RequireSession(r.respondAppError))
	member.HandleFunc("/machines", r.browseMachines).Methods("GET")
	member.HandleFunc("/machines/{id}/quote", r.quoteMachine).Methods("GET")
	member.HandleFunc("/listings", r.searchListings).Methods("GET")
	member.HandleFunc("/listings/{id}", r.getListing).Methods("GET")
	member.HandleFunc("/listings/{id}", r.removeListing).Methods("DELETE")
	member.HandleFunc("/bookings/{id}/receipt.pdf", r.bookingReceipt).Methods("GET")

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(models.RoleAdmin, r.respondAppError))
	admin.HandleFunc("/bookings", r.adminBookings).Methods("GET")
	admin.HandleFunc("/bookings/export.xlsx", r.exportBookings).Methods("GET")
	admin.HandleFunc("/bookings/{id}/decision", r.decideBooking).Methods("POST")
	admin.HandleFunc("/calendar", r.bookingCalendar).Methods("GET")
	admin.HandleFunc("/machines", r.adminListMachines).Methods("GET")
	admin.HandleFunc("/machines", r.createMachine).Methods("POST")
	admin.HandleFunc("/machines/{id}", r.getMachine).Methods("GET")
	admin.HandleFunc("/machines/{id}", r.patchMachine).Methods("PATCH")
	admin.HandleFunc("/machines/{id}", r.deleteMachine).Methods("DELETE")
	admin.HandleFunc("/machines/{id}/toggle", r.toggleMachine).Methods("POST")
	admin.HandleFunc("/stats", r.adminStats).Methods("GET")

	// Session-change push
	r.HandleFunc("/ws", r.serveWs)

	r.registerPages()

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	status := "ok"
	if sqlDB, err := r.db.DB(); err != nil || sqlDB.PingContext(req.Context()) != nil {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"database": r.cfg.Database.Driver,
	})
}

// getStatus returns the current status
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "running",
		"version":    buildinfo.Version,
		"build":      buildinfo.Summary(),
		"started_at": buildinfo.StartTime,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondAppError maps an error to its status and a message in the request's language.
// Store failures are logged and never leak their cause.
func (r *Router) respondAppError(w http.ResponseWriter, req *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	key := apperr.KeyOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", req.Method, req.URL.Path, err)
		key = "error.store"
	}
	if key == "" {
		key = "error.invalid_request"
	}
	respondJSON(w, status, map[string]string{
		"error": r.i18n.T(middleware.LanguageFrom(req.Context()), key),
		"code":  key,
	})
}

// decodeJSON reads the request body into v, answering 400 itself on failure
func (r *Router) decodeJSON(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, r.i18n.T(middleware.LanguageFrom(req.Context()), "error.invalid_request"))
		return false
	}
	return true
}

func principal(req *http.Request) identity.Principal {
	return middleware.ViewerFrom(req.Context()).Principal()
}
