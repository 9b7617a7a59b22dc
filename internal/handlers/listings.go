package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/farmkit/agrorent/internal/listing"
)

// searchListings filters active listings by ?q= (name) and ?location=
func (r *Router) searchListings(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	listings, err := r.listings.Search(req.Context(), q.Get("q"), q.Get("location"))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, listings)
}

func (r *Router) getListing(w http.ResponseWriter, req *http.Request) {
	l, err := r.listings.Get(req.Context(), principal(req), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (r *Router) myListings(w http.ResponseWriter, req *http.Request) {
	listings, err := r.listings.ByFarmer(req.Context(), principal(req).UserID)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, listings)
}

func (r *Router) addListing(w http.ResponseWriter, req *http.Request) {
	var body listing.Input
	if !r.decodeJSON(w, req, &body) {
		return
	}
	l, err := r.listings.Add(req.Context(), principal(req), body)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (r *Router) removeListing(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if err := r.listings.Remove(req.Context(), principal(req), id); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Listing removed",
		"id":      id,
	})
}
