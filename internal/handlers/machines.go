package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/farmkit/agrorent/internal/machine"
)

// browseMachines is the farmer catalogue; unavailable machines come back with bookable=false
func (r *Router) browseMachines(w http.ResponseWriter, req *http.Request) {
	machines, err := r.machines.Browse(req.Context())
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, machines)
}

func (r *Router) adminListMachines(w http.ResponseWriter, req *http.Request) {
	machines, err := r.machines.List(req.Context(), principal(req))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, machines)
}

func (r *Router) getMachine(w http.ResponseWriter, req *http.Request) {
	m, err := r.machines.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (r *Router) createMachine(w http.ResponseWriter, req *http.Request) {
	var body machine.Input
	if !r.decodeJSON(w, req, &body) {
		return
	}
	m, err := r.machines.Create(req.Context(), principal(req), body)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (r *Router) patchMachine(w http.ResponseWriter, req *http.Request) {
	var body machine.Patch
	if !r.decodeJSON(w, req, &body) {
		return
	}
	m, err := r.machines.Patch(req.Context(), principal(req), mux.Vars(req)["id"], body)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// deleteMachine soft-deletes; existing bookings keep showing the machine
func (r *Router) deleteMachine(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if err := r.machines.Delete(req.Context(), principal(req), id); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Machine deleted successfully",
		"id":      id,
	})
}

// toggleMachine flips Available and Unavailable
func (r *Router) toggleMachine(w http.ResponseWriter, req *http.Request) {
	m, err := r.machines.ToggleStatus(req.Context(), principal(req), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}
