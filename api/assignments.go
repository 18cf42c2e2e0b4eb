package api

import (
	"net/http"

	"github.com/garnizeh/shiftstaff/internal/staffing"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

type AssignmentsHandler struct {
	svc *staffing.Service
}

func NewAssignmentsHandler(svc *staffing.Service) *AssignmentsHandler {
	return &AssignmentsHandler{svc: svc}
}

type assignRequest struct {
	Mode     string  `json:"mode"`
	UserIDs  []int64 `json:"user_ids"`
	ShiftIDs []int64 `json:"shift_ids"`
}

type removeRequest struct {
	UserID   int64   `json:"user_id"`
	ShiftIDs []int64 `json:"shift_ids"`
}

type removeResponse struct {
	Removed int64 `json:"removed"`
}

type cancelAssignmentRequest struct {
	Reason models.CancellationReason `json:"reason"`
}

// cancelAssignmentResponse flags reasons the worker must back with a certificate.
type cancelAssignmentResponse struct {
	*models.ShiftAssignment
	RequiresProof bool `json:"requires_proof"`
}

type availabilityRequest struct {
	WorkerIDs []int64 `json:"worker_ids"`
	ShiftIDs  []int64 `json:"shift_ids"`
}

// Assign runs a direct assignment (the default) or, with mode "bulk", a conflict and
// capacity checked bulk assignment.
func (h *AssignmentsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req assignRequest
	if err := decodeBody(r, "assign", &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Mode == "bulk" {
		res, err := h.svc.BulkAssign(r.Context(), actor, req.UserIDs, req.ShiftIDs)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, res, http.StatusOK)
		return
	}

	res, err := h.svc.AssignDirect(r.Context(), actor, req.UserIDs, req.ShiftIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

func (h *AssignmentsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req removeRequest
	if err := decodeBody(r, "assign_remove", &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.svc.RemoveFromList(r.Context(), actor, req.UserID, req.ShiftIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, removeResponse{Removed: n}, http.StatusOK)
}

func (h *AssignmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req cancelAssignmentRequest
	if err := decodeBody(r, "assignment_cancel", &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.svc.CancelAssignment(r.Context(), actor, id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, cancelAssignmentResponse{ShiftAssignment: a, RequiresProof: req.Reason.RequiresProof()}, http.StatusOK)
}

// track serves the check-in, check-out and no-show endpoints, which share a shape.
func (h *AssignmentsHandler) track(op func(r *http.Request, actor models.Actor, id int64) (*models.ShiftAssignment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		a, err := op(r, actor, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, a, http.StatusOK)
	}
}

func (h *AssignmentsHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.track(func(r *http.Request, actor models.Actor, id int64) (*models.ShiftAssignment, error) {
		return h.svc.CheckIn(r.Context(), actor, id)
	})(w, r)
}

func (h *AssignmentsHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.track(func(r *http.Request, actor models.Actor, id int64) (*models.ShiftAssignment, error) {
		return h.svc.CheckOut(r.Context(), actor, id)
	})(w, r)
}

func (h *AssignmentsHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.track(func(r *http.Request, actor models.Actor, id int64) (*models.ShiftAssignment, error) {
		return h.svc.MarkNoShow(r.Context(), actor, id)
	})(w, r)
}

// Availability classifies every requested shift for every requested worker.
func (h *AssignmentsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req availabilityRequest
	if err := decodeBody(r, "availability", &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.ComputeAvailability(r.Context(), actor, req.WorkerIDs, req.ShiftIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}
