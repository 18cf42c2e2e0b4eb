package api

import (
	"net/http"

	"github.com/garnizeh/shiftstaff/internal/staffing"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

type ShiftsHandler struct {
	svc *staffing.Service
}

func NewShiftsHandler(svc *staffing.Service) *ShiftsHandler {
	return &ShiftsHandler{svc: svc}
}

type editShiftRequest struct {
	Scope            staffing.Scope `json:"scope"`
	StartTime        *string        `json:"start_time"`
	EndTime          *string        `json:"end_time"`
	WorkersNeeded    *int           `json:"workers_needed"`
	ConfirmOverstaff bool           `json:"confirm_overstaff"`
	Override         bool           `json:"override"`
}

// Edit changes one shift or the rest of its series. A capacity drop below current staffing
// answers 409 with a confirmation until confirm_overstaff is set.
func (h *ShiftsHandler) Edit(w http.ResponseWriter, r *http.Request) {
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
	var req editShiftRequest
	if err := decodeBody(r, "shift_edit", &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.EditShiftSeries(r.Context(), actor, staffing.EditRequest{
		ShiftID: id,
		Scope:   req.Scope,
		Changes: models.ShiftChanges{
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			WorkersNeeded: req.WorkersNeeded,
		},
		ConfirmOverstaff: req.ConfirmOverstaff,
		Override:         req.Override,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, res, res.Confirmation)
}

// Cancel deletes a shift; ?override=true bypasses the start-time guard.
func (h *ShiftsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.svc.CancelShift(r.Context(), actor, id, queryBool(r, "override"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}
