package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/shiftstaff/internal/staffing"
)

type CalendarHandler struct {
	svc *staffing.Service
}

func NewCalendarHandler(svc *staffing.Service) *CalendarHandler {
	return &CalendarHandler{svc: svc}
}

// Day returns the caller's company shifts on {date} arranged in swimlanes.
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.svc.DayLayout(r.Context(), actor, mux.Vars(r)["date"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, view, http.StatusOK)
}
