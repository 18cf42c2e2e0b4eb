package api

import (
	"net/http"

	"github.com/garnizeh/shiftstaff/internal/staffing"
)

type InvitationsHandler struct {
	svc *staffing.Service
}

func NewInvitationsHandler(svc *staffing.Service) *InvitationsHandler {
	return &InvitationsHandler{svc: svc}
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

func (h *InvitationsHandler) Respond(w http.ResponseWriter, r *http.Request) {
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
	var req respondRequest
	if err := decodeBody(r, "invitation_respond", &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.RespondInvitation(r.Context(), actor, id, req.Accept)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}
