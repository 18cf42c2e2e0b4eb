package api

import (
	"net/http"

	"github.com/garnizeh/shiftstaff/internal/staffing"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

type JobsHandler struct {
	svc *staffing.Service
}

func NewJobsHandler(svc *staffing.Service) *JobsHandler {
	return &JobsHandler{svc: svc}
}

type createJobResponse struct {
	Job    *models.Job    `json:"job"`
	Shifts []models.Shift `json:"shifts"`
}

type changeDatesRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Confirm   bool   `json:"confirm"`
}

type inviteRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

// requestActor returns the caller set by the JWT middleware.
func requestActor(r *http.Request) (models.Actor, error) {
	a, ok := ActorFromContext(r.Context())
	if !ok {
		return models.Actor{}, errUnauthorized("missing actor")
	}
	return a, nil
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in staffing.JobInput
	if err := decodeBody(r, "job_create", &in); err != nil {
		writeError(w, r, err)
		return
	}

	job, shifts, err := h.svc.CreateJob(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, createJobResponse{Job: job, Shifts: shifts}, http.StatusCreated)
}

func (h *JobsHandler) ListShifts(w http.ResponseWriter, r *http.Request) {
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

	shifts, err := h.svc.ListJobShifts(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	writeJSON(w, shifts, http.StatusOK)
}

func (h *JobsHandler) Capacity(w http.ResponseWriter, r *http.Request) {
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

	summary, err := h.svc.JobCapacity(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, summary, http.StatusOK)
}

func (h *JobsHandler) ChangeDates(w http.ResponseWriter, r *http.Request) {
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
	var req changeDatesRequest
	if err := decodeBody(r, "job_dates", &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.ChangeJobDates(r.Context(), actor, id, req.StartDate, req.EndDate, req.Confirm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, res, res.Confirmation)
}

func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.svc.CancelJob(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

func (h *JobsHandler) Invite(w http.ResponseWriter, r *http.Request) {
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
	var req inviteRequest
	if err := decodeBody(r, "invite", &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.InviteWorkers(r.Context(), actor, id, req.UserIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if len(res.Invitations) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, res, status)
}
