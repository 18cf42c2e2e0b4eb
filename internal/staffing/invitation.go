package staffing

import (
	"context"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/models"
)

type InviteResult struct {
	Invitations []models.JobInvitation `json:"invitations"`
	Warning     string                 `json:"warning,omitempty"`
}

// InviteWorkers invites users to every upcoming shift of a job. Nothing is created when the
// job has no remaining capacity; the capacity warning is returned instead.
func (s *Service) InviteWorkers(ctx context.Context, actor models.Actor, jobID int64, userIDs []int64) (InviteResult, error) {
	if err := requireAdmin(actor); err != nil {
		return InviteResult{}, err
	}
	users := uniqueIDs(userIDs)
	if len(users) == 0 {
		return InviteResult{}, invalid("user_ids", "at least one user is required")
	}
	job, err := s.loadJob(ctx, actor, jobID)
	if err != nil {
		return InviteResult{}, err
	}

	shifts, err := s.store.ListShiftsByJob(ctx, jobID, s.today())
	if err != nil {
		return InviteResult{}, fmt.Errorf("list shifts: %w", err)
	}
	if len(shifts) == 0 {
		return InviteResult{}, invalid("job_id", "job has no upcoming shifts")
	}
	counts, err := s.store.CountActiveByShifts(ctx, shiftIDs(shifts))
	if err != nil {
		return InviteResult{}, fmt.Errorf("count assignments: %w", err)
	}
	capacity := Summarize(shifts, counts)
	if !capacity.CanAssign() {
		return InviteResult{Invitations: []models.JobInvitation{}, Warning: capacity.Warning()}, nil
	}

	res := InviteResult{Invitations: make([]models.JobInvitation, 0, len(users))}
	ids := shiftIDs(shifts)
	for _, u := range users {
		inv := models.JobInvitation{
			JobID:     job.ID,
			UserID:    u,
			InvitedBy: actor.UserID,
			ShiftIDs:  ids,
			Status:    models.InvitationPending,
			Created:   s.stamp(),
		}
		id, err := s.store.CreateInvitation(ctx, &inv)
		if err != nil {
			return res, fmt.Errorf("create invitation for user %d: %w", u, err)
		}
		inv.ID = id
		res.Invitations = append(res.Invitations, inv)
		s.notify(ctx, u, "invitation.created", fmt.Sprintf("You are invited to %d shift(s) of job %d", len(ids), job.ID))
	}
	return res, nil
}

type InvitationResponse struct {
	Invitation models.JobInvitation `json:"invitation"`
	Assignment *BulkResult          `json:"assignment,omitempty"`
}

// RespondInvitation lets the invitee accept or decline a pending invitation. Accepting
// assigns the invitee to the listed shifts that are still upcoming, skipping full or
// conflicting ones the same way bulk assignment does.
func (s *Service) RespondInvitation(ctx context.Context, actor models.Actor, invitationID int64, accept bool) (InvitationResponse, error) {
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return InvitationResponse{}, fmt.Errorf("get invitation %d: %w", invitationID, err)
	}
	if inv == nil {
		return InvitationResponse{}, ErrNotFound
	}
	if inv.UserID != actor.UserID {
		return InvitationResponse{}, ErrForbidden
	}
	if inv.Status != models.InvitationPending {
		return InvitationResponse{}, ErrInvitationClosed
	}

	status := models.InvitationDeclined
	if accept {
		status = models.InvitationAccepted
	}
	ok, err := s.store.RespondInvitation(ctx, inv.ID, status, s.stamp())
	if err != nil {
		return InvitationResponse{}, fmt.Errorf("respond invitation %d: %w", inv.ID, err)
	}
	if !ok {
		return InvitationResponse{}, ErrInvitationClosed
	}

	out := InvitationResponse{}
	if accept {
		shifts, err := s.store.ListShiftsByIDs(ctx, inv.ShiftIDs)
		if err != nil {
			return InvitationResponse{}, fmt.Errorf("list shifts: %w", err)
		}
		today := s.today()
		upcoming := shifts[:0]
		for _, sh := range shifts {
			if sh.Date >= today {
				upcoming = append(upcoming, sh)
			}
		}
		res := s.bulkAssign(ctx, inv.InvitedBy, []int64{inv.UserID}, upcoming)
		out.Assignment = &res
	}
	s.notify(ctx, inv.InvitedBy, "invitation."+string(status),
		fmt.Sprintf("User %d %s the invitation to job %d", inv.UserID, status, inv.JobID))

	updated, err := s.store.GetInvitation(ctx, inv.ID)
	if err != nil {
		return InvitationResponse{}, fmt.Errorf("get invitation %d: %w", inv.ID, err)
	}
	if updated != nil {
		out.Invitation = *updated
	}
	return out, nil
}
