package staffing

import (
	"context"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/interval"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

type Scope string

const (
	ScopeSingle        Scope = "single"
	ScopeThisAndFuture Scope = "this_and_future"
)

type EditRequest struct {
	ShiftID int64
	Scope   Scope
	Changes models.ShiftChanges
	// ConfirmOverstaff acknowledges lowering capacity below current staffing.
	ConfirmOverstaff bool
	// Override allows moving the start of a staffed shift inside the guard window.
	Override bool
}

type EditResult struct {
	Updated      int64                 `json:"updated"`
	ShiftIDs     []int64               `json:"shift_ids"`
	Confirmation *ConfirmationRequired `json:"confirmation,omitempty"`
}

// EditShiftSeries applies a time and/or capacity change to one shift or to every remaining
// shift of its job (dated today or later). All checks run before the single batch write.
func (s *Service) EditShiftSeries(ctx context.Context, actor models.Actor, req EditRequest) (EditResult, error) {
	if err := requireAdmin(actor); err != nil {
		return EditResult{}, err
	}
	if err := validateChanges(req); err != nil {
		return EditResult{}, err
	}

	sh, err := s.loadShift(ctx, req.ShiftID)
	if err != nil {
		return EditResult{}, err
	}
	if _, err := s.loadJob(ctx, actor, sh.JobID); err != nil {
		return EditResult{}, err
	}

	affected := []models.Shift{*sh}
	if req.Scope == ScopeThisAndFuture {
		affected, err = s.store.ListShiftsByJob(ctx, sh.JobID, s.today())
		if err != nil {
			return EditResult{}, fmt.Errorf("list shifts: %w", err)
		}
	}
	if len(affected) == 0 {
		return EditResult{ShiftIDs: []int64{}}, nil
	}

	for _, a := range affected {
		start, end := a.StartTime, a.EndTime
		if req.Changes.StartTime != nil {
			start = *req.Changes.StartTime
		}
		if req.Changes.EndTime != nil {
			end = *req.Changes.EndTime
		}
		if !interval.IsValidRange(start, end) {
			return EditResult{}, invalid("end_time", "shift %d on %s would end at %s before starting at %s", a.ID, a.Date, end, start)
		}
	}

	ids := shiftIDs(affected)
	counts, err := s.store.CountActiveByShifts(ctx, ids)
	if err != nil {
		return EditResult{}, fmt.Errorf("count assignments: %w", err)
	}

	if req.Changes.StartTime != nil && !req.Override {
		newStart := interval.MustClock(*req.Changes.StartTime)
		var blocked []int64
		for _, a := range affected {
			if cur, err := interval.ParseClock(a.StartTime); err == nil && cur == newStart {
				continue
			}
			if s.guarded(a, counts[a.ID]) {
				blocked = append(blocked, a.ID)
			}
		}
		if len(blocked) > 0 {
			return EditResult{}, &GuardError{ShiftIDs: blocked, Action: "start time change"}
		}
	}

	if req.Changes.WorkersNeeded != nil && !req.ConfirmOverstaff {
		var over []int64
		for _, a := range affected {
			if counts[a.ID] > *req.Changes.WorkersNeeded {
				over = append(over, a.ID)
			}
		}
		if len(over) > 0 {
			return EditResult{
				ShiftIDs: ids,
				Confirmation: &ConfirmationRequired{
					Kind:     ConfirmCapacityBelowStaffing,
					ShiftIDs: over,
					Message:  fmt.Sprintf("%d shift(s) have more active assignments than %d; they will be overstaffed", len(over), *req.Changes.WorkersNeeded),
				},
			}, nil
		}
	}

	n, err := s.store.UpdateShifts(ctx, ids, req.Changes)
	if err != nil {
		return EditResult{}, fmt.Errorf("update shifts: %w", err)
	}

	if req.Changes.StartTime != nil || req.Changes.EndTime != nil {
		s.notifyShiftWorkers(ctx, ids, "shift.updated", "The times of a shift you are assigned to have changed")
	}

	return EditResult{Updated: n, ShiftIDs: ids}, nil
}

func validateChanges(req EditRequest) error {
	switch req.Scope {
	case ScopeSingle, ScopeThisAndFuture:
	default:
		return invalid("scope", "must be %q or %q", ScopeSingle, ScopeThisAndFuture)
	}
	if req.ShiftID <= 0 {
		return invalid("shift_id", "required")
	}
	c := req.Changes
	if c.Empty() {
		return invalid("changes", "nothing to update")
	}
	if c.StartTime != nil {
		if _, err := interval.ParseClock(*c.StartTime); err != nil {
			return invalid("start_time", "%v", err)
		}
	}
	if c.EndTime != nil {
		if _, err := interval.ParseClock(*c.EndTime); err != nil {
			return invalid("end_time", "%v", err)
		}
	}
	if c.WorkersNeeded != nil && *c.WorkersNeeded < 1 {
		return invalid("workers_needed", "must be at least 1")
	}
	return nil
}

// notifyShiftWorkers tells every worker actively assigned to the shifts, once per worker.
func (s *Service) notifyShiftWorkers(ctx context.Context, ids []int64, kind, message string) {
	s.notifyUsers(ctx, s.bookedUsers(ctx, ids), kind, message)
}

// bookedUsers returns the distinct users actively assigned to the shifts. Lookup failures
// are logged and yield no users.
func (s *Service) bookedUsers(ctx context.Context, ids []int64) []int64 {
	if s.notifier == nil || len(ids) == 0 {
		return nil
	}
	bookings, err := s.store.ListShiftBookings(ctx, ids)
	if err != nil {
		s.logger.Warn("list shift bookings for notification", "err", err)
		return nil
	}
	users := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		users = append(users, b.UserID)
	}
	return uniqueIDs(users)
}

func (s *Service) notifyUsers(ctx context.Context, users []int64, kind, message string) {
	for _, u := range users {
		s.notify(ctx, u, kind, message)
	}
}
