package staffing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/shiftstaff/pkg/interval"
	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

type SkipReason string

const (
	SkipFull            SkipReason = "full"
	SkipAlreadyAssigned SkipReason = "already_assigned"
	SkipConflict        SkipReason = "conflict"
)

type AssignResult struct {
	Assigned        int `json:"assigned"`
	Restored        int `json:"restored"`
	AlreadyAssigned int `json:"already_assigned"`
	Failed          int `json:"failed"`
}

type PairOutcome struct {
	UserID  int64  `json:"user_id"`
	ShiftID int64  `json:"shift_id"`
	Outcome string `json:"outcome"`
}

type BulkResult struct {
	Assigned int                `json:"assigned"`
	Skipped  map[SkipReason]int `json:"skipped"`
	Failed   int                `json:"failed"`
	Pairs    []PairOutcome      `json:"pairs"`
}

type assignOutcome int

const (
	outcomeInserted assignOutcome = iota
	outcomeRestored
	outcomeAlready
)

// AssignDirect assigns every user to every shift, inserting new rows or restoring
// cancelled/removed ones. Pairs already active are counted, not re-inserted. A store failure
// on one pair is logged and tallied; remaining pairs still run.
func (s *Service) AssignDirect(ctx context.Context, actor models.Actor, userIDs, shiftIDs []int64) (AssignResult, error) {
	shifts, users, err := s.prepareAssign(ctx, actor, userIDs, shiftIDs)
	if err != nil {
		return AssignResult{}, err
	}

	var res AssignResult
	for _, sh := range shifts {
		for _, u := range users {
			out, err := s.assignOne(ctx, actor.UserID, sh.ID, u)
			if err != nil {
				s.logger.Error("assign pair", slog.Int64("shift_id", sh.ID), slog.Int64("user_id", u), slog.Any("err", err))
				res.Failed++
				continue
			}
			switch out {
			case outcomeAlready:
				res.AlreadyAssigned++
				continue
			case outcomeRestored:
				res.Restored++
			}
			res.Assigned++
			s.notifyAssigned(ctx, u, sh)
		}
	}

	return res, nil
}

// BulkAssign assigns users to shifts, skipping pairs that are already assigned, that
// conflict with the worker's bookings, or whose shift is full. Capacity and conflicts are
// re-read for every pair, so earlier assignments in the same call are taken into account.
func (s *Service) BulkAssign(ctx context.Context, actor models.Actor, userIDs, shiftIDs []int64) (BulkResult, error) {
	shifts, users, err := s.prepareAssign(ctx, actor, userIDs, shiftIDs)
	if err != nil {
		return BulkResult{}, err
	}
	return s.bulkAssign(ctx, actor.UserID, users, shifts), nil
}

func (s *Service) bulkAssign(ctx context.Context, assignedBy int64, users []int64, shifts []models.Shift) BulkResult {
	res := BulkResult{Skipped: map[SkipReason]int{}}
	record := func(u int64, sh models.Shift, outcome string) {
		res.Pairs = append(res.Pairs, PairOutcome{UserID: u, ShiftID: sh.ID, Outcome: outcome})
	}
	skip := func(u int64, sh models.Shift, reason SkipReason) {
		res.Skipped[reason]++
		record(u, sh, string(reason))
	}

	for _, u := range users {
		bookings, err := s.store.ListActiveBookings(ctx, []int64{u})
		if err != nil {
			s.logger.Error("list bookings", slog.Int64("user_id", u), slog.Any("err", err))
			res.Failed += len(shifts)
			for _, sh := range shifts {
				record(u, sh, "failed")
			}
			continue
		}

		for _, sh := range shifts {
			counts, err := s.store.CountActiveByShifts(ctx, []int64{sh.ID})
			if err != nil {
				s.logger.Error("count assignments", slog.Int64("shift_id", sh.ID), slog.Any("err", err))
				res.Failed++
				record(u, sh, "failed")
				continue
			}

			switch Classify(sh, bookings, counts[sh.ID]) {
			case StatusAlreadyAssigned:
				skip(u, sh, SkipAlreadyAssigned)
				continue
			case StatusConflict:
				skip(u, sh, SkipConflict)
				continue
			case StatusFull:
				skip(u, sh, SkipFull)
				continue
			}

			out, err := s.assignOne(ctx, assignedBy, sh.ID, u)
			if err != nil {
				s.logger.Error("assign pair", slog.Int64("shift_id", sh.ID), slog.Int64("user_id", u), slog.Any("err", err))
				res.Failed++
				record(u, sh, "failed")
				continue
			}
			if out == outcomeAlready {
				skip(u, sh, SkipAlreadyAssigned)
				continue
			}

			res.Assigned++
			record(u, sh, "assigned")
			bookings = append(bookings, models.Booking{
				ShiftID: sh.ID, UserID: u, Date: sh.Date, StartTime: sh.StartTime, EndTime: sh.EndTime,
			})
			s.notifyAssigned(ctx, u, sh)
		}
	}

	return res
}

func (s *Service) prepareAssign(ctx context.Context, actor models.Actor, userIDs, shiftIDs []int64) ([]models.Shift, []int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	if actor.UserID <= 0 {
		return nil, nil, invalid("assigned_by", "missing acting user")
	}
	users := uniqueIDs(userIDs)
	if len(users) == 0 {
		return nil, nil, invalid("user_ids", "at least one user is required")
	}
	ids := uniqueIDs(shiftIDs)
	if len(ids) == 0 {
		return nil, nil, invalid("shift_ids", "at least one shift is required")
	}

	shifts, err := s.store.ListShiftsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("list shifts: %w", err)
	}
	if len(shifts) != len(ids) {
		return nil, nil, fmt.Errorf("shift: %w", ErrNotFound)
	}
	if err := s.checkShiftsOwned(ctx, actor, shifts); err != nil {
		return nil, nil, err
	}

	return shifts, users, nil
}

func (s *Service) checkShiftsOwned(ctx context.Context, actor models.Actor, shifts []models.Shift) error {
	seen := map[int64]bool{}
	for _, sh := range shifts {
		if seen[sh.JobID] {
			continue
		}
		seen[sh.JobID] = true
		if _, err := s.loadJob(ctx, actor, sh.JobID); err != nil {
			return err
		}
	}
	return nil
}

// assignOne makes (shiftID, userID) active. A uniqueness violation means another writer
// got there first and is reported as already assigned.
func (s *Service) assignOne(ctx context.Context, assignedBy, shiftID, userID int64) (assignOutcome, error) {
	existing, err := s.store.FindAssignment(ctx, shiftID, userID)
	if err != nil {
		return 0, fmt.Errorf("find assignment: %w", err)
	}
	now := s.stamp()
	if existing != nil {
		if existing.IsActive() {
			return outcomeAlready, nil
		}
		if err := s.store.RestoreAssignment(ctx, existing.ID, assignedBy, now); err != nil {
			return 0, fmt.Errorf("restore assignment %d: %w", existing.ID, err)
		}
		return outcomeRestored, nil
	}

	a := &models.ShiftAssignment{ShiftID: shiftID, UserID: userID, AssignedBy: assignedBy, AssignedAt: now}
	if _, err := s.store.CreateAssignment(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return outcomeAlready, nil
		}
		return 0, fmt.Errorf("create assignment: %w", err)
	}
	return outcomeInserted, nil
}

func (s *Service) notifyAssigned(ctx context.Context, userID int64, sh models.Shift) {
	s.notify(ctx, userID, "assignment.created",
		fmt.Sprintf("You were assigned to the shift on %s from %s to %s", sh.Date, sh.StartTime, sh.EndTime))
}

// CancelAssignment cancels an active assignment, keeping the row for audit. Workers may
// cancel their own assignments with a worker reason; admins may use any reason.
func (s *Service) CancelAssignment(ctx context.Context, actor models.Actor, assignmentID int64, reason models.CancellationReason) (*models.ShiftAssignment, error) {
	if !reason.Valid() {
		return nil, invalid("reason", "unknown cancellation reason %q", reason)
	}
	if !actor.Admin && !reason.WorkerAllowed() {
		return nil, invalid("reason", "%q is reserved for administrators", reason)
	}

	a, err := s.authorizedAssignment(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.CancelledAt != nil {
		return nil, ErrAlreadyCancelled
	}
	if a.DeletedAt != nil {
		return nil, ErrNotActive
	}

	ok, err := s.store.CancelAssignment(ctx, a.ID, actor.UserID, reason, s.stamp())
	if err != nil {
		return nil, fmt.Errorf("cancel assignment %d: %w", a.ID, err)
	}
	if !ok {
		return nil, ErrAlreadyCancelled
	}

	if a.UserID != actor.UserID {
		s.notify(ctx, a.UserID, "assignment.cancelled", fmt.Sprintf("Your assignment %d was cancelled (%s)", a.ID, reason))
	}

	return s.store.GetAssignment(ctx, a.ID)
}

// RemoveFromList soft-deletes the user's active assignments on the given shifts. Unlike a
// cancellation it carries no reason: the booking is treated as never having happened.
func (s *Service) RemoveFromList(ctx context.Context, actor models.Actor, userID int64, shiftIDs []int64) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if userID <= 0 {
		return 0, invalid("user_id", "required")
	}
	ids := uniqueIDs(shiftIDs)
	if len(ids) == 0 {
		return 0, invalid("shift_ids", "at least one shift is required")
	}
	shifts, err := s.store.ListShiftsByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("list shifts: %w", err)
	}
	if err := s.checkShiftsOwned(ctx, actor, shifts); err != nil {
		return 0, err
	}

	n, err := s.store.SoftDeleteAssignments(ctx, userID, ids, s.stamp())
	if err != nil {
		return 0, fmt.Errorf("remove assignments: %w", err)
	}
	return n, nil
}

// CheckIn records arrival. It is accepted from the job's check-in window before the
// shift start until the shift end.
func (s *Service) CheckIn(ctx context.Context, actor models.Actor, assignmentID int64) (*models.ShiftAssignment, error) {
	a, sh, job, err := s.activeAssignment(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.CheckedInAt != nil {
		return nil, invalid("checked_in_at", "already checked in")
	}

	start, end, err := s.shiftBounds(*sh)
	if err != nil {
		return nil, err
	}
	opens := start.Add(-time.Duration(job.CheckInWindowMin) * time.Minute)
	now := s.clock()
	if now.Before(opens) || !now.Before(end) {
		return nil, invalid("checked_in_at", "check-in is open from %s to %s", opens.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	if err := s.store.SetCheckIn(ctx, a.ID, s.stamp()); err != nil {
		return nil, fmt.Errorf("check in %d: %w", a.ID, err)
	}
	return s.store.GetAssignment(ctx, a.ID)
}

// CheckOut records departure after a check-in.
func (s *Service) CheckOut(ctx context.Context, actor models.Actor, assignmentID int64) (*models.ShiftAssignment, error) {
	a, _, _, err := s.activeAssignment(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.CheckedInAt == nil {
		return nil, invalid("checked_out_at", "not checked in")
	}
	if a.CheckedOutAt != nil {
		return nil, invalid("checked_out_at", "already checked out")
	}

	if err := s.store.SetCheckOut(ctx, a.ID, s.stamp()); err != nil {
		return nil, fmt.Errorf("check out %d: %w", a.ID, err)
	}
	return s.store.GetAssignment(ctx, a.ID)
}

// MarkNoShow flags an active assignment whose shift started without a check-in.
func (s *Service) MarkNoShow(ctx context.Context, actor models.Actor, assignmentID int64) (*models.ShiftAssignment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	a, sh, _, err := s.activeAssignment(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.CheckedInAt != nil {
		return nil, invalid("marked_no_show_at", "worker checked in")
	}
	if a.MarkedNoShowAt != nil {
		return a, nil
	}
	start, _, err := s.shiftBounds(*sh)
	if err != nil {
		return nil, err
	}
	if s.clock().Before(start) {
		return nil, invalid("marked_no_show_at", "shift has not started")
	}

	if err := s.store.SetNoShow(ctx, a.ID, s.stamp()); err != nil {
		return nil, fmt.Errorf("mark no-show %d: %w", a.ID, err)
	}
	return s.store.GetAssignment(ctx, a.ID)
}

func (s *Service) shiftBounds(sh models.Shift) (time.Time, time.Time, error) {
	w, err := interval.NewWindow(sh.Date, sh.StartTime, sh.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("shift %d: %w", sh.ID, err)
	}
	start, err := w.StartAt(s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := w.EndAt(s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// authorizedAssignment loads an assignment the actor may act on: their own, or any
// assignment of their company for admins.
func (s *Service) authorizedAssignment(ctx context.Context, actor models.Actor, id int64) (*models.ShiftAssignment, error) {
	a, err := s.store.GetAssignment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get assignment %d: %w", id, err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if !actor.Admin {
		if a.UserID != actor.UserID {
			return nil, ErrForbidden
		}
		return a, nil
	}
	sh, err := s.store.GetShift(ctx, a.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("get shift %d: %w", a.ShiftID, err)
	}
	if sh == nil {
		return nil, ErrNotFound
	}
	if _, err := s.loadJob(ctx, actor, sh.JobID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) activeAssignment(ctx context.Context, actor models.Actor, id int64) (*models.ShiftAssignment, *models.Shift, *models.Job, error) {
	a, err := s.authorizedAssignment(ctx, actor, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if !a.IsActive() {
		return nil, nil, nil, ErrNotActive
	}
	sh, err := s.loadShift(ctx, a.ShiftID)
	if err != nil {
		return nil, nil, nil, err
	}
	job, err := s.store.GetJob(ctx, sh.JobID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get job %d: %w", sh.JobID, err)
	}
	if job == nil {
		return nil, nil, nil, ErrNotFound
	}
	return a, sh, job, nil
}
