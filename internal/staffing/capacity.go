package staffing

import (
	"context"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/models"
)

type FillState string

const (
	Understaffed FillState = "understaffed"
	Full         FillState = "full"
	Overstaffed  FillState = "overstaffed"
)

// FillStateOf classifies an active assignment count against the shift's need.
func FillStateOf(count, needed int) FillState {
	switch {
	case count < needed:
		return Understaffed
	case count == needed:
		return Full
	default:
		return Overstaffed
	}
}

type ShiftCapacity struct {
	ShiftID       int64     `json:"shift_id"`
	Date          string    `json:"date"`
	WorkersNeeded int       `json:"workers_needed"`
	Assigned      int       `json:"assigned"`
	State         FillState `json:"state"`
}

type CapacitySummary struct {
	Shifts       []ShiftCapacity `json:"shifts"`
	Total        int             `json:"total"`
	Filled       int             `json:"filled"`
	Remaining    int             `json:"remaining"`
	Understaffed int             `json:"understaffed"`
	Full         int             `json:"full"`
	Overstaffed  int             `json:"overstaffed"`
}

// CanAssign reports whether open slots remain. A false value is a warning for the caller,
// the engine itself never refuses a direct assignment on capacity grounds.
func (c CapacitySummary) CanAssign() bool {
	return c.Remaining > 0
}

// Warning returns a user-facing message when no slots remain, or "".
func (c CapacitySummary) Warning() string {
	if c.Remaining > 0 {
		return ""
	}
	if c.Overstaffed > 0 {
		return fmt.Sprintf("all %d slots are filled and %d shift(s) are overstaffed", c.Total, c.Overstaffed)
	}
	return fmt.Sprintf("all %d slots are filled", c.Total)
}

// Summarize computes per-shift fill states and the aggregate for a set of shifts.
// Overstaffed shifts contribute at most their need to Filled.
func Summarize(shifts []models.Shift, counts map[int64]int) CapacitySummary {
	sum := CapacitySummary{Shifts: make([]ShiftCapacity, 0, len(shifts))}
	for _, sh := range shifts {
		c := counts[sh.ID]
		st := FillStateOf(c, sh.WorkersNeeded)
		sum.Shifts = append(sum.Shifts, ShiftCapacity{
			ShiftID:       sh.ID,
			Date:          sh.Date,
			WorkersNeeded: sh.WorkersNeeded,
			Assigned:      c,
			State:         st,
		})
		sum.Total += sh.WorkersNeeded
		sum.Filled += min(c, sh.WorkersNeeded)
		switch st {
		case Understaffed:
			sum.Understaffed++
		case Full:
			sum.Full++
		case Overstaffed:
			sum.Overstaffed++
		}
	}
	sum.Remaining = max(sum.Total-sum.Filled, 0)
	return sum
}

// JobCapacity summarizes the capacity of the job's remaining shifts (today onwards).
func (s *Service) JobCapacity(ctx context.Context, actor models.Actor, jobID int64) (CapacitySummary, error) {
	if _, err := s.loadJob(ctx, actor, jobID); err != nil {
		return CapacitySummary{}, err
	}
	shifts, err := s.store.ListShiftsByJob(ctx, jobID, s.today())
	if err != nil {
		return CapacitySummary{}, fmt.Errorf("list shifts: %w", err)
	}
	counts, err := s.store.CountActiveByShifts(ctx, shiftIDs(shifts))
	if err != nil {
		return CapacitySummary{}, fmt.Errorf("count assignments: %w", err)
	}
	return Summarize(shifts, counts), nil
}
