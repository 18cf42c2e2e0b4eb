package staffing

import (
	"context"
	"fmt"

	"github.com/garnizeh/shiftstaff/internal/swimlane"
	"github.com/garnizeh/shiftstaff/pkg/interval"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

type CalendarShift struct {
	models.Shift
	Assigned int       `json:"assigned"`
	State    FillState `json:"state"`
}

type DayView struct {
	Date  string            `json:"date"`
	Lanes [][]CalendarShift `json:"lanes"`
}

// DayLayout arranges the company's shifts of one day into swimlanes, annotated with their
// fill state.
func (s *Service) DayLayout(ctx context.Context, actor models.Actor, date string) (DayView, error) {
	if _, err := interval.ParseDate(date); err != nil {
		return DayView{}, invalid("date", "expected YYYY-MM-DD")
	}
	if actor.CompanyID <= 0 {
		return DayView{}, ErrForbidden
	}

	shifts, err := s.store.ListShiftsByCompanyDate(ctx, actor.CompanyID, date)
	if err != nil {
		return DayView{}, fmt.Errorf("list shifts: %w", err)
	}
	counts, err := s.store.CountActiveByShifts(ctx, shiftIDs(shifts))
	if err != nil {
		return DayView{}, fmt.Errorf("count assignments: %w", err)
	}
	lanes, err := swimlane.Layout(shifts, s.gap)
	if err != nil {
		return DayView{}, err
	}

	view := DayView{Date: date, Lanes: make([][]CalendarShift, len(lanes))}
	for i, lane := range lanes {
		view.Lanes[i] = make([]CalendarShift, len(lane))
		for j, sh := range lane {
			view.Lanes[i][j] = CalendarShift{
				Shift:    sh,
				Assigned: counts[sh.ID],
				State:    FillStateOf(counts[sh.ID], sh.WorkersNeeded),
			}
		}
	}
	return view, nil
}
