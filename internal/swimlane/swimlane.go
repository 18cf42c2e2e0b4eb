// Package swimlane packs the shifts of one calendar day into vertical display lanes.
package swimlane

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/garnizeh/shiftstaff/pkg/interval"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

// DefaultGap is the visual buffer kept after each shift before another may share its lane.
const DefaultGap = 15 * time.Minute

type placed struct {
	shift models.Shift
	win   interval.Window
}

// Layout sorts shifts by start time and places each one into the first lane where it does
// not overlap any existing shift extended by gap. A new lane is opened when none fits.
// The result only depends on the set of shifts, not on their input order.
func Layout(shifts []models.Shift, gap time.Duration) ([][]models.Shift, error) {
	items := make([]placed, 0, len(shifts))
	for _, s := range shifts {
		w, err := interval.NewWindow(s.Date, s.StartTime, s.EndTime)
		if err != nil {
			return nil, fmt.Errorf("shift %d: %w", s.ID, err)
		}
		items = append(items, placed{shift: s, win: w})
	}

	slices.SortStableFunc(items, func(a, b placed) int {
		if c := cmp.Compare(a.win.Start, b.win.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(a.win.End, b.win.End); c != 0 {
			return c
		}
		return cmp.Compare(a.shift.ID, b.shift.ID)
	})

	var lanes [][]placed
	for _, it := range items {
		target := -1
		for i, lane := range lanes {
			if fits(lane, it, gap) {
				target = i
				break
			}
		}
		if target == -1 {
			lanes = append(lanes, []placed{it})
			continue
		}
		lanes[target] = append(lanes[target], it)
	}

	out := make([][]models.Shift, len(lanes))
	for i, lane := range lanes {
		out[i] = make([]models.Shift, len(lane))
		for j, p := range lane {
			out[i][j] = p.shift
		}
	}

	return out, nil
}

func fits(lane []placed, it placed, gap time.Duration) bool {
	for _, p := range lane {
		existing := p.win
		// lanes are per day; compare clocks only
		existing.Date = it.win.Date
		if existing.OverlapsWithGap(it.win, gap) {
			return false
		}
	}
	return true
}
