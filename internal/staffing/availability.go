package staffing

import (
	"context"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/interval"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

type AvailabilityStatus string

const (
	StatusAlreadyAssigned AvailabilityStatus = "already_assigned"
	StatusConflict        AvailabilityStatus = "conflict"
	StatusAvailable       AvailabilityStatus = "available"
	StatusFull            AvailabilityStatus = "full"
)

type AvailabilitySummary struct {
	WorkerID        int64                        `json:"worker_id"`
	Available       int                          `json:"available"`
	Total           int                          `json:"total"`
	AlreadyAssigned int                          `json:"already_assigned"`
	Conflicts       int                          `json:"conflicts"`
	Full            int                          `json:"full"`
	IsFullyAssigned bool                         `json:"is_fully_assigned"`
	IsUnavailable   bool                         `json:"is_unavailable"`
	Shifts          map[int64]AvailabilityStatus `json:"shifts"`
}

// Classify decides the status of one candidate shift for a worker given the worker's
// active bookings and the shift's active assignment count. Personal state (already
// assigned, conflict) takes precedence over the shift being full.
func Classify(sh models.Shift, bookings []models.Booking, activeCount int) AvailabilityStatus {
	for _, b := range bookings {
		if b.ShiftID == sh.ID {
			return StatusAlreadyAssigned
		}
	}
	if conflictsWith(sh, bookings) {
		return StatusConflict
	}
	if activeCount >= sh.WorkersNeeded {
		return StatusFull
	}
	return StatusAvailable
}

func conflictsWith(sh models.Shift, bookings []models.Booking) bool {
	for _, b := range bookings {
		if b.ShiftID == sh.ID {
			continue
		}
		if interval.Overlaps(b.Date, b.StartTime, b.EndTime, sh.Date, sh.StartTime, sh.EndTime) {
			return true
		}
	}
	return false
}

// SummarizeAvailability classifies every candidate shift for one worker.
func SummarizeAvailability(workerID int64, shifts []models.Shift, bookings []models.Booking, counts map[int64]int) AvailabilitySummary {
	sum := AvailabilitySummary{
		WorkerID: workerID,
		Total:    len(shifts),
		Shifts:   make(map[int64]AvailabilityStatus, len(shifts)),
	}
	for _, sh := range shifts {
		st := Classify(sh, bookings, counts[sh.ID])
		sum.Shifts[sh.ID] = st
		switch st {
		case StatusAlreadyAssigned:
			sum.AlreadyAssigned++
		case StatusConflict:
			sum.Conflicts++
		case StatusFull:
			sum.Full++
		case StatusAvailable:
			sum.Available++
		}
	}
	sum.IsFullyAssigned = sum.Total > 0 && sum.AlreadyAssigned == sum.Total
	sum.IsUnavailable = sum.Available == 0 && !sum.IsFullyAssigned
	return sum
}

// ComputeAvailability classifies the candidate shifts for every worker of a roster.
// It reads all workers' bookings in one call and all shift counts in one call.
func (s *Service) ComputeAvailability(ctx context.Context, actor models.Actor, workerIDs, candidateShiftIDs []int64) (map[int64]AvailabilitySummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	workers := uniqueIDs(workerIDs)
	if len(workers) == 0 {
		return nil, invalid("worker_ids", "at least one worker is required")
	}
	ids := uniqueIDs(candidateShiftIDs)
	if len(ids) == 0 {
		return nil, invalid("shift_ids", "at least one shift is required")
	}

	shifts, err := s.store.ListShiftsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	if err := s.checkShiftsOwned(ctx, actor, shifts); err != nil {
		return nil, err
	}
	return s.availability(ctx, workers, shifts)
}

func (s *Service) availability(ctx context.Context, workers []int64, shifts []models.Shift) (map[int64]AvailabilitySummary, error) {
	bookings, err := s.store.ListActiveBookings(ctx, workers)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	counts, err := s.store.CountActiveByShifts(ctx, shiftIDs(shifts))
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}

	byWorker := make(map[int64][]models.Booking, len(workers))
	for _, b := range bookings {
		byWorker[b.UserID] = append(byWorker[b.UserID], b)
	}

	out := make(map[int64]AvailabilitySummary, len(workers))
	for _, w := range workers {
		out[w] = SummarizeAvailability(w, shifts, byWorker[w], counts)
	}
	return out, nil
}
