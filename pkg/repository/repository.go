package repository

import (
	"context"
	"errors"

	"github.com/garnizeh/shiftstaff/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Lookups by id return (nil, nil) when the row does not exist.

// ErrDuplicate is returned by inserts rejected by a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate row")

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) (int64, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	UpdateJobDates(ctx context.Context, id int64, startDate, endDate string) error
	SoftDeleteJob(ctx context.Context, id int64, at int64) error
}

type ShiftRepo interface {
	CreateShifts(ctx context.Context, shifts []models.Shift) ([]int64, error)
	GetShift(ctx context.Context, id int64) (*models.Shift, error)
	// ListShiftsByIDs returns the active shifts among ids.
	ListShiftsByIDs(ctx context.Context, ids []int64) ([]models.Shift, error)
	// ListShiftsByJob returns active shifts of a job dated on or after fromDate
	// (all dates when fromDate is empty), ordered by date and start time.
	ListShiftsByJob(ctx context.Context, jobID int64, fromDate string) ([]models.Shift, error)
	// ListShiftsByCompanyDate returns active shifts of active company jobs on date.
	ListShiftsByCompanyDate(ctx context.Context, companyID int64, date string) ([]models.Shift, error)
	UpdateShifts(ctx context.Context, ids []int64, changes models.ShiftChanges) (int64, error)
	SoftDeleteShifts(ctx context.Context, ids []int64, at int64) (int64, error)
}

type AssignmentRepo interface {
	// CreateAssignment returns ErrDuplicate when (shift_id, user_id) already has a row.
	CreateAssignment(ctx context.Context, a *models.ShiftAssignment) (int64, error)
	GetAssignment(ctx context.Context, id int64) (*models.ShiftAssignment, error)
	// FindAssignment returns the row for the pair in any state.
	FindAssignment(ctx context.Context, shiftID, userID int64) (*models.ShiftAssignment, error)
	// ListActiveBookings returns the active assignments of the users on active shifts.
	ListActiveBookings(ctx context.Context, userIDs []int64) ([]models.Booking, error)
	// ListShiftBookings returns the active assignments on the given shifts.
	ListShiftBookings(ctx context.Context, shiftIDs []int64) ([]models.Booking, error)
	// CountActiveByShifts returns active assignment counts; shifts without any are omitted.
	CountActiveByShifts(ctx context.Context, shiftIDs []int64) (map[int64]int, error)
	// RestoreAssignment reactivates a cancelled or removed row.
	RestoreAssignment(ctx context.Context, id, assignedBy, at int64) error
	// CancelAssignment cancels an active row and reports whether a row changed.
	CancelAssignment(ctx context.Context, id, cancelledBy int64, reason models.CancellationReason, at int64) (bool, error)
	// SoftDeleteAssignments removes the active rows of userID on shiftIDs.
	SoftDeleteAssignments(ctx context.Context, userID int64, shiftIDs []int64, at int64) (int64, error)
	SetCheckIn(ctx context.Context, id, at int64) error
	SetCheckOut(ctx context.Context, id, at int64) error
	SetNoShow(ctx context.Context, id, at int64) error
}

type InvitationRepo interface {
	CreateInvitation(ctx context.Context, inv *models.JobInvitation) (int64, error)
	GetInvitation(ctx context.Context, id int64) (*models.JobInvitation, error)
	// RespondInvitation moves a pending invitation to status and reports whether it changed.
	RespondInvitation(ctx context.Context, id int64, status models.InvitationStatus, at int64) (bool, error)
}

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *models.Notification) (int64, error)
	ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
}

// TaskRepo persists the background task queue.
type TaskRepo interface {
	Enqueue(ctx context.Context, t *models.Task) (int64, error)
	// FetchNext claims the next due task, or returns (nil, nil) when none is due.
	FetchNext(ctx context.Context) (*models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	MoveToDeadLetter(ctx context.Context, t *models.Task) error
}

// Store groups the contracts the staffing engine needs.
type Store interface {
	JobRepo
	ShiftRepo
	AssignmentRepo
	InvitationRepo
}
