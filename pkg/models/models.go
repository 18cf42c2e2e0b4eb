package models

import (
	"encoding/json"
	"time"
)

// Domain models matching the database schema in db/migrations/0001_init.sql

type Seniority string

const (
	SeniorityJunior Seniority = "junior"
	SenioritySenior Seniority = "senior"
)

// Positions lists the accepted values for Job.Position.
var Positions = []string{
	"waiter", "bartender", "barista", "cook", "kitchen_assistant", "dishwasher", "cleaner",
	"receptionist", "host", "runner", "warehouse", "driver", "promoter", "cashier", "other",
}

// IsKnownPosition reports whether p is one of Positions.
func IsKnownPosition(p string) bool {
	for _, v := range Positions {
		if v == p {
			return true
		}
	}
	return false
}

type Job struct {
	ID               int64     `json:"id" db:"id"`
	CompanyID        int64     `json:"company_id" db:"company_id"`
	Position         string    `json:"position" db:"position"`
	Title            *string   `json:"title,omitempty" db:"title"`
	Seniority        Seniority `json:"seniority" db:"seniority"`
	Description      string    `json:"description" db:"description"`
	LocationID       *int64    `json:"location_id,omitempty" db:"location_id"`
	StartDate        string    `json:"start_date" db:"start_date"`
	EndDate          string    `json:"end_date" db:"end_date"`
	StartTime        string    `json:"start_time" db:"start_time"`
	EndTime          string    `json:"end_time" db:"end_time"`
	WorkersNeeded    int       `json:"workers_needed" db:"workers_needed"`
	Weekdays         []int     `json:"weekdays,omitempty" db:"weekdays"`
	HourlyRate       *string   `json:"hourly_rate,omitempty" db:"hourly_rate"`
	ShiftRate        *string   `json:"shift_rate,omitempty" db:"shift_rate"`
	CheckInRadiusM   int       `json:"check_in_radius_m" db:"check_in_radius_m"`
	CheckInWindowMin int       `json:"check_in_window_min" db:"check_in_window_min"`
	CreatedBy        int64     `json:"created_by" db:"created_by"`
	Created          int64     `json:"created" db:"created"`
	DeletedAt        *int64    `json:"deleted_at,omitempty" db:"deleted_at"`
}

type Shift struct {
	ID            int64  `json:"id" db:"id"`
	JobID         int64  `json:"job_id" db:"job_id"`
	Date          string `json:"date" db:"date"`
	StartTime     string `json:"start_time" db:"start_time"`
	EndTime       string `json:"end_time" db:"end_time"`
	WorkersNeeded int    `json:"workers_needed" db:"workers_needed"`
	DeletedAt     *int64 `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ShiftChanges is a partial update applied to a set of shifts. Nil fields are left untouched.
type ShiftChanges struct {
	StartTime     *string
	EndTime       *string
	WorkersNeeded *int
}

// Empty reports whether no field is set.
func (c ShiftChanges) Empty() bool {
	return c.StartTime == nil && c.EndTime == nil && c.WorkersNeeded == nil
}

type CancellationReason string

const (
	ReasonOtherJob       CancellationReason = "other_job"
	ReasonPersonal       CancellationReason = "personal"
	ReasonSick           CancellationReason = "sick"
	ReasonAccident       CancellationReason = "accident"
	ReasonBadPerformance CancellationReason = "bad_performance"
	ReasonDayOff         CancellationReason = "day_off"
	ReasonAdminDecision  CancellationReason = "admin_decision"
)

// Valid reports whether r belongs to the closed reason set.
func (r CancellationReason) Valid() bool {
	return r.WorkerAllowed() || r.AdminOnly()
}

// WorkerAllowed reports whether a non-admin may cancel with r.
func (r CancellationReason) WorkerAllowed() bool {
	switch r {
	case ReasonOtherJob, ReasonPersonal, ReasonSick, ReasonAccident:
		return true
	}
	return false
}

func (r CancellationReason) AdminOnly() bool {
	switch r {
	case ReasonBadPerformance, ReasonDayOff, ReasonAdminDecision:
		return true
	}
	return false
}

// RequiresProof is informational: the caller asks for a certificate, storage is unchanged.
func (r CancellationReason) RequiresProof() bool {
	return r == ReasonSick || r == ReasonAccident
}

type ShiftAssignment struct {
	ID                 int64               `json:"id" db:"id"`
	ShiftID            int64               `json:"shift_id" db:"shift_id"`
	UserID             int64               `json:"user_id" db:"user_id"`
	AssignedBy         int64               `json:"assigned_by" db:"assigned_by"`
	AssignedAt         int64               `json:"assigned_at" db:"assigned_at"`
	CancelledAt        *int64              `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy        *int64              `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancellationReason *CancellationReason `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	MarkedNoShowAt     *int64              `json:"marked_no_show_at,omitempty" db:"marked_no_show_at"`
	CheckedInAt        *int64              `json:"checked_in_at,omitempty" db:"checked_in_at"`
	CheckedOutAt       *int64              `json:"checked_out_at,omitempty" db:"checked_out_at"`
	DeletedAt          *int64              `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsActive is the single liveness predicate for assignments.
func (a *ShiftAssignment) IsActive() bool {
	return a != nil && a.DeletedAt == nil && a.CancelledAt == nil
}

// Booking is the flat read shape joining an active assignment with its shift window.
type Booking struct {
	AssignmentID int64  `json:"assignment_id"`
	ShiftID      int64  `json:"shift_id"`
	UserID       int64  `json:"user_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

type JobInvitation struct {
	ID          int64            `json:"id" db:"id"`
	JobID       int64            `json:"job_id" db:"job_id"`
	UserID      int64            `json:"user_id" db:"user_id"`
	InvitedBy   int64            `json:"invited_by" db:"invited_by"`
	ShiftIDs    []int64          `json:"shift_ids" db:"shift_ids"`
	Status      InvitationStatus `json:"status" db:"status"`
	Created     int64            `json:"created" db:"created"`
	RespondedAt *int64           `json:"responded_at,omitempty" db:"responded_at"`
}

type Notification struct {
	ID      int64  `json:"id" db:"id"`
	UserID  int64  `json:"user_id" db:"user_id"`
	Kind    string `json:"kind" db:"kind"`
	Message string `json:"message" db:"message"`
	Created int64  `json:"created" db:"created"`
	ReadAt  *int64 `json:"read_at,omitempty" db:"read_at"`
}

// Actor identifies who performs an operation. It is passed explicitly on every call.
type Actor struct {
	UserID    int64 `json:"user_id"`
	CompanyID int64 `json:"company_id"`
	Admin     bool  `json:"admin"`
}

// Task is a queued background unit of work, such as delivering a notification.
type Task struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}
