package staffing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced job, shift, assignment or invitation
	// does not exist or is soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor may not act on the target.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyCancelled is returned when cancelling an assignment twice.
	ErrAlreadyCancelled = errors.New("assignment already cancelled")
	// ErrNotActive is returned for operations that need an active assignment.
	ErrNotActive = errors.New("assignment is not active")
	// ErrInvitationClosed is returned when responding to a non-pending invitation.
	ErrInvitationClosed = errors.New("invitation already answered")
)

// ValidationError reports malformed input. It is always raised before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// GuardError reports a change blocked by the start-time guard window: the shift is
// staffed and starts in less than the guard duration.
type GuardError struct {
	ShiftIDs []int64
	Action   string
}

func (e *GuardError) Error() string {
	ids := make([]string, len(e.ShiftIDs))
	for i, id := range e.ShiftIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s blocked: staffed shift(s) %s start too soon", e.Action, strings.Join(ids, ","))
}

// ConfirmationKind names the reason a guarded operation needs acknowledgement.
type ConfirmationKind string

const (
	ConfirmCapacityBelowStaffing ConfirmationKind = "capacity_below_staffing"
	ConfirmRangeShrink           ConfirmationKind = "range_shrink"
)

// ConfirmationRequired is returned instead of applying a guarded change. The caller repeats
// the request with the confirmation flag set to proceed.
type ConfirmationRequired struct {
	Kind     ConfirmationKind `json:"kind"`
	ShiftIDs []int64          `json:"shift_ids"`
	Message  string           `json:"message"`
}
