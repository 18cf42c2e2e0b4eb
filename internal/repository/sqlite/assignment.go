package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

const assignmentColumns = `id, shift_id, user_id, assigned_by, assigned_at, cancelled_at, cancelled_by,
	cancellation_reason, marked_no_show_at, checked_in_at, checked_out_at, deleted_at`

func (r *SQLiteRepo) CreateAssignment(ctx context.Context, a *models.ShiftAssignment) (int64, error) {
	if a.AssignedAt == 0 {
		a.AssignedAt = now()
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO shift_assignments (shift_id, user_id, assigned_by, assigned_at)
		VALUES (?, ?, ?, ?)`, a.ShiftID, a.UserID, a.AssignedBy, a.AssignedAt)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug("assignment already exists", "shift_id", a.ShiftID, "user_id", a.UserID)
			return 0, repository.ErrDuplicate
		}
		return 0, fmt.Errorf("insert assignment: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetAssignment(ctx context.Context, id int64) (*models.ShiftAssignment, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM shift_assignments WHERE id = ?`, id)
	return scanAssignmentRow(row)
}

func (r *SQLiteRepo) FindAssignment(ctx context.Context, shiftID, userID int64) (*models.ShiftAssignment, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM shift_assignments WHERE shift_id = ? AND user_id = ?`, shiftID, userID)
	return scanAssignmentRow(row)
}

func scanAssignmentRow(row scanner) (*models.ShiftAssignment, error) {
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return a, nil
}

func scanAssignment(row scanner) (*models.ShiftAssignment, error) {
	var a models.ShiftAssignment
	var cancelledAt, cancelledBy, noShow, checkIn, checkOut, deletedAt sql.NullInt64
	var reason sql.NullString
	if err := row.Scan(&a.ID, &a.ShiftID, &a.UserID, &a.AssignedBy, &a.AssignedAt, &cancelledAt, &cancelledBy,
		&reason, &noShow, &checkIn, &checkOut, &deletedAt); err != nil {
		return nil, err
	}
	a.CancelledAt = nullInt(cancelledAt)
	a.CancelledBy = nullInt(cancelledBy)
	if reason.Valid {
		cr := models.CancellationReason(reason.String)
		a.CancellationReason = &cr
	}
	a.MarkedNoShowAt = nullInt(noShow)
	a.CheckedInAt = nullInt(checkIn)
	a.CheckedOutAt = nullInt(checkOut)
	a.DeletedAt = nullInt(deletedAt)
	return &a, nil
}

const bookingQuery = `SELECT a.id, a.shift_id, a.user_id, s.date, s.start_time, s.end_time
	FROM shift_assignments a
	JOIN shifts s ON s.id = a.shift_id
	WHERE a.deleted_at IS NULL AND a.cancelled_at IS NULL AND s.deleted_at IS NULL`

func (r *SQLiteRepo) ListActiveBookings(ctx context.Context, userIDs []int64) ([]models.Booking, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(userIDs)
	return r.queryBookings(ctx, bookingQuery+` AND a.user_id IN `+in+` ORDER BY a.id`, args...)
}

func (r *SQLiteRepo) ListShiftBookings(ctx context.Context, shiftIDs []int64) ([]models.Booking, error) {
	if len(shiftIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(shiftIDs)
	return r.queryBookings(ctx, bookingQuery+` AND a.shift_id IN `+in+` ORDER BY a.id`, args...)
}

func (r *SQLiteRepo) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.AssignmentID, &b.ShiftID, &b.UserID, &b.Date, &b.StartTime, &b.EndTime); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CountActiveByShifts(ctx context.Context, shiftIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	if len(shiftIDs) == 0 {
		return counts, nil
	}
	in, args := inClause(shiftIDs)
	rows, err := r.conn.QueryRows(ctx, `SELECT shift_id, COUNT(*) FROM shift_assignments
		WHERE deleted_at IS NULL AND cancelled_at IS NULL AND shift_id IN `+in+`
		GROUP BY shift_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// RestoreAssignment clears every lifecycle column so the row reads as a fresh assignment.
func (r *SQLiteRepo) RestoreAssignment(ctx context.Context, id, assignedBy, at int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE shift_assignments SET
		assigned_by = ?, assigned_at = ?, cancelled_at = NULL, cancelled_by = NULL, cancellation_reason = NULL,
		marked_no_show_at = NULL, checked_in_at = NULL, checked_out_at = NULL, deleted_at = NULL
		WHERE id = ?`, assignedBy, at, id)
	return err
}

func (r *SQLiteRepo) CancelAssignment(ctx context.Context, id, cancelledBy int64, reason models.CancellationReason, at int64) (bool, error) {
	res, err := r.conn.Exec(ctx, `UPDATE shift_assignments SET cancelled_at = ?, cancelled_by = ?, cancellation_reason = ?
		WHERE id = ? AND cancelled_at IS NULL AND deleted_at IS NULL`, at, cancelledBy, string(reason), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) SoftDeleteAssignments(ctx context.Context, userID int64, shiftIDs []int64, at int64) (int64, error) {
	if len(shiftIDs) == 0 {
		return 0, nil
	}
	in, args := inClause(shiftIDs, at, userID)
	res, err := r.conn.Exec(ctx, `UPDATE shift_assignments SET deleted_at = ?
		WHERE user_id = ? AND deleted_at IS NULL AND cancelled_at IS NULL AND shift_id IN `+in, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepo) SetCheckIn(ctx context.Context, id, at int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE shift_assignments SET checked_in_at = ? WHERE id = ?`, at, id)
	return err
}

func (r *SQLiteRepo) SetCheckOut(ctx context.Context, id, at int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE shift_assignments SET checked_out_at = ? WHERE id = ?`, at, id)
	return err
}

func (r *SQLiteRepo) SetNoShow(ctx context.Context, id, at int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE shift_assignments SET marked_no_show_at = ? WHERE id = ?`, at, id)
	return err
}
