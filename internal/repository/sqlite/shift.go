package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/models"
)

const shiftColumns = `s.id, s.job_id, s.date, s.start_time, s.end_time, s.workers_needed, s.deleted_at`

// CreateShifts inserts the shifts in one transaction and returns their ids in order.
func (r *SQLiteRepo) CreateShifts(ctx context.Context, shifts []models.Shift) ([]int64, error) {
	if len(shifts) == 0 {
		return nil, nil
	}
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO shifts (job_id, date, start_time, end_time, workers_needed) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(shifts))
	for _, sh := range shifts {
		res, err := stmt.ExecContext(ctx, sh.JobID, sh.Date, sh.StartTime, sh.EndTime, sh.WorkersNeeded)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("insert shift %s: %w", sh.Date, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepo) GetShift(ctx context.Context, id int64) (*models.Shift, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts s WHERE s.id = ?`, id)
	sh, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return sh, nil
}

func scanShift(row scanner) (*models.Shift, error) {
	var sh models.Shift
	var deletedAt sql.NullInt64
	if err := row.Scan(&sh.ID, &sh.JobID, &sh.Date, &sh.StartTime, &sh.EndTime, &sh.WorkersNeeded, &deletedAt); err != nil {
		return nil, err
	}
	sh.DeletedAt = nullInt(deletedAt)
	return &sh, nil
}

func (r *SQLiteRepo) queryShifts(ctx context.Context, query string, args ...any) ([]models.Shift, error) {
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sh)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) ListShiftsByIDs(ctx context.Context, ids []int64) ([]models.Shift, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	return r.queryShifts(ctx, `SELECT `+shiftColumns+` FROM shifts s
		WHERE s.deleted_at IS NULL AND s.id IN `+in+`
		ORDER BY s.date, s.start_time, s.id`, args...)
}

func (r *SQLiteRepo) ListShiftsByJob(ctx context.Context, jobID int64, fromDate string) ([]models.Shift, error) {
	return r.queryShifts(ctx, `SELECT `+shiftColumns+` FROM shifts s
		WHERE s.job_id = ? AND s.deleted_at IS NULL AND s.date >= ?
		ORDER BY s.date, s.start_time, s.id`, jobID, fromDate)
}

func (r *SQLiteRepo) ListShiftsByCompanyDate(ctx context.Context, companyID int64, date string) ([]models.Shift, error) {
	return r.queryShifts(ctx, `SELECT `+shiftColumns+` FROM shifts s
		JOIN jobs j ON j.id = s.job_id
		WHERE j.company_id = ? AND j.deleted_at IS NULL AND s.deleted_at IS NULL AND s.date = ?
		ORDER BY s.date, s.start_time, s.id`, companyID, date)
}

// UpdateShifts applies the set fields of changes to every active shift in ids with a
// single statement.
func (r *SQLiteRepo) UpdateShifts(ctx context.Context, ids []int64, changes models.ShiftChanges) (int64, error) {
	if len(ids) == 0 || changes.Empty() {
		return 0, nil
	}
	in, args := inClause(ids, changes.StartTime, changes.EndTime, changes.WorkersNeeded)
	res, err := r.conn.Exec(ctx, `UPDATE shifts SET
		start_time = COALESCE(?, start_time),
		end_time = COALESCE(?, end_time),
		workers_needed = COALESCE(?, workers_needed)
		WHERE deleted_at IS NULL AND id IN `+in, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepo) SoftDeleteShifts(ctx context.Context, ids []int64, at int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids, at)
	res, err := r.conn.Exec(ctx, `UPDATE shifts SET deleted_at = ? WHERE deleted_at IS NULL AND id IN `+in, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
