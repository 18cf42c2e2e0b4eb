package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/models"
)

const jobColumns = `id, company_id, position, title, seniority, description, location_id, start_date, end_date,
	start_time, end_time, workers_needed, weekdays, hourly_rate, shift_rate, check_in_radius_m,
	check_in_window_min, created_by, created, deleted_at`

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}
	days := j.Weekdays
	if days == nil {
		days = []int{}
	}
	weekdays, err := encodeJSON(days)
	if err != nil {
		return 0, err
	}
	created := j.Created
	if created == 0 {
		created = now()
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO jobs (company_id, position, title, seniority, description, location_id,
		start_date, end_date, start_time, end_time, workers_needed, weekdays, hourly_rate, shift_rate,
		check_in_radius_m, check_in_window_min, created_by, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.CompanyID, j.Position, j.Title, j.Seniority, j.Description, j.LocationID,
		j.StartDate, j.EndDate, j.StartTime, j.EndTime, j.WorkersNeeded, weekdays, j.HourlyRate, j.ShiftRate,
		j.CheckInRadiusM, j.CheckInWindowMin, j.CreatedBy, created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return j, nil
}

func scanJob(row scanner) (*models.Job, error) {
	var (
		j          models.Job
		title      sql.NullString
		location   sql.NullInt64
		weekdays   string
		hourlyRate sql.NullString
		shiftRate  sql.NullString
		deletedAt  sql.NullInt64
	)
	if err := row.Scan(&j.ID, &j.CompanyID, &j.Position, &title, &j.Seniority, &j.Description, &location,
		&j.StartDate, &j.EndDate, &j.StartTime, &j.EndTime, &j.WorkersNeeded, &weekdays, &hourlyRate, &shiftRate,
		&j.CheckInRadiusM, &j.CheckInWindowMin, &j.CreatedBy, &j.Created, &deletedAt); err != nil {
		return nil, err
	}
	if weekdays != "" {
		if err := json.Unmarshal([]byte(weekdays), &j.Weekdays); err != nil {
			return nil, fmt.Errorf("decode weekdays of job %d: %w", j.ID, err)
		}
	}
	j.Title = nullString(title)
	j.LocationID = nullInt(location)
	j.HourlyRate = nullString(hourlyRate)
	j.ShiftRate = nullString(shiftRate)
	j.DeletedAt = nullInt(deletedAt)

	return &j, nil
}

func (r *SQLiteRepo) UpdateJobDates(ctx context.Context, id int64, startDate, endDate string) error {
	_, err := r.conn.Exec(ctx, `UPDATE jobs SET start_date = ?, end_date = ? WHERE id = ?`, startDate, endDate, id)
	return err
}

func (r *SQLiteRepo) SoftDeleteJob(ctx context.Context, id int64, at int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE jobs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, at, id)
	return err
}
