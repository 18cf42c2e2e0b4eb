package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/shiftstaff/pkg/models"
)

const taskColumns = `id, type, payload, status, attempts, max_attempts, priority, scheduled_at, next_try_at, last_error, created, updated`

// Enqueue inserts a queued task and returns its id.
func (r *SQLiteRepo) Enqueue(ctx context.Context, t *models.Task) (int64, error) {
	if t.MaxAttempts == 0 {
		t.MaxAttempts = 5
	}
	if t.ScheduledAt.IsZero() {
		t.ScheduledAt = time.Now()
	}
	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO tasks (type, payload, status, attempts, max_attempts, priority, scheduled_at, created, updated)
		VALUES (?, ?, 'queued', ?, ?, ?, ?, ?, ?)`,
		t.Type, string(t.Payload), t.Attempts, t.MaxAttempts, t.Priority, t.ScheduledAt.UTC().UnixMilli(), ts, ts)
	if err != nil {
		return 0, fmt.Errorf("enqueue task: %w", err)
	}
	return res.LastInsertId()
}

// FetchNext claims the next due task by moving it to running inside one transaction.
func (r *SQLiteRepo) FetchNext(ctx context.Context) (*models.Task, error) {
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	ts := now()
	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE status IN ('queued', 'retry') AND (next_try_at IS NULL OR next_try_at <= ?) AND scheduled_at <= ?
		ORDER BY priority ASC, scheduled_at ASC, id ASC LIMIT 1`, ts, ts)
	t, err := scanTask(row)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch next task: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET status = 'running', updated = ? WHERE id = ?`, ts, t.ID); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	t.Status = "running"
	return t, nil
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		t                             models.Task
		payload, lastError            sql.NullString
		scheduledAt, created, updated int64
		nextTry                       sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Type, &payload, &t.Status, &t.Attempts, &t.MaxAttempts, &t.Priority,
		&scheduledAt, &nextTry, &lastError, &created, &updated); err != nil {
		return nil, err
	}
	if payload.Valid {
		t.Payload = json.RawMessage(payload.String)
	}
	t.ScheduledAt = time.UnixMilli(scheduledAt).UTC()
	if nextTry.Valid {
		at := time.UnixMilli(nextTry.Int64).UTC()
		t.NextTryAt = &at
	}
	t.LastError = lastError.String
	t.Created = time.UnixMilli(created).UTC()
	t.Updated = time.UnixMilli(updated).UTC()
	return &t, nil
}

// GetTask is used by tests and diagnostics; it returns (nil, nil) when the task is gone.
func (r *SQLiteRepo) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(r.conn.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// UpdateTask stores status, attempts, next_try_at and last_error.
func (r *SQLiteRepo) UpdateTask(ctx context.Context, t *models.Task) error {
	var nextTry any
	if t.NextTryAt != nil {
		nextTry = t.NextTryAt.UTC().UnixMilli()
	}
	_, err := r.conn.Exec(ctx, `UPDATE tasks SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`,
		t.Status, t.Attempts, nextTry, t.LastError, now(), t.ID)
	return err
}

// MoveToDeadLetter copies the task into dead_letter_tasks and deletes the original.
func (r *SQLiteRepo) MoveToDeadLetter(ctx context.Context, t *models.Task) error {
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO dead_letter_tasks (task_id, type, payload, attempts, last_error, failed_at)
		VALUES (?, ?, ?, ?, ?, ?)`, t.ID, t.Type, string(t.Payload), t.Attempts, t.LastError, now()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CountDeadLetters returns the number of tasks that exhausted their attempts.
func (r *SQLiteRepo) CountDeadLetters(ctx context.Context) (int, error) {
	var n int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM dead_letter_tasks`).Scan(&n)
	return n, err
}
