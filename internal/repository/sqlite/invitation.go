package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/models"
)

func (r *SQLiteRepo) CreateInvitation(ctx context.Context, inv *models.JobInvitation) (int64, error) {
	ids := inv.ShiftIDs
	if ids == nil {
		ids = []int64{}
	}
	shiftIDs, err := encodeJSON(ids)
	if err != nil {
		return 0, err
	}
	if inv.Status == "" {
		inv.Status = models.InvitationPending
	}
	if inv.Created == 0 {
		inv.Created = now()
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO job_invitations (job_id, user_id, invited_by, shift_ids, status, created)
		VALUES (?, ?, ?, ?, ?, ?)`, inv.JobID, inv.UserID, inv.InvitedBy, shiftIDs, string(inv.Status), inv.Created)
	if err != nil {
		return 0, fmt.Errorf("insert invitation: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetInvitation(ctx context.Context, id int64) (*models.JobInvitation, error) {
	var inv models.JobInvitation
	var shiftIDs, status string
	var respondedAt sql.NullInt64
	err := r.conn.QueryRow(ctx, `SELECT id, job_id, user_id, invited_by, shift_ids, status, created, responded_at
		FROM job_invitations WHERE id = ?`, id).
		Scan(&inv.ID, &inv.JobID, &inv.UserID, &inv.InvitedBy, &shiftIDs, &status, &inv.Created, &respondedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}
	if err := json.Unmarshal([]byte(shiftIDs), &inv.ShiftIDs); err != nil {
		return nil, fmt.Errorf("decode shift ids of invitation %d: %w", id, err)
	}
	inv.Status = models.InvitationStatus(status)
	inv.RespondedAt = nullInt(respondedAt)
	return &inv, nil
}

func (r *SQLiteRepo) RespondInvitation(ctx context.Context, id int64, status models.InvitationStatus, at int64) (bool, error) {
	res, err := r.conn.Exec(ctx, `UPDATE job_invitations SET status = ?, responded_at = ?
		WHERE id = ? AND status = 'pending'`, string(status), at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
