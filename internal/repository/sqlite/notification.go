package sqlite

import (
	"context"
	"database/sql"

	"github.com/garnizeh/shiftstaff/pkg/models"
)

func (r *SQLiteRepo) CreateNotification(ctx context.Context, n *models.Notification) (int64, error) {
	if n.Created == 0 {
		n.Created = now()
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO notifications (user_id, kind, message, created) VALUES (?, ?, ?, ?)`,
		n.UserID, n.Kind, n.Message, n.Created)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListNotifications returns the newest notifications of a user first.
func (r *SQLiteRepo) ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, kind, message, created, read_at
		FROM notifications WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var readAt sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.Created, &readAt); err != nil {
			return nil, err
		}
		n.ReadAt = nullInt(readAt)
		out = append(out, n)
	}
	return out, rows.Err()
}
