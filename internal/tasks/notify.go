package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

// TypeNotify is the task type that stores a user notification.
const TypeNotify = "notify.user"

type notifyPayload struct {
	UserID  int64  `json:"user_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Notifier queues each notification as a TypeNotify task.
type Notifier struct {
	repo        repository.TaskRepo
	maxAttempts int
}

func NewNotifier(repo repository.TaskRepo, maxAttempts int) *Notifier {
	return &Notifier{repo: repo, maxAttempts: maxAttempts}
}

func (n *Notifier) Notify(ctx context.Context, userID int64, kind, message string) error {
	_, err := Enqueue(ctx, n.repo, TypeNotify, notifyPayload{UserID: userID, Kind: kind, Message: message}, 50, n.maxAttempts)
	return err
}

// NotifyHandler stores the notification carried by a TypeNotify task.
func NotifyHandler(repo repository.NotificationRepo) Handler {
	return func(ctx context.Context, t *models.Task) error {
		var pl notifyPayload
		if err := json.Unmarshal(t.Payload, &pl); err != nil {
			return fmt.Errorf("%w: decode payload: %v", ErrPermanent, err)
		}
		if pl.UserID <= 0 || pl.Kind == "" {
			return fmt.Errorf("%w: incomplete notification", ErrPermanent)
		}
		_, err := repo.CreateNotification(ctx, &models.Notification{UserID: pl.UserID, Kind: pl.Kind, Message: pl.Message})
		return err
	}
}
