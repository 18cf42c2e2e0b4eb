// Package tasks runs queued background work, such as notification delivery, on a small
// pool of workers backed by the tasks table.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusRetry   = "retry"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Handler is the function that processes a task
type Handler func(ctx context.Context, t *models.Task) error

// ErrPermanent marks a handler failure that retrying cannot fix. The task goes straight
// to the dead letter table.
var ErrPermanent = errors.New("permanent task failure")

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	if attempt > 16 {
		attempt = 16
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	limit := 5 * time.Minute
	if d > limit {
		return limit
	}
	return d
}

// Enqueue marshals payload and stores a new task due now.
func Enqueue(ctx context.Context, repo repository.TaskRepo, typ string, payload any, priority, maxAttempts int) (int64, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	t := &models.Task{Type: typ, Payload: b, Priority: priority, MaxAttempts: maxAttempts, ScheduledAt: time.Now()}
	return repo.Enqueue(ctx, t)
}
