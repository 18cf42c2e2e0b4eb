package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

const defaultPollInterval = 500 * time.Millisecond

type WorkerPool struct {
	repo         repository.TaskRepo
	handlers     map[string]Handler
	logger       *slog.Logger
	workerCount  int
	pollInterval time.Duration
	backoff      func(attempt int) time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewWorkerPool(repo repository.TaskRepo, handlers map[string]Handler, logger *slog.Logger, workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		repo:         repo,
		handlers:     handlers,
		logger:       logger,
		workerCount:  workerCount,
		pollInterval: defaultPollInterval,
		backoff:      BackoffDuration,
		stop:         make(chan struct{}),
	}
}

// SetPollInterval changes how long an idle worker waits before polling again. Call it
// before Start.
func (p *WorkerPool) SetPollInterval(d time.Duration) {
	if d > 0 {
		p.pollInterval = d
	}
}

// SetBackoff replaces the retry delay function. Call it before Start.
func (p *WorkerPool) SetBackoff(fn func(attempt int) time.Duration) {
	if fn != nil {
		p.backoff = fn
	}
}

// Start launches the worker goroutines
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them. It is safe to call more than once.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

// wait blocks for d and reports false when the pool is stopping.
func (p *WorkerPool) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.stop:
		return false
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			p.logger.Debug("worker stopping", "id", id)
			return
		case <-ctx.Done():
			p.logger.Debug("context canceled, worker exiting", "id", id)
			return
		default:
		}

		task, err := p.repo.FetchNext(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("fetch task", "err", err)
			}
			if !p.wait(ctx, time.Second) {
				return
			}
			continue
		}
		if task == nil {
			if !p.wait(ctx, p.pollInterval) {
				return
			}
			continue
		}
		p.process(ctx, task)
	}
}

func (p *WorkerPool) process(ctx context.Context, task *models.Task) {
	var err error
	if h, ok := p.handlers[task.Type]; ok {
		err = h(ctx, task)
	} else {
		err = fmt.Errorf("%w: no handler for %q", ErrPermanent, task.Type)
	}

	if err == nil {
		task.Status = StatusDone
		if upErr := p.repo.UpdateTask(ctx, task); upErr != nil {
			p.logger.Error("mark task done", "task_id", task.ID, "err", upErr)
		}
		return
	}

	task.Attempts++
	task.LastError = err.Error()
	if errors.Is(err, ErrPermanent) || task.Attempts >= task.MaxAttempts {
		task.Status = StatusFailed
		p.logger.Warn("task failed", "task_id", task.ID, "type", task.Type, "attempts", task.Attempts, "err", err)
		if mvErr := p.repo.MoveToDeadLetter(ctx, task); mvErr != nil {
			p.logger.Error("move to dead letter", "task_id", task.ID, "err", mvErr)
		}
		return
	}

	next := time.Now().Add(p.backoff(task.Attempts))
	task.NextTryAt = &next
	task.Status = StatusRetry
	if upErr := p.repo.UpdateTask(ctx, task); upErr != nil {
		p.logger.Error("update task for retry", "task_id", task.ID, "err", upErr)
	}
}

// Enqueue convenience helper that creates a task and persists it
func (p *WorkerPool) Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error) {
	return Enqueue(ctx, p.repo, typ, payload, priority, maxAttempts)
}
