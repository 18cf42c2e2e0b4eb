// Package staffing implements shift staffing: availability and capacity computation,
// assignment state transitions, and shift series propagation.
package staffing

import (
	"context"
	"log/slog"
	"time"

	"github.com/garnizeh/shiftstaff/internal/swimlane"
	"github.com/garnizeh/shiftstaff/pkg/interval"
	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

// DefaultStartGuard is the window before a staffed shift starts in which its start time
// is frozen.
const DefaultStartGuard = time.Hour

// Notifier delivers user-facing messages. Delivery failures never fail an operation.
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind, message string) error
}

type Options struct {
	Logger     *slog.Logger
	Notifier   Notifier
	Location   *time.Location
	StartGuard time.Duration
	Now        func() time.Time

	// SwimlaneGap is the visual buffer used by DayLayout.
	SwimlaneGap time.Duration
}

// Service runs staffing operations against a store. It holds no per-request state.
type Service struct {
	store      repository.Store
	logger     *slog.Logger
	notifier   Notifier
	loc        *time.Location
	startGuard time.Duration
	gap        time.Duration
	now        func() time.Time
}

func New(store repository.Store, opts Options) *Service {
	s := &Service{
		store:      store,
		logger:     opts.Logger,
		notifier:   opts.Notifier,
		loc:        opts.Location,
		startGuard: opts.StartGuard,
		gap:        opts.SwimlaneGap,
		now:        opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.startGuard <= 0 {
		s.startGuard = DefaultStartGuard
	}
	if s.gap <= 0 {
		s.gap = swimlane.DefaultGap
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) today() string {
	return interval.Today(s.clock())
}

func (s *Service) stamp() int64 {
	return s.now().UTC().UnixMilli()
}

// startsWithinGuard reports whether sh starts in less than the guard window from now.
// Shifts that already started count as within the window.
func (s *Service) startsWithinGuard(sh models.Shift) bool {
	w, err := interval.NewWindow(sh.Date, sh.StartTime, sh.EndTime)
	if err != nil {
		return false
	}
	start, err := w.StartAt(s.loc)
	if err != nil {
		return false
	}
	return start.Sub(s.clock()) < s.startGuard
}

// guarded reports whether sh is today's shift, staffed, and inside the guard window.
func (s *Service) guarded(sh models.Shift, activeCount int) bool {
	return sh.Date == s.today() && activeCount > 0 && s.startsWithinGuard(sh)
}

func (s *Service) notify(ctx context.Context, userID int64, kind, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, kind, message); err != nil {
		s.logger.Warn("notification failed", slog.Int64("user_id", userID), slog.String("kind", kind), slog.Any("err", err))
	}
}

// requireAdmin accepts administrators bound to a company.
func requireAdmin(actor models.Actor) error {
	if !actor.Admin || actor.CompanyID <= 0 {
		return ErrForbidden
	}
	return nil
}

// loadJob returns the active job of the actor's company.
func (s *Service) loadJob(ctx context.Context, actor models.Actor, jobID int64) (*models.Job, error) {
	j, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j == nil || j.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if actor.CompanyID <= 0 || j.CompanyID != actor.CompanyID {
		return nil, ErrForbidden
	}
	return j, nil
}

func (s *Service) loadShift(ctx context.Context, shiftID int64) (*models.Shift, error) {
	sh, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh == nil || sh.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return sh, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func shiftIDs(shifts []models.Shift) []int64 {
	ids := make([]int64, len(shifts))
	for i, sh := range shifts {
		ids[i] = sh.ID
	}
	return ids
}
