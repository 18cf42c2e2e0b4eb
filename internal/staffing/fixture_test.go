package staffing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/garnizeh/shiftstaff/internal/staffing"
	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository/mock"
)

// Monday 2026-03-02 10:00 UTC.
var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

const today = "2026-03-02"

var (
	admin  = models.Actor{UserID: 1, CompanyID: 10, Admin: true}
	worker = func(id int64) models.Actor { return models.Actor{UserID: id, CompanyID: 10} }
)

type sentNote struct {
	UserID int64
	Kind   string
}

type recorder struct {
	mu   sync.Mutex
	sent []sentNote
}

func (r *recorder) Notify(ctx context.Context, userID int64, kind, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNote{UserID: userID, Kind: kind})
	return nil
}

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	svc   *staffing.Service
	store *mock.Store
	notes *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := mock.New()
	notes := &recorder{}
	svc := staffing.New(store, staffing.Options{
		Notifier: notes,
		Now:      func() time.Time { return now },
	})
	return &fixture{svc: svc, store: store, notes: notes}
}

func (f *fixture) job(t *testing.T, start, end string) int64 {
	t.Helper()
	id, err := f.store.CreateJob(context.Background(), &models.Job{
		CompanyID: admin.CompanyID, Position: "waiter", Seniority: models.SeniorityJunior,
		StartDate: start, EndDate: end, StartTime: "09:00", EndTime: "17:00", WorkersNeeded: 2,
		CheckInWindowMin: 30,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return id
}

func (f *fixture) shift(t *testing.T, jobID int64, date, start, end string, need int) int64 {
	t.Helper()
	ids, err := f.store.CreateShifts(context.Background(), []models.Shift{{
		JobID: jobID, Date: date, StartTime: start, EndTime: end, WorkersNeeded: need,
	}})
	if err != nil {
		t.Fatalf("create shift: %v", err)
	}
	return ids[0]
}

func (f *fixture) assign(t *testing.T, shiftID, userID int64) int64 {
	t.Helper()
	return f.store.Insert(models.ShiftAssignment{ShiftID: shiftID, UserID: userID, AssignedBy: admin.UserID, AssignedAt: 1})
}

func ptr[T any](v T) *T { return &v }
