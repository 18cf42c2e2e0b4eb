package sqlite_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	dbfs "github.com/garnizeh/shiftstaff/db"
	dbpkg "github.com/garnizeh/shiftstaff/internal/db"
	sqlite "github.com/garnizeh/shiftstaff/internal/repository/sqlite"
	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

func setupRepo(t *testing.T) *sqlite.SQLiteRepo {
	t.Helper()
	return setupRepoWithLogger(t, nil)
}

func setupRepoWithLogger(t *testing.T, logger *slog.Logger) *sqlite.SQLiteRepo {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return sqlite.New(d, logger)
}

func seedJob(t *testing.T, repo *sqlite.SQLiteRepo, companyID int64) int64 {
	t.Helper()
	id, err := repo.CreateJob(context.Background(), &models.Job{
		CompanyID: companyID, Position: "waiter", Seniority: models.SeniorityJunior,
		StartDate: "2026-03-02", EndDate: "2026-03-04", StartTime: "09:00", EndTime: "17:00",
		WorkersNeeded: 2, Weekdays: []int{1, 2, 3}, CreatedBy: 1,
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return id
}

func seedShifts(t *testing.T, repo *sqlite.SQLiteRepo, jobID int64, dates ...string) []int64 {
	t.Helper()
	shifts := make([]models.Shift, 0, len(dates))
	for _, d := range dates {
		shifts = append(shifts, models.Shift{JobID: jobID, Date: d, StartTime: "09:00", EndTime: "17:00", WorkersNeeded: 2})
	}
	ids, err := repo.CreateShifts(context.Background(), shifts)
	if err != nil {
		t.Fatalf("CreateShifts: %v", err)
	}
	return ids
}

func TestJobCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	got, err := repo.GetJob(ctx, 9999)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for missing job, got %#v, %v", got, err)
	}

	id := seedJob(t, repo, 10)
	got, err = repo.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.CompanyID != 10 || got.Position != "waiter" || len(got.Weekdays) != 3 || got.Weekdays[2] != 3 || got.Created == 0 {
		t.Fatalf("unexpected job: %#v", got)
	}

	if err := repo.UpdateJobDates(ctx, id, "2026-03-01", "2026-03-10"); err != nil {
		t.Fatalf("UpdateJobDates: %v", err)
	}
	if err := repo.SoftDeleteJob(ctx, id, 42); err != nil {
		t.Fatalf("SoftDeleteJob: %v", err)
	}
	got, _ = repo.GetJob(ctx, id)
	if got.StartDate != "2026-03-01" || got.EndDate != "2026-03-10" || got.DeletedAt == nil || *got.DeletedAt != 42 {
		t.Fatalf("job after update: %#v", got)
	}
}

func TestShiftQueriesAndUpdates(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	job := seedJob(t, repo, 10)
	ids := seedShifts(t, repo, job, "2026-03-04", "2026-03-02", "2026-03-03")

	all, err := repo.ListShiftsByJob(ctx, job, "")
	if err != nil {
		t.Fatalf("ListShiftsByJob: %v", err)
	}
	if len(all) != 3 || all[0].Date != "2026-03-02" || all[2].Date != "2026-03-04" {
		t.Fatalf("shifts not ordered by date: %#v", all)
	}
	from, _ := repo.ListShiftsByJob(ctx, job, "2026-03-03")
	if len(from) != 2 {
		t.Fatalf("from date: got %d shifts, want 2", len(from))
	}

	n, err := repo.UpdateShifts(ctx, []int64{ids[0], ids[1]}, models.ShiftChanges{EndTime: ptr("18:00")})
	if err != nil || n != 2 {
		t.Fatalf("UpdateShifts: %d, %v", n, err)
	}
	sh, _ := repo.GetShift(ctx, ids[0])
	if sh.StartTime != "09:00" || sh.EndTime != "18:00" || sh.WorkersNeeded != 2 {
		t.Fatalf("partial update touched other columns: %#v", sh)
	}

	if n, err := repo.SoftDeleteShifts(ctx, []int64{ids[2]}, 7); err != nil || n != 1 {
		t.Fatalf("SoftDeleteShifts: %d, %v", n, err)
	}
	if n, _ := repo.SoftDeleteShifts(ctx, []int64{ids[2]}, 8); n != 0 {
		t.Fatalf("deleting twice changed %d rows", n)
	}
	if n, _ := repo.UpdateShifts(ctx, []int64{ids[2]}, models.ShiftChanges{WorkersNeeded: ptr(5)}); n != 0 {
		t.Fatalf("deleted shift updated")
	}
	active, _ := repo.ListShiftsByIDs(ctx, ids)
	if len(active) != 2 {
		t.Fatalf("ListShiftsByIDs returned deleted shift: %#v", active)
	}
	if empty, err := repo.ListShiftsByIDs(ctx, nil); err != nil || empty != nil {
		t.Fatalf("empty ids: %v %v", empty, err)
	}
}

func TestListShiftsByCompanyDate(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	mine := seedJob(t, repo, 10)
	other := seedJob(t, repo, 11)
	gone := seedJob(t, repo, 10)
	seedShifts(t, repo, mine, "2026-03-03", "2026-03-04")
	seedShifts(t, repo, other, "2026-03-03")
	seedShifts(t, repo, gone, "2026-03-03")
	if err := repo.SoftDeleteJob(ctx, gone, 1); err != nil {
		t.Fatalf("SoftDeleteJob: %v", err)
	}

	got, err := repo.ListShiftsByCompanyDate(ctx, 10, "2026-03-03")
	if err != nil {
		t.Fatalf("ListShiftsByCompanyDate: %v", err)
	}
	if len(got) != 1 || got[0].JobID != mine {
		t.Fatalf("unexpected shifts: %#v", got)
	}
}

func TestAssignmentLifecycle(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	job := seedJob(t, repo, 10)
	ids := seedShifts(t, repo, job, "2026-03-02", "2026-03-03")

	a := &models.ShiftAssignment{ShiftID: ids[0], UserID: 5, AssignedBy: 1}
	id, err := repo.CreateAssignment(ctx, a)
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	if _, err := repo.CreateAssignment(ctx, &models.ShiftAssignment{ShiftID: ids[0], UserID: 5, AssignedBy: 1}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate pair: got %v, want ErrDuplicate", err)
	}

	found, err := repo.FindAssignment(ctx, ids[0], 5)
	if err != nil || found == nil || found.ID != id || !found.IsActive() {
		t.Fatalf("FindAssignment: %#v, %v", found, err)
	}
	if missing, err := repo.FindAssignment(ctx, ids[1], 5); err != nil || missing != nil {
		t.Fatalf("missing pair: %#v, %v", missing, err)
	}

	if err := repo.SetCheckIn(ctx, id, 100); err != nil {
		t.Fatalf("SetCheckIn: %v", err)
	}
	ok, err := repo.CancelAssignment(ctx, id, 5, models.ReasonSick, 200)
	if err != nil || !ok {
		t.Fatalf("CancelAssignment: %v %v", ok, err)
	}
	if ok, _ := repo.CancelAssignment(ctx, id, 5, models.ReasonSick, 300); ok {
		t.Fatalf("second cancel changed the row")
	}
	got, _ := repo.GetAssignment(ctx, id)
	if got.IsActive() || *got.CancelledBy != 5 || *got.CancellationReason != models.ReasonSick || *got.CheckedInAt != 100 {
		t.Fatalf("cancelled row: %#v", got)
	}

	if err := repo.RestoreAssignment(ctx, id, 2, 400); err != nil {
		t.Fatalf("RestoreAssignment: %v", err)
	}
	got, _ = repo.GetAssignment(ctx, id)
	if !got.IsActive() || got.AssignedBy != 2 || got.AssignedAt != 400 || got.CancellationReason != nil || got.CheckedInAt != nil {
		t.Fatalf("restored row keeps old state: %#v", got)
	}

	if n, err := repo.SoftDeleteAssignments(ctx, 5, ids, 500); err != nil || n != 1 {
		t.Fatalf("SoftDeleteAssignments: %d, %v", n, err)
	}
	got, _ = repo.GetAssignment(ctx, id)
	if got.DeletedAt == nil {
		t.Fatalf("assignment not removed")
	}
}

func TestBookingsAndCountsSkipInactive(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	job := seedJob(t, repo, 10)
	ids := seedShifts(t, repo, job, "2026-03-02", "2026-03-03")

	mustAssign := func(shiftID, userID int64) int64 {
		id, err := repo.CreateAssignment(ctx, &models.ShiftAssignment{ShiftID: shiftID, UserID: userID, AssignedBy: 1})
		if err != nil {
			t.Fatalf("CreateAssignment: %v", err)
		}
		return id
	}
	mustAssign(ids[0], 5)
	mustAssign(ids[0], 6)
	cancelled := mustAssign(ids[0], 7)
	mustAssign(ids[1], 5)
	if _, err := repo.CancelAssignment(ctx, cancelled, 1, models.ReasonAdminDecision, 10); err != nil {
		t.Fatalf("CancelAssignment: %v", err)
	}

	counts, err := repo.CountActiveByShifts(ctx, ids)
	if err != nil {
		t.Fatalf("CountActiveByShifts: %v", err)
	}
	if counts[ids[0]] != 2 || counts[ids[1]] != 1 {
		t.Fatalf("counts: %v", counts)
	}

	bookings, err := repo.ListActiveBookings(ctx, []int64{5})
	if err != nil {
		t.Fatalf("ListActiveBookings: %v", err)
	}
	if len(bookings) != 2 || bookings[0].Date != "2026-03-02" || bookings[1].StartTime != "09:00" {
		t.Fatalf("bookings: %#v", bookings)
	}

	if _, err := repo.SoftDeleteShifts(ctx, []int64{ids[1]}, 20); err != nil {
		t.Fatalf("SoftDeleteShifts: %v", err)
	}
	bookings, _ = repo.ListActiveBookings(ctx, []int64{5})
	if len(bookings) != 1 || bookings[0].ShiftID != ids[0] {
		t.Fatalf("booking on deleted shift still listed: %#v", bookings)
	}
	onShift, _ := repo.ListShiftBookings(ctx, ids)
	if len(onShift) != 2 {
		t.Fatalf("shift bookings: %#v", onShift)
	}
}

func TestConcurrentAssignSamePair(t *testing.T) {
	var logs bytes.Buffer
	repo := setupRepoWithLogger(t, slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()
	job := seedJob(t, repo, 10)
	ids := seedShifts(t, repo, job, "2026-03-02")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateAssignment(ctx, &models.ShiftAssignment{ShiftID: ids[0], UserID: 5, AssignedBy: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, repository.ErrDuplicate):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("created %d rows for one pair", created)
	}
	if got := strings.Count(logs.String(), "assignment already exists"); got != 7 {
		t.Fatalf("logged %d duplicate inserts, want 7", got)
	}
}

func TestInvitationRespondOnce(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	job := seedJob(t, repo, 10)
	ids := seedShifts(t, repo, job, "2026-03-02", "2026-03-03")

	id, err := repo.CreateInvitation(ctx, &models.JobInvitation{JobID: job, UserID: 9, InvitedBy: 1, ShiftIDs: ids})
	if err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}
	inv, err := repo.GetInvitation(ctx, id)
	if err != nil {
		t.Fatalf("GetInvitation: %v", err)
	}
	if inv.Status != models.InvitationPending || len(inv.ShiftIDs) != 2 || inv.ShiftIDs[1] != ids[1] {
		t.Fatalf("invitation: %#v", inv)
	}

	if ok, err := repo.RespondInvitation(ctx, id, models.InvitationAccepted, 50); err != nil || !ok {
		t.Fatalf("accept: %v %v", ok, err)
	}
	if ok, _ := repo.RespondInvitation(ctx, id, models.InvitationDeclined, 60); ok {
		t.Fatalf("answered invitation changed again")
	}
	inv, _ = repo.GetInvitation(ctx, id)
	if inv.Status != models.InvitationAccepted || *inv.RespondedAt != 50 {
		t.Fatalf("invitation after respond: %#v", inv)
	}
	if missing, err := repo.GetInvitation(ctx, 999); err != nil || missing != nil {
		t.Fatalf("missing invitation: %#v %v", missing, err)
	}
}

func TestNotificationsNewestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, kind := range []string{"a", "b", "c"} {
		if _, err := repo.CreateNotification(ctx, &models.Notification{UserID: 3, Kind: kind, Message: kind}); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}
	if _, err := repo.CreateNotification(ctx, &models.Notification{UserID: 4, Kind: "x", Message: "x"}); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	got, err := repo.ListNotifications(ctx, 3, 2)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "c" || got[1].Kind != "b" {
		t.Fatalf("notifications: %#v", got)
	}
}

func TestTaskQueue(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if task, err := repo.FetchNext(ctx); err != nil || task != nil {
		t.Fatalf("empty queue: %#v %v", task, err)
	}

	low, _ := repo.Enqueue(ctx, &models.Task{Type: "notify.user", Payload: []byte(`{"n":1}`), Priority: 100})
	high, _ := repo.Enqueue(ctx, &models.Task{Type: "notify.user", Payload: []byte(`{"n":2}`), Priority: 1})
	if _, err := repo.Enqueue(ctx, &models.Task{Type: "later", ScheduledAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	first, err := repo.FetchNext(ctx)
	if err != nil || first == nil || first.ID != high || first.Status != "running" || string(first.Payload) != `{"n":2}` {
		t.Fatalf("first fetch: %#v %v", first, err)
	}
	second, _ := repo.FetchNext(ctx)
	if second == nil || second.ID != low {
		t.Fatalf("second fetch: %#v", second)
	}
	if third, _ := repo.FetchNext(ctx); third != nil {
		t.Fatalf("claimed or future task fetched: %#v", third)
	}

	retryAt := time.Now().Add(-time.Second)
	second.Status = "retry"
	second.Attempts = 1
	second.LastError = "boom"
	second.NextTryAt = &retryAt
	if err := repo.UpdateTask(ctx, second); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	again, _ := repo.FetchNext(ctx)
	if again == nil || again.ID != low || again.Attempts != 1 || again.LastError != "boom" {
		t.Fatalf("retry fetch: %#v", again)
	}

	if err := repo.MoveToDeadLetter(ctx, again); err != nil {
		t.Fatalf("MoveToDeadLetter: %v", err)
	}
	if gone, _ := repo.GetTask(ctx, low); gone != nil {
		t.Fatalf("dead task still queued")
	}
	if n, _ := repo.CountDeadLetters(ctx); n != 1 {
		t.Fatalf("dead letters = %d, want 1", n)
	}
}

func ptr[T any](v T) *T { return &v }
