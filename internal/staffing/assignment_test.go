package staffing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/garnizeh/shiftstaff/internal/staffing"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

func TestAssignDirectIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-09", "2026-03-09")
	sh := f.shift(t, j, "2026-03-09", "09:00", "17:00", 2)

	first, err := f.svc.AssignDirect(ctx, admin, []int64{50}, []int64{sh})
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if first.Assigned != 1 {
		t.Fatalf("first assign: %+v", first)
	}
	second, err := f.svc.AssignDirect(ctx, admin, []int64{50}, []int64{sh})
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if second.Assigned != 0 || second.AlreadyAssigned != 1 {
		t.Fatalf("second assign: %+v", second)
	}
	if n := f.store.ActiveCount(sh, 50); n != 1 {
		t.Fatalf("active rows = %d, want 1", n)
	}
	if n := f.notes.count("assignment.created"); n != 1 {
		t.Fatalf("notifications = %d, want 1", n)
	}
}

func TestCancelThenAssignRestoresRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-09", "2026-03-09")
	sh := f.shift(t, j, "2026-03-09", "09:00", "17:00", 2)
	id := f.assign(t, sh, 60)

	cancelled, err := f.svc.CancelAssignment(ctx, admin, id, models.ReasonDayOff)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.CancelledAt == nil || cancelled.CancellationReason == nil || *cancelled.CancellationReason != models.ReasonDayOff {
		t.Fatalf("cancel did not record reason: %+v", cancelled)
	}

	res, err := f.svc.AssignDirect(ctx, admin, []int64{60}, []int64{sh})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Assigned != 1 || res.Restored != 1 {
		t.Fatalf("assign result: %+v", res)
	}
	if len(f.store.Assignments) != 1 {
		t.Fatalf("rows = %d, want 1", len(f.store.Assignments))
	}
	got, _ := f.store.GetAssignment(ctx, id)
	if got == nil || !got.IsActive() || got.CancellationReason != nil || got.CancelledBy != nil {
		t.Fatalf("row not restored: %+v", got)
	}
}

func TestAssignDirectConcurrentInsertIsAlreadyAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-09", "2026-03-09")
	sh := f.shift(t, j, "2026-03-09", "09:00", "17:00", 2)

	f.store.BeforeCreateAssignment = func(a *models.ShiftAssignment) {
		f.store.BeforeCreateAssignment = nil
		f.store.Insert(models.ShiftAssignment{ShiftID: a.ShiftID, UserID: a.UserID, AssignedBy: 2})
	}

	res, err := f.svc.AssignDirect(ctx, admin, []int64{70}, []int64{sh})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Assigned != 0 || res.AlreadyAssigned != 1 || res.Failed != 0 {
		t.Fatalf("result: %+v", res)
	}
	if n := f.store.ActiveCount(sh, 70); n != 1 {
		t.Fatalf("active rows = %d, want 1", n)
	}
}

func TestAssignDirectStoreFailureIsTallied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-09", "2026-03-09")
	sh := f.shift(t, j, "2026-03-09", "09:00", "17:00", 2)
	f.store.CreateAssignmentErr = errors.New("disk full")

	res, err := f.svc.AssignDirect(ctx, admin, []int64{1, 2}, []int64{sh})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Failed != 2 || res.Assigned != 0 {
		t.Fatalf("result: %+v", res)
	}
}

func TestBulkAssignScenarioC(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "2026-03-09", "2026-03-09")
	sh := f.shift(t, j, "2026-03-09", "09:00", "17:00", 2)
	f.assign(t, sh, 1)
	f.assign(t, sh, 2)

	res, err := f.svc.BulkAssign(context.Background(), admin, []int64{3}, []int64{sh})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if res.Assigned != 0 || res.Skipped[staffing.SkipFull] != 1 {
		t.Fatalf("result: %+v", res)
	}
}

func TestBulkAssignRechecksAsItGoes(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "2026-03-09", "2026-03-09")
	morning := f.shift(t, j, "2026-03-09", "08:00", "12:00", 1)
	overlap := f.shift(t, j, "2026-03-09", "11:00", "15:00", 3)
	evening := f.shift(t, j, "2026-03-09", "18:00", "22:00", 3)

	res, err := f.svc.BulkAssign(context.Background(), admin, []int64{10, 11}, []int64{evening, overlap, morning})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	// user 10: morning assigned, overlap conflicts, evening assigned.
	// user 11: morning full, overlap assigned, evening assigned.
	if res.Assigned != 4 {
		t.Fatalf("assigned = %d, want 4 (%+v)", res.Assigned, res.Pairs)
	}
	if res.Skipped[staffing.SkipConflict] != 1 || res.Skipped[staffing.SkipFull] != 1 {
		t.Fatalf("skipped = %v", res.Skipped)
	}
	if f.store.ActiveCount(morning, 10) != 1 || f.store.ActiveCount(overlap, 10) != 0 {
		t.Fatalf("user 10 rows wrong")
	}
	if f.store.ActiveCount(morning, 11) != 0 || f.store.ActiveCount(overlap, 11) != 1 {
		t.Fatalf("user 11 rows wrong")
	}
}

func TestAssignRejectsInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-09", "2026-03-09")
	sh := f.shift(t, j, "2026-03-09", "09:00", "17:00", 2)

	tests := []struct {
		name   string
		actor  models.Actor
		users  []int64
		shifts []int64
		check  func(error) bool
	}{
		{"worker", worker(3), []int64{3}, []int64{sh}, func(err error) bool { return errors.Is(err, staffing.ErrForbidden) }},
		{"no users", admin, nil, []int64{sh}, staffing.IsValidation},
		{"no shifts", admin, []int64{3}, nil, staffing.IsValidation},
		{"missing shift", admin, []int64{3}, []int64{sh, 999}, func(err error) bool { return errors.Is(err, staffing.ErrNotFound) }},
		{"other company", models.Actor{UserID: 4, CompanyID: 77, Admin: true}, []int64{3}, []int64{sh}, func(err error) bool { return errors.Is(err, staffing.ErrForbidden) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.AssignDirect(ctx, tc.actor, tc.users, tc.shifts); !tc.check(err) {
				t.Fatalf("AssignDirect: unexpected error %v", err)
			}
			if _, err := f.svc.BulkAssign(ctx, tc.actor, tc.users, tc.shifts); !tc.check(err) {
				t.Fatalf("BulkAssign: unexpected error %v", err)
			}
		})
	}
	if len(f.store.Assignments) != 0 {
		t.Fatalf("rejected calls wrote %d rows", len(f.store.Assignments))
	}
}

func TestCancelAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-09", "2026-03-09")
	sh := f.shift(t, j, "2026-03-09", "09:00", "17:00", 2)
	mine := f.assign(t, sh, 80)
	theirs := f.assign(t, sh, 81)

	if _, err := f.svc.CancelAssignment(ctx, worker(80), mine, models.ReasonAdminDecision); !staffing.IsValidation(err) {
		t.Fatalf("admin reason by worker: %v", err)
	}
	if _, err := f.svc.CancelAssignment(ctx, worker(80), mine, "bored"); !staffing.IsValidation(err) {
		t.Fatalf("unknown reason: %v", err)
	}
	if _, err := f.svc.CancelAssignment(ctx, worker(80), theirs, models.ReasonSick); !errors.Is(err, staffing.ErrForbidden) {
		t.Fatalf("other worker's assignment: %v", err)
	}

	a, err := f.svc.CancelAssignment(ctx, worker(80), mine, models.ReasonSick)
	if err != nil {
		t.Fatalf("cancel own: %v", err)
	}
	if a.CancelledBy == nil || *a.CancelledBy != 80 {
		t.Fatalf("cancelled_by = %v", a.CancelledBy)
	}
	if f.notes.count("assignment.cancelled") != 0 {
		t.Fatalf("self-cancel should not notify the worker")
	}

	if _, err := f.svc.CancelAssignment(ctx, worker(80), mine, models.ReasonSick); !errors.Is(err, staffing.ErrAlreadyCancelled) {
		t.Fatalf("second cancel: %v", err)
	}

	if _, err := f.svc.CancelAssignment(ctx, admin, theirs, models.ReasonBadPerformance); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if f.notes.count("assignment.cancelled") != 1 {
		t.Fatalf("admin cancel should notify the worker")
	}
	if _, err := f.svc.CancelAssignment(ctx, admin, 12345, models.ReasonDayOff); !errors.Is(err, staffing.ErrNotFound) {
		t.Fatalf("missing assignment: %v", err)
	}
}

func TestRemoveFromList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-09", "2026-03-10")
	a := f.shift(t, j, "2026-03-09", "09:00", "17:00", 2)
	b := f.shift(t, j, "2026-03-10", "09:00", "17:00", 2)
	ida := f.assign(t, a, 90)
	f.assign(t, b, 90)
	f.assign(t, a, 91)

	n, err := f.svc.RemoveFromList(ctx, admin, 90, []int64{a, b})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed = %d, want 2", n)
	}
	row, _ := f.store.GetAssignment(ctx, ida)
	if row.DeletedAt == nil || row.CancelledAt != nil || row.CancellationReason != nil {
		t.Fatalf("removal must soft-delete without a reason: %+v", row)
	}
	if f.store.ActiveCount(a, 91) != 1 {
		t.Fatalf("other worker's row touched")
	}
	if _, err := f.svc.CancelAssignment(ctx, admin, ida, models.ReasonDayOff); !errors.Is(err, staffing.ErrNotActive) {
		t.Fatalf("cancel removed row: %v", err)
	}

	res, err := f.svc.AssignDirect(ctx, admin, []int64{90}, []int64{a})
	if err != nil || res.Restored != 1 {
		t.Fatalf("restore removed: %+v %v", res, err)
	}
}

func TestCheckInOutAndNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, today, today)
	soon := f.shift(t, j, today, "10:20", "14:00", 2)
	later := f.shift(t, j, today, "15:00", "18:00", 2)
	started := f.shift(t, j, today, "08:00", "09:30", 2)
	running := f.shift(t, j, today, "09:00", "12:00", 2)

	s1 := f.assign(t, soon, 5)
	s2 := f.assign(t, later, 5)
	s3 := f.assign(t, started, 6)
	s4 := f.assign(t, running, 7)

	if _, err := f.svc.CheckOut(ctx, worker(5), s1); !staffing.IsValidation(err) {
		t.Fatalf("checkout before checkin: %v", err)
	}
	a, err := f.svc.CheckIn(ctx, worker(5), s1)
	if err != nil || a.CheckedInAt == nil {
		t.Fatalf("check in: %+v %v", a, err)
	}
	if _, err := f.svc.CheckIn(ctx, worker(5), s1); !staffing.IsValidation(err) {
		t.Fatalf("double check in: %v", err)
	}
	if a, err = f.svc.CheckOut(ctx, worker(5), s1); err != nil || a.CheckedOutAt == nil {
		t.Fatalf("check out: %+v %v", a, err)
	}
	if _, err := f.svc.CheckIn(ctx, worker(5), s2); !staffing.IsValidation(err) {
		t.Fatalf("check in before window: %v", err)
	}
	if _, err := f.svc.CheckIn(ctx, worker(6), s3); !staffing.IsValidation(err) {
		t.Fatalf("check in after end: %v", err)
	}
	if _, err := f.svc.CheckIn(ctx, worker(6), s4); !errors.Is(err, staffing.ErrForbidden) {
		t.Fatalf("check in someone else: %v", err)
	}

	if _, err := f.svc.MarkNoShow(ctx, worker(6), s3); !errors.Is(err, staffing.ErrForbidden) {
		t.Fatalf("worker no-show: %v", err)
	}
	if _, err := f.svc.MarkNoShow(ctx, admin, s2); !staffing.IsValidation(err) {
		t.Fatalf("no-show before start: %v", err)
	}
	if _, err := f.svc.MarkNoShow(ctx, admin, s1); !staffing.IsValidation(err) {
		t.Fatalf("no-show after check-in: %v", err)
	}
	ns, err := f.svc.MarkNoShow(ctx, admin, s3)
	if err != nil || ns.MarkedNoShowAt == nil {
		t.Fatalf("no-show: %+v %v", ns, err)
	}
	if again, err := f.svc.MarkNoShow(ctx, admin, s3); err != nil || *again.MarkedNoShowAt != *ns.MarkedNoShowAt {
		t.Fatalf("repeat no-show: %+v %v", again, err)
	}
}
