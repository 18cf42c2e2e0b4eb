package staffing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/garnizeh/shiftstaff/internal/staffing"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

func TestInviteAndAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-01", "2026-03-04")
	f.shift(t, j, "2026-03-01", "09:00", "17:00", 2)
	a := f.shift(t, j, "2026-03-03", "09:00", "17:00", 1)
	b := f.shift(t, j, "2026-03-04", "09:00", "17:00", 2)
	f.assign(t, a, 99)

	res, err := f.svc.InviteWorkers(ctx, admin, j, []int64{30, 31, 30})
	if err != nil {
		t.Fatalf("InviteWorkers: %v", err)
	}
	if len(res.Invitations) != 2 || res.Warning != "" {
		t.Fatalf("result: %+v", res)
	}
	inv := res.Invitations[0]
	if inv.Status != models.InvitationPending || len(inv.ShiftIDs) != 2 {
		t.Fatalf("invitation: %+v", inv)
	}

	if _, err := f.svc.RespondInvitation(ctx, worker(31), inv.ID, true); !errors.Is(err, staffing.ErrForbidden) {
		t.Fatalf("respond as someone else: %v", err)
	}

	out, err := f.svc.RespondInvitation(ctx, worker(30), inv.ID, true)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if out.Invitation.Status != models.InvitationAccepted || out.Invitation.RespondedAt == nil {
		t.Fatalf("invitation after accept: %+v", out.Invitation)
	}
	if out.Assignment == nil || out.Assignment.Assigned != 1 || out.Assignment.Skipped[staffing.SkipFull] != 1 {
		t.Fatalf("assignment: %+v", out.Assignment)
	}
	if f.store.ActiveCount(b, 30) != 1 {
		t.Fatalf("invitee not assigned to open shift")
	}
	row, _ := f.store.FindAssignment(ctx, b, 30)
	if row.AssignedBy != admin.UserID {
		t.Fatalf("assigned_by = %d, want inviter", row.AssignedBy)
	}
	if f.notes.count("invitation.accepted") != 1 {
		t.Fatalf("inviter not notified")
	}

	if _, err := f.svc.RespondInvitation(ctx, worker(30), inv.ID, false); !errors.Is(err, staffing.ErrInvitationClosed) {
		t.Fatalf("second response: %v", err)
	}
}

func TestInviteDecline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-03", "2026-03-03")
	sh := f.shift(t, j, "2026-03-03", "09:00", "17:00", 2)

	res, err := f.svc.InviteWorkers(ctx, admin, j, []int64{30})
	if err != nil {
		t.Fatalf("InviteWorkers: %v", err)
	}
	out, err := f.svc.RespondInvitation(ctx, worker(30), res.Invitations[0].ID, false)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if out.Invitation.Status != models.InvitationDeclined || out.Assignment != nil {
		t.Fatalf("decline result: %+v", out)
	}
	if f.store.ActiveCount(sh, 30) != 0 {
		t.Fatalf("declined invitation assigned")
	}
}

func TestInviteWhenFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-03-03", "2026-03-03")
	sh := f.shift(t, j, "2026-03-03", "09:00", "17:00", 1)
	f.assign(t, sh, 1)

	res, err := f.svc.InviteWorkers(ctx, admin, j, []int64{30})
	if err != nil {
		t.Fatalf("InviteWorkers: %v", err)
	}
	if len(res.Invitations) != 0 || res.Warning == "" {
		t.Fatalf("expected warning and no invitations: %+v", res)
	}
	if len(f.store.Invitations) != 0 {
		t.Fatalf("invitation stored for a full job")
	}
}

func TestInviteRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, "2026-02-01", "2026-02-02")
	f.shift(t, j, "2026-02-01", "09:00", "17:00", 1)

	if _, err := f.svc.InviteWorkers(ctx, admin, j, nil); !staffing.IsValidation(err) {
		t.Fatalf("no users: %v", err)
	}
	if _, err := f.svc.InviteWorkers(ctx, admin, j, []int64{3}); !staffing.IsValidation(err) {
		t.Fatalf("past job: %v", err)
	}
	if _, err := f.svc.InviteWorkers(ctx, admin, 404, []int64{3}); !errors.Is(err, staffing.ErrNotFound) {
		t.Fatalf("missing job: %v", err)
	}
	if _, err := f.svc.RespondInvitation(ctx, worker(3), 404, true); !errors.Is(err, staffing.ErrNotFound) {
		t.Fatalf("missing invitation: %v", err)
	}
}
