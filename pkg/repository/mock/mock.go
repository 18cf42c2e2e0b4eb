package mock

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

// Store is an in-memory implementation of the repository contracts for tests.
type Store struct {
	mu sync.Mutex

	Jobs          map[int64]*models.Job
	Shifts        map[int64]*models.Shift
	Assignments   map[int64]*models.ShiftAssignment
	Invitations   map[int64]*models.JobInvitation
	Notifications []models.Notification

	// CreateAssignmentErr, when set, is returned by CreateAssignment.
	CreateAssignmentErr error
	// BeforeCreateAssignment runs before the uniqueness check; tests use it to simulate
	// a concurrent writer inserting the same pair.
	BeforeCreateAssignment func(a *models.ShiftAssignment)
	// UpdateShiftsCalls counts batch shift updates.
	UpdateShiftsCalls int

	nextID int64
}

var _ repository.Store = (*Store)(nil)
var _ repository.NotificationRepo = (*Store)(nil)

func New() *Store {
	return &Store{
		Jobs:        map[int64]*models.Job{},
		Shifts:      map[int64]*models.Shift{},
		Assignments: map[int64]*models.ShiftAssignment{},
		Invitations: map[int64]*models.JobInvitation{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Job methods
func (s *Store) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *j
	c.ID = s.id()
	s.Jobs[c.ID] = &c
	return c.ID, nil
}

func (s *Store) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.Jobs[id]
	if !ok {
		return nil, nil
	}
	c := *j
	return &c, nil
}

func (s *Store) UpdateJobDates(ctx context.Context, id int64, startDate, endDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.Jobs[id]; ok {
		j.StartDate, j.EndDate = startDate, endDate
	}
	return nil
}

func (s *Store) SoftDeleteJob(ctx context.Context, id int64, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.Jobs[id]; ok && j.DeletedAt == nil {
		j.DeletedAt = &at
	}
	return nil
}

// Shift methods
func (s *Store) CreateShifts(ctx context.Context, shifts []models.Shift) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(shifts))
	for _, sh := range shifts {
		c := sh
		c.ID = s.id()
		s.Shifts[c.ID] = &c
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (s *Store) GetShift(ctx context.Context, id int64) (*models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.Shifts[id]
	if !ok {
		return nil, nil
	}
	c := *sh
	return &c, nil
}

func (s *Store) ListShiftsByIDs(ctx context.Context, ids []int64) ([]models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Shift
	for _, id := range ids {
		if sh, ok := s.Shifts[id]; ok && sh.DeletedAt == nil {
			out = append(out, *sh)
		}
	}
	sortShifts(out)
	return out, nil
}

func (s *Store) ListShiftsByJob(ctx context.Context, jobID int64, fromDate string) ([]models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Shift
	for _, sh := range s.Shifts {
		if sh.JobID == jobID && sh.DeletedAt == nil && (fromDate == "" || sh.Date >= fromDate) {
			out = append(out, *sh)
		}
	}
	sortShifts(out)
	return out, nil
}

func (s *Store) ListShiftsByCompanyDate(ctx context.Context, companyID int64, date string) ([]models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Shift
	for _, sh := range s.Shifts {
		j, ok := s.Jobs[sh.JobID]
		if !ok || j.CompanyID != companyID || j.DeletedAt != nil {
			continue
		}
		if sh.DeletedAt == nil && sh.Date == date {
			out = append(out, *sh)
		}
	}
	sortShifts(out)
	return out, nil
}

func (s *Store) UpdateShifts(ctx context.Context, ids []int64, changes models.ShiftChanges) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateShiftsCalls++
	var n int64
	for _, id := range ids {
		sh, ok := s.Shifts[id]
		if !ok || sh.DeletedAt != nil {
			continue
		}
		if changes.StartTime != nil {
			sh.StartTime = *changes.StartTime
		}
		if changes.EndTime != nil {
			sh.EndTime = *changes.EndTime
		}
		if changes.WorkersNeeded != nil {
			sh.WorkersNeeded = *changes.WorkersNeeded
		}
		n++
	}
	return n, nil
}

func (s *Store) SoftDeleteShifts(ctx context.Context, ids []int64, at int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if sh, ok := s.Shifts[id]; ok && sh.DeletedAt == nil {
			sh.DeletedAt = &at
			n++
		}
	}
	return n, nil
}

// Assignment methods
func (s *Store) CreateAssignment(ctx context.Context, a *models.ShiftAssignment) (int64, error) {
	if s.BeforeCreateAssignment != nil {
		s.BeforeCreateAssignment(a)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateAssignmentErr != nil {
		return 0, s.CreateAssignmentErr
	}
	for _, existing := range s.Assignments {
		if existing.ShiftID == a.ShiftID && existing.UserID == a.UserID {
			return 0, repository.ErrDuplicate
		}
	}
	c := *a
	c.ID = s.id()
	s.Assignments[c.ID] = &c
	return c.ID, nil
}

// Insert stores a row directly, bypassing engine logic. It returns the new id.
func (s *Store) Insert(a models.ShiftAssignment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.Assignments[a.ID] = &a
	return a.ID
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (*models.ShiftAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Assignments[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (s *Store) FindAssignment(ctx context.Context, shiftID, userID int64) (*models.ShiftAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Assignments {
		if a.ShiftID == shiftID && a.UserID == userID {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) ListActiveBookings(ctx context.Context, userIDs []int64) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, a := range s.Assignments {
		if !a.IsActive() || !slices.Contains(userIDs, a.UserID) {
			continue
		}
		sh, ok := s.Shifts[a.ShiftID]
		if !ok || sh.DeletedAt != nil {
			continue
		}
		out = append(out, models.Booking{
			AssignmentID: a.ID, ShiftID: sh.ID, UserID: a.UserID,
			Date: sh.Date, StartTime: sh.StartTime, EndTime: sh.EndTime,
		})
	}
	slices.SortFunc(out, func(a, b models.Booking) int { return cmp.Compare(a.AssignmentID, b.AssignmentID) })
	return out, nil
}

func (s *Store) ListShiftBookings(ctx context.Context, shiftIDs []int64) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, a := range s.Assignments {
		if !a.IsActive() || !slices.Contains(shiftIDs, a.ShiftID) {
			continue
		}
		sh, ok := s.Shifts[a.ShiftID]
		if !ok || sh.DeletedAt != nil {
			continue
		}
		out = append(out, models.Booking{
			AssignmentID: a.ID, ShiftID: sh.ID, UserID: a.UserID,
			Date: sh.Date, StartTime: sh.StartTime, EndTime: sh.EndTime,
		})
	}
	slices.SortFunc(out, func(a, b models.Booking) int { return cmp.Compare(a.AssignmentID, b.AssignmentID) })
	return out, nil
}

func (s *Store) CountActiveByShifts(ctx context.Context, shiftIDs []int64) (map[int64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]int{}
	for _, a := range s.Assignments {
		if a.IsActive() && slices.Contains(shiftIDs, a.ShiftID) {
			if sh, ok := s.Shifts[a.ShiftID]; ok && sh.DeletedAt == nil {
				out[a.ShiftID]++
			}
		}
	}
	return out, nil
}

func (s *Store) RestoreAssignment(ctx context.Context, id, assignedBy, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.Assignments[id]; ok {
		a.AssignedBy, a.AssignedAt = assignedBy, at
		a.CancelledAt, a.CancelledBy, a.CancellationReason = nil, nil, nil
		a.DeletedAt, a.MarkedNoShowAt = nil, nil
		a.CheckedInAt, a.CheckedOutAt = nil, nil
	}
	return nil
}

func (s *Store) CancelAssignment(ctx context.Context, id, cancelledBy int64, reason models.CancellationReason, at int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Assignments[id]
	if !ok || !a.IsActive() {
		return false, nil
	}
	r := reason
	a.CancelledAt, a.CancelledBy, a.CancellationReason = &at, &cancelledBy, &r
	return true, nil
}

func (s *Store) SoftDeleteAssignments(ctx context.Context, userID int64, shiftIDs []int64, at int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.Assignments {
		if a.UserID == userID && a.IsActive() && slices.Contains(shiftIDs, a.ShiftID) {
			a.DeletedAt = &at
			n++
		}
	}
	return n, nil
}

func (s *Store) SetCheckIn(ctx context.Context, id, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.Assignments[id]; ok {
		a.CheckedInAt = &at
	}
	return nil
}

func (s *Store) SetCheckOut(ctx context.Context, id, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.Assignments[id]; ok {
		a.CheckedOutAt = &at
	}
	return nil
}

func (s *Store) SetNoShow(ctx context.Context, id, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.Assignments[id]; ok {
		a.MarkedNoShowAt = &at
	}
	return nil
}

// Invitation methods
func (s *Store) CreateInvitation(ctx context.Context, inv *models.JobInvitation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *inv
	c.ID = s.id()
	c.ShiftIDs = append([]int64(nil), inv.ShiftIDs...)
	s.Invitations[c.ID] = &c
	return c.ID, nil
}

func (s *Store) GetInvitation(ctx context.Context, id int64) (*models.JobInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.Invitations[id]
	if !ok {
		return nil, nil
	}
	c := *inv
	return &c, nil
}

func (s *Store) RespondInvitation(ctx context.Context, id int64, status models.InvitationStatus, at int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.Invitations[id]
	if !ok || inv.Status != models.InvitationPending {
		return false, nil
	}
	inv.Status = status
	inv.RespondedAt = &at
	return true, nil
}

// Notification methods
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *n
	c.ID = s.id()
	s.Notifications = append(s.Notifications, c)
	return c.ID, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for i := len(s.Notifications) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.Notifications[i].UserID == userID {
			out = append(out, s.Notifications[i])
		}
	}
	return out, nil
}

// ActiveCount returns the number of active rows for a pair; tests use it to check the
// single-active-row invariant.
func (s *Store) ActiveCount(shiftID, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.Assignments {
		if a.ShiftID == shiftID && a.UserID == userID && a.IsActive() {
			n++
		}
	}
	return n
}

func sortShifts(out []models.Shift) {
	slices.SortFunc(out, func(a, b models.Shift) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.StartTime, b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
