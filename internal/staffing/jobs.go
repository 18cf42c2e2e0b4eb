package staffing

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/garnizeh/shiftstaff/pkg/interval"
	"github.com/garnizeh/shiftstaff/pkg/models"
)

// MaxJobDays bounds the number of calendar days a job's range may cover.
const MaxJobDays = 366

// JobInput is the payload for creating a job and its shift series.
type JobInput struct {
	Position         string           `json:"position"`
	Title            *string          `json:"title,omitempty"`
	Seniority        models.Seniority `json:"seniority"`
	Description      string           `json:"description"`
	LocationID       *int64           `json:"location_id,omitempty"`
	StartDate        string           `json:"start_date"`
	EndDate          string           `json:"end_date"`
	StartTime        string           `json:"start_time"`
	EndTime          string           `json:"end_time"`
	WorkersNeeded    int              `json:"workers_needed"`
	Weekdays         []int            `json:"weekdays,omitempty"`
	HourlyRate       *string          `json:"hourly_rate,omitempty"`
	ShiftRate        *string          `json:"shift_rate,omitempty"`
	CheckInRadiusM   int              `json:"check_in_radius_m"`
	CheckInWindowMin int              `json:"check_in_window_min"`
}

func (in *JobInput) validate() error {
	if !models.IsKnownPosition(in.Position) {
		return invalid("position", "unknown position %q", in.Position)
	}
	switch in.Seniority {
	case "":
		in.Seniority = models.SeniorityJunior
	case models.SeniorityJunior, models.SenioritySenior:
	default:
		return invalid("seniority", "must be %q or %q", models.SeniorityJunior, models.SenioritySenior)
	}
	if err := validateDateRange(in.StartDate, in.EndDate); err != nil {
		return err
	}
	if _, err := interval.ParseClock(in.StartTime); err != nil {
		return invalid("start_time", "%v", err)
	}
	if _, err := interval.ParseClock(in.EndTime); err != nil {
		return invalid("end_time", "%v", err)
	}
	if !interval.IsValidRange(in.StartTime, in.EndTime) {
		return invalid("end_time", "must be after start_time")
	}
	if in.WorkersNeeded < 1 {
		return invalid("workers_needed", "must be at least 1")
	}
	for _, d := range in.Weekdays {
		if d < 0 || d > 6 {
			return invalid("weekdays", "%d is not a weekday (0=Sunday..6=Saturday)", d)
		}
	}
	if in.CheckInRadiusM < 0 {
		return invalid("check_in_radius_m", "must not be negative")
	}
	if in.CheckInWindowMin < 0 {
		return invalid("check_in_window_min", "must not be negative")
	}
	return nil
}

func validateDateRange(start, end string) error {
	from, err := interval.ParseDate(start)
	if err != nil {
		return invalid("start_date", "expected YYYY-MM-DD")
	}
	to, err := interval.ParseDate(end)
	if err != nil {
		return invalid("end_date", "expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return invalid("end_date", "must not be before start_date")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > MaxJobDays {
		return invalid("end_date", "range covers %d days, at most %d allowed", days, MaxJobDays)
	}
	return nil
}

// GenerateShifts expands the job's daily template over its date range. Days not in
// Weekdays are skipped; an empty Weekdays list means every day.
func GenerateShifts(job models.Job) ([]models.Shift, error) {
	return generateBetween(job, job.StartDate, job.EndDate)
}

func generateBetween(job models.Job, from, to string) ([]models.Shift, error) {
	start, err := interval.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	end, err := interval.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}

	var out []models.Shift
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(job.Weekdays) > 0 && !slices.Contains(job.Weekdays, int(d.Weekday())) {
			continue
		}
		out = append(out, models.Shift{
			JobID:         job.ID,
			Date:          d.Format(interval.DateLayout),
			StartTime:     job.StartTime,
			EndTime:       job.EndTime,
			WorkersNeeded: job.WorkersNeeded,
		})
	}
	return out, nil
}

// CreateJob stores a job for the actor's company and generates its shift series.
func (s *Service) CreateJob(ctx context.Context, actor models.Actor, in JobInput) (*models.Job, []models.Shift, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	job := &models.Job{
		CompanyID:        actor.CompanyID,
		Position:         in.Position,
		Title:            in.Title,
		Seniority:        in.Seniority,
		Description:      in.Description,
		LocationID:       in.LocationID,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		WorkersNeeded:    in.WorkersNeeded,
		Weekdays:         slices.Clone(in.Weekdays),
		HourlyRate:       in.HourlyRate,
		ShiftRate:        in.ShiftRate,
		CheckInRadiusM:   in.CheckInRadiusM,
		CheckInWindowMin: in.CheckInWindowMin,
		CreatedBy:        actor.UserID,
		Created:          s.stamp(),
	}
	shifts, err := GenerateShifts(*job)
	if err != nil {
		return nil, nil, err
	}
	if len(shifts) == 0 {
		return nil, nil, invalid("weekdays", "no day in the range matches the weekdays")
	}

	id, err := s.store.CreateJob(ctx, job)
	if err != nil {
		return nil, nil, fmt.Errorf("create job: %w", err)
	}
	job.ID = id
	for i := range shifts {
		shifts[i].JobID = id
	}
	ids, err := s.store.CreateShifts(ctx, shifts)
	if err != nil {
		return nil, nil, fmt.Errorf("create shifts: %w", err)
	}
	for i := range shifts {
		shifts[i].ID = ids[i]
	}

	s.logger.Info("job created", "job_id", id, "company_id", job.CompanyID, "shifts", len(shifts))
	return job, shifts, nil
}

// ListJobShifts returns the job's active shifts in date order.
func (s *Service) ListJobShifts(ctx context.Context, actor models.Actor, jobID int64) ([]models.Shift, error) {
	if _, err := s.loadJob(ctx, actor, jobID); err != nil {
		return nil, err
	}
	shifts, err := s.store.ListShiftsByJob(ctx, jobID, "")
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

type RangeResult struct {
	Removed      int64                 `json:"removed"`
	Added        int                   `json:"added"`
	Confirmation *ConfirmationRequired `json:"confirmation,omitempty"`
}

// ChangeJobDates moves the job's date range. Shifts falling outside the new range are
// soft-deleted once the caller confirms; a staffed shift of today inside the guard window
// blocks the whole change. Days gained by the new range get shifts from the job template,
// from today onward.
func (s *Service) ChangeJobDates(ctx context.Context, actor models.Actor, jobID int64, startDate, endDate string, confirm bool) (RangeResult, error) {
	if err := requireAdmin(actor); err != nil {
		return RangeResult{}, err
	}
	if err := validateDateRange(startDate, endDate); err != nil {
		return RangeResult{}, err
	}
	job, err := s.loadJob(ctx, actor, jobID)
	if err != nil {
		return RangeResult{}, err
	}

	shifts, err := s.store.ListShiftsByJob(ctx, jobID, "")
	if err != nil {
		return RangeResult{}, fmt.Errorf("list shifts: %w", err)
	}
	var outside []models.Shift
	for _, sh := range shifts {
		if sh.Date < startDate || sh.Date > endDate {
			outside = append(outside, sh)
		}
	}

	var res RangeResult
	var notifyIDs []int64
	if len(outside) > 0 {
		ids := shiftIDs(outside)
		counts, err := s.store.CountActiveByShifts(ctx, ids)
		if err != nil {
			return RangeResult{}, fmt.Errorf("count assignments: %w", err)
		}
		var blocked []int64
		for _, sh := range outside {
			if s.guarded(sh, counts[sh.ID]) {
				blocked = append(blocked, sh.ID)
			}
		}
		if len(blocked) > 0 {
			return RangeResult{}, &GuardError{ShiftIDs: blocked, Action: "date range change"}
		}
		if !confirm {
			res.Confirmation = &ConfirmationRequired{
				Kind:     ConfirmRangeShrink,
				ShiftIDs: ids,
				Message:  fmt.Sprintf("%d shift(s) fall outside %s..%s and will be cancelled", len(ids), startDate, endDate),
			}
			return res, nil
		}
		notifyIDs = ids
	}

	added, err := s.growthShifts(*job, startDate, endDate)
	if err != nil {
		return RangeResult{}, err
	}

	booked := s.bookedUsers(ctx, notifyIDs)
	if len(outside) > 0 {
		n, err := s.store.SoftDeleteShifts(ctx, shiftIDs(outside), s.stamp())
		if err != nil {
			return RangeResult{}, fmt.Errorf("delete shifts: %w", err)
		}
		res.Removed = n
	}
	if len(added) > 0 {
		if _, err := s.store.CreateShifts(ctx, added); err != nil {
			return RangeResult{}, fmt.Errorf("create shifts: %w", err)
		}
		res.Added = len(added)
	}
	if err := s.store.UpdateJobDates(ctx, jobID, startDate, endDate); err != nil {
		return RangeResult{}, fmt.Errorf("update job dates: %w", err)
	}

	s.notifyUsers(ctx, booked, "shift.cancelled", fmt.Sprintf("A shift you were assigned to was cancelled: job %d now runs %s to %s", jobID, startDate, endDate))
	return res, nil
}

// growthShifts returns template shifts for days in [start, end] that lie outside the job's
// current range and are not in the past.
func (s *Service) growthShifts(job models.Job, start, end string) ([]models.Shift, error) {
	today := s.today()
	var out []models.Shift
	add := func(from, to string) error {
		if from < today {
			from = today
		}
		if from > to {
			return nil
		}
		gen, err := generateBetween(job, from, to)
		if err != nil {
			return err
		}
		out = append(out, gen...)
		return nil
	}

	if start < job.StartDate {
		if err := add(start, min(dayBefore(job.StartDate), end)); err != nil {
			return nil, err
		}
	}
	if end > job.EndDate {
		if err := add(max(dayAfter(job.EndDate), start), end); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type JobCancelResult struct {
	JobDeleted    bool    `json:"job_deleted"`
	ShiftsDeleted int64   `json:"shifts_deleted"`
	KeptShiftIDs  []int64 `json:"kept_shift_ids"`
}

// CancelJob cancels all remaining shifts of a job. A job that has not started is removed
// with all its shifts. A running job loses its shifts from tomorrow onward, and today's
// shift only when it is unstaffed or outside the guard window; its end date is truncated to
// the last shift kept.
func (s *Service) CancelJob(ctx context.Context, actor models.Actor, jobID int64) (JobCancelResult, error) {
	if err := requireAdmin(actor); err != nil {
		return JobCancelResult{}, err
	}
	job, err := s.loadJob(ctx, actor, jobID)
	if err != nil {
		return JobCancelResult{}, err
	}
	shifts, err := s.store.ListShiftsByJob(ctx, jobID, "")
	if err != nil {
		return JobCancelResult{}, fmt.Errorf("list shifts: %w", err)
	}

	today := s.today()
	now := s.stamp()
	res := JobCancelResult{KeptShiftIDs: []int64{}}

	if job.StartDate > today {
		ids := shiftIDs(shifts)
		booked := s.bookedUsers(ctx, ids)
		if res.ShiftsDeleted, err = s.store.SoftDeleteShifts(ctx, ids, now); err != nil {
			return JobCancelResult{}, fmt.Errorf("delete shifts: %w", err)
		}
		if err := s.store.SoftDeleteJob(ctx, jobID, now); err != nil {
			return JobCancelResult{}, fmt.Errorf("delete job: %w", err)
		}
		res.JobDeleted = true
		s.notifyUsers(ctx, booked, "job.cancelled", fmt.Sprintf("Job %d was cancelled", jobID))
		return res, nil
	}

	var todays []int64
	for _, sh := range shifts {
		if sh.Date == today {
			todays = append(todays, sh.ID)
		}
	}
	counts, err := s.store.CountActiveByShifts(ctx, todays)
	if err != nil {
		return JobCancelResult{}, fmt.Errorf("count assignments: %w", err)
	}

	var drop []int64
	lastKept := ""
	for _, sh := range shifts {
		switch {
		case sh.Date > today:
			drop = append(drop, sh.ID)
		case sh.Date == today && !s.guarded(sh, counts[sh.ID]):
			drop = append(drop, sh.ID)
		default:
			if sh.Date == today {
				res.KeptShiftIDs = append(res.KeptShiftIDs, sh.ID)
			}
			if sh.Date > lastKept {
				lastKept = sh.Date
			}
		}
	}

	booked := s.bookedUsers(ctx, drop)
	if len(drop) > 0 {
		if res.ShiftsDeleted, err = s.store.SoftDeleteShifts(ctx, drop, now); err != nil {
			return JobCancelResult{}, fmt.Errorf("delete shifts: %w", err)
		}
	}
	if lastKept == "" {
		if err := s.store.SoftDeleteJob(ctx, jobID, now); err != nil {
			return JobCancelResult{}, fmt.Errorf("delete job: %w", err)
		}
		res.JobDeleted = true
	} else if lastKept < job.EndDate {
		if err := s.store.UpdateJobDates(ctx, jobID, job.StartDate, lastKept); err != nil {
			return JobCancelResult{}, fmt.Errorf("truncate job: %w", err)
		}
	}

	s.logger.Info("job cancelled", "job_id", jobID, "shifts_deleted", res.ShiftsDeleted, "kept", len(res.KeptShiftIDs))
	s.notifyUsers(ctx, booked, "job.cancelled", fmt.Sprintf("The remaining shifts of job %d were cancelled", jobID))
	return res, nil
}

type ShiftCancelResult struct {
	ShiftID    int64 `json:"shift_id"`
	JobDeleted bool  `json:"job_deleted"`
}

// CancelShift soft-deletes a single upcoming shift. A staffed shift inside the guard window
// needs override. When no shift of the job remains from today on, the job is cancelled too.
func (s *Service) CancelShift(ctx context.Context, actor models.Actor, shiftID int64, override bool) (ShiftCancelResult, error) {
	if err := requireAdmin(actor); err != nil {
		return ShiftCancelResult{}, err
	}
	sh, err := s.loadShift(ctx, shiftID)
	if err != nil {
		return ShiftCancelResult{}, err
	}
	if _, err := s.loadJob(ctx, actor, sh.JobID); err != nil {
		return ShiftCancelResult{}, err
	}
	today := s.today()
	if sh.Date < today {
		return ShiftCancelResult{}, invalid("shift_id", "shift on %s already took place", sh.Date)
	}

	counts, err := s.store.CountActiveByShifts(ctx, []int64{sh.ID})
	if err != nil {
		return ShiftCancelResult{}, fmt.Errorf("count assignments: %w", err)
	}
	if !override && s.guarded(*sh, counts[sh.ID]) {
		return ShiftCancelResult{}, &GuardError{ShiftIDs: []int64{sh.ID}, Action: "shift cancellation"}
	}

	booked := s.bookedUsers(ctx, []int64{sh.ID})
	now := s.stamp()
	if _, err := s.store.SoftDeleteShifts(ctx, []int64{sh.ID}, now); err != nil {
		return ShiftCancelResult{}, fmt.Errorf("delete shift: %w", err)
	}
	res := ShiftCancelResult{ShiftID: sh.ID}

	rest, err := s.store.ListShiftsByJob(ctx, sh.JobID, today)
	if err != nil {
		return ShiftCancelResult{}, fmt.Errorf("list shifts: %w", err)
	}
	if len(rest) == 0 {
		if err := s.store.SoftDeleteJob(ctx, sh.JobID, now); err != nil {
			return ShiftCancelResult{}, fmt.Errorf("delete job: %w", err)
		}
		res.JobDeleted = true
	}

	s.notifyUsers(ctx, booked, "shift.cancelled", fmt.Sprintf("Your shift on %s from %s to %s was cancelled", sh.Date, sh.StartTime, sh.EndTime))
	return res, nil
}

func shiftDay(date string, delta int) string {
	d, err := time.Parse(interval.DateLayout, date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, delta).Format(interval.DateLayout)
}

func dayBefore(date string) string { return shiftDay(date, -1) }
func dayAfter(date string) string  { return shiftDay(date, 1) }
