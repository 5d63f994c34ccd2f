package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/clock"
	"github.com/clinicops/frontdesk/internal/doctor"
	"github.com/clinicops/frontdesk/internal/logger"
	"github.com/clinicops/frontdesk/internal/patient"
	redisclient "github.com/clinicops/frontdesk/internal/redis"
)

var (
	ErrValidation   = errors.New("invalid appointment data")
	ErrPastDate     = errors.New("appointment date is in the past")
	ErrInvalidState = errors.New("appointment is not in a valid state for this transition")
	ErrWindowFull   = errors.New("availability window is fully booked")
)

const (
	maxIDAttempts   = 100
	defaultSlotMins = 30
	defaultDuration = 30
)

// DoctorSource is the slice of the doctor directory the booking engine needs.
type DoctorSource interface {
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	Schedules(ctx context.Context, doctorID uuid.UUID) ([]doctor.WeeklySchedule, error)
	OpenWindows(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]doctor.AvailabilityWindow, error)
}

// PatientSource resolves patients referenced by bookings.
type PatientSource interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type ScheduleRequest struct {
	PatientID           uuid.UUID `validate:"required"`
	DoctorID            uuid.UUID `validate:"required"`
	Date                time.Time `validate:"required"`
	Time                string    `validate:"required"`
	DurationMins        int       `validate:"min=0,max=240"`
	Type                string    `validate:"required,oneof=new follow_up routine emergency"`
	ReasonForVisit      string    `validate:"required"`
	Symptoms            string
	SpecialInstructions string
	Notes               string
	ScheduledBy         *uuid.UUID
}

type RescheduleRequest struct {
	Date   time.Time `validate:"required"`
	Time   string    `validate:"required"`
	Reason string
	By     *uuid.UUID
}

type Service struct {
	repo     Repository
	doctors  DoctorSource
	patients PatientSource
	locker   redisclient.Locker
	log      *logger.Logger
	validate *validator.Validate
	now      func() time.Time
	loc      *time.Location
}

func NewService(repo Repository, doctors DoctorSource, patients PatientSource, locker redisclient.Locker, log *logger.Logger, loc *time.Location) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		patients: patients,
		locker:   locker,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
		loc:      loc,
	}
}

// Schedule books a new appointment. The redis lock serializes racing requests
// for the same slot so most conflicts are caught by the pre-check; the
// unique index on active slots catches the rest.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hhmm, err := clock.Parse(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	day := clock.DateOnly(req.Date, s.loc)
	at, err := clock.Combine(day, hhmm, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if at.Before(s.now()) {
		return nil, ErrPastDate
	}

	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, err
	}
	doc, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doc.Status == doctor.StatusOffDuty {
		return nil, fmt.Errorf("%w: doctor is off duty", ErrValidation)
	}

	duration := req.DurationMins
	if duration == 0 {
		duration = defaultDuration
	}

	var appt *Appointment
	lockKey := fmt.Sprintf("%s:%s:%s", req.DoctorID, day.Format("20060102"), hhmm)

	err = s.locker.WithSlotLock(ctx, lockKey, func(ctx context.Context) error {
		taken, err := s.repo.SlotTaken(ctx, req.DoctorID, day, hhmm)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotConflict
		}
		free, err := s.HasCapacity(ctx, req.DoctorID, day, hhmm)
		if err != nil {
			return err
		}
		if !free {
			return ErrWindowFull
		}

		appt = &Appointment{
			ID:                  uuid.New(),
			PatientID:           req.PatientID,
			DoctorID:            req.DoctorID,
			Date:                day,
			Time:                hhmm,
			DurationMins:        duration,
			Status:              StatusScheduled,
			Type:                Type(req.Type),
			ReasonForVisit:      req.ReasonForVisit,
			Symptoms:            req.Symptoms,
			SpecialInstructions: req.SpecialInstructions,
			Notes:               req.Notes,
			ScheduledBy:         req.ScheduledBy,
			ScheduledAt:         s.now(),
		}
		return s.createWithID(ctx, appt, day)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment scheduled",
		"appointment_id", appt.AppointmentID,
		"doctor_id", appt.DoctorID,
		"date", day.Format("2006-01-02"),
		"time", hhmm,
	)
	return appt, nil
}

// createWithID assigns the day-scoped sequential public id and inserts. On an
// id collision it re-counts and retries; after too many collisions it falls
// back to a random suffix.
func (s *Service) createWithID(ctx context.Context, a *Appointment, day time.Time) error {
	prefix := "APT" + day.Format("20060102")

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		n, err := s.repo.CountWithPrefix(ctx, prefix)
		if err != nil {
			return err
		}

		a.AppointmentID = FormatAppointmentID(day, n+attempt+1)
		err = s.repo.Create(ctx, a)
		if errors.Is(err, ErrDuplicateID) {
			continue
		}
		return err
	}

	a.AppointmentID = RandomAppointmentID(day)
	s.log.Warn("sequential appointment id exhausted, using random suffix", "appointment_id", a.AppointmentID)
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByAppointmentID(ctx context.Context, appointmentID string) (*Appointment, error) {
	return s.repo.GetByAppointmentID(ctx, appointmentID)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	return s.repo.List(ctx, f)
}

// CalendarDay is one day of a calendar view with its appointments in time
// order.
type CalendarDay struct {
	Date         time.Time
	Appointments []Appointment
}

const maxCalendarDays = 31

// Calendar returns appointments between from and to inclusive, grouped by
// day. Week and month views on the front desk read from this.
func (s *Service) Calendar(ctx context.Context, doctorID *uuid.UUID, from, to time.Time) ([]CalendarDay, error) {
	fromDay := clock.DateOnly(from, s.loc)
	toDay := clock.DateOnly(to, s.loc)
	if toDay.Before(fromDay) {
		return nil, fmt.Errorf("%w: calendar range is inverted", ErrValidation)
	}
	if toDay.Sub(fromDay) > maxCalendarDays*24*time.Hour {
		return nil, fmt.Errorf("%w: calendar range exceeds %d days", ErrValidation, maxCalendarDays)
	}

	appointments, err := s.repo.List(ctx, Filter{
		DoctorID: doctorID,
		From:     &fromDay,
		To:       &toDay,
	})
	if err != nil {
		return nil, err
	}

	// List orders by date then time, so consecutive rows share a day.
	var days []CalendarDay
	for _, a := range appointments {
		if len(days) == 0 || !days[len(days)-1].Date.Equal(a.Date) {
			days = append(days, CalendarDay{Date: a.Date})
		}
		days[len(days)-1].Appointments = append(days[len(days)-1].Appointments, a)
	}
	return days, nil
}

// Reschedule books a replacement appointment in the new slot and marks the
// original rescheduled with a back-reference from the new one. The original
// record is preserved as history.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req RescheduleRequest) (*Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status != StatusScheduled && old.Status != StatusConfirmed {
		return nil, ErrInvalidState
	}

	hhmm, err := clock.Parse(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	day := clock.DateOnly(req.Date, s.loc)
	at, err := clock.Combine(day, hhmm, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if at.Before(s.now()) {
		return nil, ErrPastDate
	}

	var replacement *Appointment
	lockKey := fmt.Sprintf("%s:%s:%s", old.DoctorID, day.Format("20060102"), hhmm)

	err = s.locker.WithSlotLock(ctx, lockKey, func(ctx context.Context) error {
		taken, err := s.repo.SlotTaken(ctx, old.DoctorID, day, hhmm)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotConflict
		}
		free, err := s.HasCapacity(ctx, old.DoctorID, day, hhmm)
		if err != nil {
			return err
		}
		if !free {
			return ErrWindowFull
		}

		replacement = &Appointment{
			ID:                  uuid.New(),
			PatientID:           old.PatientID,
			DoctorID:            old.DoctorID,
			Date:                day,
			Time:                hhmm,
			DurationMins:        old.DurationMins,
			Status:              StatusScheduled,
			Type:                old.Type,
			ReasonForVisit:      old.ReasonForVisit,
			Symptoms:            old.Symptoms,
			SpecialInstructions: old.SpecialInstructions,
			Notes:               old.Notes,
			ScheduledBy:         req.By,
			ScheduledAt:         s.now(),
			RescheduledFrom:     &old.ID,
		}
		return s.createWithID(ctx, replacement, day)
	})
	if err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Rescheduled to %s %s (%s)", day.Format("2006-01-02"), hhmm, replacement.AppointmentID)
	if req.Reason != "" {
		note += ": " + req.Reason
	}
	ok, err := s.repo.MarkRescheduled(ctx, old.ID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The original flipped state while we were booking the replacement.
		// The new appointment stands; the anomaly is logged for review.
		s.log.Warn("original appointment changed state during reschedule",
			"appointment_id", old.AppointmentID, "replacement", replacement.AppointmentID)
	}

	s.log.Info("appointment rescheduled",
		"from", old.AppointmentID, "to", replacement.AppointmentID)
	return replacement, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string, by *uuid.UUID) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	at, err := clock.Combine(appt.Date, appt.Time, s.loc)
	if err != nil {
		return err
	}
	if at.Before(s.now()) {
		return ErrPastDate
	}

	ok, err := s.repo.MarkCancelled(ctx, id, reason, by, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}

	s.log.Info("appointment cancelled", "appointment_id", appt.AppointmentID, "reason", reason)
	return nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, s.repo.MarkConfirmed)
}

func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, s.repo.MarkCheckedIn)
}

func (s *Service) Start(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, s.repo.MarkInProgress)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, s.repo.MarkCompleted)
}

func (s *Service) NoShow(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.MarkNoShow(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, mark func(context.Context, uuid.UUID, time.Time) (bool, error)) error {
	ok, err := mark(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

// AvailableSlots lists every slot of the doctor's working hours on the date,
// marking the ones already booked. Working hours come from the concrete
// availability windows when materialized, otherwise from the weekly template.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	day := clock.DateOnly(date, s.loc)

	ranges, slotMins, err := s.workingRanges(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}

	bookedTimes, err := s.repo.BookedTimes(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]bool, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = true
	}

	var slots []Slot
	for _, r := range ranges {
		for t := r.start; t < r.end; {
			slots = append(slots, Slot{Time: t, Booked: booked[t]})
			next, err := clock.AddMinutes(t, slotMins)
			if err != nil {
				return nil, err
			}
			t = next
		}
	}
	return slots, nil
}

type timeRange struct {
	start, end string
}

func (s *Service) workingRanges(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]timeRange, int, error) {
	windows, err := s.doctors.OpenWindows(ctx, doctorID, day)
	if err != nil && !errors.Is(err, doctor.ErrWindowNotFound) {
		return nil, 0, err
	}

	if len(windows) > 0 {
		ranges := make([]timeRange, 0, len(windows))
		for _, w := range windows {
			ranges = append(ranges, timeRange{start: w.StartTime, end: w.EndTime})
		}
		return ranges, defaultSlotMins, nil
	}

	schedules, err := s.doctors.Schedules(ctx, doctorID)
	if err != nil {
		return nil, 0, err
	}

	dow := (int(day.Weekday()) + 6) % 7
	var ranges []timeRange
	slotMins := defaultSlotMins
	for _, sched := range schedules {
		if sched.IsActive && sched.DayOfWeek == dow {
			ranges = append(ranges, timeRange{start: sched.StartTime, end: sched.EndTime})
			if sched.SlotMins > 0 {
				slotMins = sched.SlotMins
			}
		}
	}
	return ranges, slotMins, nil
}

// HasCapacity reports whether the availability window covering hhmm on the
// date still has room under its max appointment cap. Days without
// materialized windows are uncapped.
func (s *Service) HasCapacity(ctx context.Context, doctorID uuid.UUID, date time.Time, hhmm string) (bool, error) {
	day := clock.DateOnly(date, s.loc)

	windows, err := s.doctors.OpenWindows(ctx, doctorID, day)
	if err != nil {
		if errors.Is(err, doctor.ErrWindowNotFound) {
			return true, nil
		}
		return false, err
	}

	for _, w := range windows {
		if hhmm < w.StartTime || hhmm >= w.EndTime {
			continue
		}
		n, err := s.repo.CountBookedInWindow(ctx, doctorID, day, w.StartTime, w.EndTime)
		if err != nil {
			return false, err
		}
		return n < w.MaxAppointments, nil
	}
	return true, nil
}

func (s *Service) CountByStatusOnDate(ctx context.Context, date time.Time) (StatusCounts, error) {
	return s.repo.CountByStatusOnDate(ctx, clock.DateOnly(date, s.loc))
}
