package booking

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/frontdesk/internal/clock"
	"github.com/clinicops/frontdesk/internal/doctor"
	"github.com/clinicops/frontdesk/internal/logger"
	"github.com/clinicops/frontdesk/internal/patient"
)

type mockRepo struct {
	getByIDFunc            func(ctx context.Context, id uuid.UUID) (*Appointment, error)
	createFunc             func(ctx context.Context, a *Appointment) error
	slotTakenFunc          func(ctx context.Context, doctorID uuid.UUID, date time.Time, hhmm string) (bool, error)
	bookedTimesFunc        func(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	countBookedFunc        func(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end string) (int, error)
	markConfirmedFunc      func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	markCheckedInFunc      func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	markInProgressFunc     func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	markCompletedFunc      func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	markNoShowFunc         func(ctx context.Context, id uuid.UUID) (bool, error)
	markCancelledFunc      func(ctx context.Context, id uuid.UUID, reason string, by *uuid.UUID, at time.Time) (bool, error)
	markRescheduledFunc    func(ctx context.Context, id uuid.UUID, note string) (bool, error)
	listFunc               func(ctx context.Context, f Filter) ([]Appointment, error)
	countByStatusFunc      func(ctx context.Context, date time.Time) (StatusCounts, error)
	countWithPrefixFunc    func(ctx context.Context, prefix string) (int, error)
	upcomingFunc           func(ctx context.Context, date time.Time, limit int) ([]Appointment, error)
	markReminderSentFunc   func(ctx context.Context, id uuid.UUID) error
	getByAppointmentIDFunc func(ctx context.Context, appointmentID string) (*Appointment, error)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByAppointmentID(ctx context.Context, appointmentID string) (*Appointment, error) {
	if m.getByAppointmentIDFunc != nil {
		return m.getByAppointmentIDFunc(ctx, appointmentID)
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Create(ctx context.Context, a *Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	return nil
}

func (m *mockRepo) SlotTaken(ctx context.Context, doctorID uuid.UUID, date time.Time, hhmm string) (bool, error) {
	if m.slotTakenFunc != nil {
		return m.slotTakenFunc(ctx, doctorID, date, hhmm)
	}
	return false, nil
}

func (m *mockRepo) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	if m.bookedTimesFunc != nil {
		return m.bookedTimesFunc(ctx, doctorID, date)
	}
	return nil, nil
}

func (m *mockRepo) CountBookedInWindow(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end string) (int, error) {
	if m.countBookedFunc != nil {
		return m.countBookedFunc(ctx, doctorID, date, start, end)
	}
	return 0, nil
}

func (m *mockRepo) MarkConfirmed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if m.markConfirmedFunc != nil {
		return m.markConfirmedFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockRepo) MarkCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if m.markCheckedInFunc != nil {
		return m.markCheckedInFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockRepo) MarkInProgress(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if m.markInProgressFunc != nil {
		return m.markInProgressFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockRepo) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if m.markCompletedFunc != nil {
		return m.markCompletedFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockRepo) MarkNoShow(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.markNoShowFunc != nil {
		return m.markNoShowFunc(ctx, id)
	}
	return true, nil
}

func (m *mockRepo) MarkCancelled(ctx context.Context, id uuid.UUID, reason string, by *uuid.UUID, at time.Time) (bool, error) {
	if m.markCancelledFunc != nil {
		return m.markCancelledFunc(ctx, id, reason, by, at)
	}
	return true, nil
}

func (m *mockRepo) MarkRescheduled(ctx context.Context, id uuid.UUID, note string) (bool, error) {
	if m.markRescheduledFunc != nil {
		return m.markRescheduledFunc(ctx, id, note)
	}
	return true, nil
}

func (m *mockRepo) List(ctx context.Context, f Filter) ([]Appointment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockRepo) CountByStatusOnDate(ctx context.Context, date time.Time) (StatusCounts, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx, date)
	}
	return StatusCounts{}, nil
}

func (m *mockRepo) CountWithPrefix(ctx context.Context, prefix string) (int, error) {
	if m.countWithPrefixFunc != nil {
		return m.countWithPrefixFunc(ctx, prefix)
	}
	return 0, nil
}

func (m *mockRepo) UpcomingForReminders(ctx context.Context, date time.Time, limit int) ([]Appointment, error) {
	if m.upcomingFunc != nil {
		return m.upcomingFunc(ctx, date, limit)
	}
	return nil, nil
}

func (m *mockRepo) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	if m.markReminderSentFunc != nil {
		return m.markReminderSentFunc(ctx, id)
	}
	return nil
}

type mockDoctors struct {
	getFunc         func(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	schedulesFunc   func(ctx context.Context, doctorID uuid.UUID) ([]doctor.WeeklySchedule, error)
	openWindowsFunc func(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]doctor.AvailabilityWindow, error)
}

func (m *mockDoctors) Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &doctor.Doctor{ID: id, Status: doctor.StatusAvailable}, nil
}

func (m *mockDoctors) Schedules(ctx context.Context, doctorID uuid.UUID) ([]doctor.WeeklySchedule, error) {
	if m.schedulesFunc != nil {
		return m.schedulesFunc(ctx, doctorID)
	}
	return nil, nil
}

func (m *mockDoctors) OpenWindows(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]doctor.AvailabilityWindow, error) {
	if m.openWindowsFunc != nil {
		return m.openWindowsFunc(ctx, doctorID, date)
	}
	return nil, nil
}

type mockPatients struct {
	getFunc func(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

func (m *mockPatients) Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &patient.Patient{ID: id, IsActive: true}, nil
}

// passLocker runs the critical section inline, no redis involved.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo Repository, docs DoctorSource, pats PatientSource) *Service {
	log := logger.New(logger.Config{Output: io.Discard})
	svc := NewService(repo, docs, pats, passLocker{}, log, time.UTC)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validRequest() ScheduleRequest {
	return ScheduleRequest{
		PatientID:      uuid.New(),
		DoctorID:       uuid.New(),
		Date:           testNow.AddDate(0, 0, 1),
		Time:           "10:30",
		Type:           "routine",
		ReasonForVisit: "fever",
	}
}

func TestScheduleAssignsSequentialID(t *testing.T) {
	var created *Appointment
	repo := &mockRepo{
		countWithPrefixFunc: func(ctx context.Context, prefix string) (int, error) {
			assert.Equal(t, "APT20260902", prefix)
			return 3, nil
		},
		createFunc: func(ctx context.Context, a *Appointment) error {
			created = a
			return nil
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	appt, err := svc.Schedule(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "APT202609020004", appt.AppointmentID)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, 30, appt.DurationMins)
	assert.Equal(t, "10:30", appt.Time)
}

func TestScheduleRejectsPastSlot(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockDoctors{}, &mockPatients{})

	req := validRequest()
	req.Date = testNow
	req.Time = "09:00" // testNow is 10:00

	_, err := svc.Schedule(context.Background(), req)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestScheduleSlotAlreadyTaken(t *testing.T) {
	repo := &mockRepo{
		slotTakenFunc: func(ctx context.Context, doctorID uuid.UUID, date time.Time, hhmm string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	_, err := svc.Schedule(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestScheduleConflictFromUniqueIndex(t *testing.T) {
	// The pre-check misses the race; the insert surfaces the constraint.
	repo := &mockRepo{
		createFunc: func(ctx context.Context, a *Appointment) error {
			return ErrSlotConflict
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	_, err := svc.Schedule(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestScheduleRejectsOffDutyDoctor(t *testing.T) {
	docs := &mockDoctors{
		getFunc: func(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
			return &doctor.Doctor{ID: id, Status: doctor.StatusOffDuty}, nil
		},
	}
	svc := newTestService(&mockRepo{}, docs, &mockPatients{})

	_, err := svc.Schedule(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestScheduleFallsBackToRandomID(t *testing.T) {
	attempts := 0
	var created *Appointment
	repo := &mockRepo{
		countWithPrefixFunc: func(ctx context.Context, prefix string) (int, error) {
			return 10, nil
		},
		createFunc: func(ctx context.Context, a *Appointment) error {
			attempts++
			if attempts <= maxIDAttempts {
				return ErrDuplicateID
			}
			created = a
			return nil
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	appt, err := svc.Schedule(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.True(t, strings.HasPrefix(appt.AppointmentID, "APT20260902"))
	assert.Len(t, appt.AppointmentID, len("APT20260902")+4)
}

func TestRescheduleCreatesReplacement(t *testing.T) {
	original := &Appointment{
		ID:             uuid.New(),
		AppointmentID:  "APT202609020001",
		PatientID:      uuid.New(),
		DoctorID:       uuid.New(),
		Date:           testNow.AddDate(0, 0, 1),
		Time:           "10:30",
		DurationMins:   30,
		Status:         StatusScheduled,
		Type:           TypeRoutine,
		ReasonForVisit: "fever",
	}

	var markedID uuid.UUID
	var note string
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Appointment, error) {
			return original, nil
		},
		markRescheduledFunc: func(ctx context.Context, id uuid.UUID, n string) (bool, error) {
			markedID = id
			note = n
			return true, nil
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	replacement, err := svc.Reschedule(context.Background(), original.ID, RescheduleRequest{
		Date: testNow.AddDate(0, 0, 2),
		Time: "11:00",
	})
	require.NoError(t, err)
	require.NotNil(t, replacement.RescheduledFrom)
	assert.Equal(t, original.ID, *replacement.RescheduledFrom)
	assert.Equal(t, original.PatientID, replacement.PatientID)
	assert.Equal(t, "11:00", replacement.Time)
	assert.Equal(t, StatusScheduled, replacement.Status)
	assert.Equal(t, original.ID, markedID)
	assert.Contains(t, note, "11:00")
}

func TestRescheduleRefusesFinishedAppointment(t *testing.T) {
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Appointment, error) {
			return &Appointment{ID: id, Status: StatusCompleted}, nil
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	_, err := svc.Reschedule(context.Background(), uuid.New(), RescheduleRequest{
		Date: testNow.AddDate(0, 0, 2),
		Time: "11:00",
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelSecondAttemptFails(t *testing.T) {
	appt := &Appointment{
		ID:     uuid.New(),
		Date:   testNow.AddDate(0, 0, 1),
		Time:   "10:30",
		Status: StatusCancelled,
	}
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Appointment, error) {
			return appt, nil
		},
		markCancelledFunc: func(ctx context.Context, id uuid.UUID, reason string, by *uuid.UUID, at time.Time) (bool, error) {
			return false, nil // CAS finds no row in a cancellable state
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	err := svc.Cancel(context.Background(), appt.ID, "patient request", nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelPastAppointment(t *testing.T) {
	appt := &Appointment{
		ID:     uuid.New(),
		Date:   testNow.AddDate(0, 0, -1),
		Time:   "10:30",
		Status: StatusScheduled,
	}
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Appointment, error) {
			return appt, nil
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	err := svc.Cancel(context.Background(), appt.ID, "too late", nil)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestTransitionInvalidPredecessor(t *testing.T) {
	repo := &mockRepo{
		markInProgressFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	err := svc.Start(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAvailableSlotsMarksBookedTimes(t *testing.T) {
	doctorID := uuid.New()
	docs := &mockDoctors{
		openWindowsFunc: func(ctx context.Context, id uuid.UUID, date time.Time) ([]doctor.AvailabilityWindow, error) {
			return []doctor.AvailabilityWindow{
				{DoctorID: id, StartTime: "09:00", EndTime: "12:00", MaxAppointments: 10, IsAvailable: true},
			}, nil
		},
	}
	repo := &mockRepo{
		bookedTimesFunc: func(ctx context.Context, id uuid.UUID, date time.Time) ([]string, error) {
			return []string{"09:30"}, nil
		},
	}
	svc := newTestService(repo, docs, &mockPatients{})

	slots, err := svc.AvailableSlots(context.Background(), doctorID, testNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, slots, 6) // 09:00 .. 11:30 at 30-minute steps

	byTime := map[string]bool{}
	for _, s := range slots {
		byTime[s.Time] = s.Booked
	}
	assert.True(t, byTime["09:30"])
	assert.False(t, byTime["09:00"])
	assert.False(t, byTime["11:30"])
	_, hasNoon := byTime["12:00"]
	assert.False(t, hasNoon, "end of window is exclusive")
}

func TestAvailableSlotsFallsBackToWeeklyTemplate(t *testing.T) {
	// 2026-09-02 is a Wednesday: day_of_week 2 under the Monday=0 convention.
	docs := &mockDoctors{
		schedulesFunc: func(ctx context.Context, doctorID uuid.UUID) ([]doctor.WeeklySchedule, error) {
			return []doctor.WeeklySchedule{
				{DoctorID: doctorID, DayOfWeek: 2, StartTime: "14:00", EndTime: "16:00", SlotMins: 60, IsActive: true},
				{DoctorID: doctorID, DayOfWeek: 3, StartTime: "09:00", EndTime: "12:00", SlotMins: 30, IsActive: true},
			}, nil
		},
	}
	svc := newTestService(&mockRepo{}, docs, &mockPatients{})

	slots, err := svc.AvailableSlots(context.Background(), uuid.New(), testNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "14:00", slots[0].Time)
	assert.Equal(t, "15:00", slots[1].Time)
}

func TestHasCapacity(t *testing.T) {
	docs := &mockDoctors{
		openWindowsFunc: func(ctx context.Context, id uuid.UUID, date time.Time) ([]doctor.AvailabilityWindow, error) {
			return []doctor.AvailabilityWindow{
				{DoctorID: id, StartTime: "09:00", EndTime: "12:00", MaxAppointments: 2, IsAvailable: true},
			}, nil
		},
	}
	repo := &mockRepo{
		countBookedFunc: func(ctx context.Context, id uuid.UUID, date time.Time, start, end string) (int, error) {
			return 2, nil
		},
	}
	svc := newTestService(repo, docs, &mockPatients{})

	ok, err := svc.HasCapacity(context.Background(), uuid.New(), testNow.AddDate(0, 0, 1), "09:30")
	require.NoError(t, err)
	assert.False(t, ok)

	// Outside any window the ceiling does not apply.
	ok, err = svc.HasCapacity(context.Background(), uuid.New(), testNow.AddDate(0, 0, 1), "15:00")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestScheduleRejectsFullWindow(t *testing.T) {
	docs := &mockDoctors{
		openWindowsFunc: func(ctx context.Context, id uuid.UUID, date time.Time) ([]doctor.AvailabilityWindow, error) {
			return []doctor.AvailabilityWindow{
				{DoctorID: id, StartTime: "09:00", EndTime: "12:00", MaxAppointments: 2, IsAvailable: true},
			}, nil
		},
	}
	repo := &mockRepo{
		countBookedFunc: func(ctx context.Context, id uuid.UUID, date time.Time, start, end string) (int, error) {
			return 2, nil
		},
		createFunc: func(ctx context.Context, a *Appointment) error {
			t.Fatal("nothing should be inserted into a full window")
			return nil
		},
	}
	svc := newTestService(repo, docs, &mockPatients{})

	req := validRequest()
	req.Time = "10:30"
	_, err := svc.Schedule(context.Background(), req)
	assert.ErrorIs(t, err, ErrWindowFull)
}

func TestScheduleKeepsClinicDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	var created *Appointment
	repo := &mockRepo{
		createFunc: func(ctx context.Context, a *Appointment) error {
			created = a
			return nil
		},
	}
	log := logger.New(logger.Config{Output: io.Discard})
	svc := NewService(repo, &mockDoctors{}, &mockPatients{}, passLocker{}, log, ny)
	svc.now = func() time.Time { return testNow }

	// A booking request for Sep 2 must be stored on Sep 2 even though local
	// midnight on the 2nd is still Sep 1 in UTC.
	date, err := clock.ParseDate("2026-09-02", ny)
	require.NoError(t, err)

	req := validRequest()
	req.Date = date
	appt, err := svc.Schedule(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, ny), created.Date)
	assert.Equal(t, "2026-09-02", created.Date.Format("2006-01-02"))
	assert.True(t, strings.HasPrefix(appt.AppointmentID, "APT20260902"))
}

func TestCalendarGroupsByDay(t *testing.T) {
	day1 := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)

	var gotFilter Filter
	repo := &mockRepo{
		listFunc: func(ctx context.Context, f Filter) ([]Appointment, error) {
			gotFilter = f
			return []Appointment{
				{ID: uuid.New(), Date: day1, Time: "09:00"},
				{ID: uuid.New(), Date: day1, Time: "10:30"},
				{ID: uuid.New(), Date: day2, Time: "09:00"},
			}, nil
		},
	}
	svc := newTestService(repo, &mockDoctors{}, &mockPatients{})

	days, err := svc.Calendar(context.Background(), nil, day1, day2.AddDate(0, 0, 4))
	require.NoError(t, err)

	require.NotNil(t, gotFilter.From)
	require.NotNil(t, gotFilter.To)
	assert.Equal(t, day1, *gotFilter.From)
	assert.Equal(t, day2.AddDate(0, 0, 4), *gotFilter.To)

	require.Len(t, days, 2)
	assert.Equal(t, day1, days[0].Date)
	assert.Len(t, days[0].Appointments, 2)
	assert.Equal(t, day2, days[1].Date)
	assert.Len(t, days[1].Appointments, 1)
}

func TestCalendarRejectsBadRange(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockDoctors{}, &mockPatients{})

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	_, err := svc.Calendar(context.Background(), nil, from, from.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Calendar(context.Background(), nil, from, from.AddDate(0, 2, 0))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestScheduleValidation(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockDoctors{}, &mockPatients{})

	req := validRequest()
	req.Type = "walk_in"
	_, err := svc.Schedule(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)

	req = validRequest()
	req.Time = "25:00"
	_, err = svc.Schedule(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSchedulePropagatesPatientLookupError(t *testing.T) {
	pats := &mockPatients{
		getFunc: func(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
			return nil, patient.ErrNotFound
		},
	}
	svc := newTestService(&mockRepo{}, &mockDoctors{}, pats)

	_, err := svc.Schedule(context.Background(), validRequest())
	assert.True(t, errors.Is(err, patient.ErrNotFound))
}
