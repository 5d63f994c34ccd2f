package doctor

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/frontdesk/internal/logger"
)

type mockRepo struct {
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*Doctor, error)
	setStatusFunc      func(ctx context.Context, id uuid.UUID, to Status, from ...Status) (bool, error)
	createScheduleFunc func(ctx context.Context, s *WeeklySchedule) error
	listFunc           func(ctx context.Context, f ListFilter) ([]Doctor, error)
	listSchedulesFunc  func(ctx context.Context, doctorID uuid.UUID) ([]WeeklySchedule, error)
	createWindowFunc   func(ctx context.Context, w *AvailabilityWindow) error
	openWindowsFunc    func(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AvailabilityWindow, error)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &Doctor{ID: id, Status: StatusAvailable}, nil
}

func (m *mockRepo) Create(ctx context.Context, d *Doctor) error { return nil }
func (m *mockRepo) Update(ctx context.Context, d *Doctor) error { return nil }

func (m *mockRepo) List(ctx context.Context, f ListFilter) ([]Doctor, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockRepo) Search(ctx context.Context, query string, limit int) ([]Doctor, error) {
	return nil, nil
}

func (m *mockRepo) SetStatus(ctx context.Context, id uuid.UUID, to Status, from ...Status) (bool, error) {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, to, from...)
	}
	return true, nil
}

func (m *mockRepo) CountByStatus(ctx context.Context) (StatusCounts, error) {
	return StatusCounts{}, nil
}

func (m *mockRepo) CreateSchedule(ctx context.Context, s *WeeklySchedule) error {
	if m.createScheduleFunc != nil {
		return m.createScheduleFunc(ctx, s)
	}
	return nil
}

func (m *mockRepo) UpdateSchedule(ctx context.Context, s *WeeklySchedule) error { return nil }
func (m *mockRepo) DeleteSchedule(ctx context.Context, id uuid.UUID) error      { return nil }

func (m *mockRepo) ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]WeeklySchedule, error) {
	if m.listSchedulesFunc != nil {
		return m.listSchedulesFunc(ctx, doctorID)
	}
	return nil, nil
}

func (m *mockRepo) CreateWindow(ctx context.Context, w *AvailabilityWindow) error {
	if m.createWindowFunc != nil {
		return m.createWindowFunc(ctx, w)
	}
	return nil
}

func (m *mockRepo) UpdateWindow(ctx context.Context, w *AvailabilityWindow) error { return nil }
func (m *mockRepo) DeleteWindow(ctx context.Context, id uuid.UUID) error          { return nil }

func (m *mockRepo) GetWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	return nil, ErrWindowNotFound
}

func (m *mockRepo) ListWindows(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]AvailabilityWindow, error) {
	return nil, nil
}

func (m *mockRepo) OpenWindows(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AvailabilityWindow, error) {
	if m.openWindowsFunc != nil {
		return m.openWindowsFunc(ctx, doctorID, date)
	}
	return nil, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, logger.New(logger.Config{Output: io.Discard}))
}

func TestMarkBusyRefusesOffDuty(t *testing.T) {
	repo := &mockRepo{
		setStatusFunc: func(ctx context.Context, id uuid.UUID, to Status, from ...Status) (bool, error) {
			assert.Equal(t, StatusBusy, to)
			assert.Equal(t, []Status{StatusAvailable, StatusBusy}, from)
			return false, nil // current status off_duty, CAS misses
		},
	}
	svc := newTestService(repo)

	err := svc.MarkBusy(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOffDuty)
}

func TestMarkAvailableOnlyReleasesBusy(t *testing.T) {
	var gotFrom []Status
	repo := &mockRepo{
		setStatusFunc: func(ctx context.Context, id uuid.UUID, to Status, from ...Status) (bool, error) {
			gotFrom = from
			return false, nil
		},
	}
	svc := newTestService(repo)

	// An off-duty doctor stays off duty; no error, just a no-op.
	err := svc.MarkAvailable(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusBusy}, gotFrom)
}

func TestSetOffDutyUnknownDoctor(t *testing.T) {
	repo := &mockRepo{
		setStatusFunc: func(ctx context.Context, id uuid.UUID, to Status, from ...Status) (bool, error) {
			assert.Empty(t, from, "manual toggle applies from any state")
			return false, nil
		},
	}
	svc := newTestService(repo)

	err := svc.SetOffDuty(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddScheduleRejectsInvertedRange(t *testing.T) {
	svc := newTestService(&mockRepo{})

	_, err := svc.AddSchedule(context.Background(), ScheduleRequest{
		DoctorID:  uuid.New(),
		DayOfWeek: 1,
		StartTime: "17:00",
		EndTime:   "09:00",
		SlotMins:  30,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddScheduleNormalizesTimes(t *testing.T) {
	var created *WeeklySchedule
	repo := &mockRepo{
		createScheduleFunc: func(ctx context.Context, s *WeeklySchedule) error {
			created = s
			return nil
		},
	}
	svc := newTestService(repo)

	sched, err := svc.AddSchedule(context.Background(), ScheduleRequest{
		DoctorID:  uuid.New(),
		DayOfWeek: 1,
		StartTime: "9:00",
		EndTime:   "13:00",
		SlotMins:  30,
		IsActive:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "09:00", sched.StartTime)
	assert.Equal(t, "13:00", sched.EndTime)
}

func TestAddScheduleBadTime(t *testing.T) {
	svc := newTestService(&mockRepo{})

	_, err := svc.AddSchedule(context.Background(), ScheduleRequest{
		DoctorID:  uuid.New(),
		DayOfWeek: 1,
		StartTime: "9am",
		EndTime:   "13:00",
		SlotMins:  30,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMaterializeWindows(t *testing.T) {
	doctorID := uuid.New()
	// Monday and Wednesday template.
	repo := &mockRepo{
		listSchedulesFunc: func(ctx context.Context, id uuid.UUID) ([]WeeklySchedule, error) {
			return []WeeklySchedule{
				{DoctorID: id, DayOfWeek: 0, StartTime: "09:00", EndTime: "13:00", SlotMins: 30, IsActive: true},
				{DoctorID: id, DayOfWeek: 2, StartTime: "14:00", EndTime: "17:00", SlotMins: 30, IsActive: true},
				{DoctorID: id, DayOfWeek: 4, StartTime: "09:00", EndTime: "12:00", SlotMins: 30, IsActive: false},
			}, nil
		},
	}
	var windows []*AvailabilityWindow
	repo.createWindowFunc = func(ctx context.Context, w *AvailabilityWindow) error {
		windows = append(windows, w)
		return nil
	}
	svc := newTestService(repo)

	// Mon 2026-09-07 through Sun 2026-09-13: one Monday, one Wednesday.
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)

	created, err := svc.MaterializeWindows(context.Background(), doctorID, from, to, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	require.Len(t, windows, 2)
	assert.Equal(t, "09:00", windows[0].StartTime)
	assert.Equal(t, from, windows[0].Date)
	assert.Equal(t, "14:00", windows[1].StartTime)
	assert.Equal(t, from.AddDate(0, 0, 2), windows[1].Date)
	assert.Equal(t, 10, windows[0].MaxAppointments, "zero max falls back to default")
	assert.True(t, windows[0].IsAvailable)
}

func TestMaterializeWindowsSkipsExisting(t *testing.T) {
	doctorID := uuid.New()
	repo := &mockRepo{
		listSchedulesFunc: func(ctx context.Context, id uuid.UUID) ([]WeeklySchedule, error) {
			return []WeeklySchedule{
				{DoctorID: id, DayOfWeek: 0, StartTime: "09:00", EndTime: "13:00", SlotMins: 30, IsActive: true},
			}, nil
		},
		createWindowFunc: func(ctx context.Context, w *AvailabilityWindow) error {
			return ErrDuplicateWindow
		},
	}
	svc := newTestService(repo)

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	created, err := svc.MaterializeWindows(context.Background(), doctorID, from, from, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestMaterializeWindowsRejectsInvertedRange(t *testing.T) {
	svc := newTestService(&mockRepo{})

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	_, err := svc.MaterializeWindows(context.Background(), uuid.New(), from, from.AddDate(0, 0, -1), 5)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBySpecializationFiltersToAvailable(t *testing.T) {
	var gotFilter ListFilter
	repo := &mockRepo{
		listFunc: func(ctx context.Context, f ListFilter) ([]Doctor, error) {
			gotFilter = f
			return []Doctor{{ID: uuid.New(), Specialization: "cardiology", Status: StatusAvailable}}, nil
		},
	}
	svc := newTestService(repo)

	docs, err := svc.BySpecialization(context.Background(), "cardiology")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "cardiology", gotFilter.Specialization)
	assert.True(t, gotFilter.AvailableOnly)
}

func TestSearchShortQuery(t *testing.T) {
	svc := newTestService(&mockRepo{})

	got, err := svc.Search(context.Background(), "d")
	require.NoError(t, err)
	assert.Empty(t, got)

	// One Devanagari letter is three bytes but still a single character.
	got, err = svc.Search(context.Background(), "श")
	require.NoError(t, err)
	assert.Empty(t, got)
}
