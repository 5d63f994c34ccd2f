package doctor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("doctor not found")
	ErrScheduleNotFound  = errors.New("weekly schedule not found")
	ErrWindowNotFound    = errors.New("availability window not found")
	ErrDuplicateDoctor   = errors.New("doctor id or license already registered")
	ErrDuplicateSchedule = errors.New("weekly schedule already exists for that day and start time")
	ErrDuplicateWindow   = errors.New("availability window already exists for that date and start time")
)

type ListFilter struct {
	Specialization string
	AvailableOnly  bool
	WalkinsOnly    bool
	Limit          int
	Offset         int
}

type StatusCounts struct {
	Available int
	Busy      int
	OffDuty   int
	Total     int
}

// Repository contains all DB interactions needed by the doctor service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Create(ctx context.Context, d *Doctor) error
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, f ListFilter) ([]Doctor, error)
	Search(ctx context.Context, query string, limit int) ([]Doctor, error)

	// SetStatus transitions the duty state. When from is non-empty the update
	// applies only if the current status is in from; a no-op returns false.
	SetStatus(ctx context.Context, id uuid.UUID, to Status, from ...Status) (bool, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)

	CreateSchedule(ctx context.Context, s *WeeklySchedule) error
	UpdateSchedule(ctx context.Context, s *WeeklySchedule) error
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]WeeklySchedule, error)

	CreateWindow(ctx context.Context, w *AvailabilityWindow) error
	UpdateWindow(ctx context.Context, w *AvailabilityWindow) error
	DeleteWindow(ctx context.Context, id uuid.UUID) error
	GetWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error)
	ListWindows(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]AvailabilityWindow, error)

	// OpenWindows returns the windows a doctor can be booked into on a date
	// (available flag set), ordered by start time.
	OpenWindows(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AvailabilityWindow, error)
}
