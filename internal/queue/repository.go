package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("queue entry not found")
	ErrDuplicateNumber = errors.New("queue number already taken")
)

type ListFilter struct {
	Date     time.Time
	DoctorID *uuid.UUID
	Status   Status
}

// Stats summarizes one day of queue activity.
type Stats struct {
	Date        time.Time
	Waiting     int
	WithDoctor  int
	Completed   int
	Cancelled   int
	NoShow      int
	Total       int
	AvgWaitMins float64
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByQueueNumber(ctx context.Context, number string) (*Entry, error)
	Create(ctx context.Context, e *Entry) error
	// ListForDate returns entries ordered by priority rank, then arrival.
	ListForDate(ctx context.Context, f ListFilter) ([]Entry, error)
	CountWaiting(ctx context.Context, date time.Time, doctorID uuid.UUID) (int, error)

	// Compare-and-set transitions, reporting whether a row changed.
	MarkWithDoctor(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (bool, error)

	StatsForDate(ctx context.Context, date time.Time) (Stats, error)
}
