package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("appointment not found")
	ErrSlotConflict = errors.New("slot already booked")
	ErrDuplicateID  = errors.New("appointment id already taken")
)

// Filter narrows appointment listings. Date matches a single day; From/To
// bound an inclusive date range for calendar views.
type Filter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      *time.Time
	From      *time.Time
	To        *time.Time
	Status    Status
	Limit     int
	Offset    int
}

type StatusCounts struct {
	Total     int
	Scheduled int
	Confirmed int
	CheckedIn int
	Completed int
	Cancelled int
	NoShow    int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*Appointment, error)
	// Create inserts the appointment. A violation of the active-slot index
	// comes back as ErrSlotConflict, of the public id as ErrDuplicateID.
	Create(ctx context.Context, a *Appointment) error
	// SlotTaken is the advisory pre-check; the unique index is the arbiter.
	SlotTaken(ctx context.Context, doctorID uuid.UUID, date time.Time, hhmm string) (bool, error)
	// BookedTimes returns the "HH:MM" times of active appointments for the
	// doctor on the date.
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	// CountBookedInWindow counts active appointments in [start, end).
	CountBookedInWindow(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end string) (int, error)

	// Status transitions. Each is a compare-and-set against the expected
	// prior states and reports whether a row changed.
	MarkConfirmed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkInProgress(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, reason string, by *uuid.UUID, at time.Time) (bool, error)
	MarkRescheduled(ctx context.Context, id uuid.UUID, note string) (bool, error)

	List(ctx context.Context, f Filter) ([]Appointment, error)
	CountByStatusOnDate(ctx context.Context, date time.Time) (StatusCounts, error)
	// CountWithPrefix counts appointments whose public id starts with the
	// prefix. Feeds sequential id assignment.
	CountWithPrefix(ctx context.Context, prefix string) (int, error)
	// UpcomingForReminders returns active appointments on the date that have
	// not been sent a reminder yet.
	UpcomingForReminders(ctx context.Context, date time.Time, limit int) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}
