package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusWithDoctor Status = "with_doctor"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityUrgent    Priority = "urgent"
	PriorityEmergency Priority = "emergency"
)

// Rank orders priorities for queue position: emergency first, then urgent,
// then normal. Within a rank, earlier arrival wins.
func (p Priority) Rank() int {
	switch p {
	case PriorityEmergency:
		return 0
	case PriorityUrgent:
		return 1
	default:
		return 2
	}
}

type Entry struct {
	ID               uuid.UUID
	QueueNumber      string
	PatientID        uuid.UUID
	DoctorID         *uuid.UUID
	Status           Status
	Priority         Priority
	ArrivedAt        time.Time
	CalledAt         *time.Time
	ConsultStartedAt *time.Time
	ConsultEndedAt   *time.Time
	EstimatedWaitMin int
	ReasonForVisit   string
	Notes            string
	AddedBy          *uuid.UUID
	QueueDate        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// WaitTime is how long the patient has waited, computed from the record
// rather than stored: time to consultation start for entries that reached a
// doctor, time elapsed so far for waiting entries, zero otherwise.
func (e *Entry) WaitTime(now time.Time) time.Duration {
	switch {
	case e.ConsultStartedAt != nil:
		return e.ConsultStartedAt.Sub(e.ArrivedAt)
	case e.Status == StatusWaiting:
		return now.Sub(e.ArrivedAt)
	default:
		return 0
	}
}

// FormatQueueNumber renders the public queue token, e.g. Q20260826007.
func FormatQueueNumber(day time.Time, seq int) string {
	return fmt.Sprintf("Q%s%03d", day.Format("20060102"), seq)
}
