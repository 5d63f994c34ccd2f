package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusCheckedIn   Status = "checked_in"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
	StatusRescheduled Status = "rescheduled"
)

// ActiveStatuses are the states in which an appointment still holds its slot.
// The partial unique index on appointments mirrors this set.
var ActiveStatuses = []Status{StatusScheduled, StatusConfirmed, StatusCheckedIn}

type Type string

const (
	TypeNew       Type = "new"
	TypeFollowUp  Type = "follow_up"
	TypeRoutine   Type = "routine"
	TypeEmergency Type = "emergency"
)

type Appointment struct {
	ID                  uuid.UUID
	AppointmentID       string
	PatientID           uuid.UUID
	DoctorID            uuid.UUID
	Date                time.Time
	Time                string // "HH:MM"
	DurationMins        int
	Status              Status
	Type                Type
	ReasonForVisit      string
	Symptoms            string
	SpecialInstructions string
	ScheduledBy         *uuid.UUID
	ScheduledAt         time.Time
	ConfirmedAt         *time.Time
	CheckedInAt         *time.Time
	ConsultStartedAt    *time.Time
	ConsultEndedAt      *time.Time
	CancellationReason  string
	CancelledAt         *time.Time
	CancelledBy         *uuid.UUID
	RescheduledFrom     *uuid.UUID
	Notes               string
	ReminderSent        bool
	ReminderSentAt      *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	for _, st := range ActiveStatuses {
		if a.Status == st {
			return true
		}
	}
	return false
}

// Slot is one bookable position in a doctor's day.
type Slot struct {
	Time   string `json:"time"`
	Booked bool   `json:"booked"`
}
