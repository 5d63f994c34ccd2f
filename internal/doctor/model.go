package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Status is the three-way duty state of a doctor. The legacy system collapsed
// "busy" and "off duty" into one boolean; keeping them apart lets the queue
// release a consulting doctor without putting an off-duty one back on shift.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffDuty   Status = "off_duty"
)

type Doctor struct {
	ID       uuid.UUID
	DoctorID string // public identifier supplied at onboarding
	UserID   *uuid.UUID

	FullName       string
	Specialization string
	Gender         string // M, F, O
	PhoneNumber    string
	Email          string
	ClinicLocation string

	ConsultationFee int64 // minor currency units

	Status         Status
	AcceptsWalkins bool

	LicenseNumber     string
	YearsOfExperience int
	Qualifications    string
	Bio               string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAvailable reports whether the doctor can take a new patient right now.
func (d *Doctor) IsAvailable() bool {
	return d.Status == StatusAvailable
}

// WeeklySchedule is the recurring per-weekday template a doctor works from.
// Concrete bookable time is materialized into AvailabilityWindow rows.
type WeeklySchedule struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	DayOfWeek int    // 0 = Monday ... 6 = Sunday
	StartTime string // HH:MM
	EndTime   string // HH:MM
	SlotMins  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilityWindow is a date-scoped range in which a doctor may be booked,
// capped by MaxAppointments.
type AvailabilityWindow struct {
	ID                   uuid.UUID
	DoctorID             uuid.UUID
	Date                 time.Time
	StartTime            string // HH:MM
	EndTime              string // HH:MM
	MaxAppointments      int
	IsAvailable          bool
	UnavailabilityReason string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// weekday maps time.Weekday (Sunday=0) onto the schedule convention
// (Monday=0).
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
