package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/booking"
	"github.com/clinicops/frontdesk/internal/doctor"
	"github.com/clinicops/frontdesk/internal/patient"
	"github.com/clinicops/frontdesk/internal/queue"
)

const dateLayout = "2006-01-02"

// Auth

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token      string `json:"token"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	EmployeeID string `json:"employee_id,omitempty"`
}

type RegisterStaffRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phone_number"`
	Department  string `json:"department"`
	Shift       string `json:"shift"`
}

type RegisterStaffResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	EmployeeID string    `json:"employee_id"`
	Role       string    `json:"role"`
}

// Patients

type PatientRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	DateOfBirth string  `json:"date_of_birth"`
	Gender      string  `json:"gender"`
	BloodGroup  *string `json:"blood_group,omitempty"`
	PhoneNumber string  `json:"phone_number"`
	Email       *string `json:"email,omitempty"`

	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`

	EmergencyContactName     string `json:"emergency_contact_name"`
	EmergencyContactPhone    string `json:"emergency_contact_phone"`
	EmergencyContactRelation string `json:"emergency_contact_relation"`

	Allergies          string `json:"allergies"`
	ChronicConditions  string `json:"chronic_conditions"`
	CurrentMedications string `json:"current_medications"`
}

type PatientResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   string    `json:"patient_id"`
	FullName    string    `json:"full_name"`
	DateOfBirth string    `json:"date_of_birth"`
	Age         int       `json:"age"`
	Gender      string    `json:"gender"`
	BloodGroup  string    `json:"blood_group,omitempty"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	City        string    `json:"city"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPatientResponse(p *patient.Patient, now time.Time) PatientResponse {
	resp := PatientResponse{
		ID:          p.ID,
		PatientID:   p.PatientID,
		FullName:    p.FullName(),
		DateOfBirth: p.DateOfBirth.Format(dateLayout),
		Age:         p.Age(now),
		Gender:      p.Gender,
		PhoneNumber: p.PhoneNumber,
		City:        p.City,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
	if p.BloodGroup != nil {
		resp.BloodGroup = *p.BloodGroup
	}
	if p.Email != nil {
		resp.Email = *p.Email
	}
	return resp
}

// Doctors

type DoctorRequest struct {
	DoctorID          string `json:"doctor_id"`
	FullName          string `json:"full_name"`
	Specialization    string `json:"specialization"`
	Gender            string `json:"gender"`
	PhoneNumber       string `json:"phone_number"`
	Email             string `json:"email"`
	ClinicLocation    string `json:"clinic_location"`
	ConsultationFee   int64  `json:"consultation_fee"`
	AcceptsWalkins    bool   `json:"accepts_walkins"`
	LicenseNumber     string `json:"license_number"`
	YearsOfExperience int    `json:"years_of_experience"`
	Qualifications    string `json:"qualifications"`
	Bio               string `json:"bio"`
}

type DoctorResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        string    `json:"doctor_id"`
	FullName        string    `json:"full_name"`
	Specialization  string    `json:"specialization"`
	Status          string    `json:"status"`
	ConsultationFee int64     `json:"consultation_fee"`
	AcceptsWalkins  bool      `json:"accepts_walkins"`
	ClinicLocation  string    `json:"clinic_location"`
	PhoneNumber     string    `json:"phone_number"`
	Email           string    `json:"email"`
}

func toDoctorResponse(d *doctor.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:              d.ID,
		DoctorID:        d.DoctorID,
		FullName:        d.FullName,
		Specialization:  d.Specialization,
		Status:          string(d.Status),
		ConsultationFee: d.ConsultationFee,
		AcceptsWalkins:  d.AcceptsWalkins,
		ClinicLocation:  d.ClinicLocation,
		PhoneNumber:     d.PhoneNumber,
		Email:           d.Email,
	}
}

type ScheduleRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	SlotMins  int    `json:"slot_minutes"`
	IsActive  bool   `json:"is_active"`
}

type ScheduleResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	SlotMins  int       `json:"slot_minutes"`
	IsActive  bool      `json:"is_active"`
}

func toScheduleResponse(s *doctor.WeeklySchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		SlotMins:  s.SlotMins,
		IsActive:  s.IsActive,
	}
}

type WindowRequest struct {
	Date                 string `json:"date"`
	StartTime            string `json:"start_time"`
	EndTime              string `json:"end_time"`
	MaxAppointments      int    `json:"max_appointments"`
	IsAvailable          bool   `json:"is_available"`
	UnavailabilityReason string `json:"unavailability_reason,omitempty"`
}

type WindowResponse struct {
	ID                   uuid.UUID `json:"id"`
	DoctorID             uuid.UUID `json:"doctor_id"`
	Date                 string    `json:"date"`
	StartTime            string    `json:"start_time"`
	EndTime              string    `json:"end_time"`
	MaxAppointments      int       `json:"max_appointments"`
	IsAvailable          bool      `json:"is_available"`
	UnavailabilityReason string    `json:"unavailability_reason,omitempty"`
}

func toWindowResponse(w *doctor.AvailabilityWindow) WindowResponse {
	return WindowResponse{
		ID:                   w.ID,
		DoctorID:             w.DoctorID,
		Date:                 w.Date.Format(dateLayout),
		StartTime:            w.StartTime,
		EndTime:              w.EndTime,
		MaxAppointments:      w.MaxAppointments,
		IsAvailable:          w.IsAvailable,
		UnavailabilityReason: w.UnavailabilityReason,
	}
}

type MaterializeRequest struct {
	From            string `json:"from"`
	To              string `json:"to"`
	MaxAppointments int    `json:"max_appointments"`
}

// Appointments

type CreateAppointmentRequest struct {
	PatientID           string `json:"patient_id"`
	DoctorID            string `json:"doctor_id"`
	Date                string `json:"date"`
	Time                string `json:"time"`
	DurationMins        int    `json:"duration_minutes"`
	Type                string `json:"type"`
	ReasonForVisit      string `json:"reason_for_visit"`
	Symptoms            string `json:"symptoms"`
	SpecialInstructions string `json:"special_instructions"`
	Notes               string `json:"notes"`
}

type RescheduleAppointmentRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	AppointmentID      string     `json:"appointment_id"`
	PatientID          uuid.UUID  `json:"patient_id"`
	DoctorID           uuid.UUID  `json:"doctor_id"`
	Date               string     `json:"date"`
	Time               string     `json:"time"`
	DurationMins       int        `json:"duration_minutes"`
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	ReasonForVisit     string     `json:"reason_for_visit"`
	Symptoms           string     `json:"symptoms,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	RescheduledFrom    *uuid.UUID `json:"rescheduled_from,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 a.ID,
		AppointmentID:      a.AppointmentID,
		PatientID:          a.PatientID,
		DoctorID:           a.DoctorID,
		Date:               a.Date.Format(dateLayout),
		Time:               a.Time,
		DurationMins:       a.DurationMins,
		Type:               string(a.Type),
		Status:             string(a.Status),
		ReasonForVisit:     a.ReasonForVisit,
		Symptoms:           a.Symptoms,
		Notes:              a.Notes,
		RescheduledFrom:    a.RescheduledFrom,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt,
	}
}

type CalendarDayResponse struct {
	Date         string                `json:"date"`
	Appointments []AppointmentResponse `json:"appointments"`
}

// Queue

type EnqueueRequest struct {
	PatientID      string `json:"patient_id"`
	DoctorID       string `json:"doctor_id,omitempty"`
	Priority       string `json:"priority"`
	ReasonForVisit string `json:"reason_for_visit"`
	Notes          string `json:"notes"`
}

type QueueEntryResponse struct {
	ID               uuid.UUID  `json:"id"`
	QueueNumber      string     `json:"queue_number"`
	PatientID        uuid.UUID  `json:"patient_id"`
	DoctorID         *uuid.UUID `json:"doctor_id,omitempty"`
	QueueDate        string     `json:"queue_date"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	ReasonForVisit   string     `json:"reason_for_visit"`
	EstimatedWaitMin int        `json:"estimated_wait_minutes"`
	WaitedMins       int        `json:"waited_minutes"`
	ArrivedAt        time.Time  `json:"arrived_at"`
}

func toQueueEntryResponse(e *queue.Entry, now time.Time) QueueEntryResponse {
	return QueueEntryResponse{
		ID:               e.ID,
		QueueNumber:      e.QueueNumber,
		PatientID:        e.PatientID,
		DoctorID:         e.DoctorID,
		QueueDate:        e.QueueDate.Format(dateLayout),
		Priority:         string(e.Priority),
		Status:           string(e.Status),
		ReasonForVisit:   e.ReasonForVisit,
		EstimatedWaitMin: e.EstimatedWaitMin,
		WaitedMins:       int(e.WaitTime(now).Minutes()),
		ArrivedAt:        e.ArrivedAt,
	}
}

// Dashboard

type DashboardResponse struct {
	Date         string                   `json:"date"`
	Appointments AppointmentStatsResponse `json:"appointments"`
	Queue        QueueStatsResponse       `json:"queue"`
	Doctors      DoctorStatusResponse     `json:"doctors"`
	Patients     int                      `json:"active_patients"`
}

type AppointmentStatsResponse struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Confirmed int `json:"confirmed"`
	CheckedIn int `json:"checked_in"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	NoShow    int `json:"no_show"`
}

type DoctorStatusResponse struct {
	Available int `json:"available"`
	Busy      int `json:"busy"`
	OffDuty   int `json:"off_duty"`
	Total     int `json:"total"`
}

type QueueStatsResponse struct {
	Waiting     int     `json:"waiting"`
	WithDoctor  int     `json:"with_doctor"`
	Completed   int     `json:"completed"`
	Cancelled   int     `json:"cancelled"`
	NoShow      int     `json:"no_show"`
	Total       int     `json:"total"`
	AvgWaitMins float64 `json:"avg_wait_minutes"`
}
