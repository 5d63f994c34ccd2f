package api

import (
	"errors"
	"net/http"

	"github.com/clinicops/frontdesk/internal/booking"
	"github.com/clinicops/frontdesk/internal/doctor"
	"github.com/clinicops/frontdesk/internal/patient"
	"github.com/clinicops/frontdesk/internal/queue"
	redisclient "github.com/clinicops/frontdesk/internal/redis"
	"github.com/clinicops/frontdesk/internal/staff"
)

// handleServiceError maps domain sentinel errors to HTTP responses. Every
// handler funnels unexpected errors through the default arm.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patient.ErrValidation),
		errors.Is(err, doctor.ErrValidation),
		errors.Is(err, booking.ErrValidation),
		errors.Is(err, queue.ErrValidation),
		errors.Is(err, staff.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())

	case errors.Is(err, patient.ErrNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, doctor.ErrNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, doctor.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, doctor.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "availability_window_not_found", err.Error())
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, queue.ErrNotFound):
		writeError(w, http.StatusNotFound, "queue_entry_not_found", err.Error())
	case errors.Is(err, staff.ErrNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())

	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, booking.ErrWindowFull):
		writeError(w, http.StatusConflict, "window_full", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, queue.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, doctor.ErrOffDuty):
		writeError(w, http.StatusConflict, "doctor_off_duty", err.Error())
	case errors.Is(err, doctor.ErrDuplicateDoctor),
		errors.Is(err, doctor.ErrDuplicateSchedule),
		errors.Is(err, doctor.ErrDuplicateWindow),
		errors.Is(err, staff.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "duplicate_record", err.Error())

	case errors.Is(err, booking.ErrPastDate):
		writeError(w, http.StatusUnprocessableEntity, "past_date", err.Error())

	case errors.Is(err, staff.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, staff.ErrInactiveAccount):
		writeError(w, http.StatusForbidden, "account_deactivated", err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
