package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/booking"
	"github.com/clinicops/frontdesk/internal/clock"
)

func createAppointmentHandler(svc *booking.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		date, err := clock.ParseDate(req.Date, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var scheduledBy *uuid.UUID
		if claims := GetClaims(r.Context()); claims != nil {
			scheduledBy = &claims.UserID
		}

		appt, err := svc.Schedule(r.Context(), booking.ScheduleRequest{
			PatientID:           patientID,
			DoctorID:            doctorID,
			Date:                date,
			Time:                req.Time,
			DurationMins:        req.DurationMins,
			Type:                req.Type,
			ReasonForVisit:      req.ReasonForVisit,
			Symptoms:            req.Symptoms,
			SpecialInstructions: req.SpecialInstructions,
			Notes:               req.Notes,
			ScheduledBy:         scheduledBy,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentByNumberHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.GetByAppointmentID(r.Context(), chi.URLParam(r, "appointmentID"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *booking.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var f booking.Filter

		if raw := q.Get("doctor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			f.DoctorID = &id
		}
		if raw := q.Get("patient_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			f.PatientID = &id
		}
		if raw := q.Get("date"); raw != "" {
			date, err := clock.ParseDate(raw, loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			f.Date = &date
		}
		if raw := q.Get("from"); raw != "" {
			from, err := clock.ParseDate(raw, loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
				return
			}
			f.From = &from
		}
		if raw := q.Get("to"); raw != "" {
			to, err := clock.ParseDate(raw, loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
				return
			}
			f.To = &to
		}
		f.Status = booking.Status(q.Get("status"))
		f.Limit = 100

		appointments, err := svc.List(r.Context(), f)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(appointments))
		for i := range appointments {
			out = append(out, toAppointmentResponse(&appointments[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// appointmentCalendarHandler serves the week and month views: appointments
// between from and to, grouped by day.
func appointmentCalendarHandler(svc *booking.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		from, err := clock.ParseDate(q.Get("from"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from query parameter must be YYYY-MM-DD")
			return
		}
		to, err := clock.ParseDate(q.Get("to"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to query parameter must be YYYY-MM-DD")
			return
		}

		var doctorID *uuid.UUID
		if raw := q.Get("doctor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			doctorID = &id
		}

		days, err := svc.Calendar(r.Context(), doctorID, from, to)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]CalendarDayResponse, 0, len(days))
		for _, d := range days {
			day := CalendarDayResponse{
				Date:         d.Date.Format(dateLayout),
				Appointments: make([]AppointmentResponse, 0, len(d.Appointments)),
			}
			for i := range d.Appointments {
				day.Appointments = append(day.Appointments, toAppointmentResponse(&d.Appointments[i]))
			}
			out = append(out, day)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// appointmentTransitionHandler covers the single-step status moves that take
// no request body: confirm, check-in, start, complete, no-show.
func appointmentTransitionHandler(svc *booking.Service, apply func(ctx context.Context, id uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := apply(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CancelAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var by *uuid.UUID
		if claims := GetClaims(r.Context()); claims != nil {
			by = &claims.UserID
		}

		if err := svc.Cancel(r.Context(), id, req.Reason, by); err != nil {
			handleServiceError(w, err)
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *booking.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := clock.ParseDate(req.Date, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var by *uuid.UUID
		if claims := GetClaims(r.Context()); claims != nil {
			by = &claims.UserID
		}

		replacement, err := svc.Reschedule(r.Context(), id, booking.RescheduleRequest{
			Date:   date,
			Time:   req.Time,
			Reason: req.Reason,
			By:     by,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(replacement))
	}
}

// availableSlotsHandler lists a doctor's slots for a date with booked ones
// marked, for the booking form's slot picker.
func availableSlotsHandler(svc *booking.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		date, err := clock.ParseDate(r.URL.Query().Get("date"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date query parameter must be YYYY-MM-DD")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), doctorID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if slots == nil {
			slots = []booking.Slot{}
		}

		writeJSON(w, http.StatusOK, slots)
	}
}
