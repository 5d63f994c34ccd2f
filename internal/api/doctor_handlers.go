package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/clock"
	"github.com/clinicops/frontdesk/internal/doctor"
)

func createDoctorHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		d, err := svc.Create(r.Context(), doctorServiceRequest(req))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

func doctorServiceRequest(req DoctorRequest) doctor.CreateRequest {
	return doctor.CreateRequest{
		DoctorID:          req.DoctorID,
		FullName:          req.FullName,
		Specialization:    req.Specialization,
		Gender:            req.Gender,
		PhoneNumber:       req.PhoneNumber,
		Email:             req.Email,
		ClinicLocation:    req.ClinicLocation,
		ConsultationFee:   req.ConsultationFee,
		AcceptsWalkins:    req.AcceptsWalkins,
		LicenseNumber:     req.LicenseNumber,
		YearsOfExperience: req.YearsOfExperience,
		Qualifications:    req.Qualifications,
		Bio:               req.Bio,
	}
}

func getDoctorHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		d, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func updateDoctorHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		var req DoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		d, err := svc.Update(r.Context(), id, doctorServiceRequest(req))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func listDoctorsHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var doctors []doctor.Doctor
		var err error

		// "Who can see this patient right now" is the common front-desk
		// question, so it gets the dedicated path.
		if spec := q.Get("specialization"); spec != "" && q.Get("available") == "true" && q.Get("walkins") != "true" {
			doctors, err = svc.BySpecialization(r.Context(), spec)
		} else {
			doctors, err = svc.List(r.Context(), doctor.ListFilter{
				Specialization: q.Get("specialization"),
				AvailableOnly:  q.Get("available") == "true",
				WalkinsOnly:    q.Get("walkins") == "true",
			})
		}
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, doctorResponses(doctors))
	}
}

func searchDoctorsHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, doctorResponses(doctors))
	}
}

func doctorResponses(doctors []doctor.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, 0, len(doctors))
	for i := range doctors {
		out = append(out, toDoctorResponse(&doctors[i]))
	}
	return out
}

// setDoctorStatusHandler backs the duty toggle: off-duty and back on.
func setDoctorStatusHandler(svc *doctor.Service, toStatus doctor.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		switch toStatus {
		case doctor.StatusOffDuty:
			err = svc.SetOffDuty(r.Context(), id)
		default:
			err = svc.SetOnDuty(r.Context(), id)
		}
		if err != nil {
			handleServiceError(w, err)
			return
		}

		d, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

// Weekly schedules

func addScheduleHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		s, err := svc.AddSchedule(r.Context(), doctor.ScheduleRequest{
			DoctorID:  doctorID,
			DayOfWeek: req.DayOfWeek,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			SlotMins:  req.SlotMins,
			IsActive:  req.IsActive,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toScheduleResponse(s))
	}
}

func listSchedulesHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		schedules, err := svc.Schedules(r.Context(), doctorID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]ScheduleResponse, 0, len(schedules))
		for i := range schedules {
			out = append(out, toScheduleResponse(&schedules[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteScheduleHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_schedule_id", "scheduleID must be a valid UUID")
			return
		}

		if err := svc.DeleteSchedule(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// Availability windows

func addWindowHandler(svc *doctor.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		var req WindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := clock.ParseDate(req.Date, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		win, err := svc.AddWindow(r.Context(), doctor.WindowRequest{
			DoctorID:             doctorID,
			Date:                 date,
			StartTime:            req.StartTime,
			EndTime:              req.EndTime,
			MaxAppointments:      req.MaxAppointments,
			IsAvailable:          req.IsAvailable,
			UnavailabilityReason: req.UnavailabilityReason,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toWindowResponse(win))
	}
}

func listWindowsHandler(svc *doctor.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		from := clock.DateOnly(time.Now(), loc)
		if raw := r.URL.Query().Get("from"); raw != "" {
			from, err = clock.ParseDate(raw, loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
				return
			}
		}

		windows, err := svc.Windows(r.Context(), doctorID, from)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]WindowResponse, 0, len(windows))
		for i := range windows {
			out = append(out, toWindowResponse(&windows[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteWindowHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "windowID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window_id", "windowID must be a valid UUID")
			return
		}

		if err := svc.DeleteWindow(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// materializeWindowsHandler projects the weekly template into concrete
// windows over a date range.
func materializeWindowsHandler(svc *doctor.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		var req MaterializeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		from, err := clock.ParseDate(req.From, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
			return
		}
		to, err := clock.ParseDate(req.To, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD")
			return
		}

		created, err := svc.MaterializeWindows(r.Context(), doctorID, from, to, req.MaxAppointments)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]int{"windows_created": created})
	}
}
