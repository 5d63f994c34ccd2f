package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/patient"
)

func patientServiceRequest(req PatientRequest) (patient.RegisterRequest, error) {
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return patient.RegisterRequest{}, err
	}

	return patient.RegisterRequest{
		FirstName:                req.FirstName,
		LastName:                 req.LastName,
		DateOfBirth:              dob,
		Gender:                   req.Gender,
		BloodGroup:               req.BloodGroup,
		PhoneNumber:              req.PhoneNumber,
		Email:                    req.Email,
		AddressLine1:             req.AddressLine1,
		AddressLine2:             req.AddressLine2,
		City:                     req.City,
		State:                    req.State,
		Pincode:                  req.Pincode,
		EmergencyContactName:     req.EmergencyContactName,
		EmergencyContactPhone:    req.EmergencyContactPhone,
		EmergencyContactRelation: req.EmergencyContactRelation,
		Allergies:                req.Allergies,
		ChronicConditions:        req.ChronicConditions,
		CurrentMedications:       req.CurrentMedications,
	}, nil
}

func registerPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var registeredBy *uuid.UUID
		if claims := GetClaims(r.Context()); claims != nil {
			registeredBy = &claims.UserID
		}

		sreq, err := patientServiceRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date_of_birth", "date_of_birth must be YYYY-MM-DD")
			return
		}
		sreq.RegisteredBy = registeredBy

		p, err := svc.Register(r.Context(), sreq)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p, time.Now()))
	}
}

func getPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p, time.Now()))
	}
}

func getPatientByPublicIDHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByPatientID(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p, time.Now()))
	}
}

func updatePatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		var req PatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		sreq, err := patientServiceRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date_of_birth", "date_of_birth must be YYYY-MM-DD")
			return
		}

		p, err := svc.Update(r.Context(), id, sreq)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p, time.Now()))
	}
}

func deactivatePatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listPatientsHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		patients, err := svc.List(r.Context(), patient.ListFilter{
			Query:      q.Get("q"),
			ActiveOnly: q.Get("active") != "false",
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		now := time.Now()
		out := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			out = append(out, toPatientResponse(&patients[i], now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// searchPatientsHandler powers the front-desk typeahead.
func searchPatientsHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		now := time.Now()
		out := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			out = append(out, toPatientResponse(&patients[i], now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
