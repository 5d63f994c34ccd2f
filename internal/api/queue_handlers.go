package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/queue"
)

func enqueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		// doctor_id is optional; walk-ins may queue without a preference.
		var doctorID *uuid.UUID
		if req.DoctorID != "" {
			id, err := uuid.Parse(req.DoctorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			doctorID = &id
		}

		var addedBy *uuid.UUID
		if claims := GetClaims(r.Context()); claims != nil {
			addedBy = &claims.UserID
		}

		e, err := svc.Enqueue(r.Context(), queue.EnqueueRequest{
			PatientID:      patientID,
			DoctorID:       doctorID,
			Priority:       req.Priority,
			ReasonForVisit: req.ReasonForVisit,
			Notes:          req.Notes,
			AddedBy:        addedBy,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toQueueEntryResponse(e, time.Now()))
	}
}

func getQueueEntryHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_queue_entry_id", "id must be a valid UUID")
			return
		}

		e, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toQueueEntryResponse(e, time.Now()))
	}
}

func getQueueEntryByNumberHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetByQueueNumber(r.Context(), chi.URLParam(r, "queueNumber"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toQueueEntryResponse(e, time.Now()))
	}
}

// listQueueHandler returns today's queue in calling order: emergencies
// first, then urgent, then normal, each by arrival.
func listQueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var doctorID *uuid.UUID
		if raw := q.Get("doctor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			doctorID = &id
		}

		entries, err := svc.ListToday(r.Context(), doctorID, queue.Status(q.Get("status")))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		now := time.Now()
		out := make([]QueueEntryResponse, 0, len(entries))
		for i := range entries {
			out = append(out, toQueueEntryResponse(&entries[i], now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func queueTransitionHandler(svc *queue.Service, apply func(ctx context.Context, id uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_queue_entry_id", "id must be a valid UUID")
			return
		}

		if err := apply(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		e, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toQueueEntryResponse(e, time.Now()))
	}
}

func queueStatsHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.StatsToday(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, QueueStatsResponse{
			Waiting:     stats.Waiting,
			WithDoctor:  stats.WithDoctor,
			Completed:   stats.Completed,
			Cancelled:   stats.Cancelled,
			NoShow:      stats.NoShow,
			Total:       stats.Total,
			AvgWaitMins: stats.AvgWaitMins,
		})
	}
}
