package api

import (
	"net/http"
	"time"

	"github.com/clinicops/frontdesk/internal/booking"
	"github.com/clinicops/frontdesk/internal/doctor"
	"github.com/clinicops/frontdesk/internal/patient"
	"github.com/clinicops/frontdesk/internal/queue"
)

// dashboardHandler aggregates the front-desk home screen numbers: today's
// appointments by status, the live queue, doctor duty counts and the active
// patient roster size.
func dashboardHandler(bookings *booking.Service, queues *queue.Service, doctors *doctor.Service, patients *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		today := time.Now()

		apptStats, err := bookings.CountByStatusOnDate(ctx, today)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		queueStats, err := queues.StatsToday(ctx)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		doctorStats, err := doctors.CountByStatus(ctx)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		activePatients, err := patients.CountActive(ctx)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DashboardResponse{
			Date: today.Format(dateLayout),
			Appointments: AppointmentStatsResponse{
				Total:     apptStats.Total,
				Scheduled: apptStats.Scheduled,
				Confirmed: apptStats.Confirmed,
				CheckedIn: apptStats.CheckedIn,
				Completed: apptStats.Completed,
				Cancelled: apptStats.Cancelled,
				NoShow:    apptStats.NoShow,
			},
			Queue: QueueStatsResponse{
				Waiting:     queueStats.Waiting,
				WithDoctor:  queueStats.WithDoctor,
				Completed:   queueStats.Completed,
				Cancelled:   queueStats.Cancelled,
				NoShow:      queueStats.NoShow,
				Total:       queueStats.Total,
				AvgWaitMins: queueStats.AvgWaitMins,
			},
			Doctors: DoctorStatusResponse{
				Available: doctorStats.Available,
				Busy:      doctorStats.Busy,
				OffDuty:   doctorStats.OffDuty,
				Total:     doctorStats.Total,
			},
			Patients: activePatients,
		})
	}
}
