package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicops/frontdesk/internal/booking"
	"github.com/clinicops/frontdesk/internal/doctor"
	"github.com/clinicops/frontdesk/internal/logger"
	"github.com/clinicops/frontdesk/internal/patient"
	"github.com/clinicops/frontdesk/internal/queue"
	"github.com/clinicops/frontdesk/internal/staff"
)

type RouterConfig struct {
	Patients *patient.Service
	Doctors  *doctor.Service
	Bookings *booking.Service
	Queue    *queue.Service
	Staff    *staff.Service
	Logger   *logger.Logger
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	// Location is the clinic's timezone; request dates are read as calendar
	// days in this location.
	Location *time.Location
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints stay open; everything else requires a token.
		r.Post("/auth/login", loginHandler(cfg.Staff))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Staff))
			r.Use(RequireRole(staff.RoleStaff))

			r.Post("/auth/register", registerStaffHandler(cfg.Staff))

			r.Route("/patients", func(r chi.Router) {
				r.Post("/", registerPatientHandler(cfg.Patients))
				r.Get("/", listPatientsHandler(cfg.Patients))
				r.Get("/search", searchPatientsHandler(cfg.Patients))
				r.Get("/by-number/{patientID}", getPatientByPublicIDHandler(cfg.Patients))
				r.Get("/{id}", getPatientHandler(cfg.Patients))
				r.Put("/{id}", updatePatientHandler(cfg.Patients))
				r.Delete("/{id}", deactivatePatientHandler(cfg.Patients))
			})

			r.Route("/doctors", func(r chi.Router) {
				r.Post("/", createDoctorHandler(cfg.Doctors))
				r.Get("/", listDoctorsHandler(cfg.Doctors))
				r.Get("/search", searchDoctorsHandler(cfg.Doctors))
				r.Get("/{id}", getDoctorHandler(cfg.Doctors))
				r.Put("/{id}", updateDoctorHandler(cfg.Doctors))
				r.Post("/{id}/off-duty", setDoctorStatusHandler(cfg.Doctors, doctor.StatusOffDuty))
				r.Post("/{id}/on-duty", setDoctorStatusHandler(cfg.Doctors, doctor.StatusAvailable))

				r.Post("/{id}/schedules", addScheduleHandler(cfg.Doctors))
				r.Get("/{id}/schedules", listSchedulesHandler(cfg.Doctors))

				r.Post("/{id}/windows", addWindowHandler(cfg.Doctors, loc))
				r.Get("/{id}/windows", listWindowsHandler(cfg.Doctors, loc))
				r.Post("/{id}/windows/materialize", materializeWindowsHandler(cfg.Doctors, loc))

				r.Get("/{id}/slots", availableSlotsHandler(cfg.Bookings, loc))
			})
			r.Delete("/schedules/{scheduleID}", deleteScheduleHandler(cfg.Doctors))
			r.Delete("/windows/{windowID}", deleteWindowHandler(cfg.Doctors))

			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", createAppointmentHandler(cfg.Bookings, loc))
				r.Get("/", listAppointmentsHandler(cfg.Bookings, loc))
				r.Get("/calendar", appointmentCalendarHandler(cfg.Bookings, loc))
				r.Get("/by-number/{appointmentID}", getAppointmentByNumberHandler(cfg.Bookings))
				r.Get("/{id}", getAppointmentHandler(cfg.Bookings))
				r.Post("/{id}/confirm", appointmentTransitionHandler(cfg.Bookings, cfg.Bookings.Confirm))
				r.Post("/{id}/check-in", appointmentTransitionHandler(cfg.Bookings, cfg.Bookings.CheckIn))
				r.Post("/{id}/start", appointmentTransitionHandler(cfg.Bookings, cfg.Bookings.Start))
				r.Post("/{id}/complete", appointmentTransitionHandler(cfg.Bookings, cfg.Bookings.Complete))
				r.Post("/{id}/no-show", appointmentTransitionHandler(cfg.Bookings, cfg.Bookings.NoShow))
				r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Bookings))
				r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Bookings, loc))
			})

			r.Route("/queue", func(r chi.Router) {
				r.Post("/", enqueueHandler(cfg.Queue))
				r.Get("/", listQueueHandler(cfg.Queue))
				r.Get("/stats", queueStatsHandler(cfg.Queue))
				r.Get("/by-number/{queueNumber}", getQueueEntryByNumberHandler(cfg.Queue))
				r.Get("/{id}", getQueueEntryHandler(cfg.Queue))
				r.Post("/{id}/call", queueTransitionHandler(cfg.Queue, cfg.Queue.CallIn))
				r.Post("/{id}/complete", queueTransitionHandler(cfg.Queue, cfg.Queue.Complete))
				r.Post("/{id}/cancel", queueTransitionHandler(cfg.Queue, cfg.Queue.Cancel))
				r.Post("/{id}/no-show", queueTransitionHandler(cfg.Queue, cfg.Queue.NoShow))
			})

			r.Get("/dashboard", dashboardHandler(cfg.Bookings, cfg.Queue, cfg.Doctors, cfg.Patients))
		})
	})

	return r
}
