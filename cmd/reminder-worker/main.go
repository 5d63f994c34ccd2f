package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicops/frontdesk/internal/booking"
	"github.com/clinicops/frontdesk/internal/clock"
	"github.com/clinicops/frontdesk/internal/config"
	"github.com/clinicops/frontdesk/internal/db"
	"github.com/clinicops/frontdesk/internal/logger"
)

const reminderBatchSize = 100

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  "json",
		Output:  os.Stdout,
		Service: "reminder-worker",
	})
	log.Info("reminder-worker starting up", "env", cfg.Env, "interval", cfg.WorkerInterval.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", "error", err)
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	repo := booking.NewPgRepository(pgPool)
	loc := cfg.Location()

	// Run once at startup
	runOnce(rootCtx, repo, log, loc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, repo, log, loc)
		}
	}
}

// runOnce flags tomorrow's still-active appointments as reminded. Delivery
// itself is out of band; the flag keeps each appointment from being picked
// up twice.
func runOnce(ctx context.Context, repo booking.Repository, log *logger.Logger, loc *time.Location) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	tomorrow := clock.DateOnly(start.AddDate(0, 0, 1), loc)

	appointments, err := repo.UpcomingForReminders(runCtx, tomorrow, reminderBatchSize)
	if err != nil {
		log.Error("reminder query error", "error", err)
		return
	}

	sent := 0
	for i := range appointments {
		a := &appointments[i]
		log.Info("appointment reminder due",
			"appointment_id", a.AppointmentID,
			"date", a.Date.Format("2006-01-02"),
			"time", a.Time,
		)
		if err := repo.MarkReminderSent(runCtx, a.ID); err != nil {
			log.Error("mark reminder sent error", "appointment_id", a.AppointmentID, "error", err)
			continue
		}
		sent++
	}

	log.Info("reminder run complete", "sent", sent, "duration", time.Since(start).String())
}
