package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicops/frontdesk/internal/api"
	"github.com/clinicops/frontdesk/internal/booking"
	"github.com/clinicops/frontdesk/internal/config"
	"github.com/clinicops/frontdesk/internal/db"
	"github.com/clinicops/frontdesk/internal/doctor"
	"github.com/clinicops/frontdesk/internal/logger"
	"github.com/clinicops/frontdesk/internal/patient"
	"github.com/clinicops/frontdesk/internal/queue"
	redisclient "github.com/clinicops/frontdesk/internal/redis"
	"github.com/clinicops/frontdesk/internal/staff"
)

const version = "1.0.0"

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
		Service: "api-server",
	})
	log.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", "error", err)
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.Migrate(migCtx, pgPool)
	cancelMig()
	if err != nil {
		log.Fatal("migration error", "error", err)
	}

	// Connect Redis
	rdb, err := redisclient.New(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal("redis connection error", "error", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error("error closing redis", "error", err)
		}
	}()
	log.Info("connected to Redis")

	loc := cfg.Location()

	patients := patient.NewService(patient.NewPgRepository(pgPool), log)
	doctors := doctor.NewService(doctor.NewPgRepository(pgPool), log)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	bookings := booking.NewService(booking.NewPgRepository(pgPool), doctors, patients, locker, log, loc)
	counter := redisclient.NewDailyCounter(rdb)
	queues := queue.NewService(queue.NewPgRepository(pgPool), doctors, counter, log, loc)
	tokens := staff.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	staffSvc := staff.NewService(staff.NewPgRepository(pgPool), tokens, log)

	router := api.NewRouter(api.RouterConfig{
		Patients: patients,
		Doctors:  doctors,
		Bookings: bookings,
		Queue:    queues,
		Staff:    staffSvc,
		Logger:   log,
		PgPool:   pgPool,
		Redis:    rdb,
		Location: loc,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("http server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	log.Info("api-server stopped")
}
