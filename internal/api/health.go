package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const depCheckTimeout = 1 * time.Second

// HealthHandler serves the liveness and readiness probes. Postgres is a hard
// dependency; redis only degrades slot locking and queue numbering, so a redis
// outage reports degraded rather than failing readiness outright.
type HealthHandler struct {
	pgPool  *pgxpool.Pool
	redis   *redis.Client
	env     string
	version string
}

func NewHealthHandler(pgPool *pgxpool.Pool, redis *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{pgPool: pgPool, redis: redis, env: env, version: version}
}

type healthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	pgOK := h.check(r.Context(), func(ctx context.Context) error {
		return h.pgPool.Ping(ctx)
	})
	redisOK := h.check(r.Context(), func(ctx context.Context) error {
		return h.redis.Ping(ctx).Err()
	})

	deps := map[string]string{
		"postgres": stateWord(pgOK),
		"redis":    stateWord(redisOK),
	}

	status := "ok"
	httpStatus := http.StatusOK
	switch {
	case !pgOK:
		status = "error"
		httpStatus = http.StatusServiceUnavailable
	case !redisOK:
		status = "degraded"
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}

func (h *HealthHandler) check(ctx context.Context, ping func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, depCheckTimeout)
	defer cancel()
	return ping(ctx) == nil
}

func stateWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "down"
}
