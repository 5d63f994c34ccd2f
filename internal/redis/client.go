// Package redisclient holds the redis-backed coordination primitives: the
// slot lock that serializes racing bookings and the daily counters behind
// queue numbers. Both are small, latency-sensitive operations, so the
// connection pool is tuned for short commands.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	connectTimeout = 5 * time.Second
	commandTimeout = 2 * time.Second
	poolSize       = 10
)

type Options struct {
	Addr     string
	Username string
	Password string
}

// New connects and verifies the server is reachable before handing the
// client out.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		ReadTimeout:  commandTimeout,
		WriteTimeout: commandTimeout,
		PoolSize:     poolSize,
		MinIdleConns: 1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
