package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter hands out strictly increasing sequence numbers scoped to one
// calendar date. Two concurrent callers never see the same value, which keeps
// generated queue numbers collision free without a read-count-then-format
// race.
type Counter interface {
	Next(ctx context.Context, scope string, day time.Time) (int64, error)
}

type dailyCounter struct {
	client *redis.Client
}

func NewDailyCounter(client *redis.Client) Counter {
	return &dailyCounter{client: client}
}

func (c *dailyCounter) Next(ctx context.Context, scope string, day time.Time) (int64, error) {
	key := fmt.Sprintf("counter:%s:%s", scope, day.Format("20060102"))

	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr daily counter %s: %w", key, err)
	}

	// First increment of the day: give the key a lifetime so stale counters
	// do not accumulate. 48h covers timezone skew around midnight.
	if n == 1 {
		if err := c.client.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			return 0, fmt.Errorf("expire daily counter %s: %w", key, err)
		}
	}

	return n, nil
}
