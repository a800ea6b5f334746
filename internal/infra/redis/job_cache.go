package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
)

// JobCache keeps recent job snapshots in Redis so the status poll endpoint
// does not hammer Postgres while a job is running. Misses fall back to the
// repository; the cache is never authoritative.
type JobCache struct {
	client *redClient
	ttl    time.Duration
}

func NewJobCache(client *redClient, ttl time.Duration) *JobCache {
	return &JobCache{client: client, ttl: ttl}
}

func (c *JobCache) Store(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "job:"+job.ID, data, c.ttl)
}

func (c *JobCache) Get(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := c.client.Get(ctx, "job:"+jobID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
