package scheduler

import (
	"context"
	"fmt"

	"leadflow_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// NewRedisConnOpt builds the asynq connection options from REDIS_URL.
func NewRedisConnOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	parsed, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}

	opt := asynq.RedisClientOpt{
		Addr:      parsed.Addr,
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: parsed.TLSConfig,
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return opt, nil
}

// Client enqueues scheduled tasks.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := NewRedisConnOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
	}, nil
}

func (c *Client) EnqueueCallCheck(ctx context.Context, tenantID uuid.UUID) error {
	task, err := NewCallCheckTask(tenantID)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("enqueue call check for tenant %s: %w", tenantID, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
