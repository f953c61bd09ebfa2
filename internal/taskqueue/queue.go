package taskqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Config holds queue connection and task policy settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TaskTimeout   time.Duration
	TaskRetries   int
	Concurrency   int
}

func (c Config) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Enqueuer submits image tasks. Tasks are acknowledged only after the
// handler returns, so a crashed worker loses nothing.
type Enqueuer struct {
	client  *asynq.Client
	timeout time.Duration
	retries int
}

func NewEnqueuer(cfg Config) *Enqueuer {
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	retries := cfg.TaskRetries
	if retries <= 0 {
		retries = 3
	}
	return &Enqueuer{
		client:  asynq.NewClient(cfg.redisOpt()),
		timeout: timeout,
		retries: retries,
	}
}

// EnqueueProcessImage queues variant rendering for one uploaded photo.
func (e *Enqueuer) EnqueueProcessImage(ctx context.Context, p ProcessImagePayload) (string, error) {
	task, err := NewProcessImageTask(p)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueImages),
		asynq.MaxRetry(e.retries),
		asynq.Timeout(e.timeout),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeProcessImage, err)
	}
	return info.ID, nil
}

// EnqueueBulkReprocess queues a whole-apartment rebuild.
func (e *Enqueuer) EnqueueBulkReprocess(ctx context.Context, p BulkReprocessPayload) (string, error) {
	task, err := NewBulkReprocessTask(p)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueImages),
		asynq.MaxRetry(1),
		asynq.Timeout(30*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeBulkReprocess, err)
	}
	return info.ID, nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// NewServer builds the worker-side asynq server for the images queue.
func NewServer(cfg Config) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	return asynq.NewServer(cfg.redisOpt(), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueImages: 1,
		},
	})
}
