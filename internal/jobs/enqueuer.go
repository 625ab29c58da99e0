package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Queue is the asynq queue all cache tasks run on.
const Queue = "cache"

// AsynqEnqueuer enqueues cache tasks on the Redis-backed queue. Tasks are
// enqueued with no retries: a failed populate or refill just leaves the pool
// staler and the next cycle attempts it again.
type AsynqEnqueuer struct {
	client *asynq.Client
}

func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client}
}

func (e *AsynqEnqueuer) Enqueue(ctx context.Context, taskType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	_, err = e.client.EnqueueContext(ctx, asynq.NewTask(taskType, b),
		asynq.Queue(Queue), asynq.MaxRetry(0))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
