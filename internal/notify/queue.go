package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	TypeEmailSend = "email:send"
	QueueMail     = "mail"
)

// Enqueuer is the subset of *asynq.Client used to schedule deliveries.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands messages to the worker through an asynq queue.
type QueueNotifier struct {
	client Enqueuer
}

func NewQueueNotifier(client Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	task := asynq.NewTask(TypeEmailSend, payload)
	info, err := n.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueMail),
		asynq.MaxRetry(5),
	)
	if err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}

	log.Debug().Str("task_id", info.ID).Str("to", msg.To).Msg("email enqueued")
	return nil
}

// NewEmailTaskHandler returns the worker-side handler that delivers queued
// messages through next.
func NewEmailTaskHandler(next Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			// malformed payloads are never retried
			return fmt.Errorf("decode email payload: %v: %w", err, asynq.SkipRetry)
		}
		return next.Send(ctx, msg)
	}
}
