package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueueNotifier enqueues messages on a Redis list for a Worker to deliver.
type QueueNotifier struct {
	client *redis.Client
	queue  string
}

// NewQueueNotifier returns a notifier pushing onto queue.
func NewQueueNotifier(client *redis.Client, queue string) *QueueNotifier {
	return &QueueNotifier{client: client, queue: queue}
}

// Send serializes message and pushes it onto the queue.
func (n *QueueNotifier) Send(ctx context.Context, message Message) error {
	if err := validate(message); err != nil {
		return err
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return Fault(fmt.Errorf("encode message: %w", err))
	}
	if err := n.client.LPush(ctx, n.queue, payload).Err(); err != nil {
		return Fault(fmt.Errorf("enqueue message: %w", err))
	}
	return nil
}

// Worker pops queued messages and hands them to a downstream Notifier.
type Worker struct {
	client   *redis.Client
	queue    string
	next     Notifier
	logger   *slog.Logger
	block    time.Duration
	deadline time.Duration
}

// NewWorker creates a worker delivering through next, bounding each delivery by deliveryTimeout.
func NewWorker(client *redis.Client, queue string, next Notifier, logger *slog.Logger, deliveryTimeout time.Duration) *Worker {
	if deliveryTimeout <= 0 {
		deliveryTimeout = 5 * time.Second
	}
	return &Worker{
		client:   client,
		queue:    queue,
		next:     next,
		logger:   logger,
		block:    2 * time.Second,
		deadline: deliveryTimeout,
	}
}

// Run processes messages until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("notification worker started", slog.String("queue", w.queue))
	for {
		if ctx.Err() != nil {
			w.logger.Info("notification worker stopped")
			return
		}
		if _, err := w.processOne(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("notification delivery failed", slog.String("error", err.Error()))
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// processOne waits up to w.block for a message and delivers it. It reports whether a
// message was taken off the queue. Failed deliveries are dropped after logging.
func (w *Worker) processOne(ctx context.Context) (bool, error) {
	res, err := w.client.BRPop(ctx, w.block, w.queue).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dequeue: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return false, fmt.Errorf("dequeue: unexpected reply %v", res)
	}

	var message Message
	if err := json.Unmarshal([]byte(res[1]), &message); err != nil {
		return true, fmt.Errorf("decode message: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.deadline)
	defer cancel()
	if err := w.next.Send(sendCtx, message); err != nil {
		return true, fmt.Errorf("deliver to %s: %w", message.To, err)
	}
	return true, nil
}
