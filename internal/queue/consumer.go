package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// FeedbackHandler processes a finished run, typically by asking the
// instructor for feedback. A handler error is logged, never retried:
// feedback is best-effort.
type FeedbackHandler func(ctx context.Context, event *RunFinishedEvent) error

// Consumer consumes run-finished events from the queue
type Consumer struct {
	conn       *Connection
	handler    FeedbackHandler
	workers    int
	prefetch   int
	timeout    time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int           // Number of concurrent workers
	Prefetch int           // Prefetch count per worker
	Timeout  time.Duration // Per-event handler timeout
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  3,
		Prefetch: 1, // Process one at a time per worker for fairness
		Timeout:  30 * time.Second,
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler FeedbackHandler, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Consumer{
		conn:     conn,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.Timeout,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	// Set QoS (prefetch)
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	// Start consuming
	msgs, err := ch.Consume(
		RunFinishedQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting feedback consumer", "workers", c.workers, "prefetch", c.prefetch)

	// Start worker goroutines
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

// worker processes messages from the queue
func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	slog.Info("worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage handles a single message
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	start := time.Now()

	var event RunFinishedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		slog.Error("failed to unmarshal run-finished event",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages
		_ = msg.Reject(false)
		return
	}

	slog.Info("processing run-finished event",
		"worker_id", workerID,
		"event_id", event.ID,
		"run_id", event.RunID,
		"lesson_id", event.LessonID,
	)

	eventCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.handler(eventCtx, &event)
	duration := time.Since(start)

	if err != nil {
		// Feedback is best-effort: log and move on, no requeue
		slog.Warn("feedback generation failed",
			"worker_id", workerID,
			"event_id", event.ID,
			"run_id", event.RunID,
			"error", err,
			"duration", duration,
		)
	} else {
		slog.Info("feedback generated",
			"worker_id", workerID,
			"event_id", event.ID,
			"run_id", event.RunID,
			"duration", duration,
		)
	}

	// Acknowledge message
	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message",
			"worker_id", workerID,
			"event_id", event.ID,
			"error", err,
		)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}

// StepHandler handles a step completion event
type StepHandler func(event *StepCompletedEvent)

// StepConsumer consumes step completions recorded through the API so
// the daemon can bring live state, like the instructor session, in
// line with the progress log.
type StepConsumer struct {
	conn       *Connection
	handler    StepHandler
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewStepConsumer creates a step completion consumer
func NewStepConsumer(conn *Connection, handler StepHandler) *StepConsumer {
	return &StepConsumer{conn: conn, handler: handler}
}

// Start begins consuming step completions
func (sc *StepConsumer) Start(ctx context.Context) error {
	ctx, sc.cancelFunc = context.WithCancel(ctx)

	ch := sc.conn.Channel()

	msgs, err := ch.Consume(
		StepCompletedQueueName,
		"",    // consumer tag
		true,  // auto-ack (completions are fire-and-forget)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start step consumer: %w", err)
	}

	sc.wg.Add(1)
	go sc.consume(ctx, msgs)

	return nil
}

func (sc *StepConsumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer sc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var event StepCompletedEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				slog.Error("failed to unmarshal step-completed event", "error", err)
				continue
			}

			sc.handler(&event)
		}
	}
}

// Stop stops the step consumer
func (sc *StepConsumer) Stop() {
	if sc.cancelFunc != nil {
		sc.cancelFunc()
	}
	sc.wg.Wait()
}
