package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pradatta/libris/internal/rabbitmq"
)

const (
	// DefaultPrefetch bounds unacknowledged deliveries in flight, giving
	// basic backpressure and a memory ceiling.
	DefaultPrefetch = 10

	defaultSendTimeout = 60 * time.Second
)

// Worker is the long-running queue consumer. It owns all connection
// resilience: dial retries with backoff, reconnection on recoverable
// losses, and termination on broker-initiated closes so that external
// supervision restarts the process fresh.
type Worker struct {
	dialer      *rabbitmq.Dialer
	mailer      Mailer
	queue       string
	prefetch    int
	sendTimeout time.Duration
	logger      *slog.Logger
}

// WorkerOption configures the Worker
type WorkerOption func(*Worker)

// WithQueue overrides the queue name
func WithQueue(queue string) WorkerOption {
	return func(w *Worker) {
		w.queue = queue
	}
}

// WithPrefetch sets the prefetch count
func WithPrefetch(count int) WorkerOption {
	return func(w *Worker) {
		w.prefetch = count
	}
}

// WithSendTimeout bounds a single mail send
func WithSendTimeout(timeout time.Duration) WorkerOption {
	return func(w *Worker) {
		w.sendTimeout = timeout
	}
}

// WithWorkerLogger sets the logger
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewWorker creates a worker consuming from the notification queue.
func NewWorker(dialer *rabbitmq.Dialer, mailer Mailer, options ...WorkerOption) *Worker {
	w := &Worker{
		dialer:      dialer,
		mailer:      mailer,
		queue:       DefaultQueue,
		prefetch:    DefaultPrefetch,
		sendTimeout: defaultSendTimeout,
		logger:      slog.Default(),
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

// Run blocks until the context is cancelled (returns nil) or a fatal
// error occurs (returns non-nil; the process should exit non-zero).
// Recoverable connection losses restart the dial loop with a fresh
// backoff sequence.
func (w *Worker) Run(ctx context.Context) error {
	for {
		conn, err := w.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = w.consume(ctx, conn)
		conn.Close()

		switch {
		case err == nil:
			w.logger.Info("worker stopped")
			return nil
		case errors.Is(err, rabbitmq.ErrConnectionLost):
			w.logger.Warn("connection lost, reconnecting", "error", err)
			continue
		default:
			return err
		}
	}
}

// consume runs one delivery loop on a live connection. Deliveries are
// handled concurrently up to the prefetch bound; each delivery acks or
// nacks independently of its neighbours.
func (w *Worker) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := rabbitmq.OpenChannel(conn, rabbitmq.QueueConfig{
		Name:          w.queue,
		PrefetchCount: w.prefetch,
	})
	if err != nil {
		return err
	}

	deliveries, err := ch.Consume(
		w.queue,
		"",    // generated consumer tag
		false, // manual acknowledgment
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return &rabbitmq.ConsumerError{
			Queue:     w.queue,
			Op:        "consume",
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	connClose := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClose := ch.NotifyClose(make(chan *amqp.Error, 1))
	cancelled := ch.NotifyCancel(make(chan string, 1))

	w.logger.Info("consuming",
		"queue", w.queue,
		"prefetch", w.prefetch)

	var inflight sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			// Stop accepting deliveries; in-flight sends finish, anything
			// undelivered stays un-acked and is redelivered to the next
			// consumer instance.
			ch.Close()
			inflight.Wait()
			return nil

		case amqpErr := <-connClose:
			inflight.Wait()
			return rabbitmq.ClassifyClose(amqpErr)

		case amqpErr := <-chClose:
			inflight.Wait()
			return rabbitmq.ClassifyClose(amqpErr)

		case tag := <-cancelled:
			inflight.Wait()
			w.logger.Error("consumer cancelled by broker", "consumerTag", tag)
			return rabbitmq.ErrBrokerClosed

		case d, ok := <-deliveries:
			if !ok {
				// Wait for the close notification to classify the loss.
				deliveries = nil
				continue
			}
			inflight.Add(1)
			go func(d amqp.Delivery) {
				defer inflight.Done()
				w.handleDelivery(ctx, d)
			}(d)
		}
	}
}

// handleDelivery processes one message: poison payloads are acknowledged
// and dropped (redelivery cannot fix a structurally invalid message),
// transient send failures are nacked with requeue for at-least-once
// delivery, successful sends are acknowledged.
func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	msg, err := Decode(d.Body)
	if err != nil {
		w.logger.Error("dropping poison message",
			"messageId", d.MessageId,
			"body", string(d.Body),
			"error", err)
		if ackErr := d.Ack(false); ackErr != nil {
			w.logger.Error("failed to ack poison message", "error", ackErr)
		}
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	if err := w.mailer.Send(sendCtx, msg.Email, msg.Subject, msg.Message); err != nil {
		w.logger.Warn("send failed, requeueing",
			"messageId", d.MessageId,
			"recipient", msg.Email,
			"error", err)
		if nackErr := d.Nack(false, true); nackErr != nil {
			w.logger.Error("failed to nack message", "error", nackErr, "originalError", err)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		w.logger.Error("failed to ack message", "error", ackErr)
		return
	}

	w.logger.Info("notification delivered",
		"messageId", d.MessageId,
		"recipient", msg.Email)
}
