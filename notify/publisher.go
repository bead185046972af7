package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pradatta/libris/internal/rabbitmq"
)

// DefaultQueue is the logical identifier of the durable notification queue.
const DefaultQueue = "transaction_email_queue"

const defaultPublishTimeout = 10 * time.Second

// Publisher serializes notification messages onto the durable queue with
// persistent delivery mode, so messages survive a broker restart.
type Publisher struct {
	ch             *amqp.Channel
	queue          string
	publishTimeout time.Duration
	logger         *slog.Logger
}

// PublisherOption configures the Publisher
type PublisherOption func(*Publisher)

// WithPublisherQueue overrides the queue name
func WithPublisherQueue(queue string) PublisherOption {
	return func(p *Publisher) {
		p.queue = queue
	}
}

// WithPublishTimeout bounds a single publish call
func WithPublishTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.publishTimeout = timeout
	}
}

// WithPublisherLogger sets the logger
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher opens a channel on conn and declares the durable queue.
func NewPublisher(conn *amqp.Connection, options ...PublisherOption) (*Publisher, error) {
	p := &Publisher{
		queue:          DefaultQueue,
		publishTimeout: defaultPublishTimeout,
		logger:         slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	ch, err := rabbitmq.OpenChannel(conn, rabbitmq.QueueConfig{Name: p.queue})
	if err != nil {
		return nil, err
	}
	p.ch = ch

	return p, nil
}

// Publish enqueues one notification message. A broker failure is surfaced
// as a *rabbitmq.PublishError; callers treat it as a per-item failure, not
// a fatal pipeline failure.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	body, err := msg.Encode()
	if err != nil {
		return err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}

	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			MessageId:    uuid.NewString(),
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return &rabbitmq.PublishError{
			Queue:     p.queue,
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	p.logger.Debug("published notification",
		"queue", p.queue,
		"recipient", msg.Email)
	return nil
}

// Close releases the channel. The connection is owned by the caller.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
