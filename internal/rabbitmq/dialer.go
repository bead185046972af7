package rabbitmq

import (
	"context"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pradatta/libris/internal/reliability"
)

const (
	// DefaultHeartbeat detects half-open connections; matches the broker
	// contract of 600 time-units.
	DefaultHeartbeat = 600 * time.Second

	defaultDialTimeout = 30 * time.Second
)

// Dialer establishes broker connections with a bounded retry policy.
// Exhausting the policy is fatal: the caller is expected to exit non-zero
// and let process supervision take over.
type Dialer struct {
	url         string
	heartbeat   time.Duration
	dialTimeout time.Duration
	policy      reliability.RetryPolicy
	logger      *slog.Logger
}

// DialerOption configures the Dialer
type DialerOption func(*Dialer)

// WithHeartbeat sets the AMQP heartbeat interval
func WithHeartbeat(interval time.Duration) DialerOption {
	return func(d *Dialer) {
		d.heartbeat = interval
	}
}

// WithDialTimeout bounds a single dial attempt
func WithDialTimeout(timeout time.Duration) DialerOption {
	return func(d *Dialer) {
		d.dialTimeout = timeout
	}
}

// WithRetryPolicy sets the dial retry policy
func WithRetryPolicy(policy reliability.RetryPolicy) DialerOption {
	return func(d *Dialer) {
		d.policy = policy
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) DialerOption {
	return func(d *Dialer) {
		d.logger = logger
	}
}

// NewDialer creates a dialer for the given broker URL. The default retry
// policy waits 5s, 10s, 20s, 40s and 80s between attempts and then gives up.
func NewDialer(url string, options ...DialerOption) *Dialer {
	d := &Dialer{
		url:         url,
		heartbeat:   DefaultHeartbeat,
		dialTimeout: defaultDialTimeout,
		policy:      reliability.NewExponentialBackoff(5*time.Second, 0, 2.0, 5),
		logger:      slog.Default(),
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

// Dial connects to the broker, retrying per the policy. Each attempt is
// bounded by the dial timeout so a black-holed broker cannot wedge startup.
func (d *Dialer) Dial(ctx context.Context) (*amqp.Connection, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		conn, err := d.dialOnce()
		if err == nil {
			d.logger.Info("connected to broker",
				"url", SanitizeURL(d.url),
				"attempt", attempt+1)
			return conn, nil
		}

		lastErr = err
		shouldRetry, delay := d.policy.ShouldRetry(attempt, err)
		if !shouldRetry {
			return nil, &ConnectionError{
				Op:        "dial",
				URL:       SanitizeURL(d.url),
				Err:       ErrDialRetriesExceeded,
				Timestamp: time.Now(),
				Attempts:  attempt + 1,
			}
		}

		d.logger.Warn("broker dial failed, retrying",
			"url", SanitizeURL(d.url),
			"attempt", attempt+1,
			"nextRetryIn", delay,
			"error", lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (d *Dialer) dialOnce() (*amqp.Connection, error) {
	connChan := make(chan *amqp.Connection, 1)
	errChan := make(chan error, 1)

	go func() {
		conn, err := amqp.DialConfig(d.url, amqp.Config{
			Heartbeat: d.heartbeat,
		})
		if err != nil {
			errChan <- err
			return
		}
		connChan <- conn
	}()

	select {
	case conn := <-connChan:
		return conn, nil
	case err := <-errChan:
		return nil, err
	case <-time.After(d.dialTimeout):
		return nil, &ConnectionError{
			Op:        "dial",
			URL:       SanitizeURL(d.url),
			Err:       context.DeadlineExceeded,
			Timestamp: time.Now(),
		}
	}
}
