package rabbitmq

import (
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrDialRetriesExceeded is returned when every dial attempt failed
	ErrDialRetriesExceeded = errors.New("rabbitmq: maximum dial attempts exceeded")

	// ErrConnectionLost signals a recoverable connection loss (network error,
	// heartbeat timeout); the caller should reconnect with a fresh backoff
	ErrConnectionLost = errors.New("rabbitmq: connection lost")

	// ErrBrokerClosed signals a broker-initiated close or a channel-level
	// protocol error; reconnecting would likely repeat the failure, so the
	// process must stop and rely on external supervision
	ErrBrokerClosed = errors.New("rabbitmq: closed by broker")

	// ErrNotConnected is returned when an operation needs a live connection
	ErrNotConnected = errors.New("rabbitmq: not connected")
)

// ConnectionError wraps a dial or connection failure with context.
type ConnectionError struct {
	Op        string
	URL       string
	Err       error
	Timestamp time.Time
	Attempts  int
}

func (e *ConnectionError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("rabbitmq connection error: %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("rabbitmq connection error: %s failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// PublishError wraps a failed publish to a queue.
type PublishError struct {
	Queue     string
	Err       error
	Timestamp time.Time
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("rabbitmq publish error: queue %q: %v", e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// ConsumerError wraps a failure while setting up or running a consumer.
type ConsumerError struct {
	Queue     string
	Op        string
	Err       error
	Timestamp time.Time
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("rabbitmq consumer error: %s on queue %q: %v", e.Op, e.Queue, e.Err)
}

func (e *ConsumerError) Unwrap() error {
	return e.Err
}

// ClassifyClose maps an AMQP close notification to the pipeline's error
// taxonomy. A nil close means a locally initiated shutdown. Server-initiated
// closes (broker close, channel protocol violation) are fatal; everything
// else (io error, missed heartbeats) is a recoverable connection loss.
func ClassifyClose(amqpErr *amqp.Error) error {
	if amqpErr == nil {
		return nil
	}
	if amqpErr.Server {
		return fmt.Errorf("%w: %s", ErrBrokerClosed, amqpErr.Reason)
	}
	return fmt.Errorf("%w: %s", ErrConnectionLost, amqpErr.Reason)
}

// SanitizeURL strips credentials from an AMQP URL for logging.
func SanitizeURL(url string) string {
	at := -1
	scheme := 0
	for i := 0; i < len(url); i++ {
		if url[i] == '@' {
			at = i
		}
		if i+2 < len(url) && url[i] == ':' && url[i+1] == '/' && url[i+2] == '/' {
			scheme = i + 3
		}
	}
	if at < 0 {
		return url
	}
	return url[:scheme] + "***" + url[at:]
}
