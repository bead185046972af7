package rabbitmq

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueConfig describes the single work queue the pipeline uses.
type QueueConfig struct {
	Name          string
	PrefetchCount int
}

// OpenChannel opens a channel on conn, declares the durable queue
// (idempotent, created if absent) and applies the prefetch limit.
// The queue survives broker restarts; messages published to it are
// expected to be persistent.
func OpenChannel(conn *amqp.Connection, cfg QueueConfig) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, &ConnectionError{
			Op:        "channel",
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	if _, err := ch.QueueDeclare(
		cfg.Name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		return nil, &ConsumerError{
			Queue:     cfg.Name,
			Op:        "declare",
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			ch.Close()
			return nil, &ConsumerError{
				Queue:     cfg.Name,
				Op:        "qos",
				Err:       err,
				Timestamp: time.Now(),
			}
		}
	}

	return ch, nil
}
