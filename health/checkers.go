package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DatabaseChecker pings the MySQL pool.
type DatabaseChecker struct {
	db *sqlx.DB
}

// NewDatabaseChecker creates a new database health checker
func NewDatabaseChecker(db *sqlx.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (c *DatabaseChecker) Name() string {
	return "mysql"
}

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name(),
		Timestamp: start,
		Details:   make(map[string]any),
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.db.PingContext(pingCtx); err != nil {
		result.Status = StatusUnhealthy
		result.Message = "Database ping failed"
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	stats := c.db.Stats()
	result.Status = StatusHealthy
	result.Message = "Database is reachable"
	result.Duration = time.Since(start)
	result.Details["open_connections"] = stats.OpenConnections
	result.Details["in_use"] = stats.InUse
	result.Details["response_time_ms"] = result.Duration.Milliseconds()

	return result
}

// BrokerChecker verifies the AMQP connection can still open channels.
type BrokerChecker struct {
	conn *amqp.Connection
}

// NewBrokerChecker creates a new broker health checker
func NewBrokerChecker(conn *amqp.Connection) *BrokerChecker {
	return &BrokerChecker{conn: conn}
}

func (c *BrokerChecker) Name() string {
	return "rabbitmq"
}

func (c *BrokerChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name(),
		Timestamp: start,
		Details:   make(map[string]any),
	}

	if c.conn == nil || c.conn.IsClosed() {
		result.Status = StatusUnhealthy
		result.Message = "Connection is closed"
		result.Duration = time.Since(start)
		return result
	}

	// Opening a channel exercises the full round trip to the broker.
	ch, err := c.conn.Channel()
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = "Failed to create channel"
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	defer ch.Close()

	result.Status = StatusHealthy
	result.Message = "Connection is healthy"
	result.Duration = time.Since(start)
	result.Details["connection_open"] = true
	result.Details["response_time_ms"] = result.Duration.Milliseconds()

	return result
}

// QueueChecker verifies the notification queue exists and is not backed up.
type QueueChecker struct {
	queueName string
	conn      *amqp.Connection
}

// NewQueueChecker creates a new queue health checker
func NewQueueChecker(queueName string, conn *amqp.Connection) *QueueChecker {
	return &QueueChecker{queueName: queueName, conn: conn}
}

func (c *QueueChecker) Name() string {
	return fmt.Sprintf("queue_%s", c.queueName)
}

func (c *QueueChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name(),
		Timestamp: start,
		Details:   make(map[string]any),
	}

	if c.conn == nil || c.conn.IsClosed() {
		result.Status = StatusUnhealthy
		result.Message = "Connection is closed"
		result.Duration = time.Since(start)
		return result
	}

	ch, err := c.conn.Channel()
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = "Failed to create channel"
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	defer ch.Close()

	queue, err := ch.QueueInspect(c.queueName)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("Queue %s not accessible", c.queueName)
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("Queue %s is accessible", c.queueName)
	result.Duration = time.Since(start)
	result.Details["queue_name"] = queue.Name
	result.Details["message_count"] = queue.Messages
	result.Details["consumer_count"] = queue.Consumers
	result.Details["response_time_ms"] = result.Duration.Milliseconds()

	// A deep backlog means delivery is stalled even if the broker is up.
	if queue.Messages > 10000 {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("Queue %s has high message count", c.queueName)
	}

	return result
}

// ComponentChecker allows checking custom components
type ComponentChecker struct {
	name    string
	checker func(ctx context.Context) (Status, string, map[string]any, error)
}

// NewComponentChecker creates a checker for custom components
func NewComponentChecker(name string, checker func(ctx context.Context) (Status, string, map[string]any, error)) *ComponentChecker {
	return &ComponentChecker{
		name:    name,
		checker: checker,
	}
}

func (c *ComponentChecker) Name() string {
	return c.name
}

func (c *ComponentChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name(),
		Timestamp: start,
		Details:   make(map[string]any),
	}

	status, message, details, err := c.checker(ctx)

	result.Status = status
	result.Message = message
	if details != nil {
		result.Details = details
	}
	if err != nil {
		result.Error = err.Error()
	}
	result.Duration = time.Since(start)

	return result
}
