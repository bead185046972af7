// Package health runs liveness checks for the api binary's /healthz
// endpoint: the MySQL pool, the broker connection and the notification
// queue itself.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Status of a single check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one checker run.
type CheckResult struct {
	Name      string         `json:"name"`
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"durationMs"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// Checker is one probe of a dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Registry runs a fixed set of checkers.
type Registry struct {
	checkers []Checker
}

// NewRegistry builds a registry over the given checkers.
func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

// Run executes every checker and reports the worst status seen.
func (r *Registry) Run(ctx context.Context) (Status, []CheckResult) {
	overall := StatusHealthy
	results := make([]CheckResult, 0, len(r.checkers))
	for _, c := range r.checkers {
		res := c.Check(ctx)
		results = append(results, res)
		switch res.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}
	return overall, results
}

// Handler serves the registry as a gin endpoint. Unhealthy maps to 503
// so load balancers can eject the instance.
func Handler(r *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		overall, results := r.Run(c.Request.Context())
		code := http.StatusOK
		if overall == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": overall, "checks": results})
	}
}
