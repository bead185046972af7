package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticChecker(name string, status Status) Checker {
	return NewComponentChecker(name, func(ctx context.Context) (Status, string, map[string]any, error) {
		return status, string(status), nil, nil
	})
}

func TestRegistryWorstStatusWins(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		r := NewRegistry(staticChecker("a", StatusHealthy), staticChecker("b", StatusHealthy))
		overall, results := r.Run(context.Background())
		assert.Equal(t, StatusHealthy, overall)
		assert.Len(t, results, 2)
	})

	t.Run("degraded beats healthy", func(t *testing.T) {
		r := NewRegistry(staticChecker("a", StatusHealthy), staticChecker("b", StatusDegraded))
		overall, _ := r.Run(context.Background())
		assert.Equal(t, StatusDegraded, overall)
	})

	t.Run("unhealthy beats degraded", func(t *testing.T) {
		r := NewRegistry(staticChecker("a", StatusDegraded), staticChecker("b", StatusUnhealthy), staticChecker("c", StatusHealthy))
		overall, _ := r.Run(context.Background())
		assert.Equal(t, StatusUnhealthy, overall)
	})
}

func TestHandlerStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(r *Registry) *httptest.ResponseRecorder {
		router := gin.New()
		router.GET("/healthz", Handler(r))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		return w
	}

	w := serve(NewRegistry(staticChecker("db", StatusHealthy)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = serve(NewRegistry(staticChecker("db", StatusUnhealthy)))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Degraded still serves traffic.
	w = serve(NewRegistry(staticChecker("queue", StatusDegraded)))
	assert.Equal(t, http.StatusOK, w.Code)
}
