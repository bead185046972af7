package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() User {
	return User{ID: "8c2f1c1e-58a6-4a8b-9a55-0f0b7a6a7d01", UserName: "priya"}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager([]byte("test-secret"), time.Hour)

	raw, err := m.Issue(testUser())
	require.NoError(t, err)

	claims, err := m.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "priya", claims.UserName)
	assert.Equal(t, testUser().ID, claims.Subject)
}

func TestTokenRejections(t *testing.T) {
	m := NewTokenManager([]byte("test-secret"), time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager([]byte("other-secret"), time.Hour)
		raw, err := other.Issue(testUser())
		require.NoError(t, err)

		_, err = m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		issued := NewTokenManager([]byte("test-secret"), time.Hour)
		issued.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		raw, err := issued.Issue(testUser())
		require.NoError(t, err)

		_, err = m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewTokenManager([]byte("test-secret"), time.Hour)

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/protected", func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"userName": claims.UserName})
	})

	t.Run("valid token passes", func(t *testing.T) {
		raw, err := m.Issue(testUser())
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "priya")
	})

	t.Run("missing header is a 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("mangled token is a 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
