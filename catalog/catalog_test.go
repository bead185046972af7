package catalog

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validateEmail(""))
	assert.NoError(t, validateEmail("ravi@example.edu"))

	err := validateEmail("not-an-address")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "quantity", Reason: "must not be negative"}
	assert.Equal(t, "catalog: invalid quantity: must not be negative", err.Error())
}

func TestBindUpdateRejectsUnknownFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(body string) (*gin.Context, *httptest.ResponseRecorder) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPatch, "/authors/x", strings.NewReader(body))
		return c, w
	}

	t.Run("known fields decode", func(t *testing.T) {
		c, _ := newCtx(`{"name":"Alan Donovan"}`)
		var upd AuthorUpdate
		require.NoError(t, bindUpdate(c, &upd))
		require.NotNil(t, upd.Name)
		assert.Equal(t, "Alan Donovan", *upd.Name)
		assert.Nil(t, upd.Bio)
	})

	t.Run("unknown field is a 400", func(t *testing.T) {
		c, w := newCtx(`{"nmae":"typo"}`)
		var upd AuthorUpdate
		require.Error(t, bindUpdate(c, &upd))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
