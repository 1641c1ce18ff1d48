package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"foodshare-api/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError_RendersEnvelope(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"conflict", apperror.Conflict("Donation is not available"), http.StatusConflict, "Donation is not available"},
		{"foreign", errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.True(t, c.IsAborted())
			assert.Len(t, c.Errors, 1)

			var env Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tc.message, env.Message)
			assert.NotContains(t, w.Body.String(), "db down")
		})
	}
}

func TestBind_FieldErrors(t *testing.T) {
	UseJSONFieldNames()
	type body struct {
		Email string `json:"email" binding:"required,email"`
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var b body
	assert.False(t, Bind(c, &b))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Validation failed", env.Message)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "email", env.Errors[0].Field)
	assert.Equal(t, "must be a valid email address", env.Errors[0].Message)
}

func TestList_IncludesCount(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	List(c, http.StatusOK, []string{}, 0)

	assert.JSONEq(t, `{"success":true,"count":0,"data":[]}`, w.Body.String())
}
