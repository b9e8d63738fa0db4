package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishLS3/Placify-sub001/internal/services"
	"github.com/anishLS3/Placify-sub001/internal/workflow"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, body map[string]interface{})
	}{
		{
			name:   "validation",
			err:    &services.ValidationError{Field: "notes", Message: "too short"},
			status: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "notes", body["field"])
			},
		},
		{
			name:   "illegal transition",
			err:    &workflow.IllegalTransitionError{Kind: workflow.KindExperience, From: "approved", To: "pending", Allowed: []string{"rejected"}},
			status: http.StatusConflict,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, []interface{}{"rejected"}, body["allowed"])
			},
		},
		{
			name:   "invalid state",
			err:    &services.InvalidStateError{Status: "pending", Message: "not approved"},
			status: http.StatusConflict,
		},
		{
			name:   "concurrent modification",
			err:    services.ErrConcurrentModification,
			status: http.StatusConflict,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, true, body["retryable"])
			},
		},
		{
			name:   "not found",
			err:    fmt.Errorf("experience x: %w", services.ErrNotFound),
			status: http.StatusNotFound,
		},
		{
			name:   "gate",
			err:    &services.GateRejectedError{Reason: "too many links"},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "store error text is hidden",
			err:    &services.StoreError{Op: "update experience", Err: errors.New("database is locked")},
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.NotContains(t, body["error"], "locked")
			},
		},
		{
			name:   "unknown",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestParseRetention(t *testing.T) {
	d, err := parseRetention("30d")
	require.NoError(t, err)
	assert.Equal(t, "720h0m0s", d.String())

	d, err = parseRetention("36h")
	require.NoError(t, err)
	assert.Equal(t, "36h0m0s", d.String())

	_, err = parseRetention("soon")
	var ve *services.ValidationError
	assert.ErrorAs(t, err, &ve)
}
