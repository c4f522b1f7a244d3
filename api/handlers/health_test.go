package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticWeeks []string

func (s staticWeeks) ListRunningWeeks() []string {
	return s
}

func TestHealthWithoutDatabase(t *testing.T) {
	h := NewHealthHandler(nil, staticWeeks{"2024-W05"})

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/health/ready", h.Ready)
	r.GET("/health/live", h.Live)

	tests := []struct {
		path       string
		wantStatus string
	}{
		{path: "/health", wantStatus: "healthy"},
		{path: "/health/ready", wantStatus: "ready"},
		{path: "/health/live", wantStatus: "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}

func TestHealthReportsRunningWeeks(t *testing.T) {
	h := NewHealthHandler(nil, staticWeeks{"2024-W05", "2024-W06"})

	r := gin.New()
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2024-W05", "2024-W06"}, resp.Weeks)
	assert.Equal(t, "not configured", resp.Checks["database"])
	assert.Nil(t, resp.Database)
}
