package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/pool-occupancy/pkg/database"
)

// WeekLister reports the weeks with a running refresh pipeline.
type WeekLister interface {
	ListRunningWeeks() []string
}

type HealthHandler struct {
	db    *database.DB
	weeks WeekLister
}

// NewHealthHandler accepts a nil db for deployments without storage.
func NewHealthHandler(db *database.DB, weeks WeekLister) *HealthHandler {
	return &HealthHandler{db: db, weeks: weeks}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Weeks     []string          `json:"weeks,omitempty"`
	Database  *DatabaseStats    `json:"database,omitempty"`
}

type DatabaseStats struct {
	OpenConnections int `json:"open_connections"`
	InUse           int `json:"in_use"`
	Idle            int `json:"idle"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"
	resp := HealthResponse{}

	if h.db == nil {
		checks["database"] = "not configured"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "healthy"

		missing, err := h.db.MissingTables(ctx, database.RequiredTables...)
		switch {
		case err != nil:
			checks["schema"] = "unknown: " + err.Error()
		case len(missing) > 0:
			checks["schema"] = "missing " + strings.Join(missing, ", ")
			status = "unhealthy"
		default:
			checks["schema"] = "healthy"
		}

		stats := h.db.Stats()
		resp.Database = &DatabaseStats{
			OpenConnections: stats.OpenConnections,
			InUse:           stats.InUse,
			Idle:            stats.Idle,
		}
	}

	if h.weeks != nil {
		resp.Weeks = h.weeks.ListRunningWeeks()
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	resp.Status = status
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	resp.Checks = checks
	c.JSON(statusCode, resp)
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:    "not ready",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
