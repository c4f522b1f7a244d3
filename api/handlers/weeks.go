package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/events"
	"github.com/OldStager01/pool-occupancy/internal/heatmap"
	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/service"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
	"github.com/OldStager01/pool-occupancy/pkg/validation"
)

const defaultMaxReadings = 10000

type WeeksHandler struct {
	svc         *service.Service
	publisher   *events.Publisher
	maxReadings int
}

// NewWeeksHandler serves summaries, charts and heatmaps. The publisher may be nil,
// in which case ingested readings are not announced to subscribers.
func NewWeeksHandler(svc *service.Service, publisher *events.Publisher, maxReadings int) *WeeksHandler {
	if maxReadings <= 0 {
		maxReadings = defaultMaxReadings
	}
	return &WeeksHandler{
		svc:         svc,
		publisher:   publisher,
		maxReadings: maxReadings,
	}
}

type SummaryResponse struct {
	WeekID      string                          `json:"week_id"`
	Days        []models.Day                    `json:"days"`
	Hours       []int                           `json:"hours"`
	Summaries   []models.HourlyOccupancySummary `json:"summaries"`
	Accepted    int                             `json:"accepted"`
	Rejected    []models.RejectedReading        `json:"rejected"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

type DayResponse struct {
	WeekID    string                          `json:"week_id"`
	Day       models.Day                      `json:"day"`
	Summaries []models.HourlyOccupancySummary `json:"summaries"`
}

type DomainResponse struct {
	Days       []models.Day     `json:"days"`
	Hours      []int            `json:"hours"`
	ValidHours map[string][]int `json:"valid_hours"`
}

// IngestReading mirrors models.OccupancyReading but lets clients omit day and hour,
// which are then taken from the timestamp.
type IngestReading struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Day       models.Day `json:"day"`
	Hour      *int       `json:"hour"`
	Occupancy int        `json:"occupancy"`
}

type IngestRequest struct {
	Readings []IngestReading `json:"readings" binding:"required"`
}

func (h *WeeksHandler) report(c *gin.Context) (*service.WeekReport, bool) {
	weekID := c.Param("id")

	report, err := h.svc.Week(c.Request.Context(), weekID)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidWeekID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		logger.ErrorCtxf(c.Request.Context(), "Failed to build report for %s: %v", weekID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load week"})
		return nil, false
	}
	return report, true
}

func (h *WeeksHandler) day(c *gin.Context) (models.Day, bool) {
	day, err := models.ParseDay(c.Param("day"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	if !h.svc.Domain().HasDay(day) {
		c.JSON(http.StatusNotFound, gin.H{"error": day.String() + " is not a pool day"})
		return 0, false
	}
	return day, true
}

func (h *WeeksHandler) GetSummary(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		WeekID:      report.WeekID,
		Days:        report.Week.Days(),
		Hours:       h.svc.Domain().Hours(),
		Summaries:   report.Week.All(),
		Accepted:    report.Accepted,
		Rejected:    aggregator.Rejections(report.Rejected),
		GeneratedAt: report.GeneratedAt,
	})
}

func (h *WeeksHandler) GetDay(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	report, ok := h.report(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, DayResponse{
		WeekID:    report.WeekID,
		Day:       day,
		Summaries: report.Week.Day(day),
	})
}

func (h *WeeksHandler) GetChart(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	report, ok := h.report(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, heatmap.DayChart(day, report.Week.Day(day)))
}

func (h *WeeksHandler) GetRawHeatmap(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, heatmap.RawGrid(report.Week, h.svc.Domain(), h.svc.Classifier()))
}

func (h *WeeksHandler) GetUtilizationHeatmap(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, heatmap.UtilizationGrid(report.Week, h.svc.Domain(), h.svc.Classifier()))
}

func (h *WeeksHandler) GetLegend(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"thresholds": h.svc.Classifier().Thresholds(),
		"legend":     h.svc.Classifier().Legend(),
	})
}

func (h *WeeksHandler) GetDomain(c *gin.Context) {
	c.JSON(http.StatusOK, domainResponse(h.svc.Domain()))
}

func domainResponse(d *timedomain.Domain) DomainResponse {
	resp := DomainResponse{
		Days:       d.Days(),
		Hours:      d.Hours(),
		ValidHours: make(map[string][]int),
	}
	for _, day := range resp.Days {
		resp.ValidHours[day.String()] = d.ValidHours(day)
	}
	return resp
}

func (h *WeeksHandler) PostReadings(c *gin.Context) {
	weekID := c.Param("id")
	if err := validation.ValidateWeekID(weekID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := validation.ValidateReadingCount(len(req.Readings), h.maxReadings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	readings := toReadings(req.Readings)
	result, err := h.svc.Ingest(c.Request.Context(), weekID, readings)
	switch {
	case errors.Is(err, service.ErrNoReadingSink):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrNoValidReadings):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    err.Error(),
			"rejected": result.Rejected,
		})
		return
	case err != nil:
		logger.ErrorCtxf(c.Request.Context(), "Failed to ingest readings for %s: %v", weekID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store readings"})
		return
	}

	if h.publisher != nil {
		h.publisher.ReadingsRejected(weekID, result.Rejected)
		h.announce(c.Request.Context(), weekID)
	}

	c.JSON(http.StatusCreated, result)
}

// announce pushes the recomputed week to subscribers. Failures only cost the push.
func (h *WeeksHandler) announce(ctx context.Context, weekID string) {
	report, err := h.svc.Week(ctx, weekID)
	if err != nil {
		logger.WarnCtxf(ctx, "Failed to refresh %s after ingest: %v", weekID, err)
		return
	}
	h.publisher.SummaryRefreshed(report.Summary())
}

func toReadings(in []IngestReading) []models.OccupancyReading {
	out := make([]models.OccupancyReading, len(in))
	for i, r := range in {
		reading := models.OccupancyReading{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Day:       r.Day,
			Occupancy: r.Occupancy,
		}
		if reading.Day == 0 {
			reading.Day = models.DayOf(r.Timestamp)
		}
		if r.Hour != nil {
			reading.Hour = *r.Hour
		} else {
			reading.Hour = r.Timestamp.Hour()
		}
		out[i] = reading
	}
	return out
}
