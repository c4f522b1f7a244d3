package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

const maxResponseBytes = 32 << 20

type HTTPCollector struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

type HTTPCollectorConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPCollector(cfg HTTPCollectorConfig) *HTTPCollector {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HTTPCollector{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		timeout:  timeout,
	}
}

// feedResponse matches the payload of the reading feed
type feedResponse struct {
	WeekID   string        `json:"week_id"`
	Readings []feedReading `json:"readings"`
}

type feedReading struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Day       models.Day `json:"day"`
	Hour      *int       `json:"hour"`
	Occupancy int        `json:"occupancy"`
}

func (c *HTTPCollector) Collect(ctx context.Context, weekID string) ([]models.OccupancyReading, error) {
	u := fmt.Sprintf("%s/weeks/%s/readings", c.endpoint, url.PathEscape(weekID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrCollectionFailed, err)
	}

	req.Header.Set("Accept", "application/json")

	logger.WithWeek(weekID).Debugf("Collecting readings from %s", u)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrWeekNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrCollectionFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrCollectionFailed, err)
	}

	var feed feedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if feed.WeekID != "" && feed.WeekID != weekID {
		return nil, fmt.Errorf("%w: asked for %s, got %s", ErrInvalidResponse, weekID, feed.WeekID)
	}

	readings := convertReadings(feed.Readings)

	logger.WithWeek(weekID).Debugf("Collected %d readings", len(readings))

	return readings, nil
}

// convertReadings fills day and hour from the timestamp when the feed omits them.
func convertReadings(in []feedReading) []models.OccupancyReading {
	readings := make([]models.OccupancyReading, len(in))
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
		readings[i] = reading
	}
	return readings
}

func (c *HTTPCollector) HealthCheck(ctx context.Context) error {
	u := fmt.Sprintf("%s/health", c.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *HTTPCollector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
