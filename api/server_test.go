package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/pool-occupancy/api/handlers"
	"github.com/OldStager01/pool-occupancy/api/websocket"
	"github.com/OldStager01/pool-occupancy/internal/aggregator"
	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/internal/orchestrator"
	"github.com/OldStager01/pool-occupancy/internal/service"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/config"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

const testWeek = "2024-W05"

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryStore struct {
	mu       sync.Mutex
	readings map[string][]models.OccupancyReading
}

func (m *memoryStore) ReadingsForWeek(ctx context.Context, weekID string) ([]models.OccupancyReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.OccupancyReading(nil), m.readings[weekID]...), nil
}

func (m *memoryStore) InsertBatch(ctx context.Context, weekID string, readings []models.OccupancyReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings[weekID] = append(m.readings[weekID], readings...)
	return nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	store := &memoryStore{readings: make(map[string][]models.OccupancyReading)}
	m := metrics.New()
	svc := service.New(service.Config{
		Engine:  aggregator.New(aggregator.Config{Domain: timedomain.Default(), Capacity: capacity.Flat(50)}),
		Source:  store,
		Sink:    store,
		Metrics: m,
	})

	cfg := &config.Config{Events: config.EventsConfig{BufferSize: 100}}
	orch := orchestrator.New(cfg, svc, nil, m)
	require.NoError(t, orch.Start())

	server := NewServer(config.APIConfig{RateLimit: 1000, RateBurst: 1000, MaxBodyBytes: 1 << 20}, config.WebSocketConfig{}, Dependencies{
		Service:   svc,
		Pipelines: orch,
		Metrics:   m,
	})
	ts := httptest.NewServer(server.Router())

	t.Cleanup(func() {
		ts.Close()
		_ = server.Shutdown(context.Background())
		orch.Stop()
	})
	return server, ts
}

func TestServer_Routes(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/health", http.StatusOK},
		{"/health/live", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/legend", http.StatusOK},
		{"/domain", http.StatusOK},
		{"/weeks/" + testWeek + "/summary", http.StatusOK},
		{"/weeks/" + testWeek + "/days/Monday", http.StatusOK},
		{"/weeks/" + testWeek + "/chart/Sunday", http.StatusOK},
		{"/weeks/" + testWeek + "/heatmap/raw", http.StatusOK},
		{"/weeks/" + testWeek + "/heatmap/utilization", http.StatusOK},
		{"/weeks/bogus/summary", http.StatusBadRequest},
		{"/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
		})
	}
}

func TestServer_IngestPushesSummaryToSubscribers(t *testing.T) {
	server, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?week_id=" + testWeek
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() websocket.OutgoingMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg websocket.OutgoingMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	// The initial snapshot of an empty week.
	assert.Equal(t, websocket.MessageTypeSummary, read().Type)
	require.Eventually(t, func() bool { return server.WebSocketHub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	monday9 := time.Date(2024, time.January, 29, 9, 15, 0, 0, time.UTC)
	body, err := json.Marshal(handlers.IngestRequest{Readings: []handlers.IngestReading{
		{Timestamp: monday9, Occupancy: 20},
		{Timestamp: monday9.Add(30 * time.Minute), Occupancy: 30},
		{Timestamp: monday9, Occupancy: -5},
	}})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/weeks/"+testWeek+"/readings", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Rejections and the refreshed summary arrive in publish order.
	assert.Equal(t, websocket.MessageTypeRejected, read().Type)

	msg := read()
	require.Equal(t, websocket.MessageTypeSummary, msg.Type)
	data, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	var summary models.WeekSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 2, summary.Accepted)

	for _, s := range summary.Summaries {
		if s.Day == models.Monday && s.Hour == 9 {
			assert.Equal(t, 25.0, s.AverageOccupancy)
			assert.Equal(t, 50.0, s.UtilizationRate)
			assert.Equal(t, 25.0, s.RemainingCapacity)
		}
	}
}
