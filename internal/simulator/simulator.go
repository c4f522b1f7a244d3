package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/timedomain"
	"github.com/OldStager01/pool-occupancy/pkg/models"
	"github.com/OldStager01/pool-occupancy/pkg/validation"
)

type Config struct {
	Port           int
	Domain         *timedomain.Domain
	BaseOccupancy  float64
	Variance       float64
	SamplesPerHour int
	Pattern        string
}

type Simulator struct {
	config     Config
	pool       *PoolSim
	httpServer *http.Server
}

// ReadingsResponse is the feed payload served per week.
type ReadingsResponse struct {
	WeekID      string                    `json:"week_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Pattern     string                    `json:"pattern"`
	Readings    []models.OccupancyReading `json:"readings"`
}

func New(cfg Config) *Simulator {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}

	pool := NewPoolSim(PoolSimConfig{
		Domain:         cfg.Domain,
		BaseOccupancy:  cfg.BaseOccupancy,
		Variance:       cfg.Variance,
		SamplesPerHour: cfg.SamplesPerHour,
	})
	pool.SetPattern(ParsePattern(cfg.Pattern))

	return &Simulator{
		config: cfg,
		pool:   pool,
	}
}

func (s *Simulator) Pool() *PoolSim {
	return s.pool
}

func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Simulator) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", cors(s.healthHandler))
	mux.HandleFunc("GET /weeks/{id}/readings", cors(s.readingsHandler))
	mux.HandleFunc("GET /status", cors(s.statusHandler))
	mux.HandleFunc("POST /pattern", cors(s.patternHandler))
	mux.HandleFunc("POST /spike", cors(s.spikeHandler))
	mux.HandleFunc("DELETE /spike", cors(s.clearSpikesHandler))

	return mux
}

func (s *Simulator) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("Simulator listening on %s", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	return nil
}

func (s *Simulator) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Simulator) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "pool-simulator",
	})
}

func (s *Simulator) readingsHandler(w http.ResponseWriter, r *http.Request) {
	weekID := r.PathValue("id")
	if err := validation.ValidateWeekID(weekID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	readings, err := s.pool.Week(weekID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.WithWeek(weekID).Debugf("Serving %d simulated readings", len(readings))

	writeJSON(w, http.StatusOK, ReadingsResponse{
		WeekID:      weekID,
		GeneratedAt: time.Now().UTC(),
		Pattern:     s.pool.GetPattern(),
		Readings:    readings,
	})
}

func (s *Simulator) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pool.Status())
}

type PatternRequest struct {
	Pattern       string   `json:"pattern"` // "steady", "weekday_peak", "weekend", "random"
	BaseOccupancy *float64 `json:"base_occupancy"`
	Variance      *float64 `json:"variance"`
}

func (s *Simulator) patternHandler(w http.ResponseWriter, r *http.Request) {
	var req PatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Pattern != "" {
		s.pool.SetPattern(ParsePattern(req.Pattern))
	}
	if req.BaseOccupancy != nil {
		s.pool.SetBaseOccupancy(*req.BaseOccupancy)
	}
	if req.Variance != nil {
		s.pool.SetVariance(*req.Variance)
	}

	logger.Infof("Simulator pattern set to %s", s.pool.GetPattern())

	writeJSON(w, http.StatusOK, s.pool.Status())
}

func (s *Simulator) spikeHandler(w http.ResponseWriter, r *http.Request) {
	var spike Spike
	if err := json.NewDecoder(r.Body).Decode(&spike); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !spike.Day.Valid() || spike.Hour < 0 || spike.Hour > 23 {
		http.Error(w, "invalid spike slot", http.StatusBadRequest)
		return
	}

	s.pool.InjectSpike(spike)

	logger.Infof("Injected spike on %s %d:00: +%d swimmers", spike.Day, spike.Hour, spike.Extra)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "spike injected",
		"spike":   spike,
	})
}

func (s *Simulator) clearSpikesHandler(w http.ResponseWriter, r *http.Request) {
	s.pool.ClearSpikes()
	writeJSON(w, http.StatusOK, map[string]string{"message": "spikes cleared"})
}
