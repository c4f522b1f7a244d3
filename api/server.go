package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/pool-occupancy/api/handlers"
	"github.com/OldStager01/pool-occupancy/api/middleware"
	"github.com/OldStager01/pool-occupancy/api/websocket"
	"github.com/OldStager01/pool-occupancy/internal/events"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/internal/service"
	"github.com/OldStager01/pool-occupancy/pkg/config"
	"github.com/OldStager01/pool-occupancy/pkg/database"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

const (
	ingestRoute     = "/weeks/:id/readings"
	ingestRateLimit = 1
	ingestRateBurst = 5
)

// PipelineManager is the part of the orchestrator the API depends on.
type PipelineManager interface {
	ListRunningWeeks() []string
	Publisher() *events.Publisher
	SubscribeAllEvents() <-chan *models.Event
	UnsubscribeEvents(ch <-chan *models.Event)
}

// Dependencies wires the server. Only Service is required.
type Dependencies struct {
	Service   *service.Service
	DB        *database.DB
	Pipelines PipelineManager
	Metrics   *metrics.Metrics
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     config.APIConfig
	deps       Dependencies
	wsHub      *websocket.Hub
	wsBridge   *websocket.EventBridge
	wsEvents   <-chan *models.Event
}

func NewServer(cfg config.APIConfig, wsCfg config.WebSocketConfig, deps Dependencies) *Server {
	router := gin.New()
	wsHub := websocket.NewHub(&wsCfg, deps.Metrics)

	s := &Server{
		router: router,
		config: cfg,
		deps:   deps,
		wsHub:  wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	// Forward pipeline events to WebSocket clients
	if deps.Pipelines != nil {
		s.wsEvents = deps.Pipelines.SubscribeAllEvents()
		s.wsBridge = websocket.NewEventBridge(wsHub, s.wsEvents)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.CORSFromConfig(s.config.CORS)))
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
	if s.deps.Metrics != nil {
		s.router.Use(middleware.Metrics(s.deps.Metrics))
	}

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, s.config.RateBurst, 10*time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

func (s *Server) setupRoutes() {
	var publisher *events.Publisher
	var weeks handlers.WeekLister
	if s.deps.Pipelines != nil {
		publisher = s.deps.Pipelines.Publisher()
		weeks = s.deps.Pipelines
	}

	healthHandler := handlers.NewHealthHandler(s.deps.DB, weeks)
	weeksHandler := handlers.NewWeeksHandler(s.deps.Service, publisher, s.config.MaxReadings)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub, s.snapshot))

	s.router.GET("/legend", weeksHandler.GetLegend)
	s.router.GET("/domain", weeksHandler.GetDomain)

	endpointLimiter := middleware.NewEndpointRateLimiter()
	endpointLimiter.AddEndpoint(ingestRoute, ingestRateLimit, ingestRateBurst)

	weeksGroup := s.router.Group("/weeks/:id")
	weeksGroup.Use(endpointLimiter.Middleware())
	{
		weeksGroup.GET("/summary", weeksHandler.GetSummary)
		weeksGroup.GET("/days/:day", weeksHandler.GetDay)
		weeksGroup.GET("/chart/:day", weeksHandler.GetChart)
		weeksGroup.GET("/heatmap/raw", weeksHandler.GetRawHeatmap)
		weeksGroup.GET("/heatmap/utilization", weeksHandler.GetUtilizationHeatmap)
		weeksGroup.POST("/readings", middleware.RequestSizeLimit(s.config.MaxBodyBytes), weeksHandler.PostReadings)
	}
}

func (s *Server) snapshot(ctx context.Context, weekID string) (*models.WeekSummary, error) {
	report, err := s.deps.Service.Week(ctx, weekID)
	if err != nil {
		return nil, err
	}
	return report.Summary(), nil
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	idle := s.config.IdleTimeout
	if idle <= 0 {
		idle = 60 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  idle,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the event bridge first
	if s.wsBridge != nil {
		s.wsBridge.Stop()
		s.deps.Pipelines.UnsubscribeEvents(s.wsEvents)
	}
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
