package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/logging"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/service"
)

// Options tune the HTTP surface.
type Options struct {
	ListenAddr   string
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// Server exposes dashboard state over HTTP and WebSocket. The browser UI
// itself is not served here; any front-end can consume these endpoints.
type Server struct {
	svc    *service.Service
	opts   Options
	logger zerolog.Logger
}

// NewServer wires the dashboard service into an HTTP server.
func NewServer(svc *service.Service, opts Options, logger zerolog.Logger) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Server{
		svc:    svc,
		opts:   opts,
		logger: logging.Component(logger, "web"),
	}
}

// Router builds the gin handler tree.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/snapshot", s.handleSnapshot)
	api.GET("/samples", s.handleSamples)
	api.GET("/metrics", s.handleMetrics)
	api.GET("/sales", s.handleSales)
	api.GET("/forecast", s.handleForecast)

	control := api.Group("/control")
	control.POST("/pause", s.handlePause)
	control.POST("/resume", s.handleResume)
	control.PUT("/params", s.handleParams)

	r.GET("/ws", s.handleWS)

	return r
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.SnapshotNow(time.Now().UTC()))
}

func (s *Server) handleSamples(c *gin.Context) {
	snap := s.svc.SnapshotNow(time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"samples": snap.Samples})
}

func (s *Server) handleMetrics(c *gin.Context) {
	snap := s.svc.SnapshotNow(time.Now().UTC())
	c.JSON(http.StatusOK, snap.Stats)
}

func (s *Server) handleSales(c *gin.Context) {
	snap := s.svc.SnapshotNow(time.Now().UTC())
	if snap.SalesStats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sales stream disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":         snap.SalesStats,
		"recent_orders": snap.RecentOrders,
	})
}

func (s *Server) handleForecast(c *gin.Context) {
	snap := s.svc.SnapshotNow(time.Now().UTC())
	if snap.Forecast == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "forecasting disabled"})
		return
	}
	c.JSON(http.StatusOK, snap.Forecast)
}

func (s *Server) handlePause(c *gin.Context) {
	s.svc.Pause()
	c.JSON(http.StatusOK, gin.H{"running": s.svc.Running()})
}

func (s *Server) handleResume(c *gin.Context) {
	s.svc.Resume()
	c.JSON(http.StatusOK, gin.H{"running": s.svc.Running()})
}

type paramsRequest struct {
	BaseLevel          *float64 `json:"base_level"`
	NoiseAmplitude     *float64 `json:"noise_amplitude"`
	AnomalyProbability *float64 `json:"anomaly_probability"`
	IntervalSeconds    *float64 `json:"interval_seconds"`
	HolidayMode        *bool    `json:"holiday_mode"`
}

func (s *Server) handleParams(c *gin.Context) {
	var req paramsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := service.ParamsUpdate{
		BaseLevel:          req.BaseLevel,
		NoiseAmplitude:     req.NoiseAmplitude,
		AnomalyProbability: req.AnomalyProbability,
		HolidayMode:        req.HolidayMode,
	}
	if req.IntervalSeconds != nil {
		interval := time.Duration(*req.IntervalSeconds * float64(time.Second))
		update.Interval = &interval
	}

	if err := s.svc.UpdateParams(update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.svc.SnapshotNow(time.Now().UTC()))
}
