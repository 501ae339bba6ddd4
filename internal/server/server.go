package server

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/agenthands/aurehal/internal/config"
	"github.com/agenthands/aurehal/internal/core"
	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/driver"
	"github.com/agenthands/aurehal/internal/network"
	"github.com/agenthands/aurehal/internal/observability"
)

//go:embed web/index.html
var indexHTML []byte

type Server struct {
	Harvester *core.Harvester
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

// NewServer wires the referential client, metrics and harvester from cfg.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	ref := driver.NewHALDriver(driver.HALOptions{
		BaseURL:           cfg.Referential.BaseURL,
		Timeout:           cfg.Referential.Timeout.Duration,
		UserAgent:         cfg.Referential.UserAgent,
		ChildRows:         cfg.Referential.ChildRows,
		RequestsPerSecond: cfg.Referential.RequestsPerSecond,
		Burst:             cfg.Referential.Burst,
		Metrics:           metrics,
	})

	return &Server{
		Harvester: core.NewHarvester(ref, cfg, metrics, logger),
		Gatherer:  registry,
		Logger:    logger,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(observability.ServiceName))

	r.GET("/", s.Index)
	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.POST("/harvest", s.HarvestJSON)
	api.GET("/harvest/:root", s.HarvestByPath)
	api.POST("/network", s.Network)
	api.GET("/legend", s.Legend)

	return r
}

func (s *Server) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type HarvestRequest struct {
	Root      string `json:"root" binding:"required"`
	Direction string `json:"direction"`
}

func (s *Server) HarvestJSON(c *gin.Context) {
	var req HarvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	h, ok := s.harvest(c, req.Root, req.Direction)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) HarvestByPath(c *gin.Context) {
	h, ok := s.harvest(c, c.Param("root"), c.Query("direction"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h)
}

type NetworkRequest struct {
	HarvestRequest
	Options network.Options `json:"options"`
}

type NetworkResponse struct {
	HarvestID string                  `json:"harvest_id"`
	Root      model.ID                `json:"root"`
	Direction model.Direction         `json:"direction"`
	Status    model.HarvestStatus     `json:"status"`
	Network   network.Payload         `json:"network"`
	Fragments int                     `json:"fragments"`
	Options   map[string]any          `json:"options"`
	Legend    network.Legend          `json:"legend"`
	Rows      []model.StructureRecord `json:"rows"`
	Logs      []string                `json:"logs"`
}

func (s *Server) Network(c *gin.Context) {
	var req NetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	h, ok := s.harvest(c, req.Root, req.Direction)
	if !ok {
		return
	}

	payload := network.Build(h, req.Options)
	c.JSON(http.StatusOK, NetworkResponse{
		HarvestID: h.ID,
		Root:      h.Root,
		Direction: h.Direction,
		Status:    h.Status,
		Network:   payload,
		Fragments: len(network.Components(payload)),
		Options:   network.LayoutOptions(req.Options.Hierarchical, req.Options.LayoutDirection),
		Legend:    network.NewLegend(),
		Rows:      network.Rows(h.Records),
		Logs:      h.Logs,
	})
}

func (s *Server) Legend(c *gin.Context) {
	c.JSON(http.StatusOK, network.NewLegend())
}

// harvest runs one harvest for the request and writes the error response
// itself when it fails.
func (s *Server) harvest(c *gin.Context, root, rawDirection string) (*model.Harvest, bool) {
	direction, err := model.ParseDirection(rawDirection)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	h, err := s.Harvester.Harvest(c.Request.Context(), root, direction)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return h, true
}

func (s *Server) writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}

	var he *core.HarvestError
	if errors.As(err, &he) {
		body["harvest_id"] = he.HarvestID
		body["logs"] = he.Logs
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidRoot), errors.Is(err, model.ErrInvalidDirection):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		body["kind"] = "timeout"
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
		body["kind"] = "cancelled"
	default:
		if f, ok := driver.Classify(err); ok {
			status = http.StatusBadGateway
			body["kind"] = f.Kind
			body["operation"] = f.Operation
			body["id"] = f.ID
		}
	}

	if s.Logger != nil {
		s.Logger.Error("harvest request failed", "status", status, "error", err)
	}
	c.JSON(status, body)
}
