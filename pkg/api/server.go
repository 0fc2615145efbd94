// Package api exposes the tracker over HTTP. The server is a thin dispatch
// layer: it parses and bounds request parameters, calls into the core
// components, and translates their errors to status codes.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vulnwatch/vulnwatch/pkg/config"
	"github.com/vulnwatch/vulnwatch/pkg/scan"
	"github.com/vulnwatch/vulnwatch/pkg/store"
	"github.com/vulnwatch/vulnwatch/pkg/vuln"
)

// Server is the HTTP API server for the vulnerability tracker.
type Server struct {
	router  *gin.Engine
	logger  *logrus.Logger
	cfg     config.Config
	engine  *vuln.Engine
	stats   *vuln.Aggregator
	grouper *vuln.Grouper
	scans   *scan.Manager
	devices *store.DeviceIndex
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg config.Config, logger *logrus.Logger, engine *vuln.Engine, stats *vuln.Aggregator,
	grouper *vuln.Grouper, scans *scan.Manager, devices *store.DeviceIndex) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Port == "" {
		cfg.Port = "8000"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:  router,
		logger:  logger,
		cfg:     cfg,
		engine:  engine,
		stats:   stats,
		grouper: grouper,
		scans:   scans,
		devices: devices,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	if s.cfg.EnableCORS {
		s.router.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}

			c.Next()
		})
	}

	api := s.router.Group("/api")
	{
		api.GET("/vulnerabilities", s.handleListVulnerabilities)
		api.GET("/vulnerabilities/stats/summary", s.handleStatsSummary)
		api.GET("/vulnerabilities/severity/:severity", s.handleBySeverity)
		api.GET("/vulnerabilities/device/:device_id", s.handleDeviceReport)
		api.GET("/vulnerabilities/:id", s.handleGetVulnerability)
		api.POST("/vulnerabilities/:id/mark-resolved", s.handleMarkResolved)
		api.DELETE("/vulnerabilities/:id", s.handleDeleteVulnerability)

		api.POST("/scan/start", s.handleStartScan)
		api.GET("/scan/status/:session_id", s.handleScanStatus)

		api.GET("/devices", s.handleGetDevices)
		api.GET("/export/json", s.handleExportJSON)
	}
}

// Router exposes the underlying gin engine, used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the API server and blocks.
func (s *Server) Start() error {
	s.logger.Infof("API server listening on port %s", s.cfg.Port)
	return s.router.Run(":" + s.cfg.Port)
}
