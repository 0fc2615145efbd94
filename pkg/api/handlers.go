package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/store"
)

func (s *Server) handleListVulnerabilities(c *gin.Context) {
	limit, ok := s.intParam(c, "limit", s.cfg.DefaultLimit, 1, s.cfg.MaxLimit)
	if !ok {
		return
	}
	offset, ok := s.intParam(c, "offset", 0, 0, -1)
	if !ok {
		return
	}

	filter := store.Filter{
		DeviceID:      c.Query("device_id"),
		ScanSessionID: c.Query("scan_session_id"),
		Severity:      models.Severity(c.Query("severity")),
		SourceTool:    c.Query("source_tool"),
		CVEID:         c.Query("cve_id"),
	}

	result, err := s.engine.List(filter, limit, offset)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetVulnerability(c *gin.Context) {
	record, err := s.engine.Get(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vulnerability not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleStatsSummary(c *gin.Context) {
	hours, ok := s.intParam(c, "hours", s.cfg.DefaultStatsWindow, 1, -1)
	if !ok {
		return
	}

	summary, err := s.stats.Summarize(hours)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleBySeverity(c *gin.Context) {
	limit, ok := s.intParam(c, "limit", 50, 1, s.cfg.MaxSeverityLimit)
	if !ok {
		return
	}

	severity := c.Param("severity")
	records, err := s.engine.BySeverity(severity, limit)
	if errors.Is(err, models.ErrInvalidSeverity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"severity":        severity,
		"count":           len(records),
		"vulnerabilities": records,
	})
}

func (s *Server) handleDeviceReport(c *gin.Context) {
	report, err := s.grouper.DeviceReport(c.Param("device_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleMarkResolved(c *gin.Context) {
	var body struct {
		ResolutionNote string `json:"resolution_note"`
	}
	// the note is optional; an empty or absent body is fine
	if err := c.ShouldBindJSON(&body); err != nil {
		body.ResolutionNote = c.Query("resolution_note")
	}

	resolution, err := s.engine.MarkResolved(c.Param("id"), body.ResolutionNote)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vulnerability not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolution)
}

func (s *Server) handleDeleteVulnerability(c *gin.Context) {
	err := s.engine.Delete(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vulnerability not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vulnerability deleted successfully"})
}

func (s *Server) handleStartScan(c *gin.Context) {
	var body struct {
		TargetRange string `json:"target_range"`
		ScanType    string `json:"scan_type"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session := s.scans.StartScan(body.TargetRange, body.ScanType)
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleScanStatus(c *gin.Context) {
	status, err := s.scans.GetStatus(c.Param("session_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleGetDevices(c *gin.Context) {
	c.JSON(http.StatusOK, s.devices.List())
}

func (s *Server) handleExportJSON(c *gin.Context) {
	result, err := s.engine.List(store.Filter{}, 0, 0)
	if err != nil {
		s.internalError(c, err)
		return
	}

	// Set headers for file download
	c.Header("Content-Disposition", "attachment; filename=vulnerability_export.json")
	c.JSON(http.StatusOK, result)
}

// intParam parses an optional integer query parameter and enforces its
// bounds; max < 0 means unbounded. On violation it writes a 400 response
// and reports false.
func (s *Server) intParam(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || (max >= 0 && value > max) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid value for parameter " + name})
		return 0, false
	}
	return value, true
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.WithError(err).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
