// Package ingest turns external scanner output into vulnerability records.
// Scanners emit wildly different JSON shapes, so the importer reads fields
// permissively instead of binding to a fixed schema.
package ingest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/store"
)

// Importer writes findings from scanner output files into the record store.
type Importer struct {
	store  store.Store
	logger *logrus.Logger
}

// NewImporter creates an importer targeting the given store.
func NewImporter(s store.Store, logger *logrus.Logger) *Importer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Importer{store: s, logger: logger}
}

// ImportFile reads a findings file and inserts its records, tagging each
// with the given scan session id (may be empty). It returns the number of
// records inserted; findings without a usable severity or title are skipped.
func (im *Importer) ImportFile(path, sessionID string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading findings file: %w", err)
	}
	return im.Import(data, sessionID)
}

// Import parses findings JSON and inserts the resulting records. The input
// may be a bare array or an object carrying the array under "findings" or
// "vulnerabilities".
func (im *Importer) Import(data []byte, sessionID string) (int, error) {
	parsed := gjson.ParseBytes(data)

	findings := parsed
	if !parsed.IsArray() {
		for _, key := range []string{"findings", "vulnerabilities", "results"} {
			if arr := parsed.Get(key); arr.IsArray() {
				findings = arr
				break
			}
		}
	}
	if !findings.IsArray() {
		return 0, fmt.Errorf("findings file contains no findings array")
	}

	inserted := 0
	var insertErr error
	findings.ForEach(func(_, finding gjson.Result) bool {
		v, err := im.buildRecord(finding, sessionID)
		if err != nil {
			im.logger.WithError(err).Warn("Skipping finding")
			return true
		}
		if err := im.store.Insert(v); err != nil {
			insertErr = err
			return false
		}
		inserted++
		return true
	})
	if insertErr != nil {
		return inserted, fmt.Errorf("inserting finding: %w", insertErr)
	}

	im.logger.WithField("count", inserted).Info("Imported findings")
	return inserted, nil
}

func (im *Importer) buildRecord(finding gjson.Result, sessionID string) (models.Vulnerability, error) {
	title := firstString(finding, "title", "name", "id")
	if title == "" {
		return models.Vulnerability{}, fmt.Errorf("finding has no title")
	}

	sev, err := models.ParseSeverity(normalizeSeverity(firstString(finding, "severity", "risk")))
	if err != nil {
		return models.Vulnerability{}, fmt.Errorf("finding %q: %w", title, err)
	}

	cvss := firstFloat(finding, "cvss_score", "cvss", "score")
	detectedAt := time.Now().UTC()
	if raw := firstString(finding, "detected_at", "discovered_at", "timestamp"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			detectedAt = ts.UTC()
		}
	}

	var references []string
	finding.Get("references").ForEach(func(_, ref gjson.Result) bool {
		references = append(references, ref.String())
		return true
	})

	if sessionID == "" {
		sessionID = finding.Get("scan_session_id").String()
	}

	return models.Vulnerability{
		ID:              uuid.New().String(),
		CVEID:           strings.ToUpper(firstString(finding, "cve_id", "cve")),
		Title:           title,
		Description:     firstString(finding, "description", "summary"),
		Severity:        sev,
		SeverityScore:   models.SeverityScore(sev, cvss),
		CVSSScore:       cvss,
		SourceTool:      firstString(finding, "source_tool", "tool", "scanner"),
		DetectedAt:      detectedAt,
		AffectedPort:    int(firstFloat(finding, "affected_port", "port")),
		AffectedService: firstString(finding, "affected_service", "service"),
		Solution:        firstString(finding, "solution", "remediation"),
		References:      references,
		DeviceID:        firstString(finding, "device_id", "device"),
		ScanSessionID:   sessionID,
	}, nil
}

func normalizeSeverity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "informational" {
		return string(models.SeverityInfo)
	}
	return s
}

func firstString(finding gjson.Result, keys ...string) string {
	for _, key := range keys {
		if value := finding.Get(key); value.Exists() && value.String() != "" {
			return value.String()
		}
	}
	return ""
}

func firstFloat(finding gjson.Result, keys ...string) float64 {
	for _, key := range keys {
		if value := finding.Get(key); value.Exists() {
			return value.Float()
		}
	}
	return 0
}
