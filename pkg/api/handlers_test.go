package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnwatch/vulnwatch/pkg/config"
	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/scan"
	"github.com/vulnwatch/vulnwatch/pkg/store"
	"github.com/vulnwatch/vulnwatch/pkg/vuln"
)

func testServer(t *testing.T, vulns ...models.Vulnerability) *Server {
	t.Helper()

	recordStore := store.NewMemoryStore()
	for _, v := range vulns {
		require.NoError(t, recordStore.Insert(v))
	}
	devices := store.NewDeviceIndex([]models.Device{
		{ID: "dev-1", IPAddress: "192.168.1.10", Hostname: "camera-livingroom", DeviceType: "ip_camera", RiskLevel: "high"},
	})

	cfg := config.DefaultConfig()
	return NewServer(cfg, nil,
		vuln.NewEngine(recordStore, devices, nil),
		vuln.NewAggregator(recordStore),
		vuln.NewGrouper(recordStore, devices),
		scan.NewManager(devices, 0.1, nil),
		devices,
	)
}

func testVuln(id string, sev models.Severity, cvss float64) models.Vulnerability {
	return models.Vulnerability{
		ID:            id,
		Title:         "finding " + id,
		Severity:      sev,
		SeverityScore: models.SeverityScore(sev, cvss),
		CVSSScore:     cvss,
		SourceTool:    "nmap",
		DetectedAt:    time.Now().UTC().Add(-time.Hour),
		DeviceID:      "dev-1",
	}
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestListVulnerabilitiesEndpoint(t *testing.T) {
	s := testServer(t,
		testVuln("v1", models.SeverityCritical, 9.8),
		testVuln("v2", models.SeverityHigh, 7.2),
	)

	w := doRequest(s, http.MethodGet, "/api/vulnerabilities", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Vulnerabilities []map[string]interface{} `json:"vulnerabilities"`
		TotalCount      int                      `json:"total_count"`
		ReturnedCount   int                      `json:"returned_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 2, result.ReturnedCount)
	require.Len(t, result.Vulnerabilities, 2)
	assert.Equal(t, "v1", result.Vulnerabilities[0]["id"])
	assert.Equal(t, "192.168.1.10", result.Vulnerabilities[0]["device_ip"])
}

func TestListVulnerabilitiesBounds(t *testing.T) {
	s := testServer(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/vulnerabilities?limit=1001", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/vulnerabilities?limit=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/vulnerabilities?offset=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/vulnerabilities?limit=abc", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/api/vulnerabilities?limit=1000&offset=0", "").Code)
}

func TestGetVulnerabilityEndpoint(t *testing.T) {
	s := testServer(t, testVuln("v1", models.SeverityHigh, 7.0))

	w := doRequest(s, http.MethodGet, "/api/vulnerabilities/v1", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/vulnerabilities/missing", "").Code)
}

func TestStatsSummaryEndpoint(t *testing.T) {
	s := testServer(t,
		testVuln("v1", models.SeverityCritical, 9.8),
		testVuln("v2", models.SeverityHigh, 7.2),
	)

	w := doRequest(s, http.MethodGet, "/api/vulnerabilities/stats/summary?hours=24", "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.EqualValues(t, 2, summary["total_vulnerabilities"])
	assert.EqualValues(t, 1, summary["critical_vulnerabilities"])
}

func TestBySeverityEndpoint(t *testing.T) {
	s := testServer(t,
		testVuln("v1", models.SeverityCritical, 9.8),
		testVuln("v2", models.SeverityHigh, 7.2),
	)

	w := doRequest(s, http.MethodGet, "/api/vulnerabilities/severity/critical", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Severity        string                   `json:"severity"`
		Count           int                      `json:"count"`
		Vulnerabilities []map[string]interface{} `json:"vulnerabilities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "critical", result.Severity)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Vulnerabilities, 1)
	assert.Equal(t, "v1", result.Vulnerabilities[0]["id"])

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/vulnerabilities/severity/bogus", "").Code)
}

func TestDeviceReportEndpoint(t *testing.T) {
	s := testServer(t, testVuln("v1", models.SeverityCritical, 9.8))

	w := doRequest(s, http.MethodGet, "/api/vulnerabilities/device/dev-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		Device  map[string]interface{} `json:"device"`
		Summary map[string]interface{} `json:"vulnerability_summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "dev-1", report.Device["id"])
	assert.EqualValues(t, 1, report.Summary["total"])
	assert.EqualValues(t, 1, report.Summary["critical"])

	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/vulnerabilities/device/dev-9", "").Code)
}

func TestMarkResolvedAndDeleteEndpoints(t *testing.T) {
	s := testServer(t, testVuln("v1", models.SeverityHigh, 7.0))

	w := doRequest(s, http.MethodPost, "/api/vulnerabilities/v1/mark-resolved", `{"resolution_note":"patched"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resolution map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolution))
	assert.Equal(t, "v1", resolution["vulnerability_id"])
	assert.Equal(t, "patched", resolution["resolution_note"])

	// mark-resolved persists nothing; the record is still there
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/api/vulnerabilities/v1", "").Code)

	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodDelete, "/api/vulnerabilities/v1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/vulnerabilities/v1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodDelete, "/api/vulnerabilities/v1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodPost, "/api/vulnerabilities/v1/mark-resolved", "").Code)
}

func TestScanLifecycleEndpoints(t *testing.T) {
	s := testServer(t)

	w := doRequest(s, http.MethodPost, "/api/scan/start", `{"target_range":"10.0.0.0/24"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var session map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	sessionID, _ := session["id"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "in_progress", session["status"])
	assert.EqualValues(t, 0, session["progress"])

	var status map[string]interface{}
	for i := 0; i < 10; i++ {
		w = doRequest(s, http.MethodGet, "/api/scan/status/"+sessionID, "")
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	}
	assert.Equal(t, "completed", status["status"])
	assert.EqualValues(t, 1.0, status["progress"])

	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/scan/status/unknown", "").Code)
}

func TestDevicesEndpoint(t *testing.T) {
	s := testServer(t)

	w := doRequest(s, http.MethodGet, "/api/devices", "")
	require.Equal(t, http.StatusOK, w.Code)

	var devices []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "192.168.1.10", devices[0]["ip_address"])
}

func TestExportEndpoint(t *testing.T) {
	s := testServer(t, testVuln("v1", models.SeverityHigh, 7.0))

	w := doRequest(s, http.MethodGet, "/api/export/json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}
