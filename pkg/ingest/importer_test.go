package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/store"
)

const nucleiStyle = `{
  "findings": [
    {
      "title": "Exposed admin panel",
      "severity": "high",
      "cvss_score": 7.5,
      "cve_id": "cve-2024-1234",
      "source_tool": "nuclei",
      "device_id": "dev-1",
      "affected_port": 8080,
      "affected_service": "http",
      "detected_at": "2026-08-30T10:00:00Z",
      "references": ["https://example.com/a", "https://example.com/b"]
    },
    {
      "name": "Self-signed certificate",
      "risk": "Informational",
      "scanner": "nmap",
      "port": 443,
      "service": "https"
    },
    {
      "title": "No severity on this one"
    }
  ]
}`

func TestImportFindingsObject(t *testing.T) {
	s := store.NewMemoryStore()
	importer := NewImporter(s, nil)

	count, err := importer.Import([]byte(nucleiStyle), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "the finding without a severity is skipped")

	page, total, err := s.Query(store.Filter{}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	first := page[0]
	assert.Equal(t, "Exposed admin panel", first.Title)
	assert.Equal(t, models.SeverityHigh, first.Severity)
	assert.Equal(t, "CVE-2024-1234", first.CVEID, "CVE ids are uppercased")
	assert.Equal(t, 7.5, first.CVSSScore)
	assert.Equal(t, models.SeverityScore(models.SeverityHigh, 7.5), first.SeverityScore)
	assert.Equal(t, "nuclei", first.SourceTool)
	assert.Equal(t, "dev-1", first.DeviceID)
	assert.Equal(t, "sess-1", first.ScanSessionID)
	assert.Equal(t, 8080, first.AffectedPort)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, first.References)
	assert.Equal(t, "2026-08-30T10:00:00Z", first.DetectedAt.Format("2006-01-02T15:04:05Z07:00"))
	assert.NotEmpty(t, first.ID)

	second := page[1]
	assert.Equal(t, "Self-signed certificate", second.Title)
	assert.Equal(t, models.SeverityInfo, second.Severity, "informational maps to info")
	assert.Equal(t, "nmap", second.SourceTool)
	assert.Equal(t, 443, second.AffectedPort)
	assert.False(t, second.DetectedAt.IsZero(), "missing timestamps default to now")
}

func TestImportBareArray(t *testing.T) {
	s := store.NewMemoryStore()
	importer := NewImporter(s, nil)

	count, err := importer.Import([]byte(`[{"title":"x","severity":"low"}]`), "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImportRejectsNonArrayInput(t *testing.T) {
	importer := NewImporter(store.NewMemoryStore(), nil)

	_, err := importer.Import([]byte(`{"hello":"world"}`), "")
	assert.Error(t, err)

	_, err = importer.Import([]byte(`not json at all`), "")
	assert.Error(t, err)
}

func TestImportSessionFromFinding(t *testing.T) {
	s := store.NewMemoryStore()
	importer := NewImporter(s, nil)

	_, err := importer.Import([]byte(`[{"title":"x","severity":"low","scan_session_id":"sess-9"}]`), "")
	require.NoError(t, err)

	page, _, err := s.Query(store.Filter{ScanSessionID: "sess-9"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
