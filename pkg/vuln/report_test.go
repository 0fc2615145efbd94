package vuln

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/store"
)

func TestDeviceReportUnknownDevice(t *testing.T) {
	s, devices := testSetup(t)
	_, err := NewGrouper(s, devices).DeviceReport("nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeviceReportEmpty(t *testing.T) {
	s, devices := testSetup(t)

	report, err := NewGrouper(s, devices).DeviceReport("dev-1")
	require.NoError(t, err)
	assert.Equal(t, "dev-1", report.Device.ID)
	assert.Zero(t, report.VulnerabilitySummary.Total)
	assert.Empty(t, report.Vulnerabilities.Critical)
	assert.Empty(t, report.Vulnerabilities.Info)
}

func TestDeviceReportGroupsBySeverity(t *testing.T) {
	mk := func(id string, sev models.Severity, cvss float64, age time.Duration) models.Vulnerability {
		v := testVuln(id, sev, cvss, age)
		v.DeviceID = "dev-1"
		return v
	}

	other := testVuln("other", models.SeverityCritical, 9.9, time.Minute)
	other.DeviceID = "dev-2"

	s, devices := testSetup(t,
		mk("c1", models.SeverityCritical, 9.8, 2*time.Hour),
		mk("c2", models.SeverityCritical, 9.8, time.Hour),
		mk("h1", models.SeverityHigh, 7.2, time.Hour),
		mk("m1", models.SeverityMedium, 5.0, time.Hour),
		mk("i1", models.SeverityInfo, 0, time.Hour),
		other,
	)

	report, err := NewGrouper(s, devices).DeviceReport("dev-1")
	require.NoError(t, err)

	summary := report.VulnerabilitySummary
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, summary.Critical)
	assert.Equal(t, 1, summary.High)
	assert.Equal(t, 1, summary.Medium)
	assert.Zero(t, summary.Low)
	assert.Equal(t, 1, summary.Info)
	assert.Equal(t, summary.Total,
		summary.Critical+summary.High+summary.Medium+summary.Low+summary.Info)

	// buckets preserve the fixed query order: equal scores by newest first
	require.Len(t, report.Vulnerabilities.Critical, 2)
	assert.Equal(t, "c2", report.Vulnerabilities.Critical[0].ID)
	assert.Equal(t, "c1", report.Vulnerabilities.Critical[1].ID)

	// only the requested device's records appear
	for _, rec := range report.Vulnerabilities.Critical {
		assert.NotEqual(t, "other", rec.ID)
	}
}
