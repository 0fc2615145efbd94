package vuln

import (
	"time"

	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/store"
)

// BucketRecord is the projection used inside a device report bucket.
type BucketRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	CVEID           string    `json:"cve_id,omitempty"`
	CVSSScore       float64   `json:"cvss_score,omitempty"`
	SourceTool      string    `json:"source_tool"`
	DetectedAt      time.Time `json:"detected_at"`
	AffectedPort    int       `json:"affected_port,omitempty"`
	AffectedService string    `json:"affected_service,omitempty"`
	Solution        string    `json:"solution,omitempty"`
}

// SeverityBuckets partitions a device's vulnerabilities into the five
// severity levels, each bucket preserving the store's fixed order.
type SeverityBuckets struct {
	Critical []BucketRecord `json:"critical"`
	High     []BucketRecord `json:"high"`
	Medium   []BucketRecord `json:"medium"`
	Low      []BucketRecord `json:"low"`
	Info     []BucketRecord `json:"info"`
}

// ReportSummary carries the per-bucket counts for a device report.
type ReportSummary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Report is the per-device vulnerability view.
type Report struct {
	Device               models.Device   `json:"device"`
	VulnerabilitySummary ReportSummary   `json:"vulnerability_summary"`
	Vulnerabilities      SeverityBuckets `json:"vulnerabilities"`
}

// Grouper joins a device with its vulnerabilities and buckets them by
// severity.
type Grouper struct {
	store   store.Store
	devices *store.DeviceIndex
}

// NewGrouper creates a device report grouper.
func NewGrouper(s store.Store, devices *store.DeviceIndex) *Grouper {
	return &Grouper{store: s, devices: devices}
}

// DeviceReport builds the report for one device, failing with
// store.ErrNotFound when the device itself is unknown. A known device with
// no vulnerabilities yields an empty report.
func (g *Grouper) DeviceReport(deviceID string) (Report, error) {
	device, err := g.devices.Get(deviceID)
	if err != nil {
		return Report{}, err
	}

	vulns, _, err := g.store.Query(store.Filter{DeviceID: deviceID}, 0, 0)
	if err != nil {
		return Report{}, err
	}

	buckets := SeverityBuckets{
		Critical: []BucketRecord{},
		High:     []BucketRecord{},
		Medium:   []BucketRecord{},
		Low:      []BucketRecord{},
		Info:     []BucketRecord{},
	}
	for _, v := range vulns {
		rec := BucketRecord{
			ID:              v.ID,
			Title:           v.Title,
			CVEID:           v.CVEID,
			CVSSScore:       v.CVSSScore,
			SourceTool:      v.SourceTool,
			DetectedAt:      v.DetectedAt,
			AffectedPort:    v.AffectedPort,
			AffectedService: v.AffectedService,
			Solution:        v.Solution,
		}
		switch v.Severity {
		case models.SeverityCritical:
			buckets.Critical = append(buckets.Critical, rec)
		case models.SeverityHigh:
			buckets.High = append(buckets.High, rec)
		case models.SeverityMedium:
			buckets.Medium = append(buckets.Medium, rec)
		case models.SeverityLow:
			buckets.Low = append(buckets.Low, rec)
		case models.SeverityInfo:
			buckets.Info = append(buckets.Info, rec)
		}
	}

	return Report{
		Device: device,
		VulnerabilitySummary: ReportSummary{
			Total:    len(vulns),
			Critical: len(buckets.Critical),
			High:     len(buckets.High),
			Medium:   len(buckets.Medium),
			Low:      len(buckets.Low),
			Info:     len(buckets.Info),
		},
		Vulnerabilities: buckets,
	}, nil
}
