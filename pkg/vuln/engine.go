// Package vuln contains the read side of the tracker: the query engine over
// the vulnerability record store, the time-windowed stats aggregator, and
// the per-device severity grouper.
package vuln

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/store"
)

// Record is a vulnerability decorated with the resolved device address. The
// device link is resolved by explicit lookup; a dangling device_id reports
// the Unknown sentinel.
type Record struct {
	models.Vulnerability
	DeviceIP       string `json:"device_ip"`
	DeviceHostname string `json:"device_hostname,omitempty"`
}

// ListResult is one page of query results plus exact counts. TotalCount is
// the number of matches before pagination.
type ListResult struct {
	Vulnerabilities []Record `json:"vulnerabilities"`
	TotalCount      int      `json:"total_count"`
	ReturnedCount   int      `json:"returned_count"`
}

// SeverityDevice is the device projection attached to by-severity listings.
type SeverityDevice struct {
	IPAddress string `json:"ip_address"`
	Hostname  string `json:"hostname,omitempty"`
}

// SeverityRecord is the lighter display projection used by BySeverity.
type SeverityRecord struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	CVEID      string         `json:"cve_id,omitempty"`
	CVSSScore  float64        `json:"cvss_score,omitempty"`
	SourceTool string         `json:"source_tool"`
	DetectedAt time.Time      `json:"detected_at"`
	Device     SeverityDevice `json:"device"`
}

// Resolution acknowledges a mark-resolved request. Nothing is persisted;
// the record itself stays untouched.
type Resolution struct {
	Message         string    `json:"message"`
	VulnerabilityID string    `json:"vulnerability_id"`
	ResolutionNote  string    `json:"resolution_note,omitempty"`
	ResolvedAt      time.Time `json:"resolved_at"`
}

// Engine applies filters, ordering, and pagination over the record store.
type Engine struct {
	store   store.Store
	devices *store.DeviceIndex
	logger  *logrus.Logger
}

// NewEngine creates a query engine over the given store and device index.
func NewEngine(s store.Store, devices *store.DeviceIndex, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{store: s, devices: devices, logger: logger}
}

// List returns one page of records matching the filter, ordered by
// severity_score descending then detected_at descending, plus the total
// match count before pagination.
func (e *Engine) List(f store.Filter, limit, offset int) (ListResult, error) {
	vulns, total, err := e.store.Query(f, limit, offset)
	if err != nil {
		return ListResult{}, err
	}

	records := make([]Record, 0, len(vulns))
	for _, v := range vulns {
		records = append(records, e.decorate(v))
	}
	return ListResult{
		Vulnerabilities: records,
		TotalCount:      total,
		ReturnedCount:   len(records),
	}, nil
}

// Get returns a single record with its device address resolved, or
// store.ErrNotFound.
func (e *Engine) Get(id string) (Record, error) {
	v, err := e.store.GetByID(id)
	if err != nil {
		return Record{}, err
	}
	return e.decorate(v), nil
}

// Delete permanently removes a record. Irreversible.
func (e *Engine) Delete(id string) error {
	if err := e.store.DeleteByID(id); err != nil {
		return err
	}
	e.logger.WithField("vulnerability_id", id).Info("Vulnerability deleted")
	return nil
}

// BySeverity lists records of one severity level ordered by detected_at
// descending. An unrecognized severity yields models.ErrInvalidSeverity.
func (e *Engine) BySeverity(severity string, limit int) ([]SeverityRecord, error) {
	sev, err := models.ParseSeverity(severity)
	if err != nil {
		return nil, err
	}

	vulns, err := e.store.RecentBySeverity(sev, limit)
	if err != nil {
		return nil, err
	}

	records := make([]SeverityRecord, 0, len(vulns))
	for _, v := range vulns {
		ip, hostname := e.deviceAddress(v.DeviceID)
		records = append(records, SeverityRecord{
			ID:         v.ID,
			Title:      v.Title,
			CVEID:      v.CVEID,
			CVSSScore:  v.CVSSScore,
			SourceTool: v.SourceTool,
			DetectedAt: v.DetectedAt,
			Device:     SeverityDevice{IPAddress: ip, Hostname: hostname},
		})
	}
	return records, nil
}

// MarkResolved validates the record exists and acknowledges the request.
// The resolution is not persisted; see the data model notes.
func (e *Engine) MarkResolved(id, note string) (Resolution, error) {
	if _, err := e.store.GetByID(id); err != nil {
		return Resolution{}, err
	}
	e.logger.WithField("vulnerability_id", id).Info("Vulnerability marked resolved")
	return Resolution{
		Message:         "Vulnerability marked as resolved",
		VulnerabilityID: id,
		ResolutionNote:  note,
		ResolvedAt:      time.Now().UTC(),
	}, nil
}

func (e *Engine) decorate(v models.Vulnerability) Record {
	ip, hostname := e.deviceAddress(v.DeviceID)
	return Record{Vulnerability: v, DeviceIP: ip, DeviceHostname: hostname}
}

func (e *Engine) deviceAddress(deviceID string) (ip, hostname string) {
	if deviceID == "" {
		return models.UnknownDeviceIP, ""
	}
	d, err := e.devices.Get(deviceID)
	if err != nil {
		return models.UnknownDeviceIP, ""
	}
	return d.IPAddress, d.Hostname
}
