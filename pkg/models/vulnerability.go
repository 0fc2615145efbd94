package models

import (
	"time"
)

// Vulnerability represents a single finding produced by an external scanner.
// Records are immutable after creation; deletion is the only mutation.
type Vulnerability struct {
	ID              string    `json:"id"`                         // Record identifier
	CVEID           string    `json:"cve_id,omitempty"`           // CVE identifier, not unique across records
	Title           string    `json:"title"`                      // Display friendly title
	Description     string    `json:"description"`                // Description of the vulnerability
	Severity        Severity  `json:"severity"`                   // One of info/low/medium/high/critical
	SeverityScore   float64   `json:"severity_score"`             // Primary sort key, consistent with Severity
	CVSSScore       float64   `json:"cvss_score,omitempty"`       // CVSS base score (0.0-10.0)
	SourceTool      string    `json:"source_tool"`                // Scanner that produced the finding
	DetectedAt      time.Time `json:"detected_at"`                // Set once at creation
	AffectedPort    int       `json:"affected_port,omitempty"`    // Port the finding applies to
	AffectedService string    `json:"affected_service,omitempty"` // Service the finding applies to
	Solution        string    `json:"solution,omitempty"`         // Remediation steps
	References      []string  `json:"references,omitempty"`       // Ordered reference URLs
	DeviceID        string    `json:"device_id,omitempty"`        // Owning device, may be absent
	ScanSessionID   string    `json:"scan_session_id,omitempty"`  // Producing scan session, may be absent
}
