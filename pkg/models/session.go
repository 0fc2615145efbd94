package models

import "time"

// SessionStatus values for a scan session lifecycle.
const (
	ScanStatusPending    = "pending"
	ScanStatusInProgress = "in_progress"
	ScanStatusCompleted  = "completed"
)

// ScanSession is one logical unit of vulnerability-discovery work. The
// session record tracks lifecycle only; the vulnerabilities a scan produces
// reference it by id.
type ScanSession struct {
	ID          string     `json:"id"`
	TargetRange string     `json:"target_range"`
	ScanType    string     `json:"scan_type"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Progress    float64    `json:"progress"`
	DeviceCount int        `json:"device_count"`
}
