// Package store holds the vulnerability record store and the device index.
// Two implementations share one contract: an in-memory store for demo mode
// and tests, and a SQLite-backed store for durable deployments.
package store

import (
	"errors"
	"time"

	"github.com/vulnwatch/vulnwatch/pkg/models"
)

// ErrNotFound is returned when a record or device id does not resolve.
var ErrNotFound = errors.New("record not found")

// Filter selects vulnerability records. All fields are optional; supplied
// fields combine with AND semantics.
type Filter struct {
	DeviceID      string
	ScanSessionID string
	Severity      models.Severity
	SourceTool    string
	CVEID         string
}

// Matches reports whether a record satisfies every supplied filter field.
func (f Filter) Matches(v models.Vulnerability) bool {
	if f.DeviceID != "" && v.DeviceID != f.DeviceID {
		return false
	}
	if f.ScanSessionID != "" && v.ScanSessionID != f.ScanSessionID {
		return false
	}
	if f.Severity != "" && v.Severity != f.Severity {
		return false
	}
	if f.SourceTool != "" && v.SourceTool != f.SourceTool {
		return false
	}
	if f.CVEID != "" && v.CVEID != f.CVEID {
		return false
	}
	return true
}

// Store is the vulnerability record store contract. Query results are always
// ordered severity_score descending, then detected_at descending, with ties
// resolved by insertion order so that pagination is deterministic.
type Store interface {
	// Insert adds a new record. Records are immutable once inserted.
	Insert(v models.Vulnerability) error

	// Query returns one page of records matching the filter plus the total
	// number of matches before pagination. A limit <= 0 means no limit.
	Query(f Filter, limit, offset int) ([]models.Vulnerability, int, error)

	// GetByID returns a single record or ErrNotFound.
	GetByID(id string) (models.Vulnerability, error)

	// DeleteByID permanently removes a record, or returns ErrNotFound.
	DeleteByID(id string) error

	// RecentBySeverity returns up to limit records of the given severity
	// ordered by detected_at descending.
	RecentBySeverity(sev models.Severity, limit int) ([]models.Vulnerability, error)

	// DetectedSince returns, in insertion order, every record whose
	// detected_at falls at or after the cutoff.
	DetectedSince(cutoff time.Time) ([]models.Vulnerability, error)

	// Close releases any resources held by the store.
	Close() error
}
