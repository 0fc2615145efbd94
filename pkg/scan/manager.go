// Package scan owns the scan session lifecycle state machine. Sessions move
// pending -> in_progress at creation and reach the terminal completed state
// once progress saturates at 1.0. Progress is driven by status polls; there
// is no background worker.
package scan

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/store"
)

// DefaultProgressIncrement is the progress added per status poll.
const DefaultProgressIncrement = 0.1

// Status is the poll response for a session, including the derived
// discovery counters presented to the caller.
type Status struct {
	SessionID              string  `json:"session_id"`
	Status                 string  `json:"status"`
	Progress               float64 `json:"progress"`
	CurrentTask            string  `json:"current_task"`
	EstimatedTimeRemaining int     `json:"estimated_time_remaining"`
	DevicesFound           int     `json:"devices_found"`
	VulnerabilitiesFound   int     `json:"vulnerabilities_found"`
}

type session struct {
	mu    sync.Mutex
	ticks int
	info  models.ScanSession
}

// Manager creates scan sessions and advances their lifecycle. Each session
// carries its own lock so concurrent polls on one session serialize while
// distinct sessions stay independent.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	devices   *store.DeviceIndex
	increment float64
	logger    *logrus.Logger
}

// NewManager creates a session manager polling against the given device
// index. An increment <= 0 falls back to DefaultProgressIncrement.
func NewManager(devices *store.DeviceIndex, increment float64, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	if increment <= 0 {
		increment = DefaultProgressIncrement
	}
	return &Manager{
		sessions:  make(map[string]*session),
		devices:   devices,
		increment: increment,
		logger:    logger,
	}
}

// StartScan allocates a new session. The session is created pending and
// transitions immediately to in_progress; no scanning side effects happen
// here, the actual scan runs externally.
func (m *Manager) StartScan(targetRange, scanType string) models.ScanSession {
	if scanType == "" {
		scanType = "network"
	}
	info := models.ScanSession{
		ID:          uuid.New().String(),
		TargetRange: targetRange,
		ScanType:    scanType,
		Status:      models.ScanStatusPending,
		CreatedAt:   time.Now().UTC(),
		Progress:    0.0,
	}
	info.Status = models.ScanStatusInProgress

	m.mu.Lock()
	m.sessions[info.ID] = &session{info: info}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session_id":   info.ID,
		"target_range": targetRange,
		"scan_type":    scanType,
	}).Info("Scan session started")

	return info
}

// GetSession returns the raw session record, or store.ErrNotFound.
func (m *Manager) GetSession(sessionID string) (models.ScanSession, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return models.ScanSession{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info, nil
}

// GetStatus reports a session's state. While the session is in progress the
// poll itself advances progress by the configured increment; the poll that
// saturates progress at 1.0 performs the terminal transition, stamping
// completed_at and fixing device_count. Completed sessions return the same
// snapshot on every subsequent call.
func (m *Manager) GetStatus(sessionID string) (Status, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info.Status == models.ScanStatusInProgress {
		s.ticks++
		// progress derives from the tick count so repeated 0.1 steps land
		// on exactly 1.0 instead of accumulating float error
		s.info.Progress = float64(s.ticks) * m.increment
		if s.info.Progress >= 1.0 {
			s.info.Progress = 1.0
			s.info.Status = models.ScanStatusCompleted
			now := time.Now().UTC()
			s.info.CompletedAt = &now
			s.info.DeviceCount = m.devices.Count()
			m.logger.WithField("session_id", s.info.ID).Info("Scan session completed")
		}
	}

	knownDevices := s.info.DeviceCount
	if s.info.Status != models.ScanStatusCompleted {
		knownDevices = m.devices.Count()
	}

	vulnsFound := 0
	if s.info.Progress >= 0.5 {
		vulnsFound = 1
	}

	return Status{
		SessionID:              s.info.ID,
		Status:                 s.info.Status,
		Progress:               s.info.Progress,
		CurrentTask:            "Scanning for devices...",
		EstimatedTimeRemaining: 10,
		DevicesFound:           int(math.Floor(s.info.Progress * float64(knownDevices))),
		VulnerabilitiesFound:   vulnsFound,
	}, nil
}

func (m *Manager) lookup(sessionID string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}
