package store

import (
	"sync"

	"github.com/vulnwatch/vulnwatch/pkg/models"
)

// DeviceIndex is an insertion-ordered, keyed view over the devices known to
// the tracker. The device set is produced externally; the index only serves
// lookups and counts.
type DeviceIndex struct {
	mu      sync.RWMutex
	byID    map[string]models.Device
	ordered []string
}

// NewDeviceIndex creates an index seeded with the given devices.
func NewDeviceIndex(devices []models.Device) *DeviceIndex {
	idx := &DeviceIndex{byID: make(map[string]models.Device)}
	idx.AddAll(devices)
	return idx
}

// AddAll registers devices, replacing any with the same id.
func (idx *DeviceIndex) AddAll(devices []models.Device) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, d := range devices {
		if _, seen := idx.byID[d.ID]; !seen {
			idx.ordered = append(idx.ordered, d.ID)
		}
		idx.byID[d.ID] = d
	}
}

// Get resolves a device id, or returns ErrNotFound.
func (idx *DeviceIndex) Get(id string) (models.Device, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	d, ok := idx.byID[id]
	if !ok {
		return models.Device{}, ErrNotFound
	}
	return d, nil
}

// List returns all devices in registration order.
func (idx *DeviceIndex) List() []models.Device {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	devices := make([]models.Device, 0, len(idx.ordered))
	for _, id := range idx.ordered {
		devices = append(devices, idx.byID[id])
	}
	return devices
}

// Count returns the number of known devices.
func (idx *DeviceIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ordered)
}
