package config

import (
	"encoding/json"
	"os"

	"github.com/vulnwatch/vulnwatch/pkg/models"
)

// Config holds the tracker configuration
type Config struct {
	Port               string  // Port for the HTTP API
	EnableCORS         bool    // Whether to emit permissive CORS headers
	DatabasePath       string  // Path to the SQLite record store; empty runs in-memory
	DeviceFile         string  // JSON file with the known device inventory
	ProgressIncrement  float64 // Progress added per scan status poll
	DefaultLimit       int     // Default page size for vulnerability listings
	MaxLimit           int     // Hard ceiling on vulnerability listing page size
	MaxSeverityLimit   int     // Hard ceiling on by-severity listing size
	DefaultStatsWindow int     // Default stats window in hours
	Verbose            bool    // Enable verbose output
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		Port:               "8000",
		EnableCORS:         true,
		ProgressIncrement:  0.1,
		DefaultLimit:       100,
		MaxLimit:           1000,
		MaxSeverityLimit:   500,
		DefaultStatsWindow: 24,
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(filePath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}

	err = json.Unmarshal(data, &cfg)
	return cfg, err
}

// LoadDevicesFromFile loads the device inventory from a JSON file
func LoadDevicesFromFile(filePath string) ([]models.Device, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var devices []models.Device
	err = json.Unmarshal(data, &devices)
	return devices, err
}
