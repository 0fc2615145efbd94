package models

// Device represents a known device on the monitored network. Devices are
// managed by the external discovery tooling and are immutable here.
type Device struct {
	ID         string `json:"id"`                 // Device identifier
	IPAddress  string `json:"ip_address"`         // IP address of the device
	Hostname   string `json:"hostname,omitempty"` // Hostname, if resolved
	DeviceType string `json:"device_type"`        // Category (router, camera, server, ...)
	RiskLevel  string `json:"risk_level"`         // Operator-assigned risk rating
}

// UnknownDeviceIP is the sentinel IP reported for vulnerabilities whose
// device link does not resolve.
const UnknownDeviceIP = "Unknown"
