package main

import (
	"fmt"
	"time"

	"github.com/vulnwatch/vulnwatch/pkg/models"
)

// Sample inventory and findings for demo mode.

func sampleDevices() []models.Device {
	return []models.Device{
		{
			ID:         "1",
			IPAddress:  "192.168.1.101",
			Hostname:   "samuel-macbook-pro.local",
			DeviceType: "workstation",
			RiskLevel:  "low",
		},
		{
			ID:         "2",
			IPAddress:  "192.168.1.105",
			Hostname:   "living-room-appletv.local",
			DeviceType: "media_player",
			RiskLevel:  "medium",
		},
		{
			ID:         "3",
			IPAddress:  "192.168.1.10",
			Hostname:   "camera-livingroom",
			DeviceType: "ip_camera",
			RiskLevel:  "high",
		},
	}
}

func sampleVulnerabilities() []models.Vulnerability {
	now := time.Now().UTC()
	findings := []struct {
		title    string
		cve      string
		severity models.Severity
		cvss     float64
		tool     string
		device   string
		port     int
		service  string
		solution string
		age      time.Duration
	}{
		{
			title:    "Default credentials on RTSP service",
			cve:      "CVE-2021-36260",
			severity: models.SeverityCritical,
			cvss:     9.8,
			tool:     "nmap",
			device:   "3",
			port:     554,
			service:  "rtsp",
			solution: "Change the default administrator password and restrict RTSP access",
			age:      2 * time.Hour,
		},
		{
			title:    "Outdated firmware with known remote code execution",
			cve:      "CVE-2021-36260",
			severity: models.SeverityCritical,
			cvss:     9.8,
			tool:     "nuclei",
			device:   "3",
			port:     80,
			service:  "http",
			solution: "Upgrade the camera firmware to the latest vendor release",
			age:      3 * time.Hour,
		},
		{
			title:    "TLS certificate uses weak signature algorithm",
			cve:      "",
			severity: models.SeverityHigh,
			cvss:     7.4,
			tool:     "nmap",
			device:   "2",
			port:     443,
			service:  "https",
			solution: "Reissue the certificate with SHA-256 or stronger",
			age:      8 * time.Hour,
		},
		{
			title:    "SMB signing not required",
			cve:      "",
			severity: models.SeverityMedium,
			cvss:     5.3,
			tool:     "nmap",
			device:   "1",
			port:     445,
			service:  "smb",
			solution: "Enable mandatory SMB signing",
			age:      20 * time.Hour,
		},
		{
			title:    "mDNS service discloses host information",
			cve:      "",
			severity: models.SeverityLow,
			cvss:     3.1,
			tool:     "nmap",
			device:   "1",
			port:     5353,
			service:  "mdns",
			solution: "Restrict mDNS responses to the local segment",
			age:      26 * time.Hour,
		},
		{
			title:    "HTTP server banner reveals version",
			cve:      "",
			severity: models.SeverityInfo,
			cvss:     0,
			tool:     "nikto",
			device:   "3",
			port:     80,
			service:  "http",
			solution: "",
			age:      30 * time.Hour,
		},
	}

	vulns := make([]models.Vulnerability, 0, len(findings))
	for i, f := range findings {
		vulns = append(vulns, models.Vulnerability{
			ID:              sampleID(i),
			CVEID:           f.cve,
			Title:           f.title,
			Description:     f.title,
			Severity:        f.severity,
			SeverityScore:   models.SeverityScore(f.severity, f.cvss),
			CVSSScore:       f.cvss,
			SourceTool:      f.tool,
			DetectedAt:      now.Add(-f.age),
			AffectedPort:    f.port,
			AffectedService: f.service,
			Solution:        f.solution,
			DeviceID:        f.device,
		})
	}
	return vulns
}

func sampleID(i int) string {
	return fmt.Sprintf("sample-%d", i+1)
}
