package models

import "fmt"

// Severity is the five-level classification applied to every vulnerability.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists all recognized levels from least to most severe.
var Severities = []Severity{
	SeverityInfo,
	SeverityLow,
	SeverityMedium,
	SeverityHigh,
	SeverityCritical,
}

var severityRanks = map[Severity]int{
	SeverityInfo:     1,
	SeverityLow:      2,
	SeverityMedium:   3,
	SeverityHigh:     4,
	SeverityCritical: 5,
}

// severity score bands; a record's score is base + cvss/10 so that any
// higher severity always outranks any lower one regardless of CVSS
var severityScoreBase = map[Severity]float64{
	SeverityInfo:     0.0,
	SeverityLow:      2.0,
	SeverityMedium:   4.0,
	SeverityHigh:     6.0,
	SeverityCritical: 8.0,
}

// ErrInvalidSeverity is returned when a severity string is not one of the
// five recognized levels.
var ErrInvalidSeverity = fmt.Errorf("invalid severity, valid options: %s, %s, %s, %s, %s",
	SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical)

// ParseSeverity validates a severity string against the enumeration.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if _, ok := severityRanks[sev]; !ok {
		return "", ErrInvalidSeverity
	}
	return sev, nil
}

// Rank returns the numeric position of the severity in the ordered
// enumeration (info=1 .. critical=5), or 0 for an unrecognized value.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// SeverityScore derives the sort score for a record from its severity band
// and CVSS score.
func SeverityScore(sev Severity, cvss float64) float64 {
	if cvss < 0 {
		cvss = 0
	}
	if cvss > 10 {
		cvss = 10
	}
	return severityScoreBase[sev] + cvss/10
}
