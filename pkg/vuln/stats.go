package vuln

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/vulnwatch/vulnwatch/pkg/models"
	"github.com/vulnwatch/vulnwatch/pkg/store"
)

// topCVELimit bounds the top_cves ranking in a stats summary.
const topCVELimit = 10

// CVECount is one entry of the top-CVE ranking.
type CVECount struct {
	CVEID string
	Count int
}

// CVECounts marshals as a JSON object whose keys keep ranking order, so the
// serialized top_cves mapping reads highest-count first.
type CVECounts []CVECount

func (c CVECounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.CVEID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		count, err := json.Marshal(entry.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Summary is the stats view over vulnerabilities detected inside a trailing
// time window.
type Summary struct {
	TotalVulnerabilities    int            `json:"total_vulnerabilities"`
	SeverityDistribution    map[string]int `json:"severity_distribution"`
	SourceToolDistribution  map[string]int `json:"source_tool_distribution"`
	TopCVEs                 CVECounts      `json:"top_cves"`
	CriticalVulnerabilities int            `json:"critical_vulnerabilities"`
	HighVulnerabilities     int            `json:"high_vulnerabilities"`
	DevicesAffected         int            `json:"devices_affected"`
}

// Aggregator computes stats summaries. It is a pure read-side component:
// every call recomputes from the store with no cached state.
type Aggregator struct {
	store store.Store
}

// NewAggregator creates a stats aggregator over the given store.
func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Summarize aggregates vulnerabilities detected in the trailing window of
// the given number of hours.
func (a *Aggregator) Summarize(windowHours int) (Summary, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	recent, err := a.store.DetectedSince(cutoff)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		TotalVulnerabilities:   len(recent),
		SeverityDistribution:   make(map[string]int),
		SourceToolDistribution: make(map[string]int),
	}

	cveCounts := make(map[string]int)
	cveFirstSeen := make(map[string]int)
	devices := make(map[string]struct{})

	for i, v := range recent {
		summary.SeverityDistribution[string(v.Severity)]++
		summary.SourceToolDistribution[v.SourceTool]++
		switch v.Severity {
		case models.SeverityCritical:
			summary.CriticalVulnerabilities++
		case models.SeverityHigh:
			summary.HighVulnerabilities++
		}
		if v.DeviceID != "" {
			devices[v.DeviceID] = struct{}{}
		}
		if v.CVEID != "" {
			if _, seen := cveCounts[v.CVEID]; !seen {
				cveFirstSeen[v.CVEID] = i
			}
			cveCounts[v.CVEID]++
		}
	}
	summary.DevicesAffected = len(devices)

	ranking := make(CVECounts, 0, len(cveCounts))
	for cve, count := range cveCounts {
		ranking = append(ranking, CVECount{CVEID: cve, Count: count})
	}
	// highest count first; ties keep first-encountered order so the
	// ranking is deterministic
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return cveFirstSeen[ranking[i].CVEID] < cveFirstSeen[ranking[j].CVEID]
	})
	if len(ranking) > topCVELimit {
		ranking = ranking[:topCVELimit]
	}
	summary.TopCVEs = ranking

	return summary, nil
}
