package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	for _, sev := range Severities {
		parsed, err := ParseSeverity(string(sev))
		require.NoError(t, err)
		assert.Equal(t, sev, parsed)
	}

	for _, invalid := range []string{"", "CRITICAL", "urgent", "none"} {
		_, err := ParseSeverity(invalid)
		assert.ErrorIs(t, err, ErrInvalidSeverity, "severity %q should be rejected", invalid)
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	for i := 1; i < len(Severities); i++ {
		assert.Greater(t, Severities[i].Rank(), Severities[i-1].Rank())
	}
	assert.Zero(t, Severity("bogus").Rank())
}

func TestSeverityScoreRespectsSeverityOrdering(t *testing.T) {
	// the worst case: lower severity with maximal CVSS against higher
	// severity with minimal CVSS
	for i := 1; i < len(Severities); i++ {
		lower := SeverityScore(Severities[i-1], 10.0)
		higher := SeverityScore(Severities[i], 0.0)
		assert.GreaterOrEqual(t, higher, lower,
			"%s(cvss=0) must not rank below %s(cvss=10)", Severities[i], Severities[i-1])
	}
}

func TestSeverityScoreClampsCVSS(t *testing.T) {
	assert.Equal(t, SeverityScore(SeverityHigh, 0), SeverityScore(SeverityHigh, -3))
	assert.Equal(t, SeverityScore(SeverityHigh, 10), SeverityScore(SeverityHigh, 42))
}
