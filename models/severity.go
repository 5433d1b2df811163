package models

import "strings"

// SeverityLevel represents the severity of a finding or catalog definition.
// Stored uppercase; comparisons are case-insensitive.
type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "CRITICAL"
	SeverityHigh     SeverityLevel = "HIGH"
	SeverityMedium   SeverityLevel = "MEDIUM"
	SeverityLow      SeverityLevel = "LOW"
)

// Weight returns a numeric weight for sorting (higher = more severe).
func (s SeverityLevel) Weight() int {
	switch NormalizeSeverity(string(s)) {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

func (s SeverityLevel) String() string {
	return string(s)
}

// Valid reports whether s is one of the four known levels, ignoring case.
func (s SeverityLevel) Valid() bool {
	switch NormalizeSeverity(string(s)) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// NormalizeSeverity uppercases a raw severity string at the storage boundary.
// Unknown values pass through uppercased so they remain visible rather than
// being silently dropped.
func NormalizeSeverity(raw string) SeverityLevel {
	return SeverityLevel(strings.ToUpper(strings.TrimSpace(raw)))
}
