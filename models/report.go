package models

import (
	"encoding/json"
	"time"
)

// ReportStatus is the overall lifecycle state of an assessment document.
// Deliberately a non-guarded enum: any valid value may be set at any time
// (assessors do move reports from Verified back to Draft when re-testing).
type ReportStatus string

const (
	ReportDraft      ReportStatus = "Draft"
	ReportInProgress ReportStatus = "In Progress"
	ReportCompleted  ReportStatus = "Completed"
	ReportVerified   ReportStatus = "Verified"
)

// Valid reports whether s is a known lifecycle status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportDraft, ReportInProgress, ReportCompleted, ReportVerified:
		return true
	}
	return false
}

// AssessmentType distinguishes internal from external engagements.
type AssessmentType string

const (
	AssessmentInternal AssessmentType = "Internal"
	AssessmentExternal AssessmentType = "External"
)

func (t AssessmentType) Valid() bool {
	return t == AssessmentInternal || t == AssessmentExternal
}

// TestLocation records where the assessment was performed.
type TestLocation string

const (
	LocationOnSite  TestLocation = "On-site"
	LocationOffSite TestLocation = "Off-site"
)

func (l TestLocation) Valid() bool {
	return l == LocationOnSite || l == LocationOffSite
}

// Report is a single penetration-test engagement document. It exclusively
// owns an ordered collection of Findings; FindingsCount is always computed
// from that collection, never stored.
type Report struct {
	ID              int64          `json:"id"               db:"id"`
	ClientName      string         `json:"client_name"      db:"client_name"`
	ApplicationName string         `json:"application_name" db:"application_name"`
	AssessmentType  AssessmentType `json:"assessment_type"  db:"assessment_type"`
	Targets         []string       `json:"targets"          db:"-"`
	ToolsUsed       []string       `json:"tools_used"       db:"-"`
	TestLocation    TestLocation   `json:"test_location"    db:"test_location"`
	StartDate       string         `json:"start_date"       db:"start_date"` // YYYY-MM-DD
	EndDate         string         `json:"end_date"         db:"end_date"`
	PreparedBy      string         `json:"prepared_by"      db:"prepared_by"`
	ReviewedBy      string         `json:"reviewed_by"      db:"reviewed_by"`
	ApprovedBy      string         `json:"approved_by"      db:"approved_by"`
	Status          ReportStatus   `json:"status"           db:"status"`
	FindingsCount   int            `json:"findings_count"   db:"-"`
	CreatedAt       time.Time      `json:"created_at"       db:"created_at"`
}

// EncodeStringList serialises an ordered list for a TEXT column.
// nil and empty both encode as "[]" so column values stay scannable.
func EncodeStringList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeStringList is the inverse of EncodeStringList.
func DecodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
