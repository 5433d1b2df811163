package models

// Category is a weak grouping of catalog definitions. Deleting a category
// only removes the grouping — member definitions survive ungrouped.
type Category struct {
	ID   int64  `json:"id"   db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// Definition is a reusable catalog entry describing a vulnerability class
// with default content. Definitions are shared: referenced by findings across
// many reports and never owned by any one report.
type Definition struct {
	ID              int64         `json:"id"               db:"id"`
	CategoryID      *int64        `json:"category_id"      db:"category_id"`
	Title           string        `json:"title"            db:"title"`
	SourceType      string        `json:"source_type"      db:"source_type"` // e.g. OWASP, Custom
	ExternalRef     string        `json:"external_ref"     db:"external_ref"` // e.g. CVE id
	DefaultSeverity SeverityLevel `json:"default_severity" db:"default_severity"`
	Description     string        `json:"description"      db:"description"`
	Impact          string        `json:"impact"           db:"impact"`
	Remediation     string        `json:"remediation"      db:"remediation"`
}
