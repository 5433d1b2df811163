package models

import "time"

// Evidence is a binary attachment owned by a single finding. FileRef is an
// opaque blob handle — storage mechanics live behind the server's blob dir.
// Listing order is strictly insertion order; there is no reordering.
type Evidence struct {
	ID          int64     `json:"id"          db:"id"`
	FindingID   int64     `json:"finding_id"  db:"finding_id"`
	Title       string    `json:"title"       db:"title"`
	FileRef     string    `json:"file_ref"    db:"file_ref"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}
