package model

import "time"

// Document represents an uploaded file scoped to a report.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// ContentHash, StoragePath and ReportID are fixed at creation; only metadata
// (Filename, Notes, ExtractedText, DeletedAt) mutates afterwards.
type Document struct {
	ID            string     `json:"id"`
	ReportID      string     `json:"report_id"`
	Filename      string     `json:"filename"`
	ContentHash   string     `json:"content_hash"`
	StoragePath   string     `json:"-"`
	ExtractedText *string    `json:"extracted_text,omitempty"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the document has been soft-deleted.
func (d *Document) Deleted() bool {
	return d.DeletedAt != nil
}
