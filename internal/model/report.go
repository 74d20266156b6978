package model

import "time"

// Report is the owned container that scopes documents. Report CRUD lives in
// the report management subsystem; this core only reads it to resolve
// ownership.
type Report struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the report has been soft-deleted.
func (r *Report) Deleted() bool {
	return r.DeletedAt != nil
}
