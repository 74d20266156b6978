package repository

import (
	"context"

	"docvault/internal/model"
)

// ReportRepository resolves the owning report for authorization checks.
// Report CRUD belongs to the report management subsystem and is not exposed
// here.
type ReportRepository interface {
	// FindByID returns a report by its ID, soft-deleted rows included.
	FindByID(ctx context.Context, id string) (*model.Report, error)
}
