package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
)

// ErrDuplicateContent is returned by Create when an active document with the
// same content hash already exists in the same report. The database's
// uniqueness constraint is the single linearization point for concurrent
// uploads of identical content.
var ErrDuplicateContent = errors.New("duplicate content in report")

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document row. It returns ErrDuplicateContent if an
	// active document with the same (report_id, content_hash) already exists.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, soft-deleted rows included.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByReport returns the report's documents ordered newest-first.
	// Soft-deleted rows are excluded unless includeDeleted is set.
	FindByReport(ctx context.Context, reportID string, includeDeleted bool) ([]model.Document, error)

	// FindByHash returns the active document with the given content hash in
	// the report, or sql.ErrNoRows if none. Soft-deleted rows never match.
	FindByHash(ctx context.Context, reportID, contentHash string) (*model.Document, error)

	// Update persists the mutable fields (filename, notes, extracted text)
	// and refreshes updated_at.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// SoftDelete marks the document deleted. Calling it on an already
	// deleted document is a no-op.
	SoftDelete(ctx context.Context, id string) error

	// Search returns the report's active documents whose filename, notes or
	// extracted text contains the query, case-insensitively.
	Search(ctx context.Context, reportID, query string) ([]model.Document, error)
}
