package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// uniqueViolation is the SQLSTATE raised when the partial unique index over
// (report_id, content_hash) rejects a second active row.
const uniqueViolation = "23505"

const documentColumns = `id, report_id, filename, content_hash, storage_path, extracted_text, notes, created_at, updated_at, deleted_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
// A unique violation on the active (report_id, content_hash) index is mapped
// to repository.ErrDuplicateContent.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, report_id, filename, content_hash, storage_path, extracted_text, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.ReportID,
		doc.Filename,
		doc.ContentHash,
		doc.StoragePath,
		doc.ExtractedText,
		doc.Notes,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrDuplicateContent
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document by its ID, deleted or not.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByReport returns the report's documents, newest first.
func (r *DocumentPostgres) FindByReport(ctx context.Context, reportID string, includeDeleted bool) ([]model.Document, error) {
	q := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE report_id = $1
	`
	if !includeDeleted {
		q += ` AND deleted_at IS NULL`
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, reportID)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// FindByHash returns the active document with the given hash in the report.
// Soft-deleted rows with the same hash do not match, so re-uploading content
// that was previously removed is allowed.
func (r *DocumentPostgres) FindByHash(ctx context.Context, reportID, contentHash string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE report_id = $1 AND content_hash = $2 AND deleted_at IS NULL
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, reportID, contentHash))
}

// Update persists mutable fields only. Hash, storage path and report
// reference are immutable after creation and deliberately not touched.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET filename = $2, notes = $3, extracted_text = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Filename,
		doc.Notes,
		doc.ExtractedText,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// SoftDelete stamps deleted_at on an active row. Already-deleted rows are
// left untouched, keeping the call idempotent.
func (r *DocumentPostgres) SoftDelete(ctx context.Context, id string) error {
	const q = `
		UPDATE documents
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// Search matches the query as a case-insensitive substring over filename,
// notes and extracted text, scoped to the report's active documents.
func (r *DocumentPostgres) Search(ctx context.Context, reportID, query string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE report_id = $1
		  AND deleted_at IS NULL
		  AND (filename ILIKE $2 OR notes ILIKE $2 OR extracted_text ILIKE $2)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, reportID, "%"+escapeLike(query)+"%")
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(
		&d.ID,
		&d.ReportID,
		&d.Filename,
		&d.ContentHash,
		&d.StoragePath,
		&d.ExtractedText,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	defer rows.Close()
	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied queries.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// IsNoRowsError reports whether err is sql.ErrNoRows.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
