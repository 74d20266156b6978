package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
// Read-only: report rows are written by the report management subsystem.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

// FindByID fetches a report by its ID, deleted or not.
func (r *ReportPostgres) FindByID(ctx context.Context, id string) (*model.Report, error) {
	const q = `
		SELECT id, owner_id, deleted_at
		FROM reports
		WHERE id = $1
	`
	var rep model.Report
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&rep.ID, &rep.OwnerID, &rep.DeletedAt); err != nil {
		return nil, err
	}
	return &rep, nil
}
