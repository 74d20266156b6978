// Package auth enforces the ownership chain: document → report → principal.
// Every read, mutation or delete of a document goes through the Guard; the
// service layer never touches the repositories or the content store for a
// document it did not first obtain from here.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"docvault/internal/model"
	"docvault/internal/repository"
)

var (
	// ErrNotFound is returned when the target entity does not exist, or when
	// its owning report is gone. Callers surface it exactly like an
	// ownership failure so resource existence cannot be probed.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the entity exists but the caller is
	// not the owner. Logged distinctly, surfaced identically to ErrNotFound.
	ErrUnauthorized = errors.New("unauthorized")
)

// Guard resolves ownership and fails closed.
type Guard struct {
	docs    repository.DocumentRepository
	reports repository.ReportRepository
	log     *slog.Logger
}

// NewGuard constructs a Guard over the given repositories.
func NewGuard(docs repository.DocumentRepository, reports repository.ReportRepository) *Guard {
	return &Guard{
		docs:    docs,
		reports: reports,
		log:     slog.Default().With("component", "auth"),
	}
}

// Report resolves the report and verifies the principal owns it.
// Missing or soft-deleted reports yield ErrNotFound.
func (g *Guard) Report(ctx context.Context, reportID, principalID string) (*model.Report, error) {
	rep, err := g.reports.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rep.Deleted() {
		return nil, ErrNotFound
	}
	if rep.OwnerID != principalID {
		g.log.Warn("report access denied", "report_id", reportID, "principal_id", principalID)
		return nil, ErrUnauthorized
	}
	return rep, nil
}

// Document resolves the document, then its owning report, and verifies the
// principal owns the chain. A document whose report no longer resolves is
// invisible: ErrNotFound, not a dangling reference.
func (g *Guard) Document(ctx context.Context, documentID, principalID string) (*model.Document, error) {
	doc, err := g.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.Deleted() {
		return nil, ErrNotFound
	}

	rep, err := g.reports.FindByID(ctx, doc.ReportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			g.log.Warn("document references missing report", "document_id", documentID, "report_id", doc.ReportID)
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rep.Deleted() {
		return nil, ErrNotFound
	}
	if rep.OwnerID != principalID {
		g.log.Warn("document access denied", "document_id", documentID, "principal_id", principalID)
		return nil, ErrUnauthorized
	}
	return doc, nil
}
