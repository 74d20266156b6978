package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

var documentCols = []string{
	"id", "report_id", "filename", "content_hash", "storage_path",
	"extracted_text", "notes", "created_at", "updated_at", "deleted_at",
}

func documentRow(doc *model.Document) *sqlmock.Rows {
	return sqlmock.NewRows(documentCols).AddRow(
		doc.ID, doc.ReportID, doc.Filename, doc.ContentHash, doc.StoragePath,
		doc.ExtractedText, doc.Notes, doc.CreatedAt, doc.UpdatedAt, doc.DeletedAt,
	)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	text := "extracted"
	doc := &model.Document{
		ID:            "doc-uuid",
		ReportID:      "report-uuid",
		Filename:      "test.txt",
		ContentHash:   "abc123",
		StoragePath:   "reports/report-uuid/abc123.txt",
		ExtractedText: &text,
		Notes:         "",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.ReportID, doc.Filename, doc.ContentHash, doc.StoragePath, doc.ExtractedText, doc.Notes, doc.CreatedAt, doc.UpdatedAt).
			WillReturnRows(documentRow(doc))

		result, err := repo.Create(ctx, doc)

		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Equal(t, doc.ID, result.ID)
		assert.Equal(t, doc.ContentHash, result.ContentHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to duplicate content", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.ReportID, doc.Filename, doc.ContentHash, doc.StoragePath, doc.ExtractedText, doc.Notes, doc.CreatedAt, doc.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_documents_report_content_hash"})

		result, err := repo.Create(ctx, doc)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, repository.ErrDuplicateContent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other errors pass through", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.ReportID, doc.Filename, doc.ContentHash, doc.StoragePath, doc.ExtractedText, doc.Notes, doc.CreatedAt, doc.UpdatedAt).
			WillReturnError(errors.New("connection reset"))

		result, err := repo.Create(ctx, doc)

		assert.Nil(t, result)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrDuplicateContent)
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := &model.Document{ID: "doc-1", ReportID: "rep-1", Filename: "file.txt", CreatedAt: time.Now(), UpdatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE id = ").
			WithArgs("doc-1").
			WillReturnRows(documentRow(doc))

		result, err := repo.FindByID(ctx, "doc-1")

		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Equal(t, "doc-1", result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE id = ").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		result, err := repo.FindByID(ctx, "missing")

		assert.Nil(t, result)
		assert.True(t, IsNoRowsError(err))
	})

	t.Run("soft-deleted row still returned", func(t *testing.T) {
		deleted := time.Now()
		doc := &model.Document{ID: "doc-2", ReportID: "rep-1", Filename: "gone.txt", DeletedAt: &deleted, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE id = ").
			WithArgs("doc-2").
			WillReturnRows(documentRow(doc))

		result, err := repo.FindByID(ctx, "doc-2")

		assert.NoError(t, err)
		assert.True(t, result.Deleted())
	})
}

func TestDocumentPostgres_FindByReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("active only excludes deleted", func(t *testing.T) {
		rows := sqlmock.NewRows(documentCols).
			AddRow("doc-b", "rep-1", "b.txt", "hb", "pb", nil, "", time.Now(), time.Now(), nil).
			AddRow("doc-a", "rep-1", "a.txt", "ha", "pa", nil, "", time.Now().Add(-time.Hour), time.Now(), nil)

		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE report_id = (.+) AND deleted_at IS NULL\\s+ORDER BY created_at DESC, id DESC").
			WithArgs("rep-1").
			WillReturnRows(rows)

		docs, err := repo.FindByReport(ctx, "rep-1", false)

		assert.NoError(t, err)
		assert.Len(t, docs, 2)
		assert.Equal(t, "doc-b", docs[0].ID)
	})

	t.Run("include deleted omits the filter", func(t *testing.T) {
		deleted := time.Now()
		rows := sqlmock.NewRows(documentCols).
			AddRow("doc-c", "rep-1", "c.txt", "hc", "pc", nil, "", time.Now(), time.Now(), &deleted)

		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE report_id = (.+)ORDER BY created_at DESC, id DESC").
			WithArgs("rep-1").
			WillReturnRows(rows)

		docs, err := repo.FindByReport(ctx, "rep-1", true)

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.True(t, docs[0].Deleted())
	})

	t.Run("empty report yields empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("rep-empty").
			WillReturnRows(sqlmock.NewRows(documentCols))

		docs, err := repo.FindByReport(ctx, "rep-empty", false)

		assert.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})
}

func TestDocumentPostgres_FindByHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("active match", func(t *testing.T) {
		doc := &model.Document{ID: "doc-1", ReportID: "rep-1", ContentHash: "deadbeef", CreatedAt: time.Now(), UpdatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE report_id = (.+) AND content_hash = (.+) AND deleted_at IS NULL").
			WithArgs("rep-1", "deadbeef").
			WillReturnRows(documentRow(doc))

		result, err := repo.FindByHash(ctx, "rep-1", "deadbeef")

		assert.NoError(t, err)
		assert.Equal(t, "doc-1", result.ID)
	})

	t.Run("no active match", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE report_id = (.+) AND content_hash = (.+) AND deleted_at IS NULL").
			WithArgs("rep-1", "deadbeef").
			WillReturnError(sql.ErrNoRows)

		result, err := repo.FindByHash(ctx, "rep-1", "deadbeef")

		assert.Nil(t, result)
		assert.True(t, IsNoRowsError(err))
	})
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:        "doc-1",
		ReportID:  "rep-1",
		Filename:  "renamed.txt",
		Notes:     "updated notes",
		UpdatedAt: now,
	}

	mock.ExpectQuery("UPDATE documents\\s+SET filename = (.+), notes = (.+), extracted_text = (.+), updated_at = (.+)\\s+WHERE id = ").
		WithArgs(doc.ID, doc.Filename, doc.Notes, doc.ExtractedText, doc.UpdatedAt).
		WillReturnRows(documentRow(doc))

	result, err := repo.Update(ctx, doc)

	assert.NoError(t, err)
	assert.Equal(t, "renamed.txt", result.Filename)
	assert.Equal(t, "updated notes", result.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("stamps active row", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents\\s+SET deleted_at = now\\(\\), updated_at = now\\(\\)\\s+WHERE id = (.+) AND deleted_at IS NULL").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SoftDelete(ctx, "doc-1"))
	})

	t.Run("idempotent on already-deleted row", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents\\s+SET deleted_at = now\\(\\), updated_at = now\\(\\)\\s+WHERE id = (.+) AND deleted_at IS NULL").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.SoftDelete(ctx, "doc-1"))
	})

	t.Run("exec error", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs("doc-1").
			WillReturnError(errors.New("exec failed"))

		assert.Error(t, repo.SoftDelete(ctx, "doc-1"))
	})
}

func TestDocumentPostgres_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("wraps query in wildcards", func(t *testing.T) {
		doc := &model.Document{ID: "doc-1", ReportID: "rep-1", Filename: "invoice.pdf", CreatedAt: time.Now(), UpdatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE report_id = (.+)ILIKE").
			WithArgs("rep-1", "%invoice%").
			WillReturnRows(documentRow(doc))

		docs, err := repo.Search(ctx, "rep-1", "invoice")

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("escapes LIKE metacharacters", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE report_id = (.+)ILIKE").
			WithArgs("rep-1", `%100\%\_done%`).
			WillReturnRows(sqlmock.NewRows(documentCols))

		docs, err := repo.Search(ctx, "rep-1", "100%_done")

		assert.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `plain`, escapeLike(`plain`))
	assert.Equal(t, `100\%`, escapeLike(`100%`))
	assert.Equal(t, `a\_b`, escapeLike(`a_b`))
	assert.Equal(t, `c:\\tmp`, escapeLike(`c:\tmp`))
}
