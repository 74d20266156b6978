package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docvault/internal/auth"
	"docvault/internal/hash"
	"docvault/internal/model"
	"docvault/internal/parser"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrReaderNil        = errors.New("reader is nil")
	ErrFilenameRequired = errors.New("filename is required")
	ErrEmptyPayload     = errors.New("payload is empty")
	ErrPayloadTooLarge  = errors.New("payload exceeds size limit")
	ErrQueryRequired    = errors.New("search query is required")
)

// DocumentUpdate carries the mutable fields of a PATCH. Nil means "leave
// unchanged"; notes may be set to the empty string, filename may not.
type DocumentUpdate struct {
	Filename *string
	Notes    *string
}

// DocumentService defines the document ingestion and access use cases.
// Every operation takes the caller's principal ID and runs it through the
// authorization guard before any repository or storage access.
type DocumentService interface {
	// Upload ingests a file into the report: dedup by content hash, persist
	// bytes, extract text (best effort) and record metadata. Returns
	// repository.ErrDuplicateContent when identical active content already
	// exists in the report.
	Upload(ctx context.Context, reportID, principalID string, r io.Reader, originalFilename string) (*model.Document, error)

	// Get returns a single document.
	Get(ctx context.Context, id, principalID string) (*model.Document, error)

	// Download streams the original bytes of a document.
	Download(ctx context.Context, id, principalID string) (io.ReadCloser, *model.Document, error)

	// DownloadURL returns a time-limited presigned URL for the document bytes,
	// so clients can fetch large files straight from object storage.
	DownloadURL(ctx context.Context, id, principalID string) (string, error)

	// List returns the report's active documents, newest first.
	List(ctx context.Context, reportID, principalID string) ([]model.Document, error)

	// Update applies metadata changes and refreshes the modification time.
	Update(ctx context.Context, id, principalID string, upd DocumentUpdate) (*model.Document, error)

	// Delete removes the stored bytes (best effort) and soft-deletes the
	// metadata record.
	Delete(ctx context.Context, id, principalID string) error

	// Search matches filename, notes and extracted text within the report.
	Search(ctx context.Context, reportID, principalID, query string) ([]model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	guard   *auth.Guard
	store   storage.Storage
	repo    repository.DocumentRepository
	parser  parser.Client
	maxSize int64
	log     *slog.Logger
}

// NewDocumentService constructs a new DocumentService. maxSize bounds the
// accepted upload payload in bytes.
func NewDocumentService(guard *auth.Guard, store storage.Storage, repo repository.DocumentRepository, pc parser.Client, maxSize int64) DocumentService {
	return &documentService{
		guard:   guard,
		store:   store,
		repo:    repo,
		parser:  pc,
		maxSize: maxSize,
		log:     slog.Default().With("component", "documents"),
	}
}

func (s *documentService) Upload(ctx context.Context, reportID, principalID string, r io.Reader, originalFilename string) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if originalFilename == "" {
		return nil, ErrFilenameRequired
	}

	if _, err := s.guard.Report(ctx, reportID, principalID); err != nil {
		return nil, err
	}

	// Bounded read: one extra byte past the limit is enough to reject.
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrPayloadTooLarge
	}

	digest := hash.Sum(data)

	// Dedup before any write: identical active content in this report means
	// no storage put and no parse job.
	existing, err := s.repo.FindByHash(ctx, reportID, digest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dedup check: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrDuplicateContent
	}

	key := storage.ObjectKey(reportID, digest, originalFilename)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size: int64(len(data)),
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	// Best-effort extraction; a failed parse leaves the text absent and the
	// upload proceeds.
	var extracted *string
	if text, ok := s.parser.Extract(ctx, data, originalFilename); ok {
		extracted = &text
	} else {
		s.log.Warn("text extraction failed, storing document without text",
			"report_id", reportID, "filename", originalFilename)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:            uuid.New().String(),
		ReportID:      reportID,
		Filename:      originalFilename,
		ContentHash:   digest,
		StoragePath:   key,
		ExtractedText: extracted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// The metadata write completes even if the caller disconnects, so the
	// stored bytes never end up orphaned without a record.
	stored, err := s.repo.Create(context.WithoutCancel(ctx), doc)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateContent) {
			// Lost a race with a concurrent identical upload. The bytes we
			// wrote are digest-addressed and byte-identical to the winner's,
			// so there is nothing to undo.
			return nil, err
		}
		// Roll back the object so failed metadata writes don't leak bytes.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// Get returns a document after the ownership chain check.
func (s *documentService) Get(ctx context.Context, id, principalID string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	return s.guard.Document(ctx, id, principalID)
}

// Download streams the original bytes, gated by the same guard as Get.
func (s *documentService) Download(ctx context.Context, id, principalID string) (io.ReadCloser, *model.Document, error) {
	if id == "" {
		return nil, nil, ErrIDRequired
	}
	doc, err := s.guard.Document(ctx, id, principalID)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read storage: %w", err)
	}
	return rc, doc, nil
}

// presignExpiry bounds how long a presigned download link stays valid.
const presignExpiry = 15 * time.Minute

// DownloadURL hands out a presigned storage URL, gated by the same guard as
// Download. The URL bypasses this service entirely once issued, so the
// short expiry is the only thing limiting its lifetime.
func (s *documentService) DownloadURL(ctx context.Context, id, principalID string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	doc, err := s.guard.Document(ctx, id, principalID)
	if err != nil {
		return "", err
	}
	u, err := s.store.PresignGet(ctx, doc.StoragePath, presignExpiry)
	if err != nil {
		return "", fmt.Errorf("presign storage url: %w", err)
	}
	return u, nil
}

// List returns the report's active documents, newest first.
func (s *documentService) List(ctx context.Context, reportID, principalID string) ([]model.Document, error) {
	if _, err := s.guard.Report(ctx, reportID, principalID); err != nil {
		return nil, err
	}
	return s.repo.FindByReport(ctx, reportID, false)
}

// Update applies the mutable-field changes and re-saves with a refreshed
// modification timestamp. Hash, storage path and report reference stay put.
func (s *documentService) Update(ctx context.Context, id, principalID string, upd DocumentUpdate) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if upd.Filename != nil && *upd.Filename == "" {
		return nil, ErrFilenameRequired
	}

	doc, err := s.guard.Document(ctx, id, principalID)
	if err != nil {
		return nil, err
	}

	if upd.Filename != nil {
		doc.Filename = *upd.Filename
	}
	if upd.Notes != nil {
		doc.Notes = *upd.Notes
	}
	doc.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, doc)
}

// Delete removes bytes best-effort, then soft-deletes the metadata. A failed
// byte removal is logged and never blocks the soft delete: the user-visible
// contract is "this document is gone", not "these bytes are gone".
func (s *documentService) Delete(ctx context.Context, id, principalID string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.guard.Document(ctx, id, principalID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		s.log.Warn("storage delete failed, proceeding with soft delete",
			"document_id", doc.ID, "storage_path", doc.StoragePath, "error", err)
	}

	return s.repo.SoftDelete(ctx, id)
}

// Search authorizes the report, then delegates; results are pre-scoped to
// the authorized report by the repository query.
func (s *documentService) Search(ctx context.Context, reportID, principalID, query string) ([]model.Document, error) {
	if query == "" {
		return nil, ErrQueryRequired
	}
	if _, err := s.guard.Report(ctx, reportID, principalID); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, reportID, query)
}
