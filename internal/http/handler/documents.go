package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/auth"
	"docvault/internal/http/middleware"
	"docvault/internal/repository"
	"docvault/internal/service"
)

// mapServiceError translates service-layer errors into the standardized
// error payload. Unauthorized and not-found grades are deliberately
// indistinguishable at this boundary so resource existence cannot be probed.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, auth.ErrUnauthorized):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, repository.ErrDuplicateContent):
		return writeError(c, fiber.StatusConflict, "DUPLICATE_CONTENT", "identical content already exists in this report")
	case errors.Is(err, service.ErrFilenameRequired):
		return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "filename is required")
	case errors.Is(err, service.ErrEmptyPayload):
		return writeError(c, fiber.StatusBadRequest, "EMPTY_PAYLOAD", "file is empty")
	case errors.Is(err, service.ErrPayloadTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "file exceeds the size limit")
	case errors.Is(err, service.ErrQueryRequired):
		return writeError(c, fiber.StatusBadRequest, "QUERY_REQUIRED", "search query is required")
	case errors.Is(err, service.ErrIDRequired), errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "bad request")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// UploadDocument handles multipart uploads into a report (field name: file).
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reportID := c.Params("reportID")
		if _, err := uuid.Parse(reportID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid report id format")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), reportID, middleware.PrincipalFromCtx(c), f, fh.Filename)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments returns the report's active documents, newest first.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reportID := c.Params("reportID")
		if _, err := uuid.Parse(reportID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid report id format")
		}

		docs, err := svc.List(c.UserContext(), reportID, middleware.PrincipalFromCtx(c))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": docs, "total": len(docs)})
	}
}

// SearchDocuments matches filename, notes and extracted text in the report.
func SearchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reportID := c.Params("reportID")
		if _, err := uuid.Parse(reportID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid report id format")
		}

		docs, err := svc.Search(c.UserContext(), reportID, middleware.PrincipalFromCtx(c), c.Query("q"))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": docs, "total": len(docs)})
	}
}

// GetDocument returns a single document's metadata.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		doc, err := svc.Get(c.UserContext(), id, middleware.PrincipalFromCtx(c))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams the original bytes.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		rc, doc, err := svc.Download(c.UserContext(), id, middleware.PrincipalFromCtx(c))
		if err != nil {
			return mapServiceError(c, err)
		}

		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		return c.SendStream(rc)
	}
}

// DocumentURL returns a time-limited presigned download URL.
func DocumentURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		u, err := svc.DownloadURL(c.UserContext(), id, middleware.PrincipalFromCtx(c))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": u})
	}
}

// updateDocumentRequest is the PATCH body; nil fields are left unchanged.
type updateDocumentRequest struct {
	Filename *string `json:"filename"`
	Notes    *string `json:"notes"`
}

// UpdateDocument applies metadata changes (filename, notes).
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		doc, err := svc.Update(c.UserContext(), id, middleware.PrincipalFromCtx(c), service.DocumentUpdate{
			Filename: req.Filename,
			Notes:    req.Notes,
		})
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument soft-deletes a document and removes its stored bytes.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := svc.Delete(c.UserContext(), id, middleware.PrincipalFromCtx(c)); err != nil {
			return mapServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
