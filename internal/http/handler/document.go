package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"papertrail/internal/http/middleware"
	"papertrail/internal/service"
)

type shareRequest struct {
	GrantedToEmail string     `json:"grantedToEmail"`
	GrantedToName  string     `json:"grantedToName"`
	Role           string     `json:"role"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

func actorMeta(c *fiber.Ctx) service.ActorMeta {
	return service.ActorMeta{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

// UploadDocument accepts a multipart upload (field name: document) plus
// optional category, subcategory, taxYear, and description form fields.
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("document")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "No file uploaded")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		var taxYear *int
		if raw := c.FormValue("taxYear"); raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_TAX_YEAR", "taxYear must be a number")
			}
			taxYear = &year
		}

		doc, err := svc.Upload(c.UserContext(), service.UploadInput{
			OwnerID:          middleware.UserIDFromCtx(c),
			Reader:           f,
			OriginalFilename: fh.Filename,
			ContentType:      ct,
			Size:             fh.Size,
			Category:         c.FormValue("category"),
			Subcategory:      c.FormValue("subcategory"),
			TaxYear:          taxYear,
			Description:      c.FormValue("description"),
			Meta:             actorMeta(c),
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrFileTypeNotAllowed):
				return writeError(c, fiber.StatusBadRequest, "FILE_TYPE_NOT_ALLOWED", "File type not allowed")
			case errors.Is(err, service.ErrFileTooLarge):
				return writeError(c, fiber.StatusBadRequest, "FILE_TOO_LARGE", "File too large")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments returns the caller's documents, newest first, each with its
// active grants.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		views, err := svc.List(c.UserContext(), middleware.UserIDFromCtx(c))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(views)
	}
}

// ShareDocument creates a grant on an owned document. A share notification is
// logged rather than emailed; delivery is an operational concern.
func ShareDocument(svc service.DocumentService) fiber.Handler {
	enc := json.NewEncoder(os.Stdout)

	return func(c *fiber.Ctx) error {
		var req shareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		perm, err := svc.Share(c.UserContext(), service.ShareInput{
			DocumentID:     c.Params("id"),
			OwnerID:        middleware.UserIDFromCtx(c),
			GrantedToEmail: req.GrantedToEmail,
			GrantedToName:  req.GrantedToName,
			Role:           req.Role,
			ExpiresAt:      req.ExpiresAt,
			Meta:           actorMeta(c),
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrFieldsRequired):
				return writeError(c, fiber.StatusBadRequest, "FIELDS_REQUIRED", "Email, name and role are required")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		_ = enc.Encode(map[string]any{
			"event":       "share_notification",
			"request_id":  requestIDFromCtx(c),
			"document_id": perm.DocumentID,
			"shared_with": perm.GrantedToEmail,
			"role":        perm.Role,
		})

		return c.Status(fiber.StatusCreated).JSON(perm)
	}
}

// RevokeShare deactivates a grant on an owned document. The grant row is kept
// for the audit record.
func RevokeShare(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := svc.Revoke(c.UserContext(), service.RevokeInput{
			DocumentID:   c.Params("id"),
			PermissionID: c.Params("permissionId"),
			OwnerID:      middleware.UserIDFromCtx(c),
			Meta:         actorMeta(c),
		})
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AuditTrail returns every audit entry for an owned document, newest first.
func AuditTrail(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := svc.AuditTrail(c.UserContext(), c.Params("id"), middleware.UserIDFromCtx(c))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(entries)
	}
}

// DownloadDocument streams the stored file back under its original name.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, doc, err := svc.Download(c.UserContext(), c.Params("id"), middleware.UserIDFromCtx(c), actorMeta(c))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
		if doc.MimeType != "" {
			c.Set(fiber.HeaderContentType, doc.MimeType)
		}
		return c.SendStream(rc)
	}
}
