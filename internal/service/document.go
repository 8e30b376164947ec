package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"papertrail/internal/categorize"
	"papertrail/internal/config"
	"papertrail/internal/model"
	"papertrail/internal/repository"
	"papertrail/internal/storage"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrReaderNil          = errors.New("reader is nil")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file too large")
)

// ActorMeta carries request-level actor details recorded in audit entries.
type ActorMeta struct {
	IP        string
	UserAgent string
}

// UploadInput carries everything needed to store one uploaded file.
// Category and Subcategory are optional; when either is empty the categorizer
// fills it from the original filename.
type UploadInput struct {
	OwnerID          string
	Reader           io.Reader
	OriginalFilename string
	ContentType      string
	Size             int64
	Category         string
	Subcategory      string
	TaxYear          *int
	Description      string
	Meta             ActorMeta
}

// ShareInput carries a share request for one owned document.
type ShareInput struct {
	DocumentID     string
	OwnerID        string
	GrantedToEmail string
	GrantedToName  string
	Role           string
	ExpiresAt      *time.Time
	Meta           ActorMeta
}

// RevokeInput identifies a grant to deactivate on one owned document.
type RevokeInput struct {
	DocumentID   string
	PermissionID string
	OwnerID      string
	Meta         ActorMeta
}

// DocumentView is a document annotated with its currently active grants.
type DocumentView struct {
	model.Document
	SharedWith []model.Permission `json:"sharedWith"`
}

// DocumentService implements the document use cases. Every operation that
// takes an owner id applies ownership-scoped visibility: a document that
// exists but belongs to someone else behaves exactly like one that does not
// exist, so callers cannot probe for ids.
type DocumentService interface {
	// Upload validates the file, stores its bytes, saves metadata, and
	// appends an "upload" audit entry. Storage is rolled back if the
	// metadata save fails.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List returns the owner's documents newest-first, each with its active
	// grants.
	List(ctx context.Context, ownerID string) ([]DocumentView, error)

	// Share creates an active grant on an owned document and appends a
	// "share" audit entry.
	Share(ctx context.Context, in ShareInput) (*model.Permission, error)

	// Revoke deactivates a grant on an owned document and appends a
	// "revoke" audit entry. The grant row is kept.
	Revoke(ctx context.Context, in RevokeInput) error

	// AuditTrail returns every audit entry for an owned document,
	// newest-first.
	AuditTrail(ctx context.Context, documentID, ownerID string) ([]model.AuditLogEntry, error)

	// Download opens the stored file content of an owned document and
	// appends a "download" audit entry.
	Download(ctx context.Context, documentID, ownerID string, meta ActorMeta) (io.ReadCloser, *model.Document, error)
}

type documentService struct {
	store   storage.Storage
	docs    repository.DocumentRepository
	perms   repository.PermissionRepository
	audits  repository.AuditLogRepository
	upload  config.UploadConfig
	sharing config.SharingConfig
}

func NewDocumentService(
	store storage.Storage,
	docs repository.DocumentRepository,
	perms repository.PermissionRepository,
	audits repository.AuditLogRepository,
	upload config.UploadConfig,
	sharing config.SharingConfig,
) DocumentService {
	return &documentService{
		store:   store,
		docs:    docs,
		perms:   perms,
		audits:  audits,
		upload:  upload,
		sharing: sharing,
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if in.Reader == nil {
		return nil, ErrReaderNil
	}

	ext := strings.ToLower(filepath.Ext(in.OriginalFilename))
	if !s.extAllowed(ext) {
		return nil, ErrFileTypeNotAllowed
	}
	if s.upload.MaxBytes > 0 && in.Size > s.upload.MaxBytes {
		return nil, ErrFileTooLarge
	}

	// Stored name is <uuid>-<timestamp><ext>; the original name survives only
	// as metadata.
	genName := fmt.Sprintf("%s-%d%s", uuid.New().String(), time.Now().UnixMilli(), ext)

	objInfo, err := s.store.Put(ctx, genName, in.Reader, storage.PutOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.OriginalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	category, subcategory := in.Category, in.Subcategory
	autoCat, autoSub := categorize.Categorize(in.OriginalFilename)
	if category == "" {
		category = autoCat
	}
	if subcategory == "" {
		subcategory = autoSub
	}

	doc := &model.Document{
		ID:           uuid.New().String(),
		UserID:       in.OwnerID,
		Filename:     genName,
		OriginalName: in.OriginalFilename,
		FileSize:     objInfo.Size,
		MimeType:     in.ContentType,
		StoragePath:  objInfo.Key,
		Category:     category,
		Subcategory:  subcategory,
		TaxYear:      in.TaxYear,
		Description:  in.Description,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		// Rollback: remove the object so storage does not leak orphans.
		if delErr := s.store.Delete(ctx, genName); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if err := s.appendAudit(ctx, stored.ID, in.OwnerID, model.ActionUpload, in.Meta, nil); err != nil {
		// Upload is all-or-nothing: without its audit entry the document must
		// not survive, or a client retry would duplicate it.
		if delErr := s.docs.Delete(ctx, stored.ID); delErr != nil {
			return nil, fmt.Errorf("%v; rollback document failed: %v", err, delErr)
		}
		if delErr := s.store.Delete(ctx, genName); delErr != nil {
			return nil, fmt.Errorf("%v; rollback delete failed: %v", err, delErr)
		}
		return nil, err
	}
	return stored, nil
}

func (s *documentService) List(ctx context.Context, ownerID string) ([]DocumentView, error) {
	docs, err := s.docs.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		grants, err := s.activeGrants(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, DocumentView{Document: d, SharedWith: grants})
	}
	return views, nil
}

func (s *documentService) Share(ctx context.Context, in ShareInput) (*model.Permission, error) {
	// Ownership resolves before field validation: a non-owner must see 404
	// regardless of the body they send.
	doc, err := s.owned(ctx, in.DocumentID, in.OwnerID)
	if err != nil {
		return nil, err
	}

	if in.GrantedToEmail == "" || in.GrantedToName == "" || in.Role == "" {
		return nil, ErrFieldsRequired
	}

	perm := &model.Permission{
		ID:             uuid.New().String(),
		DocumentID:     doc.ID,
		GrantedBy:      in.OwnerID,
		GrantedToEmail: in.GrantedToEmail,
		GrantedToName:  in.GrantedToName,
		Role:           in.Role,
		ExpiresAt:      in.ExpiresAt,
		IsActive:       true,
		AccessToken:    uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
	}
	stored, err := s.perms.Create(ctx, perm)
	if err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}

	err = s.appendAudit(ctx, doc.ID, in.OwnerID, model.ActionShare, in.Meta, map[string]string{
		"sharedWith": in.GrantedToEmail,
		"role":       in.Role,
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *documentService) Revoke(ctx context.Context, in RevokeInput) error {
	doc, err := s.owned(ctx, in.DocumentID, in.OwnerID)
	if err != nil {
		return err
	}

	if err := s.perms.Deactivate(ctx, in.PermissionID, doc.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deactivate permission: %w", err)
	}

	return s.appendAudit(ctx, doc.ID, in.OwnerID, model.ActionRevoke, in.Meta, map[string]string{
		"permissionId": in.PermissionID,
	})
}

func (s *documentService) AuditTrail(ctx context.Context, documentID, ownerID string) ([]model.AuditLogEntry, error) {
	doc, err := s.owned(ctx, documentID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.audits.ListByDocument(ctx, doc.ID)
}

func (s *documentService) Download(ctx context.Context, documentID, ownerID string, meta ActorMeta) (io.ReadCloser, *model.Document, error) {
	doc, err := s.owned(ctx, documentID, ownerID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open stored object: %w", err)
	}

	if err := s.appendAudit(ctx, doc.ID, ownerID, model.ActionDownload, meta, nil); err != nil {
		rc.Close()
		return nil, nil, err
	}
	return rc, doc, nil
}

// owned resolves a document and applies ownership-scoped visibility: both a
// missing document and someone else's document yield ErrNotFound.
func (s *documentService) owned(ctx context.Context, documentID, ownerID string) (*model.Document, error) {
	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.UserID != ownerID {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *documentService) activeGrants(ctx context.Context, documentID string) ([]model.Permission, error) {
	grants, err := s.perms.ListByDocument(ctx, documentID, true)
	if err != nil {
		return nil, err
	}
	if !s.sharing.ExpiryFilter {
		return grants, nil
	}
	now := time.Now()
	kept := grants[:0]
	for _, g := range grants {
		if !g.Expired(now) {
			kept = append(kept, g)
		}
	}
	return kept, nil
}

func (s *documentService) appendAudit(ctx context.Context, documentID, userID, action string, meta ActorMeta, extra map[string]string) error {
	if extra == nil {
		extra = map[string]string{}
	}
	entry := &model.AuditLogEntry{
		ID:             uuid.New().String(),
		DocumentID:     documentID,
		UserID:         userID,
		Action:         action,
		IPAddress:      meta.IP,
		UserAgent:      meta.UserAgent,
		AccessedByName: "You",
		Metadata:       extra,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.audits.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *documentService) extAllowed(ext string) bool {
	for _, allowed := range s.upload.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}
