package repository

import (
	"context"

	"papertrail/internal/model"
)

// AuditLogRepository is append-only: entries can be added and listed but
// never updated or removed. The interface deliberately has no mutation
// surface beyond Append.
type AuditLogRepository interface {
	// Append stores a new audit entry and returns the stored record.
	Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error)

	// ListByDocument returns every entry for a document, newest-first.
	ListByDocument(ctx context.Context, documentID string) ([]model.AuditLogEntry, error)
}
