package repository

import (
	"context"

	"papertrail/internal/model"
)

// PermissionRepository persists sharing grants. Grants are never hard-deleted;
// Deactivate flips is_active and leaves the row in place.
type PermissionRepository interface {
	// Create inserts a new grant and returns the stored record.
	Create(ctx context.Context, perm *model.Permission) (*model.Permission, error)

	// ListByDocument returns the grants for a document, newest-first.
	// With onlyActive set, deactivated grants are excluded.
	ListByDocument(ctx context.Context, documentID string, onlyActive bool) ([]model.Permission, error)

	// Deactivate marks the grant inactive. Returns ErrNotFound if no grant
	// with that id belongs to the given document.
	Deactivate(ctx context.Context, id, documentID string) error
}
