package repository

import (
	"context"

	"papertrail/internal/model"
)

// DocumentRepository persists document metadata. Documents are created once
// on upload and never updated; Delete exists only so a failed upload can be
// rolled back, no API operation removes a document.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored document.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByOwner returns every document owned by the given user,
	// newest-first by creation time.
	ListByOwner(ctx context.Context, userID string) ([]model.Document, error)

	// Delete removes a document record, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}
