package mocks

import (
	"context"
	"io"

	"papertrail/internal/model"
	"papertrail/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, ownerID string) ([]service.DocumentView, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentView), args.Error(1)
}

func (m *MockDocumentService) Share(ctx context.Context, in service.ShareInput) (*model.Permission, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Permission), args.Error(1)
}

func (m *MockDocumentService) Revoke(ctx context.Context, in service.RevokeInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockDocumentService) AuditTrail(ctx context.Context, documentID, ownerID string) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, documentID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditLogEntry), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, documentID, ownerID string, meta service.ActorMeta) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, documentID, ownerID, meta)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var doc *model.Document
	if args.Get(1) != nil {
		doc = args.Get(1).(*model.Document)
	}
	return rc, doc, args.Error(2)
}
