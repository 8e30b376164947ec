package mocks

import (
	"context"

	"papertrail/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, *model.AuditLogEntry) *model.AuditLogEntry); ok {
		return fn(ctx, entry), args.Error(1)
	}
	return args.Get(0).(*model.AuditLogEntry), args.Error(1)
}

func (m *MockAuditLogRepository) ListByDocument(ctx context.Context, documentID string) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditLogEntry), args.Error(1)
}
