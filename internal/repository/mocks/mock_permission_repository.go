package mocks

import (
	"context"

	"papertrail/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Create(ctx context.Context, perm *model.Permission) (*model.Permission, error) {
	args := m.Called(ctx, perm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, *model.Permission) *model.Permission); ok {
		return fn(ctx, perm), args.Error(1)
	}
	return args.Get(0).(*model.Permission), args.Error(1)
}

func (m *MockPermissionRepository) ListByDocument(ctx context.Context, documentID string, onlyActive bool) ([]model.Permission, error) {
	args := m.Called(ctx, documentID, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Deactivate(ctx context.Context, id, documentID string) error {
	args := m.Called(ctx, id, documentID)
	return args.Error(0)
}
