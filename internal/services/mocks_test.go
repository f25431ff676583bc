package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore is a testify mock of CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockCredentialStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockCredentialStore) Update(ctx context.Context, id uuid.UUID, fields models.UserFields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}
