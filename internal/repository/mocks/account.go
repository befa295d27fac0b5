package mocks

import (
	"context"

	"github.com/rpggio/courseflow/internal/domain/account"
	"github.com/stretchr/testify/mock"
)

// APIKeyRepository is a mock for account.Repository.
type APIKeyRepository struct {
	mock.Mock
}

func (m *APIKeyRepository) Create(ctx context.Context, key *account.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*account.APIKey, error) {
	args := m.Called(ctx, hash)
	if key, ok := args.Get(0).(*account.APIKey); ok {
		return key, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *APIKeyRepository) List(ctx context.Context, userID string) ([]account.APIKey, error) {
	args := m.Called(ctx, userID)
	if keys, ok := args.Get(0).([]account.APIKey); ok {
		return keys, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *APIKeyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *APIKeyRepository) Touch(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *APIKeyRepository) SetOnboarding(ctx context.Context, userID string, completed bool) error {
	args := m.Called(ctx, userID, completed)
	return args.Error(0)
}
