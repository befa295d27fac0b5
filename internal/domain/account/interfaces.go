package account

import "context"

// Repository provides persistence for API keys.
type Repository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	List(ctx context.Context, userID string) ([]APIKey, error)
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string) error
	SetOnboarding(ctx context.Context, userID string, completed bool) error
}
