package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/courseflow/internal/domain/account"
	"github.com/rpggio/courseflow/internal/repository"
)

// APIKeyRepository implements account.Repository for SQLite
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores a new key
func (r *APIKeyRepository) Create(ctx context.Context, key *account.APIKey) error {
	query := `
		INSERT INTO api_keys (id, key_hash, user_id, onboarding_completed, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.Hash,
		key.UserID,
		key.OnboardingCompleted,
		key.Description,
		key.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	return nil
}

// GetByHash retrieves a key by its token hash
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*account.APIKey, error) {
	query := `
		SELECT id, key_hash, user_id, onboarding_completed, COALESCE(description, ''), created_at, last_used
		FROM api_keys
		WHERE key_hash = ?
	`

	key, err := scanAPIKey(r.db.QueryRowContext(ctx, query, hash))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return key, nil
}

// List returns the keys of a user, or every key when userID is empty
func (r *APIKeyRepository) List(ctx context.Context, userID string) ([]account.APIKey, error) {
	query := `
		SELECT id, key_hash, user_id, onboarding_completed, COALESCE(description, ''), created_at, last_used
		FROM api_keys
		WHERE (? = '' OR user_id = ?)
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	keys := []account.APIKey{}
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, *key)
	}

	return keys, rows.Err()
}

// Delete removes a key
func (r *APIKeyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Touch records a use of the key
func (r *APIKeyRepository) Touch(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}

// SetOnboarding updates the onboarding flag on every key of a user
func (r *APIKeyRepository) SetOnboarding(ctx context.Context, userID string, completed bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE api_keys SET onboarding_completed = ? WHERE user_id = ?`, completed, userID)
	if err != nil {
		return fmt.Errorf("failed to update onboarding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIKey(row rowScanner) (*account.APIKey, error) {
	var (
		key      account.APIKey
		lastUsed sql.NullTime
	)
	if err := row.Scan(
		&key.ID,
		&key.Hash,
		&key.UserID,
		&key.OnboardingCompleted,
		&key.Description,
		&key.CreatedAt,
		&lastUsed,
	); err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		key.LastUsed = &t
	}
	return &key, nil
}
