package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/repository"
)

const tokenPrefix = "cf_"

// Service issues and resolves API keys.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new account service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// IssueRequest defines key creation inputs.
type IssueRequest struct {
	UserID              string
	Description         string
	OnboardingCompleted bool
}

// Issue creates a key for a user and returns its plaintext token.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*Issued, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrInvalidInput
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	key := APIKey{
		ID:                  uuid.NewString(),
		Hash:                HashToken(token),
		UserID:              req.UserID,
		OnboardingCompleted: req.OnboardingCompleted,
		Description:         req.Description,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &key); err != nil {
		return nil, fmt.Errorf("creating api key: %w", err)
	}

	s.logger.Info("api key issued", "key_id", key.ID, "user_id", key.UserID)
	return &Issued{Token: token, Key: key}, nil
}

// Resolve returns the session a bearer token authenticates.
func (s *Service) Resolve(ctx context.Context, token string) (*enrollment.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	key, err := s.repo.GetByHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("resolving api key: %w", err)
	}
	if err := s.repo.Touch(ctx, key.ID); err != nil {
		s.logger.Warn("recording key use failed", "key_id", key.ID, "error", err)
	}
	return &enrollment.Session{UserID: key.UserID, OnboardingCompleted: key.OnboardingCompleted}, nil
}

// List returns the keys of a user.
func (s *Service) List(ctx context.Context, userID string) ([]APIKey, error) {
	keys, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	return keys, nil
}

// Revoke deletes a key.
func (s *Service) Revoke(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("revoking api key: %w", err)
	}
	return nil
}

// CompleteOnboarding marks every key of a user as past sign-in onboarding.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string) error {
	if err := s.repo.SetOnboarding(ctx, userID, true); err != nil {
		return fmt.Errorf("completing onboarding: %w", err)
	}
	return nil
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return tokenPrefix + hex.EncodeToString(buf), nil
}
