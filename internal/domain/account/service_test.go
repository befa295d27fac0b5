package account_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rpggio/courseflow/internal/domain/account"
	"github.com/rpggio/courseflow/internal/repository"
	"github.com/rpggio/courseflow/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_IssueStoresHashOnly(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.APIKeyRepository{}

	var stored *account.APIKey
	repo.On("Create", ctx, mock.AnythingOfType("*account.APIKey")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*account.APIKey)
	}).Return(nil)

	svc := account.NewService(repo, nil)
	issued, err := svc.Issue(ctx, account.IssueRequest{UserID: "U1", Description: "laptop"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(issued.Token, "cf_"))
	require.NotNil(t, stored)
	require.Equal(t, account.HashToken(issued.Token), stored.Hash)
	require.NotEqual(t, issued.Token, stored.Hash)
	require.Equal(t, "U1", stored.UserID)
}

func TestAccountService_IssueRequiresUser(t *testing.T) {
	svc := account.NewService(&mocks.APIKeyRepository{}, nil)
	_, err := svc.Issue(context.Background(), account.IssueRequest{UserID: "  "})
	require.ErrorIs(t, err, account.ErrInvalidInput)
}

func TestAccountService_Resolve(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.APIKeyRepository{}
	key := &account.APIKey{ID: "k1", UserID: "U1", OnboardingCompleted: true}

	repo.On("GetByHash", ctx, account.HashToken("cf_good")).Return(key, nil)
	repo.On("GetByHash", ctx, account.HashToken("cf_bad")).Return(nil, repository.ErrNotFound)
	repo.On("Touch", ctx, "k1").Return(errors.New("locked"))

	svc := account.NewService(repo, nil)
	sess, err := svc.Resolve(ctx, "cf_good")
	require.NoError(t, err)
	require.Equal(t, "U1", sess.UserID)
	require.True(t, sess.OnboardingCompleted)

	_, err = svc.Resolve(ctx, "cf_bad")
	require.ErrorIs(t, err, account.ErrUnauthorized)

	_, err = svc.Resolve(ctx, "")
	require.ErrorIs(t, err, account.ErrUnauthorized)
}

func TestAccountService_RevokeMissing(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.APIKeyRepository{}
	repo.On("Delete", ctx, "nope").Return(repository.ErrNotFound)

	err := account.NewService(repo, nil).Revoke(ctx, "nope")
	require.ErrorIs(t, err, account.ErrKeyNotFound)
}
