package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreferenceRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewPreferenceRepository(db)

	value, err := repo.Get(ctx, "batch_detail")
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, repo.Put(ctx, "batch_detail", `{"identifier":"b1"}`))
	require.NoError(t, repo.Put(ctx, "batch_detail", `{"identifier":"b2"}`))

	value, err = repo.Get(ctx, "batch_detail")
	require.NoError(t, err)
	require.Equal(t, `{"identifier":"b2"}`, value)
}
