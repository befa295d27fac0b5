package preferences

import (
	"context"
	"testing"

	"github.com/rpggio/courseflow/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestScoped_IsolatesNamespaces(t *testing.T) {
	ctx := context.Background()
	backing := mocks.NewPreferences()

	phone := Scope(backing, "phone")
	other := Scope(backing, "")

	require.NoError(t, phone.Put(ctx, "cdata", "[]"))

	v, err := other.Get(ctx, "cdata")
	require.NoError(t, err)
	require.Empty(t, v)

	v, err = backing.Get(ctx, "phone/cdata")
	require.NoError(t, err)
	require.Equal(t, "[]", v)
}
