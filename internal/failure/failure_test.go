package failure_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rpggio/courseflow/internal/failure"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want failure.Kind
	}{
		{"nil", nil, failure.KindNone},
		{"network", failure.NetworkAbsent(errors.New("dial tcp: no route")), failure.KindNetworkAbsent},
		{"wrapped network", fmt.Errorf("loading: %w", failure.ErrNetworkAbsent), failure.KindNetworkAbsent},
		{"local store", failure.LocalStore(errors.New("disk full")), failure.KindLocalStore},
		{"already enrolled", &failure.RemoteError{StatusCode: 400, Status: failure.StatusAlreadyEnrolled}, failure.KindConflict},
		{"unauthorized", &failure.RemoteError{StatusCode: 401}, failure.KindRemoteAuth},
		{"forbidden", &failure.RemoteError{StatusCode: 403}, failure.KindRemoteAuth},
		{"server", &failure.RemoteError{StatusCode: 503}, failure.KindRemoteServer},
		{"bad request", &failure.RemoteError{StatusCode: 400, Status: "CLIENT_ERROR"}, failure.KindGenericRemote},
		{"other", errors.New("boom"), failure.KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, failure.Classify(tc.err))
		})
	}
}

func TestIsAlreadyEnrolled_Wrapped(t *testing.T) {
	err := fmt.Errorf("enroll: %w", &failure.RemoteError{StatusCode: 400, Status: failure.StatusAlreadyEnrolled})
	require.True(t, failure.IsAlreadyEnrolled(err))
	require.False(t, failure.IsAlreadyEnrolled(&failure.RemoteError{StatusCode: 400}))
}

func TestCode(t *testing.T) {
	require.Equal(t, failure.StatusAlreadyEnrolled, failure.Code(&failure.RemoteError{StatusCode: 400, Status: failure.StatusAlreadyEnrolled}))
	require.Equal(t, string(failure.KindNetworkAbsent), failure.Code(failure.ErrNetworkAbsent))
}
