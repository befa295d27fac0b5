package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	return cfg
}

func getter(url string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestClient_RetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), fastRetry(), nil)
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.DoJSON(context.Background(), getter(srv.URL), &out))
	require.True(t, out.OK)
	require.Equal(t, int32(2), calls.Load())
}

func TestClient_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"params":{"status":"USER_ALREADY_ENROLLED_COURSE"}}`)
	}))
	defer srv.Close()

	_, body, err := NewClient(srv.Client(), fastRetry(), nil).Do(context.Background(), getter(srv.URL))
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	require.Equal(t, http.StatusBadRequest, herr.StatusCode)
	require.Contains(t, string(body), "USER_ALREADY_ENROLLED_COURSE")
	require.Equal(t, int32(1), calls.Load())
}

func TestClient_MaxAttemptsExceeded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := fastRetry()
	cfg.MaxAttempts = 2
	_, _, err := NewClient(srv.Client(), cfg, nil).Do(context.Background(), getter(srv.URL))
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	require.Equal(t, http.StatusInternalServerError, herr.StatusCode)
	require.Equal(t, int32(2), calls.Load())
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := fastRetry()
	cfg.MaxAttempts = 1
	_, _, err := NewClient(nil, cfg, nil).Do(context.Background(), getter(url))
	require.Error(t, err)
	require.True(t, IsTransport(err))
}

func TestClient_BuildError(t *testing.T) {
	_, _, err := NewClient(nil, fastRetry(), nil).Do(context.Background(), func(context.Context) (*http.Request, error) {
		return nil, errors.New("request build error")
	})
	require.ErrorContains(t, err, "request build error")
	require.False(t, IsTransport(err))
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name": invalid}`)
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(srv.Client(), fastRetry(), nil).DoJSON(context.Background(), getter(srv.URL), &out)
	require.ErrorContains(t, err, "json parse error")
}

func TestSnippet(t *testing.T) {
	require.Equal(t, "short", snippet([]byte("  short  "), 10))
	require.Equal(t, "long…", snippet([]byte("long text"), 4))
}

func TestIsRetryableStatus(t *testing.T) {
	cfg := DefaultRetryConfig()
	require.True(t, isRetryableStatus(500, cfg))
	require.True(t, isRetryableStatus(429, cfg))
	for _, status := range []int{400, 401, 403, 404, 422} {
		require.False(t, isRetryableStatus(status, cfg), status)
	}

	cfg.Retry5xx = false
	require.False(t, isRetryableStatus(500, cfg))
	require.True(t, isRetryableStatus(503, cfg))
}

func TestIsRetryableNetErr(t *testing.T) {
	require.False(t, isRetryableNetErr(context.Canceled))
	require.True(t, isRetryableNetErr(context.DeadlineExceeded))
	require.True(t, isRetryableNetErr(errors.New("connection reset by peer")))
	require.True(t, isRetryableNetErr(errors.New("unexpected EOF")))
	require.False(t, isRetryableNetErr(errors.New("some other error")))
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	require.Equal(t, 30*time.Second, ParseRetryAfter(resp))

	resp.Header.Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
	require.Zero(t, ParseRetryAfter(resp))

	resp.Header.Set("Retry-After", "invalid")
	require.Zero(t, ParseRetryAfter(resp))
}

func TestSleepBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepBackoff(ctx, 1, time.Second, 2*time.Second, 0)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, strings.Contains(err.Error(), "canceled"))
}
