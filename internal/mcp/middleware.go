package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
)

type contextKey int

const (
	sessionKey contextKey = iota
	deviceIDKey
)

// getSession returns the authenticated user, or nil for a guest.
func getSession(ctx context.Context) *enrollment.Session {
	v, _ := ctx.Value(sessionKey).(*enrollment.Session)
	return v
}

// getDeviceID returns the caller's device namespace.
func getDeviceID(ctx context.Context) string {
	v, _ := ctx.Value(deviceIDKey).(string)
	return v
}

// WithSession returns ctx acting for sess. A nil sess is a guest.
func WithSession(ctx context.Context, sess *enrollment.Session) context.Context {
	if sess == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sess)
}

// WithDeviceID returns ctx scoped to a device's preferences.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	if deviceID == "" {
		return ctx
	}
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// SessionResolver resolves the user behind a bearer token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*enrollment.Session, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
// Requests without a token run as a guest; a token that does not resolve is
// rejected.
func authMiddleware(resolver SessionResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return next(ctx, method, req)
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return next(ctx, method, req)
			}

			sess, err := resolver.Resolve(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			return next(WithSession(ctx, sess), method, req)
		}
	}
}

// noAuthMiddleware runs every request as sess. A nil sess is a guest.
func noAuthMiddleware(sess *enrollment.Session) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(WithSession(ctx, sess), method, req)
		}
	}
}

// deviceMiddleware extracts the device id from the X-Device-Id header (HTTP)
// or _meta.device_id (stdio).
func deviceMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(WithDeviceID(ctx, requestDeviceID(req)), method, req)
		}
	}
}

func requestDeviceID(req sdkmcp.Request) string {
	if req == nil {
		return ""
	}
	if extra := req.GetExtra(); extra != nil && extra.Header != nil {
		if id := extra.Header.Get("X-Device-Id"); id != "" {
			return id
		}
	}

	// Some notifications have nil params and GetMeta panics on a nil
	// underlying value.
	var deviceID string
	if params := req.GetParams(); params != nil {
		func() {
			defer func() { recover() }()
			if meta := params.GetMeta(); meta != nil {
				if id, ok := meta["device_id"].(string); ok {
					deviceID = id
				}
			}
		}()
	}
	return deviceID
}
