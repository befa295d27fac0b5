package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/courseflow/internal/domain/batch"
)

// trafficLoggingMiddleware logs every message at debug level. Tool calls are
// tagged with the tool name and the content or batch they act on, so one
// device's flow can be followed through the log.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			log := logger.With(trafficAttrs(ctx, direction, method, req)...)
			log.Debug("mcp traffic", "stage", "request", "params", formatPayload(safeParams(req)))

			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			if err != nil {
				log.Debug("mcp traffic", "stage", "response", "result", formatPayload(result), "error", err)
			} else {
				log.Debug("mcp traffic", "stage", "response", "result", formatPayload(result))
			}
			return result, err
		}
	}
}

func trafficAttrs(ctx context.Context, direction, method string, req sdkmcp.Request) []any {
	userID := ""
	if sess := getSession(ctx); sess != nil {
		userID = sess.UserID
	}
	deviceID := getDeviceID(ctx)
	if deviceID == "" {
		deviceID = requestDeviceID(req)
	}
	attrs := []any{
		"direction", direction,
		"method", method,
		"session_id", safeSessionID(req),
		"user_id", userID,
		"device_id", deviceID,
	}

	call, ok := req.(*sdkmcp.CallToolRequest)
	if !ok || call.Params == nil {
		return attrs
	}
	attrs = append(attrs, "tool", call.Params.Name)
	target := toolTarget(call.Params.Arguments)
	if target.contentID != "" {
		attrs = append(attrs, "content_id", target.contentID)
	}
	if target.batchID != "" {
		attrs = append(attrs, "batch_id", target.batchID)
	}
	return attrs
}

type callTarget struct {
	contentID string
	batchID   string
}

// toolTarget picks the content and batch ids out of raw tool arguments.
func toolTarget(raw json.RawMessage) callTarget {
	if len(raw) == 0 {
		return callTarget{}
	}
	var args struct {
		ContentID  string        `json:"content_id"`
		Identifier string        `json:"identifier"`
		Card       batch.Content `json:"card"`
		Batch      batch.Batch   `json:"batch"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return callTarget{}
	}
	out := callTarget{batchID: args.Batch.ID}
	for _, id := range []string{args.ContentID, args.Identifier, args.Card.Identifier, args.Card.ContentID, args.Batch.CourseID} {
		if id != "" {
			out.contentID = id
			break
		}
	}
	return out
}

func safeSessionID(req sdkmcp.Request) string {
	if req == nil {
		return ""
	}
	defer func() { recover() }()
	session := req.GetSession()
	if session == nil {
		return ""
	}
	return session.ID()
}

func safeParams(req sdkmcp.Request) any {
	if req == nil {
		return nil
	}
	defer func() { recover() }()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	return string(data)
}
