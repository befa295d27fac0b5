package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/rpggio/courseflow/internal/mcp"

// registerTools adds every tool to server.
func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "resolve_content",
		Description: "Open a course's content, downloading it first when the local copy is missing or older than pkg_version. Blocks until the download finishes, fails or is cancelled.",
	}, tool(h.ResolveContent))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "cancel_download",
		Description: "Cancel the content download in progress and return the cleared download state.",
	}, tool(h.CancelDownload))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_download_state",
		Description: "Return the progress of the content download in progress, if any.",
	}, tool(h.DownloadState))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "evaluate_batch",
		Description: "Decide whether tapping a course card continues an enrolled batch or picks a new one. Pure: performs no navigation.",
	}, tool(h.EvaluateBatch))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "open_course",
		Description: "Handle a course card tap: continue into content for an open enrollment, otherwise list the course's batches.",
	}, tool(h.OpenCourse))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_batches",
		Description: "List the open batches of a course for the batch picker. Guests are sent to the batch list page instead. Pass dismissal once the host's picker has closed.",
	}, tool(h.ListBatches))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "enroll",
		Description: "Enroll the signed-in user into a batch. Already-enrolled is reported as a status, not an error.",
	}, tool(h.Enroll))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "defer_enrollment",
		Description: "Store a guest's enroll attempt on this device so replay_deferred can complete it after sign-in.",
	}, tool(h.DeferEnrollment))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "replay_deferred",
		Description: "Replay this device's deferred enroll attempt for the current user after sign-in.",
	}, tool(h.ReplayDeferred))
}

// tool adapts a handler method to the SDK, tracing each call and turning
// errors into structured tool errors.
func tool[In, Out any](fn func(context.Context, In) (Out, error)) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		name := ""
		if req != nil && req.Params != nil {
			name = req.Params.Name
		}
		ctx, span := otel.Tracer(tracerName).Start(ctx, "tool "+name)
		defer span.End()
		span.SetAttributes(attribute.String("mcp.tool", name))

		out, err := fn(ctx, in)
		if err == nil {
			return nil, out, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		api := MapError(err)
		if api == nil {
			return nil, out, err
		}
		payload, merr := json.Marshal(struct {
			Error  *APIError `json:"error"`
			Result Out       `json:"result"`
		}{api, out})
		if merr != nil {
			return nil, out, err
		}
		return &sdkmcp.CallToolResult{
			IsError: true,
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(payload)}},
		}, out, nil
	}
}
