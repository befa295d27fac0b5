package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `courseflow drives course content and batch enrollment for a learning app host.

Core concepts:
- Content: a course's downloadable artifact. resolve_content opens it, downloading first when the local copy is missing or stale.
- Batch: a time-bounded cohort of a course. Status 0 = not started, 1 = in progress, 2 = retired.
- Deferred enrollment: an enroll attempt made before sign-in, stored per device and replayed after sign-in.

Every tool that would change the screen returns an "actions" list (notices, navigation, loader, batch picker, download progress). Render them in order.

Typical flows:
1) Course card tap: open_course (or evaluate_batch to only decide).
2) Picking a batch: list_batches, then enroll with the chosen batch.
3) Guest taps join: defer_enrollment; after sign-in call replay_deferred.
4) Long download: get_download_state to poll, cancel_download to stop.

Transport notes:
- HTTP: authenticate with "Authorization: Bearer <api key>"; requests without a token run as a guest.
- Pass a device id via the X-Device-Id header (HTTP) or _meta.device_id (stdio) so deferred enrollments stay with the device.

Docs:
- courseflow://docs/flows
- courseflow://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "courseflow://docs/flows",
		Name:        "docs_flows",
		Title:       "courseflow flows",
		Description: "How content resolution, batch listing, enrollment and deferred replay behave.",
		Content: `# courseflow flows

## Content resolution (resolve_content)

- The local copy is used when it exists and its pkg_version is at least the requested one.
- Otherwise a download starts. Progress arrives as ` + "`import_state`" + ` actions; cancel is disabled at 100%.
- On completion the host navigates to the content. On failure a notice is shown and the download state clears.
- Offline: a "no internet" notice, no download.

## Batch listing (list_batches)

- Offline: an offline notice, no request.
- Guest: navigate to the batch list page.
- No open batches: navigate straight to the course content.
- Otherwise: a ` + "`batch_picker`" + ` action with the open batches, newest first.
- Pass ` + "`dismissal`" + ` with how the picker closed; ` + "`canDelete`" + ` records the picker cancel interaction.

## Enrollment (enroll)

- Success: "course enrolled" notice, a ` + "`course_enrolled`" + ` action, the enrolled list is refreshed.
- Already enrolled: an informational notice and status ` + "`already_enrolled`" + `; not an error.
- Offline: a notice, and the enrolled list is refreshed in case the call went through.
- Afterwards the host leaves the batch list page unless the enrolled details page is showing.

## Deferred enrollment

- defer_enrollment stores one intent per device; the last write wins.
- replay_deferred after sign-in: a user who has not finished onboarding is marked pending and nothing else happens.
  The course's own author and guests are returned to the course; anyone else is enrolled under their own id.
`,
	},
	{
		URI:         "courseflow://docs/errors",
		Name:        "docs_errors",
		Title:       "courseflow error codes",
		Description: "Tool error codes and what to do about them.",
		Content: `# courseflow error codes

Tool errors carry {"error": {"code", "message", "recovery_hint"}, "result": {...}}; the result still lists the actions taken.

- NETWORK_ABSENT: offline. Retry once online.
- REMOTE_SERVER / REMOTE_AUTH / REMOTE_ERROR: the course service failed; details holds its status code.
- ALREADY_ENROLLED: the user already belongs to the batch.
- LOCAL_STORE: the on-device content store failed.
- INVALID_REFERENCE: neither identifier nor content_id was given.
- IMPORT_REJECTED / IMPORT_FAILED: the content could not be downloaded.
- NO_ACTIVE_DOWNLOAD: cancel_download without a download in progress.
- INVALID_INTENT / ENROLL_REJECTED: the enroll call was incomplete or not confirmed.
- MALFORMED_DEFERRED: the stored intent was unreadable and has been cleared.
- SIGN_IN_REQUIRED: enroll needs an authenticated user.
- UNAUTHORIZED: the bearer token is unknown or revoked.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
