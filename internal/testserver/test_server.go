// Package testserver runs the full HTTP MCP stack against SQLite and a fake
// course API for end-to-end tests.
package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/courseflow/internal/contentstore"
	"github.com/rpggio/courseflow/internal/courseapi"
	"github.com/rpggio/courseflow/internal/domain/account"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/host"
	"github.com/rpggio/courseflow/internal/httpx"
	"github.com/rpggio/courseflow/internal/mcp"
	"github.com/rpggio/courseflow/internal/notice"
	"github.com/rpggio/courseflow/internal/sqlite"
	"github.com/rpggio/courseflow/internal/telemetry"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server    *httptest.Server
	CourseAPI *httptest.Server
	DB        *sqlite.DB
	Token     string
	UserID    string

	mu       sync.Mutex
	enrolled []string
}

// New starts a server whose token authenticates userID.
func New(t *testing.T, token, userID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	ts := &TestServer{DB: db, Token: token, UserID: userID}
	ts.CourseAPI = httptest.NewServer(ts.courseAPI())

	retry := httpx.DefaultRetryConfig()
	retry.MaxAttempts = 1
	courses, err := courseapi.New(courseapi.Config{BaseURL: ts.CourseAPI.URL}, httpx.NewClient(nil, retry, nil), nil)
	require.NoError(t, err)

	store := contentstore.New(contentstore.Config{
		BaseURL:           ts.CourseAPI.URL,
		DestinationFolder: t.TempDir(),
	}, sqlite.NewCatalogRepository(db), nil, nil)

	catalog, err := notice.Default()
	require.NoError(t, err)
	tr := catalog.Translator("en-US")
	h := host.New(tr, nil)
	flows := content.NewFlows(store, h, h, h, content.ResolverOptions{}, nil)
	accounts := account.NewService(sqlite.NewAPIKeyRepository(db), nil)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Flows: mcp.DeviceFlows(flows),
			Enrollment: enrollment.Collaborators{
				Courses:    courses,
				Network:    host.Online(true),
				Navigator:  h,
				Picker:     h,
				Loader:     h,
				Notifier:   h,
				Telemetry:  telemetry.NewRecorder(nil, nil),
				Cache:      sqlite.NewEnrolledCourseRepository(db),
				Listener:   h,
				Onboarding: h,
			},
			Preferences: sqlite.NewPreferenceRepository(db),
			Translator:  tr,
		},
		Resolver:      accounts,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	handler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)
	ts.Server = httptest.NewServer(handler)

	require.NoError(t, ts.AddAPIKey(token, userID))

	t.Cleanup(func() {
		ts.Server.Close()
		flows.Close()
		store.Close()
		ts.CourseAPI.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey stores a token for userID with onboarding complete.
func (ts *TestServer) AddAPIKey(token, userID string) error {
	return sqlite.NewAPIKeyRepository(ts.DB).Create(context.Background(), &account.APIKey{
		ID:                  uuid.NewString(),
		Hash:                account.HashToken(token),
		UserID:              userID,
		OnboardingCompleted: true,
		CreatedAt:           time.Now().UTC(),
	})
}

// Enrolled returns the batch ids the fake course API enrolled into.
func (ts *TestServer) Enrolled() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.enrolled...)
}

// Connect opens a client session sending token and deviceID on every request.
// An empty token connects as a guest.
func (ts *TestServer) Connect(t *testing.T, token, deviceID string) *sdkmcp.ClientSession {
	t.Helper()
	hc := &http.Client{Transport: headerTransport{token: token, deviceID: deviceID, base: http.DefaultTransport}}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL,
		HTTPClient: hc,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

type headerTransport struct {
	token    string
	deviceID string
	base     http.RoundTripper
}

func (h headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	if h.deviceID != "" {
		req.Header.Set("X-Device-Id", h.deviceID)
	}
	return h.base.RoundTrip(req)
}

func (ts *TestServer) courseAPI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /course/v1/batch/list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"response":{"content":[
			{"identifier":"b1","courseId":"do_1","status":1,"enrollmentType":"open"},
			{"identifier":"b2","courseId":"do_1","status":0,"enrollmentType":"open"}]}}}`))
	})
	mux.HandleFunc("POST /course/v1/enrol", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Request struct {
				BatchID string `json:"batchId"`
			} `json:"request"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		ts.mu.Lock()
		ts.enrolled = append(ts.enrolled, body.Request.BatchID)
		ts.mu.Unlock()
		w.Write([]byte(`{"result":{"response":"SUCCESS"}}`))
	})
	mux.HandleFunc("GET /course/v1/user/enrollment/list/{user}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"courses":[]}}`))
	})
	return mux
}
