// Package courseapi is the HTTP client for the remote course service: batch
// listing, enrollment and enrolled-course listing.
package courseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/failure"
	"github.com/rpggio/courseflow/internal/httpx"
)

const (
	pathBatchList    = "/course/v1/batch/list"
	pathEnrol        = "/course/v1/enrol"
	pathEnrolledList = "/course/v1/user/enrollment/list/"

	responseSuccess = "SUCCESS"
)

// Config configures the client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements enrollment.CourseService over HTTP.
type Client struct {
	cfg    Config
	http   *httpx.Client
	logger *slog.Logger
}

// New creates a client. A nil hc uses a default retrying client.
func New(cfg Config, hc *httpx.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("courseapi: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("courseapi: invalid base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = httpx.NewClient(&http.Client{Timeout: timeout}, httpx.DefaultRetryConfig(), logger)
	}
	return &Client{cfg: cfg, http: hc, logger: logger}, nil
}

type envelope struct {
	ID     string `json:"id,omitempty"`
	Ver    string `json:"ver,omitempty"`
	Params params `json:"params"`
}

type params struct {
	MsgID  string `json:"msgid,omitempty"`
	Status string `json:"status,omitempty"`
	ErrMsg string `json:"errmsg,omitempty"`
	Err    string `json:"err,omitempty"`
}

type batchListRequest struct {
	Filters batchFilters      `json:"filters"`
	SortBy  map[string]string `json:"sort_by,omitempty"`
	Fields  []string          `json:"fields,omitempty"`
}

type batchFilters struct {
	CourseID       string         `json:"courseId"`
	EnrollmentType string         `json:"enrollmentType,omitempty"`
	Status         []batch.Status `json:"status,omitempty"`
}

type batchListResponse struct {
	envelope
	Result struct {
		Response struct {
			Count   int           `json:"count"`
			Content []batch.Batch `json:"content"`
		} `json:"response"`
	} `json:"result"`
}

type enrolResponse struct {
	envelope
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
}

type enrolledListResponse struct {
	envelope
	Result struct {
		Courses []batch.EnrolledCourse `json:"courses"`
	} `json:"result"`
}

// ListBatches returns the batches matching criteria.
func (c *Client) ListBatches(ctx context.Context, criteria enrollment.Criteria) ([]batch.Batch, error) {
	body := batchListRequest{
		Filters: batchFilters{
			CourseID:       criteria.CourseID,
			EnrollmentType: criteria.EnrollmentType,
			Status:         criteria.Statuses,
		},
		Fields: criteria.Fields,
	}
	if criteria.SortBy != "" {
		body.SortBy = map[string]string{criteria.SortBy: criteria.SortOrder}
	}

	var out batchListResponse
	if err := c.post(ctx, pathBatchList, body, &out); err != nil {
		return nil, fmt.Errorf("listing batches for %s: %w", criteria.CourseID, err)
	}
	if out.Result.Response.Content == nil {
		return []batch.Batch{}, nil
	}
	return out.Result.Response.Content, nil
}

// Enroll enrolls a user into a batch. It reports false when the service
// answers without a success marker.
func (c *Client) Enroll(ctx context.Context, req enrollment.Request) (bool, error) {
	var out enrolResponse
	if err := c.post(ctx, pathEnrol, req, &out); err != nil {
		return false, fmt.Errorf("enrolling %s into %s: %w", req.UserID, req.BatchID, err)
	}
	return strings.EqualFold(out.Result.Response, responseSuccess), nil
}

// ListEnrolled returns a user's enrollments. fresh bypasses server caches.
func (c *Client) ListEnrolled(ctx context.Context, userID string, fresh bool) ([]batch.EnrolledCourse, error) {
	endpoint := c.cfg.BaseURL + pathEnrolledList + url.PathEscape(userID)
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		c.headers(req)
		if fresh {
			req.Header.Set("Cache-Control", "no-cache")
		}
		return req, nil
	}

	var out enrolledListResponse
	if err := c.do(ctx, build, &out); err != nil {
		return nil, fmt.Errorf("listing enrollments for %s: %w", userID, err)
	}
	if out.Result.Courses == nil {
		return []batch.EnrolledCourse{}, nil
	}
	return out.Result.Courses, nil
}

func (c *Client) post(ctx context.Context, path string, request any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"params":  params{MsgID: uuid.NewString()},
		"request": request,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	endpoint := c.cfg.BaseURL + path
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		c.headers(req)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
	return c.do(ctx, build, out)
}

func (c *Client) do(ctx context.Context, build func(context.Context) (*http.Request, error), out any) error {
	err := c.http.DoJSON(ctx, build, out)
	if err == nil {
		return nil
	}
	mapped := classify(err)
	c.logger.Debug("course service call failed", "kind", failure.Classify(mapped), "error", err)
	return mapped
}

func (c *Client) headers(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// classify turns transport and HTTP errors into failure errors.
func classify(err error) error {
	if httpx.IsTransport(err) {
		return failure.NetworkAbsent(err)
	}

	var herr *httpx.HTTPError
	if !errors.As(err, &herr) {
		return err
	}
	remote := &failure.RemoteError{StatusCode: herr.StatusCode, Message: http.StatusText(herr.StatusCode)}
	var body envelope
	if json.Unmarshal(herr.Body, &body) == nil {
		remote.Status = body.Params.Status
		if body.Params.ErrMsg != "" {
			remote.Message = body.Params.ErrMsg
		}
		if remote.Status == "" {
			remote.Status = body.Params.Err
		}
	}
	return remote
}
