// Package contentstore is the on-device content store: a local catalog of
// imported artifacts, HTTP downloads of new ones and an identifier-keyed event
// feed reporting their progress.
package contentstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/failure"
	"github.com/rpggio/courseflow/internal/repository"
)

// ErrNotImporting is returned by Cancel when no import is running for the
// identifier.
var ErrNotImporting = errors.New("no import in progress")

// ArtifactExt is the file extension of stored artifacts.
const ArtifactExt = ".ecar"

// CatalogRepository persists catalog entries.
type CatalogRepository interface {
	Get(ctx context.Context, identifier string) (*content.CatalogEntry, error)
	Upsert(ctx context.Context, entry *content.CatalogEntry) error
	Delete(ctx context.Context, identifier string) error
	List(ctx context.Context) ([]content.CatalogEntry, error)
}

// Config configures a Store.
type Config struct {
	// BaseURL serves artifacts at /content/{id}/artifact.
	BaseURL           string
	DestinationFolder string
	Buffer            int
}

// Store implements content.Store.
type Store struct {
	cfg     Config
	catalog CatalogRepository
	http    *http.Client
	feed    *Feed
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a store. A nil hc uses http.DefaultClient.
func New(cfg Config, catalog CatalogRepository, hc *http.Client, logger *slog.Logger) *Store {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Store{
		cfg:     cfg,
		catalog: catalog,
		http:    hc,
		feed:    NewFeed(cfg.Buffer),
		logger:  logger,
		now:     time.Now,
		active:  make(map[string]context.CancelFunc),
	}
}

// Subscribe returns a feed of events for identifier.
func (s *Store) Subscribe(identifier string) content.Subscription {
	return s.feed.Subscribe(identifier)
}

// DescribeLocal reports whether identifier is in the catalog with its file
// still on disk.
func (s *Store) DescribeLocal(ctx context.Context, identifier string) (content.LocalDescriptor, error) {
	entry, err := s.catalog.Get(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return content.LocalDescriptor{}, nil
	}
	if err != nil {
		return content.LocalDescriptor{}, failure.LocalStore(fmt.Errorf("describing %s: %w", identifier, err))
	}
	if _, err := os.Stat(entry.Path); err != nil {
		s.logger.Warn("catalog entry has no file", "identifier", identifier, "path", entry.Path)
		return content.LocalDescriptor{}, nil
	}
	return content.LocalDescriptor{Available: true, PackageVersion: entry.PackageVersion}, nil
}

// Import starts a download of req.Identifier. The artifact request is made
// before returning so that a missing artifact reports NOT_FOUND; the body is
// streamed in the background and reported through the feed.
func (s *Store) Import(ctx context.Context, req content.ImportRequest) ([]content.ImportResult, error) {
	id := req.Identifier
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) {
		return []content.ImportResult{{Identifier: id, Status: content.ImportFailed}}, nil
	}

	s.mu.Lock()
	if _, running := s.active[id]; running {
		s.mu.Unlock()
		return []content.ImportResult{{Identifier: id, Status: content.ImportEnqueued}}, nil
	}
	importCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.active[id] = cancel
	s.mu.Unlock()

	resp, err := s.fetch(importCtx, id, req.PackageVersion)
	if err != nil {
		s.finish(id)
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		s.finish(id)
		return []content.ImportResult{{Identifier: id, Status: content.ImportNotFound}}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		s.finish(id)
		s.logger.Warn("artifact request failed", "identifier", id, "status", resp.StatusCode)
		return []content.ImportResult{{Identifier: id, Status: content.ImportFailed}}, nil
	}

	folder := req.DestinationFolder
	if folder == "" {
		folder = s.cfg.DestinationFolder
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.finish(id)
		s.download(importCtx, id, req.PackageVersion, folder, resp)
	}()

	s.logger.Info("import enqueued", "identifier", id, "pkg_version", req.PackageVersion)
	return []content.ImportResult{{Identifier: id, Status: content.ImportEnqueued}}, nil
}

// Cancel stops a running import of identifier.
func (s *Store) Cancel(_ context.Context, identifier string) error {
	s.mu.Lock()
	cancel, ok := s.active[identifier]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("cancelling %s: %w", identifier, ErrNotImporting)
	}
	cancel()
	s.logger.Info("import cancelled", "identifier", identifier)
	return nil
}

// List returns the catalog.
func (s *Store) List(ctx context.Context) ([]content.CatalogEntry, error) {
	entries, err := s.catalog.List(ctx)
	if err != nil {
		return nil, failure.LocalStore(err)
	}
	return entries, nil
}

// Remove deletes identifier from the catalog along with its file.
func (s *Store) Remove(ctx context.Context, identifier string) error {
	entry, err := s.catalog.Get(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return failure.LocalStore(err)
	}
	if err := s.catalog.Delete(ctx, identifier); err != nil {
		return failure.LocalStore(err)
	}
	if err := os.Remove(entry.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("removing artifact file failed", "path", entry.Path, "error", err)
	}
	return nil
}

// Close cancels running imports and waits for them to stop.
func (s *Store) Close() {
	s.mu.Lock()
	for _, cancel := range s.active {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Store) fetch(ctx context.Context, id string, version float64) (*http.Response, error) {
	endpoint := s.cfg.BaseURL + "/content/" + url.PathEscape(id) + "/artifact"
	if version > 0 {
		endpoint += "?version=" + strconv.FormatFloat(version, 'f', -1, 64)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building artifact request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, failure.NetworkAbsent(fmt.Errorf("requesting artifact %s: %w", id, err))
	}
	return resp, nil
}

func (s *Store) download(ctx context.Context, id string, version float64, folder string, resp *http.Response) {
	defer resp.Body.Close()

	path, size, err := s.write(ctx, id, folder, resp)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("import stopped", "identifier", id)
			return
		}
		s.logger.Error("import failed", "identifier", id, "error", err)
		s.feed.Publish(content.Event{Kind: content.EventError, Identifier: id})
		return
	}

	entry := &content.CatalogEntry{
		Identifier:     id,
		PackageVersion: version,
		Path:           path,
		SizeBytes:      size,
		ImportedAt:     s.now().UTC(),
	}
	if err := s.catalog.Upsert(ctx, entry); err != nil {
		s.logger.Error("recording import failed", "identifier", id, "error", err)
		s.feed.Publish(content.Event{Kind: content.EventError, Identifier: id})
		return
	}

	s.logger.Info("import completed", "identifier", id, "size_bytes", size)
	s.feed.Publish(content.Event{Kind: content.EventCompleted, Identifier: id})
}

// write streams the body to a temp file in folder and renames it into place
// once complete.
func (s *Store) write(ctx context.Context, id, folder string, resp *http.Response) (string, int64, error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating destination: %w", err)
	}
	tmp, err := os.CreateTemp(folder, id+"-*.part")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	pw := &progressWriter{feed: s.feed, id: id, total: resp.ContentLength, last: -1}
	n, copyErr := io.Copy(io.MultiWriter(tmp, pw), contextReader{ctx: ctx, r: resp.Body})
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return "", n, fmt.Errorf("downloading %s: %w", id, copyErr)
	}

	final := filepath.Join(folder, id+ArtifactExt)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", n, fmt.Errorf("storing %s: %w", id, err)
	}
	return final, n, nil
}

func (s *Store) finish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.active[id]; ok {
		cancel()
		delete(s.active, id)
	}
}

// progressWriter publishes a PROGRESS event each time the whole-percent
// figure changes. Bodies of unknown length report nothing.
type progressWriter struct {
	feed    *Feed
	id      string
	total   int64
	written int64
	last    int
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total <= 0 {
		return len(b), nil
	}
	pct := int(p.written * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	if pct != p.last {
		p.last = pct
		p.feed.Publish(content.Event{Kind: content.EventProgress, Identifier: p.id, Percentage: pct})
	}
	return len(b), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}
