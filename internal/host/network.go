package host

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Probe reports network availability by reaching a URL. Any HTTP response
// counts as online.
type Probe struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewProbe creates a probe against url.
func NewProbe(url string, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Probe{URL: url, Client: http.DefaultClient, Timeout: 3 * time.Second, Logger: logger}
}

// Available reports whether the probe URL answered.
func (p *Probe) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		p.Logger.Warn("invalid probe url", "url", p.URL, "error", err)
		return false
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		p.Logger.Debug("network probe failed", "url", p.URL, "error", err)
		return false
	}
	resp.Body.Close()
	return true
}

// Online is an enrollment.Network with a fixed answer.
type Online bool

func (o Online) Available(context.Context) bool {
	return bool(o)
}
