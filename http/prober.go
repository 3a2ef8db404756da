package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fwojciec/docsearch"
)

// DefaultProbeTimeout bounds a single existence check.
const DefaultProbeTimeout = 10 * time.Second

var _ docsearch.Prober = (*Prober)(nil)

// Prober checks URL existence with HEAD requests. Used to probe
// version-numbered URL templates that never appear in the sitemap.
type Prober struct {
	client    *http.Client
	userAgent string
}

// NewProber creates a new Prober. If client is nil a client with
// DefaultProbeTimeout is used. Redirects are followed, so a moved page
// still counts as existing.
func NewProber(client *http.Client, userAgent string) *Prober {
	if client == nil {
		client = &http.Client{Timeout: DefaultProbeTimeout}
	}
	return &Prober{client: client, userAgent: userAgent}
}

// Exists reports whether the URL responds with 200 OK to a HEAD request.
func (p *Prober) Exists(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
