// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package source

import (
	"context"
	"fmt"
	"net/http"
)

// Prober discovers the final location of a media URL.
type Prober interface {
	Probe(ctx context.Context, rawURL string, headers map[string]string) (string, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, rawURL string, headers map[string]string) (string, error)

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	return f(ctx, rawURL, headers)
}

// HTTPProber issues a one-byte ranged GET, follows redirects and reports the
// URL of the final request. The response body is never read.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber wraps client. A nil client uses http.DefaultClient.
func NewHTTPProber(client *http.Client, userAgent string) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{client: client, userAgent: userAgent}
}

// Probe implements Prober. Any HTTP response counts as success; only
// transport failures are errors.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build probe request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Range", "bytes=0-0")
	if p.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", req.URL.Redacted(), err)
	}
	_ = resp.Body.Close()

	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String(), nil
	}
	return rawURL, nil
}
