// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media models playable sources and sniffs their container or
// streaming protocol from the URL.
package media

import (
	"net/url"
	"path"
	"strings"
)

// ContentType is the sniffed media strategy for a URL.
type ContentType int

const (
	ContentUnknown ContentType = iota
	ContentHLS
	ContentDASH
	ContentSmoothStreaming
	ContentProgressive
)

// String returns the lowercase label used in logs and metrics.
func (c ContentType) String() string {
	switch c {
	case ContentHLS:
		return "hls"
	case ContentDASH:
		return "dash"
	case ContentSmoothStreaming:
		return "smooth_streaming"
	case ContentProgressive:
		return "progressive"
	default:
		return "unknown"
	}
}

// MarshalText renders the label for JSON output.
func (c ContentType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Known reports whether the type was positively identified.
func (c ContentType) Known() bool { return c != ContentUnknown }

var progressiveExt = map[string]struct{}{
	".mp4":  {},
	".m4v":  {},
	".m4a":  {},
	".mkv":  {},
	".webm": {},
	".mov":  {},
	".flv":  {},
	".3gp":  {},
	".ts":   {},
	".mp3":  {},
	".aac":  {},
}

// Infer classifies a URL from its path. Query strings and fragments are
// ignored and matching is case-insensitive.
func Infer(rawURL string) ContentType {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
		if p == "" {
			p = u.Opaque
		}
	}
	p = strings.ToLower(p)

	switch ext := path.Ext(p); {
	case ext == ".m3u8":
		return ContentHLS
	case ext == ".mpd":
		return ContentDASH
	case ext == ".ism" || ext == ".isml":
		return ContentSmoothStreaming
	case strings.HasSuffix(p, ".ism/manifest") || strings.HasSuffix(p, ".isml/manifest"):
		return ContentSmoothStreaming
	default:
		if _, ok := progressiveExt[ext]; ok {
			return ContentProgressive
		}
	}
	return ContentUnknown
}

// Source is what the engine opens.
type Source struct {
	// URI is the URL the caller asked for.
	URI string `json:"uri"`
	// ResolvedURI is the redirect target, empty when no probe ran or the
	// probe failed.
	ResolvedURI string `json:"resolved_uri,omitempty"`
	// Headers are sent with every request the engine makes for this source.
	Headers map[string]string `json:"headers,omitempty"`
	// Type selects the engine's source strategy.
	Type ContentType `json:"type"`
	// Fallback is set when Type was defaulted to progressive because
	// sniffing failed.
	Fallback bool `json:"fallback,omitempty"`
}

// Location returns the URL the engine should fetch.
func (s Source) Location() string {
	if s.ResolvedURI != "" {
		return s.ResolvedURI
	}
	return s.URI
}

// Classify builds a source for uri using target for sniffing. It returns
// false when target cannot be classified.
func Classify(uri, target string, headers map[string]string) (Source, bool) {
	ct := Infer(target)
	if !ct.Known() {
		return Source{}, false
	}
	src := Source{URI: uri, Headers: cloneHeaders(headers), Type: ct}
	if target != uri {
		src.ResolvedURI = target
	}
	return src, true
}

// Default is the container-extractor source used when nothing could be
// sniffed. resolved may be empty.
func Default(uri, resolved string, headers map[string]string) Source {
	src := Source{URI: uri, Headers: cloneHeaders(headers), Type: ContentProgressive, Fallback: true}
	if resolved != uri {
		src.ResolvedURI = resolved
	}
	return src
}

func cloneHeaders(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
