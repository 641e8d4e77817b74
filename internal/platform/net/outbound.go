// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package net holds the outbound URL policy applied before a media URL is
// probed over the network.
package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrNotProbeable indicates the URL cannot be probed over HTTP(S) at all.
	ErrNotProbeable = errors.New("url is not probeable")
	// ErrOutboundNotAllowed indicates the policy rejected the URL.
	ErrOutboundNotAllowed = errors.New("outbound url not allowed")
)

// OutboundAllowlist defines the allowed outbound URL components.
type OutboundAllowlist struct {
	Hosts   []string
	CIDRs   []string
	Ports   []int
	Schemes []string
}

// OutboundPolicy defines which media URLs may be probed. Without Enforce any
// http(s) URL is allowed; with Enforce the allowlist applies and private,
// loopback and link-local targets are blocked unless a CIDR admits them.
type OutboundPolicy struct {
	Enforce bool
	Allow   OutboundAllowlist
}

// IPLookup resolves a host name. net.DefaultResolver satisfies it.
type IPLookup interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Guard is a compiled OutboundPolicy.
type Guard struct {
	enforce  bool
	hosts    map[string]struct{}
	prefixes []netip.Prefix
	ports    []int
	schemes  []string
	lookup   IPLookup
}

// NewGuard compiles policy. It fails on malformed hosts or CIDRs.
func NewGuard(policy OutboundPolicy) (*Guard, error) {
	g := &Guard{
		enforce: policy.Enforce,
		hosts:   make(map[string]struct{}, len(policy.Allow.Hosts)),
		ports:   slices.Clone(policy.Allow.Ports),
		lookup:  net.DefaultResolver,
	}
	for _, s := range policy.Allow.Schemes {
		g.schemes = append(g.schemes, strings.ToLower(strings.TrimSpace(s)))
	}
	for _, h := range policy.Allow.Hosts {
		host, err := NormalizeHost(h)
		if err != nil {
			return nil, err
		}
		g.hosts[host] = struct{}{}
	}
	for _, entry := range policy.Allow.CIDRs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		p, err := parsePrefix(entry)
		if err != nil {
			return nil, err
		}
		g.prefixes = append(g.prefixes, p)
	}
	return g, nil
}

// WithLookup replaces the DNS resolver used under enforcement.
func (g *Guard) WithLookup(l IPLookup) *Guard {
	g.lookup = l
	return g
}

// CheckProbeURL compiles policy and checks raw against it.
func CheckProbeURL(ctx context.Context, raw string, policy OutboundPolicy) (string, error) {
	g, err := NewGuard(policy)
	if err != nil {
		return "", err
	}
	return g.Check(ctx, raw)
}

// Check verifies a media URL and returns the normalized URL to probe.
func (g *Guard) Check(ctx context.Context, raw string) (string, error) {
	u, scheme, err := parseProbeable(raw)
	if err != nil {
		return "", err
	}
	if !g.enforce {
		return u.String(), nil
	}

	if u.User != nil {
		return "", fmt.Errorf("%w: userinfo not allowed", ErrOutboundNotAllowed)
	}
	if len(g.schemes) > 0 && !slices.Contains(g.schemes, scheme) {
		return "", fmt.Errorf("%w: scheme %q not allowed", ErrOutboundNotAllowed, scheme)
	}
	port, err := effectivePort(u, scheme)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotProbeable, err)
	}
	if len(g.ports) > 0 && !slices.Contains(g.ports, port) {
		return "", fmt.Errorf("%w: port %d not allowed", ErrOutboundNotAllowed, port)
	}

	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotProbeable, err)
	}
	addrs, err := g.resolve(ctx, host)
	if err != nil {
		return "", err
	}

	_, allowed := g.hosts[host]
	for _, addr := range addrs {
		inPrefix := g.admits(addr)
		if blocked(addr) && !inPrefix {
			return "", fmt.Errorf("%w: blocked ip %s", ErrOutboundNotAllowed, addr)
		}
		allowed = allowed || inPrefix
	}
	if !allowed {
		return "", ErrOutboundNotAllowed
	}

	if p := u.Port(); p != "" {
		u.Host = net.JoinHostPort(host, p)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}
	return u.String(), nil
}

func (g *Guard) resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr.Unmap()}, nil
	}
	addrs, err := g.lookup.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("resolve host %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve host %q: no addresses", host)
	}
	for i := range addrs {
		addrs[i] = addrs[i].Unmap()
	}
	return addrs, nil
}

func (g *Guard) admits(addr netip.Addr) bool {
	for _, p := range g.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// NormalizeHost validates and normalizes a host for comparison: lowercase,
// no trailing dot, IDNA ASCII form, brackets stripped from IPv6 literals.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	switch {
	case host == "":
		return "", fmt.Errorf("host is empty")
	case strings.Contains(host, "://"):
		return "", fmt.Errorf("host must not include scheme: %s", raw)
	case strings.ContainsAny(host, "/@%"):
		return "", fmt.Errorf("host must be a bare name or address: %s", raw)
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	host = strings.TrimSuffix(host, ".")
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().String(), nil
	}
	if host == "" || strings.Contains(host, ":") {
		return "", fmt.Errorf("host must not include port: %s", raw)
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}

func parseProbeable(raw string) (*url.URL, string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, "", fmt.Errorf("%w: empty url", ErrNotProbeable)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotProbeable, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, "", fmt.Errorf("%w: scheme %q", ErrNotProbeable, u.Scheme)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("%w: missing host", ErrNotProbeable)
	}
	return u, scheme, nil
}

func effectivePort(u *url.URL, scheme string) (int, error) {
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid port %q: %w", p, err)
		}
		return port, nil
	}
	if scheme == "https" {
		return 443, nil
	}
	return 80, nil
}

func parsePrefix(entry string) (netip.Prefix, error) {
	if p, err := netip.ParsePrefix(entry); err == nil {
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR or IP: %s", entry)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func blocked(addr netip.Addr) bool {
	return !addr.IsValid() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsMulticast()
}
