// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package validate accumulates configuration validation errors.
package validate

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"
)

// ErrInvalid is matched by every error returned from Validator.Err.
var ErrInvalid = errors.New("invalid configuration")

// Error is one failed field.
type Error struct {
	Field   string
	Value   any
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is the aggregate returned by Validator.Err.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Is lets callers match the aggregate with errors.Is(err, ErrInvalid).
func (e Errors) Is(target error) bool { return target == ErrInvalid }

// Validator collects field errors; the zero value is ready to use.
type Validator struct {
	errs Errors
}

// New returns an empty validator.
func New() *Validator { return &Validator{} }

// AddError records a failure for field.
func (v *Validator) AddError(field, message string, value any) {
	v.errs = append(v.errs, Error{Field: field, Value: value, Message: message})
}

// Check records message for field unless ok holds.
func (v *Validator) Check(ok bool, field string, value any, format string, args ...any) {
	if !ok {
		v.AddError(field, fmt.Sprintf(format, args...), value)
	}
}

// Errors returns what has been recorded so far.
func (v *Validator) Errors() Errors { return v.errs }

// Err returns nil, or an Errors snapshot.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return slices.Clone(v.errs)
}

// LogLevel accepts the zerolog level names the CLI exposes.
func (v *Validator) LogLevel(field, value string) {
	level := strings.ToLower(strings.TrimSpace(value))
	v.Check(slices.Contains([]string{"trace", "debug", "info", "warn", "error"}, level),
		field, value, "must be one of trace, debug, info, warn, error")
}

func (v *Validator) Port(field string, port int) {
	v.Check(port >= 1 && port <= 65535, field, port, "port must be between 1 and 65535, got %d", port)
}

func (v *Validator) Range(field string, value, minVal, maxVal int) {
	v.Check(value >= minVal && value <= maxVal, field, value, "must be between %d and %d, got %d", minVal, maxVal, value)
}

func (v *Validator) FloatRange(field string, value, minVal, maxVal float64) {
	v.Check(value >= minVal && value <= maxVal, field, value, "must be between %g and %g, got %g", minVal, maxVal, value)
}

func (v *Validator) Positive(field string, value int) {
	v.Check(value > 0, field, value, "must be positive, got %d", value)
}

func (v *Validator) MinDuration(field string, value, minVal time.Duration) {
	v.Check(value >= minVal, field, value, "must be at least %s, got %s", minVal, value)
}

func (v *Validator) NotEmpty(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, value, "is required")
}

func (v *Validator) OneOf(field, value string, allowed []string) {
	v.Check(slices.Contains(allowed, value), field, value, "must be one of %s, got %q", strings.Join(allowed, ", "), value)
}

// CIDROrIP checks every non-blank entry.
func (v *Validator) CIDROrIP(field string, entries []string) {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" || net.ParseIP(entry) != nil {
			continue
		}
		_, _, err := net.ParseCIDR(entry)
		v.Check(err == nil, field, entry, "must be a valid IP or CIDR")
	}
}

// HostPort checks a listen or dial address; the host may be empty.
func (v *Validator) HostPort(field, value string) {
	_, port, err := net.SplitHostPort(value)
	switch {
	case err != nil:
		v.AddError(field, fmt.Sprintf("invalid address: %v", err), value)
	case port == "":
		v.AddError(field, "address must include a port", value)
	}
}
