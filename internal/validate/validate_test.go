// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Passing(t *testing.T) {
	v := New()
	v.LogLevel("log_level", "DEBUG")
	v.Port("port", 80)
	v.Range("range", 5, 1, 10)
	v.NotEmpty("name", "iplayer")
	v.OneOf("backend", "redis", []string{"memory", "redis"})
	v.Positive("burst", 1)
	v.MinDuration("interval", time.Second, 10*time.Millisecond)
	v.FloatRange("rate", 0.5, 0, 1)
	v.CIDROrIP("cidrs", []string{"10.0.0.0/8", "192.0.2.1", " "})
	v.HostPort("addr", ":9090")
	require.NoError(t, v.Err())
}

func TestValidator_Failing(t *testing.T) {
	v := New()
	v.LogLevel("log_level", "loud")
	v.Port("port", 0)
	v.Range("range", 11, 1, 10)
	v.NotEmpty("name", "  ")
	v.OneOf("backend", "disk", []string{"memory", "redis"})
	v.Positive("burst", 0)
	v.MinDuration("interval", time.Millisecond, 10*time.Millisecond)
	v.FloatRange("rate", 2, 0, 1)
	v.CIDROrIP("cidrs", []string{"not-a-cidr"})
	v.HostPort("addr", "localhost")
	assert.Len(t, v.Errors(), 10)
}

func TestErrors_Aggregate(t *testing.T) {
	v := New()
	v.AddError("a", "first", nil)
	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "invalid configuration: a: first", err.Error())

	v.AddError("b", "second", nil)
	err = v.Err()
	assert.Equal(t, "invalid configuration: a: first; b: second", err.Error())
	assert.True(t, errors.Is(err, ErrInvalid))

	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs, 2)

	v.AddError("c", "third", nil)
	assert.Len(t, errs, 2, "Err returns a snapshot")
}
