// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Caij/iplayer/internal/log"
)

// lookupEnv returns parse(value) when key is set and non-empty, and def
// otherwise. Values that fail to parse fall back to def with a warning.
// Secrets are never logged.
func lookupEnv[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Msg("invalid environment value, using default")
		return def
	}

	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSecretKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", raw)
	}
	ev.Msg("using environment variable")
	return v
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "token")
}

// ParseString reads key or returns def.
func ParseString(key, def string) string {
	return lookupEnv(key, def, func(s string) (string, error) { return s, nil })
}

// ParseInt reads a base-10 integer.
func ParseInt(key string, def int) int {
	return lookupEnv(key, def, strconv.Atoi)
}

// ParseFloat reads a float64.
func ParseFloat(key string, def float64) float64 {
	return lookupEnv(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// ParseDuration reads a Go duration such as "150ms".
func ParseDuration(key string, def time.Duration) time.Duration {
	return lookupEnv(key, def, time.ParseDuration)
}

// ParseBool accepts true/false, 1/0 and yes/no, case-insensitively.
func ParseBool(key string, def bool) bool {
	return lookupEnv(key, def, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", s)
	})
}

// ParseList reads a comma-separated list, dropping blank items. A list with
// no items yields def.
func ParseList(key string, def []string) []string {
	out := lookupEnv(key, nil, func(s string) ([]string, error) {
		var items []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	})
	if len(out) == 0 {
		return def
	}
	return out
}

// expandEnv expands ${VAR} and $VAR references in file values.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
