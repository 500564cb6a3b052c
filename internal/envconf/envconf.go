// Package envconf reads typed settings from environment variables.
// Unset and blank variables both yield the default.
package envconf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// String returns the value of key, or def.
func String(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

// Duration parses key as a time.Duration.
func Duration(key string, def time.Duration) (time.Duration, error) {
	if v, ok := lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return d, nil
	}
	return def, nil
}

// Bool parses key with strconv.ParseBool.
func Bool(key string, def bool) (bool, error) {
	if v, ok := lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("parse %s: %w", key, err)
		}
		return b, nil
	}
	return def, nil
}

// Int parses key as a base 10 integer.
func Int(key string, def int) (int, error) {
	if v, ok := lookup(key); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return i, nil
	}
	return def, nil
}

// Int64 parses key as a base 10 64-bit integer.
func Int64(key string, def int64) (int64, error) {
	if v, ok := lookup(key); ok {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return i, nil
	}
	return def, nil
}
