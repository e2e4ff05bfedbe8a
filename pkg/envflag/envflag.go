// Package envflag supplies flag defaults that can be overridden from the
// process environment.
package envflag

import (
	"os"
	"strconv"
	"strings"
)

// String returns the value of the environment variable key, or def when the
// variable is unset or blank.
func String(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Int returns the integer value of the environment variable key, or def when
// the variable is unset or not a number.
func Int(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
