package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed environment variables. An unset or empty variable
// yields the default; an unparsable one yields the default and a problem.
type envReader struct {
	problems []string
}

func (e *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (e *envReader) invalid(key, raw, want string) {
	e.problems = append(e.problems, fmt.Sprintf("%s=%q is not a valid %s", key, raw, want))
}

func (e *envReader) String(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *envReader) Int(key string, def int) int {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.invalid(key, raw, "integer")
		return def
	}
	return n
}

func (e *envReader) Float(key string, def float64) float64 {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.invalid(key, raw, "number")
		return def
	}
	return f
}

func (e *envReader) Bool(key string, def bool) bool {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		e.invalid(key, raw, "boolean")
		return def
	}
	return b
}

// Duration accepts Go duration syntax, e.g. "90s" or "5m".
func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.invalid(key, raw, "duration")
		return def
	}
	return d
}

// List splits a comma-separated value, dropping empty items.
func (e *envReader) List(key string, def []string) []string {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	var items []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return def
	}
	return items
}
