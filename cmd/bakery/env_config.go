package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// envPrefix is the prefix of every environment variable bakery reads.
const envPrefix = "BAKERY_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly defaults without editing flags.
type envConfig struct {
	Workers   int           // BAKERY_WORKERS: per-stage parallelism
	Debounce  time.Duration // BAKERY_DEBOUNCE: watch quiet period
	Drafts    bool          // BAKERY_DRAFTS: include draft pages
	LogFormat string        // BAKERY_LOG_FORMAT: text or json
}

// knownEnvVars lists valid BAKERY_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"BAKERY_WORKERS":    true,
	"BAKERY_DEBOUNCE":   true,
	"BAKERY_DRAFTS":     true,
	"BAKERY_LOG_FORMAT": true,
}

// loadEnvConfig reads configuration from environment variables.
// Invalid values are ignored.
func loadEnvConfig(env *Environment) *envConfig {
	cfg := &envConfig{
		LogFormat: strings.ToLower(strings.TrimSpace(env.Getenv("BAKERY_LOG_FORMAT"))),
	}

	if workers := env.Getenv("BAKERY_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	if debounce := env.Getenv("BAKERY_DEBOUNCE"); debounce != "" {
		if d, err := time.ParseDuration(debounce); err == nil && d > 0 {
			cfg.Debounce = d
		}
	}
	if drafts := env.Getenv("BAKERY_DRAFTS"); drafts != "" {
		if b, err := strconv.ParseBool(drafts); err == nil {
			cfg.Drafts = b
		}
	}

	return cfg
}

// warnUnknownEnvVars prints warnings for unrecognized BAKERY_* variables.
// Helps catch typos like BAKERY_WORKER instead of BAKERY_WORKERS.
func warnUnknownEnvVars(env *Environment) {
	for _, kv := range env.Environ() {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(env.Stderr, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig fills flags the user did not set from the environment.
// This ensures: CLI flags > env vars > defaults.
func applyEnvConfig(e *envConfig, f *buildFlags, changed func(string) bool) {
	if e.Workers > 0 && !changed("workers") {
		f.workers = e.Workers
	}
	if e.Debounce > 0 && !changed("debounce") {
		f.debounce = e.Debounce
	}
	if e.Drafts && !changed("drafts") {
		f.drafts = true
	}
}
