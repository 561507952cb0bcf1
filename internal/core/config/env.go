package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: FACET_[SECTION]_[KEY] (e.g., FACET_OBSERVABILITY_PORT).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "FACET_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, "FACET_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.DatabaseDir, "FACET_PATHS_DATABASE_DIR")

	// Cache
	setEnvInt(&cfg.Cache.Stubs, "FACET_CACHE_STUBS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "FACET_WATCH_DEBOUNCE")

	// History
	setEnvBool(&cfg.History.Enabled, "FACET_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "FACET_HISTORY_PATH")
	setEnvDuration(&cfg.History.BusyTimeout, "FACET_HISTORY_BUSY_TIMEOUT")
	setEnvInt(&cfg.History.KeepRuns, "FACET_HISTORY_KEEP_RUNS")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "FACET_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "FACET_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "FACET_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "FACET_OBSERVABILITY_ENABLE_TRACING")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		log.Printf("Applying env override: %s=%s", key, val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = d
		}
	}
}
