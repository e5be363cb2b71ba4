package engine

import (
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// CoreConfiguration is the core's entire configuration surface, read from
// environment variables at setup. Missing or malformed values fall back to
// documented defaults (malformed ones also log a warning); they are never
// fatal for setup.
type CoreConfiguration struct {
	// CacheDuration is how long the provider/map registry caches resolved
	// content. Source: cache_duration (integer seconds).
	CacheDuration time.Duration

	// UserLog is read from user_log (boolean). Nothing consults it: the
	// bridge's print capability logs every line regardless of its value.
	UserLog bool

	// RegistryURL is read from registry_url. Nothing consults it: the
	// provider/map registry fetches each URL exactly as it is given.
	RegistryURL string
}

const (
	defaultCacheDurationSeconds = 60
	defaultUserLog              = false
	defaultRegistryURL          = "https://registry.superface.ai"
)

// LoadConfigFromEnv reads CoreConfiguration from the process environment.
// Every recognized key has a documented default; a present-but-malformed
// value is logged as a warning and the default is used instead of failing
// setup.
func LoadConfigFromEnv() CoreConfiguration {
	cfg := CoreConfiguration{
		CacheDuration: defaultCacheDurationSeconds * time.Second,
		UserLog:       defaultUserLog,
		RegistryURL:   defaultRegistryURL,
	}

	if raw, ok := os.LookupEnv("cache_duration"); ok {
		if seconds, err := strconv.Atoi(raw); err == nil {
			cfg.CacheDuration = time.Duration(seconds) * time.Second
		} else {
			log.WithField("value", raw).Warn("engine: cache_duration is not an integer, using default")
		}
	}

	if raw, ok := os.LookupEnv("user_log"); ok {
		if b, err := strconv.ParseBool(raw); err == nil {
			cfg.UserLog = b
		} else {
			log.WithField("value", raw).Warn("engine: user_log is not a boolean, using default")
		}
	}

	if raw, ok := os.LookupEnv("registry_url"); ok {
		if raw == "" {
			log.Warn("engine: registry_url is empty, using default")
		} else {
			cfg.RegistryURL = raw
		}
	}

	return cfg
}
