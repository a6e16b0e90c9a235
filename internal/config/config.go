// Package config loads the tunables shared by the praxis session manager and
// scan controller from the environment.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const envconfigPrefix = "PRAXIS"

// Session store backends.
const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Config represents settings read from PRAXIS_* environment variables.
type Config struct {
	// SessionLifetime is how long an access token remains valid after it is
	// issued or refreshed.
	SessionLifetime time.Duration `envconfig:"SESSION_LIFETIME" default:"1h" validate:"gt=0"`
	// SessionRefreshGuard is how long before expiry a session is refreshed.
	SessionRefreshGuard time.Duration `envconfig:"SESSION_REFRESH_GUARD" default:"5m" validate:"gte=0,ltfield=SessionLifetime"`
	// SessionStore selects where session state is persisted.
	SessionStore string `envconfig:"SESSION_STORE" default:"file" validate:"oneof=file redis memory"`
	// SessionFile overrides the location of the file session store.
	SessionFile string `envconfig:"SESSION_FILE"`

	ScanPollInterval time.Duration `envconfig:"SCAN_POLL_INTERVAL" default:"5s" validate:"gt=0"`
	ScanMaxAttempts  int           `envconfig:"SCAN_MAX_ATTEMPTS" default:"60" validate:"min=1"`
	// ScanReportDelay is how long to wait after a scan completes before
	// downloading its report.
	ScanReportDelay time.Duration `envconfig:"SCAN_REPORT_DELAY" default:"2s" validate:"gte=0"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func lazyValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// GetConfigFromEnvironment returns a validated Config derived from
// environment variables.
func GetConfigFromEnvironment() (Config, error) {
	c := Config{}
	if err := envconfig.Process(envconfigPrefix, &c); err != nil {
		return c, errors.Wrap(
			err,
			"error getting praxis configuration from environment",
		)
	}
	return c, c.Validate()
}

// Validate returns an error describing every setting that is out of range.
func (c Config) Validate() error {
	err := lazyValidator().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "error validating praxis configuration")
	}
	verrStrs := make([]string, len(verrs))
	for i, verr := range verrs {
		verrStrs[i] = describe(verr)
	}
	return errors.Errorf(
		"invalid praxis configuration: %s",
		strings.Join(verrStrs, "; "),
	)
}

func describe(verr validator.FieldError) string {
	switch verr.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", verr.Field(), verr.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", verr.Field(), verr.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", verr.Field(), verr.Param())
	case "oneof":
		return fmt.Sprintf(
			"%s must be one of: %s",
			verr.Field(),
			strings.Join(strings.Fields(verr.Param()), ", "),
		)
	default:
		return fmt.Sprintf("%s is invalid", verr.Field())
	}
}
