package scans

import (
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultPollInterval is how long the Controller waits between status
	// queries.
	DefaultPollInterval = 5 * time.Second
	// DefaultMaxAttempts is how many status queries the Controller makes
	// before giving up on a Scan.
	DefaultMaxAttempts = 60
	// DefaultReportDelay is how long the Controller waits after a Scan is
	// reported complete before downloading its report. The API server's
	// report is not always readable the instant the Scan completes.
	DefaultReportDelay = 2 * time.Second
)

// Option customizes a Controller.
type Option func(*Controller)

// WithClock sets the clock used to pace polling.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithPollInterval sets the interval between status queries.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Controller) {
		c.pollInterval = interval
	}
}

// WithMaxAttempts sets the number of status queries made before a Job times
// out.
func WithMaxAttempts(maxAttempts int) Option {
	return func(c *Controller) {
		c.maxAttempts = maxAttempts
	}
}

// WithReportDelay sets the pause between completion and download.
func WithReportDelay(delay time.Duration) Option {
	return func(c *Controller) {
		c.reportDelay = delay
	}
}
