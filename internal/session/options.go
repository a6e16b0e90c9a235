package session

import (
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultLifetime is how long the API server's access tokens remain valid.
	DefaultLifetime = time.Hour
	// DefaultRefreshGuard is how long before an access token expires that the
	// Manager refreshes it.
	DefaultRefreshGuard = 5 * time.Minute
)

// Option customizes a Manager.
type Option func(*Manager)

// WithClock sets the clock used to compute expiry and to schedule refreshes.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithLifetime sets the assumed lifetime of a freshly issued access token.
func WithLifetime(lifetime time.Duration) Option {
	return func(m *Manager) {
		m.lifetime = lifetime
	}
}

// WithRefreshGuard sets how long before expiry an access token is refreshed.
func WithRefreshGuard(guard time.Duration) Option {
	return func(m *Manager) {
		m.guard = guard
	}
}

// WithLogoutHandler registers a function that is invoked, without any locks
// held, every time the session is torn down. Front ends use it to return the
// user to their login entry point.
func WithLogoutHandler(fn func()) Option {
	return func(m *Manager) {
		m.onLogout = fn
	}
}
