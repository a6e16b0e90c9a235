// Package session maintains the single source of truth about who is logged
// in. A Manager establishes sessions through the API server, mirrors them to a
// kv.Store, keeps access tokens fresh without user involvement, and
// broadcasts every change of user to its subscribers.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/internal/broadcast"
	"github.com/praxis-health/praxis/internal/kv"
	"github.com/praxis-health/praxis/sdk/authx"
	"github.com/praxis-health/praxis/sdk/meta"
)

// Keys under which a session is persisted. All four are written together and
// removed together.
const (
	keyUser         = "user"
	keyToken        = "token"
	keyRefreshToken = "refreshToken"
	keyTokenExpiry  = "tokenExpiry"
)

var persistedKeys = []string{keyUser, keyToken, keyRefreshToken, keyTokenExpiry}

// ErrSessionChanged is returned by RefreshSession when the session it was
// refreshing was ended or replaced before the API server answered. The
// refreshed token is discarded.
var ErrSessionChanged = errors.New(
	"session ended or was replaced while it was being refreshed",
)

// Session is a snapshot of an authenticated session.
type Session struct {
	User         *authx.User
	AccessToken  string
	RefreshToken string
	// Expiry is when AccessToken stops being valid.
	Expiry time.Time
}

// Manager owns the process's session. Construct one with NewManager and share
// it with everything that needs to know who is logged in. Manager implements
// restmachinery.TokenSource.
type Manager struct {
	authClient authx.AuthClient
	store      kv.Store
	clock      clockwork.Clock
	lifetime   time.Duration
	guard      time.Duration
	onLogout   func()

	// ctx bounds refreshes that the Manager initiates on its own.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	session *Session
	// generation is bumped whenever the session is installed, refreshed, or
	// torn down. Asynchronous work captures it and gives up if it changes.
	generation uint64
	timer      clockwork.Timer

	users *broadcast.Cell[*authx.User]
}

// NewManager returns a Manager that establishes sessions using authClient and
// persists them to store. The Manager starts out logged out; call Restore to
// pick up a previously persisted session.
func NewManager(
	authClient authx.AuthClient,
	store kv.Store,
	opts ...Option,
) (*Manager, error) {
	m := &Manager{
		authClient: authClient,
		store:      store,
		clock:      clockwork.NewRealClock(),
		lifetime:   DefaultLifetime,
		guard:      DefaultRefreshGuard,
		users:      broadcast.NewCellWithValue[*authx.User](nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.lifetime <= 0 {
		return nil, errors.Errorf(
			"session lifetime must be positive; got %s",
			m.lifetime,
		)
	}
	if m.guard < 0 || m.guard >= m.lifetime {
		return nil, errors.Errorf(
			"refresh guard window %s must be non-negative and shorter than the "+
				"session lifetime %s",
			m.guard,
			m.lifetime,
		)
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m, nil
}

// Login exchanges an email address and password for a session. On failure no
// state changes and the error is returned for display.
func (m *Manager) Login(
	ctx context.Context,
	email string,
	password string,
) (authx.User, error) {
	result, err := m.authClient.Login(ctx, email, password)
	if err != nil {
		return authx.User{}, err
	}
	return m.establish(ctx, result)
}

// RegisterUser creates an account and logs into it, under the same contract
// as Login.
func (m *Manager) RegisterUser(
	ctx context.Context,
	registration authx.Registration,
) (authx.User, error) {
	result, err := m.authClient.Register(ctx, registration)
	if err != nil {
		return authx.User{}, err
	}
	return m.establish(ctx, result)
}

// LoginWithFederatedIdentity exchanges a token issued by a third-party
// identity provider for a session, under the same contract as Login.
func (m *Manager) LoginWithFederatedIdentity(
	ctx context.Context,
	providerToken string,
	provider authx.Provider,
) (authx.User, error) {
	if providerToken == "" {
		return authx.User{}, &meta.ErrValidation{
			Reason: "an identity token is required",
		}
	}
	var result authx.AuthResult
	var err error
	switch provider {
	case authx.ProviderGoogle:
		result, err = m.authClient.LoginWithGoogle(ctx, providerToken)
	case authx.ProviderApple:
		result, err = m.authClient.LoginWithApple(ctx, providerToken)
	default:
		return authx.User{}, &meta.ErrValidation{
			Reason: "unsupported identity provider",
			Details: []string{
				fmt.Sprintf(
					"%q is not one of %q, %q",
					provider,
					authx.ProviderGoogle,
					authx.ProviderApple,
				),
			},
		}
	}
	if err != nil {
		return authx.User{}, err
	}
	return m.establish(ctx, result)
}

// RefreshSession exchanges the session's refresh token for a new access
// token. Any failure to refresh ends the session, as does calling it with no
// refresh token available, in which case the API server is not contacted.
func (m *Manager) RefreshSession(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil || m.session.RefreshToken == "" {
		ended := m.logoutLocked(ctx)
		m.mu.Unlock()
		if ended {
			m.notifyLogout()
		}
		return &meta.ErrAuthentication{
			Reason: "No refresh token is available. Please log in again.",
		}
	}
	generation := m.generation
	refreshToken := m.session.RefreshToken
	m.mu.Unlock()

	glog.V(2).Info("refreshing access token")
	result, err := m.authClient.RefreshToken(ctx, refreshToken)

	m.mu.Lock()
	if generation != m.generation {
		m.mu.Unlock()
		glog.V(2).Info("discarding refreshed access token for a stale session")
		return ErrSessionChanged
	}
	if err != nil {
		if ctx.Err() != nil {
			// Abandoned, not rejected. The session may still be good.
			m.mu.Unlock()
			return err
		}
		glog.Warningf("error refreshing access token; logging out: %s", err)
		ended := m.logoutLocked(ctx)
		m.mu.Unlock()
		if ended {
			m.notifyLogout()
		}
		return err
	}
	refreshed := *m.session
	refreshed.AccessToken = result.AccessToken
	refreshed.Expiry = m.clock.Now().Add(m.lifetime)
	if err = m.persist(ctx, refreshed); err != nil {
		glog.Errorf("error persisting refreshed session; logging out: %s", err)
		ended := m.logoutLocked(ctx)
		m.mu.Unlock()
		if ended {
			m.notifyLogout()
		}
		return err
	}
	m.generation++
	m.session = &refreshed
	m.scheduleLocked()
	m.mu.Unlock()
	return nil
}

// Logout ends the session: persisted state is removed, any scheduled or
// in-flight refresh is abandoned, and subscribers are told that nobody is
// logged in. It does not contact the API server and cannot fail.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	ended := m.logoutLocked(ctx)
	m.mu.Unlock()
	if ended {
		m.notifyLogout()
	}
}

// CurrentUser returns a subscription that immediately receives the current
// user, or nil if nobody is logged in, and then every subsequent change.
// Callers must Unsubscribe when they are done.
func (m *Manager) CurrentUser() *broadcast.Subscription[*authx.User] {
	return m.users.Subscribe()
}

// IsAuthenticated reports whether a user is logged in. It does not consult
// the access token's expiry; keeping the token fresh is the refresh
// schedule's job.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// AccessToken returns the current access token, or an empty string if nobody
// is logged in.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.AccessToken
}

// Session returns a copy of the current session and whether there is one.
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	s := *m.session
	user := *s.User
	s.User = &user
	return s, true
}

// Restore installs the session persisted by an earlier process, if there is
// a complete one. Incomplete or unreadable persisted state is removed. An
// access token that is already due for refresh is refreshed before Restore
// returns; if that fails, the session is ended.
func (m *Manager) Restore(ctx context.Context) error {
	values, err := m.store.Get(ctx, persistedKeys...)
	if err != nil {
		return errors.Wrap(err, "error reading persisted session")
	}
	if len(values) == 0 {
		return nil
	}
	restored, err := decodeSession(values)
	if err != nil {
		glog.Warningf("discarding persisted session: %s", err)
		if err = m.store.DeleteAll(ctx, persistedKeys...); err != nil {
			return errors.Wrap(err, "error clearing persisted session")
		}
		return nil
	}

	m.mu.Lock()
	m.generation++
	m.session = &restored
	user := *restored.User
	m.users.Publish(&user)
	if m.refreshIn() > 0 {
		m.scheduleLocked()
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	glog.V(2).Info("persisted access token is due for refresh")
	if err := m.RefreshSession(ctx); err != nil {
		glog.Warningf("could not refresh persisted session: %s", err)
	}
	return nil
}

// Close abandons any scheduled refresh and ends every CurrentUser
// subscription. Persisted state is left intact.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.generation++
	m.mu.Unlock()
	m.cancel()
	m.users.Close()
}

func (m *Manager) establish(
	ctx context.Context,
	result authx.AuthResult,
) (authx.User, error) {
	user := result.User
	established := Session{
		User:         &user,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Expiry:       m.clock.Now().Add(m.lifetime),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.persist(ctx, established); err != nil {
		return authx.User{}, err
	}
	m.generation++
	m.session = &established
	published := user
	m.users.Publish(&published)
	m.scheduleLocked()
	glog.V(1).Infof("logged in as %s", user.Email)
	return user, nil
}

func (m *Manager) persist(ctx context.Context, s Session) error {
	userBytes, err := json.Marshal(s.User)
	if err != nil {
		return errors.Wrap(err, "error marshaling user")
	}
	return errors.Wrap(
		m.store.PutAll(
			ctx,
			map[string]string{
				keyUser:         string(userBytes),
				keyToken:        s.AccessToken,
				keyRefreshToken: s.RefreshToken,
				keyTokenExpiry:  s.Expiry.UTC().Format(time.RFC3339Nano),
			},
		),
		"error persisting session",
	)
}

func decodeSession(values map[string]string) (Session, error) {
	s := Session{}
	for _, key := range persistedKeys {
		if values[key] == "" {
			return s, errors.Errorf("%q is missing", key)
		}
	}
	user := authx.User{}
	if err := json.Unmarshal([]byte(values[keyUser]), &user); err != nil {
		return s, errors.Wrapf(err, "error parsing %q", keyUser)
	}
	expiry, err := time.Parse(time.RFC3339Nano, values[keyTokenExpiry])
	if err != nil {
		return s, errors.Wrapf(err, "error parsing %q", keyTokenExpiry)
	}
	s.User = &user
	s.AccessToken = values[keyToken]
	s.RefreshToken = values[keyRefreshToken]
	s.Expiry = expiry
	return s, nil
}

// logoutLocked tears down the session and returns true if one was held.
// Callers must hold m.mu and, if a session ended, must call notifyLogout once
// they have released it.
func (m *Manager) logoutLocked(ctx context.Context) bool {
	m.stopTimerLocked()
	m.generation++
	wasLoggedIn := m.session != nil
	m.session = nil
	if err := m.store.DeleteAll(ctx, persistedKeys...); err != nil {
		glog.Errorf("error clearing persisted session: %s", err)
	}
	if wasLoggedIn {
		m.users.Publish(nil)
		glog.V(1).Info("logged out")
	}
	return wasLoggedIn
}

func (m *Manager) notifyLogout() {
	if m.onLogout != nil {
		m.onLogout()
	}
}

func (m *Manager) refreshIn() time.Duration {
	return m.session.Expiry.Sub(m.clock.Now()) - m.guard
}

// scheduleLocked replaces any armed refresh timer with one for the current
// session. Callers must hold m.mu.
func (m *Manager) scheduleLocked() {
	m.stopTimerLocked()
	if m.session == nil {
		return
	}
	generation := m.generation
	refreshIn := m.refreshIn()
	if refreshIn <= 0 {
		glog.V(2).Infof(
			"access token expires in %s; refreshing now",
			m.session.Expiry.Sub(m.clock.Now()),
		)
		go m.scheduledRefresh(generation)
		return
	}
	glog.V(2).Infof("access token refresh scheduled in %s", refreshIn)
	m.timer = m.clock.AfterFunc(refreshIn, func() {
		m.scheduledRefresh(generation)
	})
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) scheduledRefresh(generation uint64) {
	m.mu.Lock()
	current := generation == m.generation
	m.mu.Unlock()
	if !current {
		return
	}
	if err := m.RefreshSession(m.ctx); err != nil {
		glog.Warningf("scheduled session refresh failed: %s", err)
	}
}
