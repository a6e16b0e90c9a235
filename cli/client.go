package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	praxisconfig "github.com/praxis-health/praxis/internal/config"
	"github.com/praxis-health/praxis/internal/kv"
	"github.com/praxis-health/praxis/internal/kv/filestore"
	"github.com/praxis-health/praxis/internal/kv/redis"
	"github.com/praxis-health/praxis/internal/scans"
	"github.com/praxis-health/praxis/internal/session"
	"github.com/praxis-health/praxis/sdk/authx"
	"github.com/praxis-health/praxis/sdk/core"
	"github.com/praxis-health/praxis/sdk/restmachinery"
	"github.com/urfave/cli/v2"
)

// client bundles everything a command needs to talk to the API server on
// behalf of the logged in user.
type client struct {
	core.APIClient
	sessions *session.Manager
	settings praxisconfig.Config
}

// Close stops the session's background refresh.
func (c *client) Close() {
	c.sessions.Close()
}

func (c *client) scanController() *scans.Controller {
	return scans.NewController(
		c.Scans(),
		scans.WithPollInterval(c.settings.ScanPollInterval),
		scans.WithMaxAttempts(c.settings.ScanMaxAttempts),
		scans.WithReportDelay(c.settings.ScanReportDelay),
	)
}

// getClient returns a client for the API server the user last logged into.
// It fails if there is no session to resume.
func getClient(c *cli.Context) (*client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	settings, err := praxisconfig.GetConfigFromEnvironment()
	if err != nil {
		return nil, err
	}
	sessions, err := getSessionManager(
		c,
		cfg.APIAddress,
		settings,
		session.WithLogoutHandler(func() {
			fmt.Fprintln(
				os.Stderr,
				"Your session has ended. Please use `praxis login` to continue.",
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	if err = sessions.Restore(c.Context); err != nil {
		sessions.Close()
		return nil, errors.Wrap(err, "error restoring session")
	}
	if !sessions.IsAuthenticated() {
		sessions.Close()
		return nil, errNotLoggedIn
	}
	return &client{
		APIClient: core.NewAPIClient(
			cfg.APIAddress,
			sessions,
			getAPIClientOptions(c),
		),
		sessions: sessions,
		settings: settings,
	}, nil
}

// getSessionManager returns a session.Manager for the specified API server
// whose session is persisted to the store selected by settings. Its session
// has not been restored.
func getSessionManager(
	c *cli.Context,
	apiAddress string,
	settings praxisconfig.Config,
	opts ...session.Option,
) (*session.Manager, error) {
	store, err := getSessionStore(settings)
	if err != nil {
		return nil, errors.Wrap(err, "error opening session store")
	}
	opts = append(
		[]session.Option{
			session.WithLifetime(settings.SessionLifetime),
			session.WithRefreshGuard(settings.SessionRefreshGuard),
		},
		opts...,
	)
	sessions, err := session.NewManager(
		authx.NewAuthClient(apiAddress, getAPIClientOptions(c)),
		store,
		opts...,
	)
	return sessions, errors.Wrap(err, "error creating session manager")
}

func getSessionStore(settings praxisconfig.Config) (kv.Store, error) {
	switch settings.SessionStore {
	case praxisconfig.SessionStoreRedis:
		redisConfig, err := redis.GetConfigFromEnvironment()
		if err != nil {
			return nil, err
		}
		return redis.NewStore(redisConfig.Client(), redisConfig.Prefix), nil
	case praxisconfig.SessionStoreMemory:
		return kv.NewMemoryStore(), nil
	default:
		path := settings.SessionFile
		if path == "" {
			var err error
			if path, err = filestore.DefaultPath(); err != nil {
				return nil, err
			}
		}
		return filestore.NewStore(path), nil
	}
}

func getAPIClientOptions(c *cli.Context) *restmachinery.APIClientOptions {
	return &restmachinery.APIClientOptions{
		AllowInsecureConnections: c.Bool(flagInsecure),
	}
}
