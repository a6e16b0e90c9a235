package oidc

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const envconfigPrefix = "OIDC"

// Config represents the OAuth2 client the CLI uses to obtain Google identity
// tokens on a user's behalf.
type Config struct {
	// ProviderURL is the OpenID Connect issuer. Google's is
	// https://accounts.google.com.
	ProviderURL string `envconfig:"PROVIDER_URL" default:"https://accounts.google.com"`
	// ClientID must be the OAuth2 client ID the API server accepts identity
	// tokens for.
	ClientID string `envconfig:"CLIENT_ID"`
	// ClientSecret is the "secret" of a desktop OAuth2 client. It is not
	// confidential, but Google requires it.
	ClientSecret string `envconfig:"CLIENT_SECRET"`
}

// GetConfigFromEnvironment returns OAuth2 client configuration derived from
// environment variables.
func GetConfigFromEnvironment() (Config, error) {
	c := Config{}
	if err := envconfig.Process(envconfigPrefix, &c); err != nil {
		return c, errors.Wrap(
			err,
			"error getting OpenID Connect configuration from environment",
		)
	}
	if c.ProviderURL == "" {
		return c, errors.New(
			"a value is required for the OIDC_PROVIDER_URL environment variable",
		)
	}
	if c.ClientID == "" {
		return c, errors.New(
			"a value is required for the OIDC_CLIENT_ID environment variable",
		)
	}
	return c, nil
}
