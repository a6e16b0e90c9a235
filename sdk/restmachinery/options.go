package restmachinery

// APIClientOptions encapsulates optional API client configuration.
type APIClientOptions struct {
	// AllowInsecureConnections indicates whether SSL-related errors should be
	// ignored when connecting to the API server.
	AllowInsecureConnections bool
}

// TokenSource supplies the bearer token attached to outbound requests. An
// empty token means the request is sent unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// AccessToken implements TokenSource.
func (s StaticToken) AccessToken() string {
	return string(s)
}
