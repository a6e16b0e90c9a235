package restmachinery

import (
	"fmt"
	"net/http"

	uuid "github.com/satori/go.uuid"
)

const requestIDHeader = "X-Request-ID"

// bearerTokenTransport decorates every outbound request with the current
// access token and a request ID. Neither header is overwritten if a caller
// has already set it.
type bearerTokenTransport struct {
	tokenSource TokenSource
	base        http.RoundTripper
}

func (b *bearerTokenTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	if b.tokenSource != nil && r.Header.Get("Authorization") == "" {
		if token := b.tokenSource.AccessToken(); token != "" {
			r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}
	if r.Header.Get(requestIDHeader) == "" {
		r.Header.Set(requestIDHeader, uuid.NewV4().String())
	}
	return b.base.RoundTrip(r)
}
