// Package oidc obtains an OpenID Connect identity token for the user by way
// of their web browser and a short-lived callback server on the loopback
// interface.
package oidc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-oidc"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/sdk/meta"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/oauth2"
)

const callbackPath = "/auth/oidc/callback"

type result struct {
	rawIDToken string
	err        error
}

// Flow is a single attempt at obtaining an identity token. It is not
// reusable.
type Flow struct {
	oauth2Config *oauth2.Config
	// exchange trades an authorization code for a raw identity token.
	exchange func(ctx context.Context, code string) (string, error)
	// verify checks a raw identity token and returns its nonce.
	verify   func(ctx context.Context, rawIDToken string) (string, error)
	listener net.Listener
	state    string
	nonce    string
	results  chan result
}

// NewFlow discovers the provider described by the Config and starts
// listening for the provider's redirect on a random loopback port.
func NewFlow(ctx context.Context, c Config) (*Flow, error) {
	provider, err := oidc.NewProvider(ctx, c.ProviderURL)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error discovering OpenID Connect provider %s",
			c.ProviderURL,
		)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(err, "error starting OpenID Connect callback server")
	}
	oauth2Config := &oauth2.Config{
		Endpoint:     provider.Endpoint(),
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://%s%s", listener.Addr(), callbackPath),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	verifier := provider.Verifier(
		&oidc.Config{
			ClientID: c.ClientID,
		},
	)
	return newFlow(
		listener,
		oauth2Config,
		func(ctx context.Context, code string) (string, error) {
			oauth2Token, err := oauth2Config.Exchange(ctx, code)
			if err != nil {
				return "", errors.Wrap(
					err,
					"error exchanging OpenID Connect code for OAuth2 token",
				)
			}
			rawIDToken, ok := oauth2Token.Extra("id_token").(string)
			if !ok {
				return "", errors.New(
					"OAuth2 token did not include an OpenID Connect identity token",
				)
			}
			return rawIDToken, nil
		},
		func(ctx context.Context, rawIDToken string) (string, error) {
			idToken, err := verifier.Verify(ctx, rawIDToken)
			if err != nil {
				return "", errors.Wrap(
					err,
					"error verifying OpenID Connect identity token",
				)
			}
			return idToken.Nonce, nil
		},
	), nil
}

func newFlow(
	listener net.Listener,
	oauth2Config *oauth2.Config,
	exchange func(ctx context.Context, code string) (string, error),
	verify func(ctx context.Context, rawIDToken string) (string, error),
) *Flow {
	return &Flow{
		oauth2Config: oauth2Config,
		exchange:     exchange,
		verify:       verify,
		listener:     listener,
		state:        uuid.NewV4().String(),
		nonce:        uuid.NewV4().String(),
		results:      make(chan result, 1),
	}
}

// AuthURL returns the URL the user must visit to authenticate.
func (f *Flow) AuthURL() string {
	return f.oauth2Config.AuthCodeURL(f.state, oidc.Nonce(f.nonce))
}

// Wait serves the callback endpoint until the provider redirects the user's
// browser to it, then returns the verified raw identity token. The callback
// server is shut down before Wait returns.
func (f *Flow) Wait(ctx context.Context) (string, error) {
	router := mux.NewRouter()
	router.StrictSlash(true)
	router.HandleFunc(callbackPath, f.callback).Methods(http.MethodGet)
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(f.listener); err != nil &&
			err != http.ErrServerClosed {
			f.report(result{
				err: errors.Wrap(err, "error serving OpenID Connect callback"),
			})
		}
	}()
	defer func() {
		shutdownCtx, cancel :=
			context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			glog.Warningf("error shutting down OpenID Connect callback server: %s", err)
		}
	}()
	select {
	case res := <-f.results:
		return res.rawIDToken, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// report records the first outcome of the Flow. Later outcomes are dropped.
func (f *Flow) report(res result) {
	select {
	case f.results <- res:
	default:
	}
}

func (f *Flow) callback(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close() // nolint: errcheck
	rawIDToken, err := f.authenticate(r)
	f.report(result{rawIDToken: rawIDToken, err: err})
	if err != nil {
		switch errors.Cause(err).(type) {
		case *meta.ErrAuthentication:
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case *meta.ErrBadRequest:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(
		[]byte("You're now authenticated. You may resume using the CLI."),
	); err != nil {
		glog.Warning(errors.Wrap(err, "error writing response body"))
	}
}

func (f *Flow) authenticate(r *http.Request) (string, error) {
	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		return "", &meta.ErrAuthentication{
			Reason: fmt.Sprintf(
				"The identity provider refused authentication: %s",
				providerErr,
			),
		}
	}
	oauth2State := query.Get("state")
	oidcCode := query.Get("code")
	if oauth2State == "" || oidcCode == "" {
		return "", &meta.ErrBadRequest{
			Reason: `The OpenID Connect authentication completion request ` +
				`lacked one or both of the "state" and "code" query parameters.`,
		}
	}
	if oauth2State != f.state {
		return "", &meta.ErrBadRequest{
			Reason: "The OpenID Connect authentication completion request " +
				"carried an unexpected state.",
		}
	}
	rawIDToken, err := f.exchange(r.Context(), oidcCode)
	if err != nil {
		return "", err
	}
	nonce, err := f.verify(r.Context(), rawIDToken)
	if err != nil {
		return "", &meta.ErrAuthentication{Reason: err.Error()}
	}
	if nonce != f.nonce {
		return "", &meta.ErrAuthentication{
			Reason: "The OpenID Connect identity token carried an unexpected nonce.",
		}
	}
	return rawIDToken, nil
}
