package authx

import (
	"context"
	"net/http"
	"strings"

	"github.com/praxis-health/praxis/sdk/internal/schemas"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/praxis-health/praxis/sdk/restmachinery"
)

// AuthResult is what the API server returns whenever a session is
// established, whether by login, registration, or federated login.
type AuthResult struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshResult is what the API server returns when a refresh token is
// exchanged for a new access token.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
}

// AuthClient is the specialized client for authenticating with the API
// server. None of its operations require an existing session.
type AuthClient interface {
	// Login exchanges an email address and password for a session.
	Login(ctx context.Context, email, password string) (AuthResult, error)
	// Register creates a new account and returns a session for it.
	Register(context.Context, Registration) (AuthResult, error)
	// LoginWithGoogle exchanges a Google OpenID Connect ID token for a session.
	LoginWithGoogle(ctx context.Context, idToken string) (AuthResult, error)
	// LoginWithApple exchanges an Apple identity token for a session.
	LoginWithApple(ctx context.Context, identityToken string) (AuthResult, error)
	// RefreshToken exchanges a refresh token for a new access token.
	RefreshToken(ctx context.Context, refreshToken string) (RefreshResult, error)
}

type authClient struct {
	*restmachinery.BaseClient
}

// NewAuthClient returns a specialized client for authenticating with the API
// server.
func NewAuthClient(
	apiAddress string,
	opts *restmachinery.APIClientOptions,
) AuthClient {
	return &authClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, nil, opts),
	}
}

func (a *authClient) Login(
	ctx context.Context,
	email string,
	password string,
) (AuthResult, error) {
	result := AuthResult{}
	if strings.TrimSpace(email) == "" || password == "" {
		return result, &meta.ErrValidation{
			Reason: "email and password are required",
		}
	}
	return result, a.establish(
		ctx,
		restmachinery.OutboundRequest{
			Method: http.MethodPost,
			Path:   "auth/login",
			ReqBodyObj: struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}{
				Email:    email,
				Password: password,
			},
			SuccessCode: http.StatusOK,
			RespObj:     &result,
		},
	)
}

func (a *authClient) Register(
	ctx context.Context,
	registration Registration,
) (AuthResult, error) {
	result := AuthResult{}
	if err := schemas.Validate(schemas.Registration, registration); err != nil {
		return result, err
	}
	return result, a.establish(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "auth/register",
			ReqBodyObj:  registration,
			SuccessCode: http.StatusCreated,
			RespObj:     &result,
		},
	)
}

func (a *authClient) LoginWithGoogle(
	ctx context.Context,
	idToken string,
) (AuthResult, error) {
	result := AuthResult{}
	if idToken == "" {
		return result, &meta.ErrValidation{Reason: "Google ID token is required"}
	}
	return result, a.establish(
		ctx,
		restmachinery.OutboundRequest{
			Method: http.MethodPost,
			Path:   "auth/google",
			ReqBodyObj: struct {
				IDToken string `json:"id_token"`
			}{
				IDToken: idToken,
			},
			SuccessCode: http.StatusOK,
			RespObj:     &result,
		},
	)
}

func (a *authClient) LoginWithApple(
	ctx context.Context,
	identityToken string,
) (AuthResult, error) {
	result := AuthResult{}
	if identityToken == "" {
		return result, &meta.ErrValidation{
			Reason: "Apple identity token is required",
		}
	}
	return result, a.establish(
		ctx,
		restmachinery.OutboundRequest{
			Method: http.MethodPost,
			Path:   "auth/apple",
			ReqBodyObj: struct {
				IdentityToken string `json:"identity_token"`
			}{
				IdentityToken: identityToken,
			},
			SuccessCode: http.StatusOK,
			RespObj:     &result,
		},
	)
}

func (a *authClient) RefreshToken(
	ctx context.Context,
	refreshToken string,
) (RefreshResult, error) {
	result := RefreshResult{}
	if refreshToken == "" {
		return result, &meta.ErrValidation{Reason: "refresh token is required"}
	}
	if err := a.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method: http.MethodPost,
			Path:   "auth/refresh-token",
			ReqBodyObj: struct {
				RefreshToken string `json:"refresh_token"`
			}{
				RefreshToken: refreshToken,
			},
			SuccessCode: http.StatusOK,
			RespObj:     &result,
		},
	); err != nil {
		return result, err
	}
	if result.AccessToken == "" {
		return result, &meta.ErrAuthentication{
			Reason: "refresh response did not include an access token",
		}
	}
	return result, nil
}

// establish executes a session-establishing request and verifies that the
// response carries a complete session.
func (a *authClient) establish(
	ctx context.Context,
	req restmachinery.OutboundRequest,
) error {
	if err := a.ExecuteRequest(ctx, req); err != nil {
		return err
	}
	result := req.RespObj.(*AuthResult)
	if result.AccessToken == "" || result.RefreshToken == "" {
		return &meta.ErrAuthentication{
			Reason: "response did not include a complete set of tokens",
		}
	}
	return nil
}
