package restmachinery

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/sdk/meta"
)

// BaseClient provides "API machinery" used by all the specialized API clients.
// Its various functions remove the tedium from common API-related operations
// like submitting requests and unmarshaling responses.
type BaseClient struct {
	APIAddress string
	HTTPClient *http.Client
}

// NewBaseClient returns a BaseClient for the API server at apiAddress. Every
// request it submits carries the token supplied by tokenSource, which may be
// nil for clients that only make unauthenticated calls.
func NewBaseClient(
	apiAddress string,
	tokenSource TokenSource,
	opts *APIClientOptions,
) *BaseClient {
	if opts == nil {
		opts = &APIClientOptions{}
	}
	return &BaseClient{
		APIAddress: strings.TrimSuffix(apiAddress, "/"),
		HTTPClient: &http.Client{
			Transport: &bearerTokenTransport{
				tokenSource: tokenSource,
				base: &http.Transport{
					Proxy: http.ProxyFromEnvironment,
					TLSClientConfig: &tls.Config{
						InsecureSkipVerify: opts.AllowInsecureConnections, // nolint: gosec
					},
				},
			},
		},
	}
}

// ExecuteRequest accepts one argument-- an OutboundRequest-- that models all
// aspects of a single API call in a succinct fashion. Based on this
// information, this function prepares and executes an HTTP request, interprets
// the HTTP response code and body, and unmarshals the response into
// req.RespObj, if one was provided.
func (b *BaseClient) ExecuteRequest(
	ctx context.Context,
	req OutboundRequest,
) error {
	resp, err := b.SubmitRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if req.RespObj != nil {
		respBodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "error reading response body")
		}
		if err := json.Unmarshal(respBodyBytes, req.RespObj); err != nil {
			return errors.Wrap(err, "error unmarshaling response body")
		}
	}
	return nil
}

// SubmitRequest accepts one argument-- an OutboundRequest-- that models all
// aspects of a single API call in a succinct fashion. Based on this
// information, this function prepares and executes an HTTP request and returns
// the HTTP response. The caller is responsible for closing the response body.
// This is the lower-level counterpart of ExecuteRequest, used directly when a
// response is not JSON.
func (b *BaseClient) SubmitRequest(
	ctx context.Context,
	req OutboundRequest,
) (*http.Response, error) {
	var reqBodyReader io.Reader
	if req.ReqBodyObj != nil {
		switch rb := req.ReqBodyObj.(type) {
		case []byte:
			reqBodyReader = bytes.NewBuffer(rb)
		default:
			reqBodyBytes, err := json.Marshal(req.ReqBodyObj)
			if err != nil {
				return nil, errors.Wrap(err, "error marshaling request body")
			}
			reqBodyReader = bytes.NewBuffer(reqBodyBytes)
		}
	}

	r, err := http.NewRequestWithContext(
		ctx,
		req.Method,
		fmt.Sprintf("%s/%s", b.APIAddress, strings.TrimPrefix(req.Path, "/")),
		reqBodyReader,
	)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error creating request %s %s",
			req.Method,
			req.Path,
		)
	}
	if len(req.QueryParams) > 0 {
		q := r.URL.Query()
		for k, v := range req.QueryParams {
			q.Set(k, v)
		}
		r.URL.RawQuery = q.Encode()
	}
	if reqBodyReader != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		r.Header.Add(k, v)
	}

	resp, err := b.HTTPClient.Do(r)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &meta.ErrNetwork{Err: err}
	}

	if (req.SuccessCode == 0 && (resp.StatusCode < 200 || resp.StatusCode > 299)) ||
		(req.SuccessCode != 0 && resp.StatusCode != req.SuccessCode) {
		defer resp.Body.Close()
		// HTTP Response code hints at what sort of error might be in the body
		// of the response
		var apiErr error
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			apiErr = &meta.ErrAuthentication{}
		case http.StatusForbidden:
			apiErr = &meta.ErrAuthorization{}
		case http.StatusBadRequest:
			apiErr = &meta.ErrBadRequest{}
		case http.StatusNotFound:
			apiErr = &meta.ErrNotFound{}
		case http.StatusConflict:
			apiErr = &meta.ErrConflict{}
		case http.StatusInternalServerError:
			apiErr = &meta.ErrInternalServer{}
		case http.StatusNotImplemented:
			apiErr = &meta.ErrNotSupported{}
		default:
			return nil, errors.Errorf("received %d from API server", resp.StatusCode)
		}
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "error reading error response body")
		}
		// The API server's framework answers some errors (e.g. unknown routes)
		// with HTML. The status code alone is still meaningful in that case.
		_ = json.Unmarshal(bodyBytes, apiErr)
		return nil, apiErr
	}
	return resp, nil
}
