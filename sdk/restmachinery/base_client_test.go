package restmachinery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/stretchr/testify/require"
)

const testAPIToken = "11235813213455"

func TestNewBaseClient(t *testing.T) {
	client := NewBaseClient(
		"http://localhost:5000/",
		StaticToken(testAPIToken),
		&APIClientOptions{AllowInsecureConnections: true},
	)
	require.Equal(t, "http://localhost:5000", client.APIAddress)
	require.IsType(t, &bearerTokenTransport{}, client.HTTPClient.Transport)
	transport := client.HTTPClient.Transport.(*bearerTokenTransport)
	require.IsType(t, &http.Transport{}, transport.base)
	require.True(
		t,
		transport.base.(*http.Transport).TLSClientConfig.InsecureSkipVerify,
	)
}

func TestExecuteRequest(t *testing.T) {
	type thing struct {
		Name string `json:"name"`
	}
	testCases := []struct {
		name       string
		handler    http.HandlerFunc
		req        OutboundRequest
		assertions func(t *testing.T, resp thing, err error)
	}{
		{
			name: "success with body round trip",
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/things", r.URL.Path)
				require.Equal(t, "bar", r.URL.Query().Get("foo"))
				require.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.Equal(
					t,
					fmt.Sprintf("Bearer %s", testAPIToken),
					r.Header.Get("Authorization"),
				)
				require.NotEmpty(t, r.Header.Get(requestIDHeader))
				bodyBytes, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				in := thing{}
				require.NoError(t, json.Unmarshal(bodyBytes, &in))
				require.Equal(t, "widget", in.Name)
				w.WriteHeader(http.StatusCreated)
				fmt.Fprintln(w, `{"name":"gadget"}`)
			},
			req: OutboundRequest{
				Method:      http.MethodPost,
				Path:        "things",
				QueryParams: map[string]string{"foo": "bar"},
				ReqBodyObj:  thing{Name: "widget"},
				SuccessCode: http.StatusCreated,
			},
			assertions: func(t *testing.T, resp thing, err error) {
				require.NoError(t, err)
				require.Equal(t, "gadget", resp.Name)
			},
		},
		{
			name: "any 2xx accepted when no success code specified",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				fmt.Fprintln(w, `{"name":"queued"}`)
			},
			req: OutboundRequest{
				Method: http.MethodPost,
				Path:   "things",
			},
			assertions: func(t *testing.T, resp thing, err error) {
				require.NoError(t, err)
				require.Equal(t, "queued", resp.Name)
			},
		},
		{
			name: "unexpected success code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			req: OutboundRequest{
				Method:      http.MethodPost,
				Path:        "things",
				SuccessCode: http.StatusCreated,
			},
			assertions: func(t *testing.T, _ thing, err error) {
				require.Error(t, err)
				require.Contains(t, err.Error(), "received 200")
			},
		},
		{
			name: "authentication error carries reason",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprintln(w, `{"error":"Invalid email or password"}`)
			},
			req: OutboundRequest{
				Method: http.MethodGet,
				Path:   "things",
			},
			assertions: func(t *testing.T, _ thing, err error) {
				require.IsType(t, &meta.ErrAuthentication{}, err)
				require.Equal(
					t,
					"Invalid email or password",
					err.(*meta.ErrAuthentication).Reason,
				)
			},
		},
		{
			name: "not found with html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprintln(w, "<html>Not Found</html>")
			},
			req: OutboundRequest{
				Method: http.MethodGet,
				Path:   "things/42",
			},
			assertions: func(t *testing.T, _ thing, err error) {
				require.IsType(t, &meta.ErrNotFound{}, err)
			},
		},
		{
			name: "internal server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintln(w, `{"error":"boom"}`)
			},
			req: OutboundRequest{
				Method: http.MethodGet,
				Path:   "things",
			},
			assertions: func(t *testing.T, _ thing, err error) {
				require.IsType(t, &meta.ErrInternalServer{}, err)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(testCase.handler)
			defer server.Close()
			client := NewBaseClient(server.URL, StaticToken(testAPIToken), nil)
			resp := thing{}
			testCase.req.RespObj = &resp
			err := client.ExecuteRequest(context.Background(), testCase.req)
			testCase.assertions(t, resp, err)
		})
	}
}

func TestExecuteRequestWithoutToken(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Empty(t, r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusOK)
			},
		),
	)
	defer server.Close()
	client := NewBaseClient(server.URL, StaticToken(""), nil)
	err := client.ExecuteRequest(
		context.Background(),
		OutboundRequest{
			Method: http.MethodGet,
			Path:   "things",
		},
	)
	require.NoError(t, err)
}

func TestExecuteRequestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	address := server.URL
	server.Close()
	client := NewBaseClient(address, nil, nil)
	err := client.ExecuteRequest(
		context.Background(),
		OutboundRequest{
			Method: http.MethodGet,
			Path:   "things",
		},
	)
	require.Error(t, err)
	_, ok := errors.Cause(err).(*meta.ErrNetwork)
	require.True(t, ok)
}
