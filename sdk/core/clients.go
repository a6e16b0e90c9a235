package core

import (
	"context"
	"fmt"
	"net/http"

	"github.com/praxis-health/praxis/sdk/internal/schemas"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/praxis-health/praxis/sdk/restmachinery"
)

// Client represents a patient of the practice.
type Client struct {
	// ID is the server-assigned identifier of the Client. Leave it unset when
	// creating a Client.
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
	// Reason is why the Client sought care.
	Reason             string     `json:"reason"`
	PreviousConditions string     `json:"previous_conditions,omitempty"`
	Created            *meta.Time `json:"created_at,omitempty"`
	LastUpdated        *meta.Time `json:"updated_at,omitempty"`
}

// FullName returns the Client's given name and surname.
func (c Client) FullName() string {
	return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
}

// creationResponse is the API server's acknowledgement of a newly created
// resource.
type creationResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// ClientsClient is the specialized client for managing Clients.
type ClientsClient interface {
	// List returns all Clients.
	List(context.Context) ([]Client, error)
	// Get retrieves a single Client specified by its identifier.
	Get(ctx context.Context, id int64) (Client, error)
	// Create creates a new Client and returns its identifier.
	Create(context.Context, Client) (int64, error)
	// Update replaces the details of the Client specified by its identifier.
	Update(ctx context.Context, id int64, client Client) error
	// Delete deletes a single Client specified by its identifier.
	Delete(ctx context.Context, id int64) error
}

type clientsClient struct {
	*restmachinery.BaseClient
}

// NewClientsClient returns a specialized client for managing Clients.
func NewClientsClient(
	apiAddress string,
	tokenSource restmachinery.TokenSource,
	opts *restmachinery.APIClientOptions,
) ClientsClient {
	return &clientsClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, tokenSource, opts),
	}
}

func (c *clientsClient) List(ctx context.Context) ([]Client, error) {
	clients := []Client{}
	return clients, c.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "clients",
			SuccessCode: http.StatusOK,
			RespObj:     &clients,
		},
	)
}

func (c *clientsClient) Get(ctx context.Context, id int64) (Client, error) {
	client := Client{}
	return client, c.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("clients/%d", id),
			SuccessCode: http.StatusOK,
			RespObj:     &client,
		},
	)
}

func (c *clientsClient) Create(ctx context.Context, client Client) (int64, error) {
	client.ID = 0
	if err := schemas.Validate(schemas.Client, client); err != nil {
		return 0, err
	}
	resp := creationResponse{}
	if err := c.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "clients",
			ReqBodyObj:  client,
			SuccessCode: http.StatusCreated,
			RespObj:     &resp,
		},
	); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (c *clientsClient) Update(
	ctx context.Context,
	id int64,
	client Client,
) error {
	client.ID = 0
	if err := schemas.Validate(schemas.Client, client); err != nil {
		return err
	}
	return c.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPut,
			Path:        fmt.Sprintf("clients/%d", id),
			ReqBodyObj:  client,
			SuccessCode: http.StatusOK,
		},
	)
}

func (c *clientsClient) Delete(ctx context.Context, id int64) error {
	return c.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodDelete,
			Path:        fmt.Sprintf("clients/%d", id),
			SuccessCode: http.StatusOK,
		},
	)
}
