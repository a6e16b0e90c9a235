package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/praxis-health/praxis/sdk/internal/schemas"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/praxis-health/praxis/sdk/restmachinery"
)

// dateFormat is the format the API server expects for the date filter.
const dateFormat = "2006-01-02"

// Event represents an entry in the practice's calendar, optionally tied to a
// Client.
type Event struct {
	// ID is the server-assigned identifier of the Event. Leave it unset when
	// creating an Event.
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        meta.Time `json:"event_date"`
	// ClientID optionally references the Client the Event concerns.
	ClientID *int64 `json:"client_id,omitempty"`
	// ClientName is populated by the API server when ClientID is set.
	ClientName string `json:"client_name,omitempty"`
	// IsScan indicates the Event is an appointment for a Scan.
	IsScan      bool       `json:"is_scan"`
	Created     *meta.Time `json:"created_at,omitempty"`
	LastUpdated *meta.Time `json:"updated_at,omitempty"`
}

// EventsSelector represents useful filter criteria when selecting multiple
// Events for API group operations like list.
type EventsSelector struct {
	// Date, if non-zero, narrows the selection to Events falling on the same
	// calendar day.
	Date time.Time
}

// EventsClient is the specialized client for managing calendar Events.
type EventsClient interface {
	// List returns Events, optionally narrowed by an EventsSelector.
	List(context.Context, EventsSelector) ([]Event, error)
	// Get retrieves a single Event specified by its identifier.
	Get(ctx context.Context, id int64) (Event, error)
	// Create creates a new Event and returns its identifier.
	Create(context.Context, Event) (int64, error)
	// Update replaces the details of the Event specified by its identifier.
	Update(ctx context.Context, id int64, event Event) error
	// Delete deletes a single Event specified by its identifier.
	Delete(ctx context.Context, id int64) error
}

type eventsClient struct {
	*restmachinery.BaseClient
}

// NewEventsClient returns a specialized client for managing Events.
func NewEventsClient(
	apiAddress string,
	tokenSource restmachinery.TokenSource,
	opts *restmachinery.APIClientOptions,
) EventsClient {
	return &eventsClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, tokenSource, opts),
	}
}

func (e *eventsClient) List(
	ctx context.Context,
	selector EventsSelector,
) ([]Event, error) {
	queryParams := map[string]string{}
	if !selector.Date.IsZero() {
		queryParams["date"] = selector.Date.Format(dateFormat)
	}
	events := []Event{}
	return events, e.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "events",
			QueryParams: queryParams,
			SuccessCode: http.StatusOK,
			RespObj:     &events,
		},
	)
}

func (e *eventsClient) Get(ctx context.Context, id int64) (Event, error) {
	event := Event{}
	return event, e.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("events/%d", id),
			SuccessCode: http.StatusOK,
			RespObj:     &event,
		},
	)
}

func (e *eventsClient) Create(ctx context.Context, event Event) (int64, error) {
	event.ID = 0
	if err := schemas.Validate(schemas.Event, event); err != nil {
		return 0, err
	}
	resp := creationResponse{}
	if err := e.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "events",
			ReqBodyObj:  event,
			SuccessCode: http.StatusCreated,
			RespObj:     &resp,
		},
	); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (e *eventsClient) Update(
	ctx context.Context,
	id int64,
	event Event,
) error {
	event.ID = 0
	if err := schemas.Validate(schemas.Event, event); err != nil {
		return err
	}
	return e.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPut,
			Path:        fmt.Sprintf("events/%d", id),
			ReqBodyObj:  event,
			SuccessCode: http.StatusOK,
		},
	)
}

func (e *eventsClient) Delete(ctx context.Context, id int64) error {
	return e.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodDelete,
			Path:        fmt.Sprintf("events/%d", id),
			SuccessCode: http.StatusOK,
		},
	)
}
