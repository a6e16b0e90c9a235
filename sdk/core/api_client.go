package core

import "github.com/praxis-health/praxis/sdk/restmachinery"

// APIClient is the root client for the practice management API: client
// (patient) records, calendar events, and scans.
type APIClient interface {
	// Clients returns a specialized client for Client (patient) management.
	Clients() ClientsClient
	// Events returns a specialized client for calendar Event management.
	Events() EventsClient
	// Scans returns a specialized client for Scan management.
	Scans() ScansClient
}

type apiClient struct {
	// clientsClient is a specialized client for Client management.
	clientsClient ClientsClient
	// eventsClient is a specialized client for Event management.
	eventsClient EventsClient
	// scansClient is a specialized client for Scan management.
	scansClient ScansClient
}

// NewAPIClient returns an APIClient whose requests are authenticated using
// tokens from the provided restmachinery.TokenSource.
func NewAPIClient(
	apiAddress string,
	tokenSource restmachinery.TokenSource,
	opts *restmachinery.APIClientOptions,
) APIClient {
	return &apiClient{
		clientsClient: NewClientsClient(apiAddress, tokenSource, opts),
		eventsClient:  NewEventsClient(apiAddress, tokenSource, opts),
		scansClient:   NewScansClient(apiAddress, tokenSource, opts),
	}
}

func (a *apiClient) Clients() ClientsClient {
	return a.clientsClient
}

func (a *apiClient) Events() EventsClient {
	return a.eventsClient
}

func (a *apiClient) Scans() ScansClient {
	return a.scansClient
}
