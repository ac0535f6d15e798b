package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"user-hub/internal/domain"
)

// DefaultWhoamiURL is the whoami endpoint used when none is configured.
const DefaultWhoamiURL = "https://archive.org/services/user.php?op=whoami"

// whoamiEnvelope is the user.php response shape.
type whoamiEnvelope struct {
	Success bool                `json:"success"`
	Value   *domain.RawIdentity `json:"value,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// WhoamiGateway implements domain.IdentityFetcher against user.php.
type WhoamiGateway struct {
	endpoint      string
	primaryDomain string
	httpClient    *http.Client
}

// NewWhoamiGateway creates a gateway. The client carries the session cookies,
// usually through its jar. An empty endpoint selects DefaultWhoamiURL.
func NewWhoamiGateway(endpoint, primaryDomain string, client *http.Client) *WhoamiGateway {
	if endpoint == "" {
		endpoint = DefaultWhoamiURL
	}
	return &WhoamiGateway{
		endpoint:      endpoint,
		primaryDomain: primaryDomain,
		httpClient:    client,
	}
}

// Endpoint returns the URL queried by Fetch.
func (g *WhoamiGateway) Endpoint() string {
	return g.endpoint
}

// Fetch performs one whoami round-trip. The body is decoded whatever the HTTP
// status; the envelope decides the outcome.
func (g *WhoamiGateway) Fetch(ctx context.Context) (*domain.Fetched, error) {
	body, err := getJSON(ctx, g.httpClient, g.endpoint)
	if err != nil {
		return nil, err
	}

	var envelope whoamiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, domain.NewDecodingError(err.Error(), snippet(body))
	}

	if !envelope.Success || envelope.Value == nil {
		message := envelope.Error
		if message == "" {
			message = "whoami returned no user"
		}
		return nil, domain.NewNotLoggedIn(message, envelope.Error)
	}

	return &domain.Fetched{
		Identity: domain.NewIdentity(*envelope.Value, g.primaryDomain),
		Raw:      *envelope.Value,
	}, nil
}

// getJSON issues a credentialed GET and returns the body. Only transport
// failures are errors.
func getJSON(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewNetworkError(fmt.Sprintf("invalid endpoint: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError(domain.TransportMessage(err))
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError(domain.TransportMessage(err))
	}
	return body, nil
}
