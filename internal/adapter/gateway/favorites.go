package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"user-hub/internal/domain"
)

// DefaultFavoritesURL is the bookmarks endpoint used when none is configured.
const DefaultFavoritesURL = "https://archive.org/bookmarks.php"

// favoritesResponse accepts both the bare bookmarks payload and an error
// envelope.
type favoritesResponse struct {
	Success   *bool             `json:"success,omitempty"`
	Error     string            `json:"error,omitempty"`
	Favorites []domain.Favorite `json:"favorites"`
}

// FavoritesGateway implements domain.FavoritesFetcher against bookmarks.php.
type FavoritesGateway struct {
	endpoint   string
	httpClient *http.Client
}

// NewFavoritesGateway creates a gateway. An empty endpoint selects
// DefaultFavoritesURL; output=json is always requested.
func NewFavoritesGateway(endpoint string, client *http.Client) *FavoritesGateway {
	if endpoint == "" {
		endpoint = DefaultFavoritesURL
	}
	return &FavoritesGateway{
		endpoint:   withJSONOutput(endpoint),
		httpClient: client,
	}
}

// Endpoint returns the URL queried by Fetch.
func (g *FavoritesGateway) Endpoint() string {
	return g.endpoint
}

// Fetch retrieves the current session's favorites.
func (g *FavoritesGateway) Fetch(ctx context.Context) (*domain.RawFavorites, error) {
	body, err := getJSON(ctx, g.httpClient, g.endpoint)
	if err != nil {
		return nil, err
	}

	var resp favoritesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.NewDecodingError(err.Error(), snippet(body))
	}

	if resp.Success != nil && !*resp.Success {
		message := resp.Error
		if message == "" {
			message = "bookmarks request rejected"
		}
		return nil, domain.NewNotLoggedIn(message, resp.Error)
	}

	favorites := resp.Favorites
	if favorites == nil {
		favorites = []domain.Favorite{}
	}
	return &domain.RawFavorites{Favorites: favorites}, nil
}

func withJSONOutput(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	q.Set("output", "json")
	u.RawQuery = q.Encode()
	return u.String()
}
