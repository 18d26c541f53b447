package geocoding

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/siderealab/siderea/internal/httpclient"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// MinQueryLength is the shortest query forwarded to the geocoding backend.
// Shorter input returns an empty candidate list without a network call.
const MinQueryLength = 3

// Client implements interfaces.GeocodingAPI against the remote geocoding
// search used by wizard step 3.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a geocoding client.
func NewClient(http *httpclient.Client) interfaces.GeocodingAPI {
	return &Client{http: http}
}

// Search returns location candidates for a free-text query. Selecting a
// candidate fills the wizard's coordinate fields; manual coordinate entry
// remains available when no candidate fits.
func (c *Client) Search(ctx context.Context, query string) ([]*models.GeocodeCandidate, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLength {
		return []*models.GeocodeCandidate{}, nil
	}

	params := url.Values{}
	params.Set("q", query)

	var candidates []*models.GeocodeCandidate
	if err := c.http.Get(ctx, "/geocode", params, &candidates); err != nil {
		return nil, fmt.Errorf("geocoding search failed: %w", err)
	}
	return candidates, nil
}
