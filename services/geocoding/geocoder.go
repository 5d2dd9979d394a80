package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"snapbook/apperr"
	"snapbook/models"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder resolves coordinates to a human readable address. It is used for
// display only.
type Geocoder interface {
	ReadableAddress(ctx context.Context, point models.GeoPoint) (string, error)
}

// geocodeResponse represents the structure of the response from Google Geocoding API.
type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// GoogleGeocoder calls the Google Geocoding API.
type GoogleGeocoder struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		APIKey:  apiKey,
		BaseURL: googleGeocodeURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (g *GoogleGeocoder) ReadableAddress(ctx context.Context, point models.GeoPoint) (string, error) {
	if err := point.Validate(); err != nil {
		return "", fmt.Errorf("geocode: %v: %w", err, apperr.ErrInvalidInput)
	}
	if g.APIKey == "" {
		return "", fmt.Errorf("geocode: API authentication error: no api key configured")
	}

	q := url.Values{}
	q.Set("latlng", point.Key())
	q.Set("key", g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("geocode: %w", err)
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode: reverse geocoding request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var data geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("geocode: failed to decode reverse geocoding response: %w", err)
	}

	switch data.Status {
	case "OK":
		if len(data.Results) > 0 && data.Results[0].FormattedAddress != "" {
			return data.Results[0].FormattedAddress, nil
		}
		return "", fmt.Errorf("geocode %s: %w", point.Key(), apperr.ErrNotFound)
	case "ZERO_RESULTS":
		return "", fmt.Errorf("geocode %s: %w", point.Key(), apperr.ErrNotFound)
	default:
		return "", fmt.Errorf("geocode: %s: %s", data.Status, data.ErrorMessage)
	}
}
