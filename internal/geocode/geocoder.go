package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/civicdesk/complaint-service/internal/config"
)

// Location is a resolved human-readable place.
type Location struct {
	Address string
	Area    string
}

// Geocoder resolves coordinates to an address and area. Implementations must
// never fail the caller: resolution problems yield empty strings.
type Geocoder interface {
	Resolve(ctx context.Context, lat, lng float64) Location
}

// HTTPGeocoder queries a nominatim-style reverse geocoding endpoint.
type HTTPGeocoder struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPGeocoder builds the production geocoder.
func NewHTTPGeocoder(cfg config.GeocoderConfig, logger *zap.Logger) *HTTPGeocoder {
	return &HTTPGeocoder{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
		logger:   logger,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Suburb   string `json:"suburb"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		District string `json:"city_district"`
	} `json:"address"`
}

// Resolve performs the lookup. Failures are logged and yield empty strings.
func (g *HTTPGeocoder) Resolve(ctx context.Context, lat, lng float64) Location {
	url := fmt.Sprintf("%s?format=json&lat=%f&lon=%f", g.endpoint, lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}
	}
	req.Header.Set("User-Agent", "complaint-service")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("reverse geocode failed", zap.Error(err))
		return Location{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("reverse geocode failed", zap.Int("status", resp.StatusCode))
		return Location{}
	}

	var parsed reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		g.logger.Warn("reverse geocode parse failed", zap.Error(err))
		return Location{}
	}

	area := parsed.Address.Suburb
	for _, candidate := range []string{parsed.Address.District, parsed.Address.City, parsed.Address.Town, parsed.Address.Village} {
		if area != "" {
			break
		}
		area = candidate
	}
	return Location{Address: parsed.DisplayName, Area: area}
}

// Noop is the always-absent geocoder used when no endpoint is configured.
type Noop struct{}

// Resolve returns empty strings.
func (Noop) Resolve(context.Context, float64, float64) Location { return Location{} }
