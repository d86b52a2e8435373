package geocoding

import (
	"context"
	"fmt"
	"strings"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
	"github.com/i474232898/weather-provider-gateway/internal/transport"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
	"github.com/i474232898/weather-provider-gateway/internal/weather/providers"
)

const (
	OpenWeatherName    = "openweathermap-geo"
	OpenWeatherBaseURL = "https://api.openweathermap.org"

	directResource = "geo/1.0/direct"
)

// Resolver turns free text into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, text string) (weather.Coordinates, error)
}

// OpenWeatherGeocoder uses the OpenWeatherMap direct geocoding API and takes
// the best match.
type OpenWeatherGeocoder struct {
	client transport.Client
	apiKey string
	log    logger.Logger
}

// NewOpenWeather returns a geocoder authenticated with apiKey.
func NewOpenWeather(client transport.Client, apiKey string, log logger.Logger) *OpenWeatherGeocoder {
	return &OpenWeatherGeocoder{
		client: client,
		apiKey: apiKey,
		log:    logger.Component(log, "geocoder").WithField("provider", OpenWeatherName),
	}
}

// Resolve returns the coordinates of the best match for text.
func (g *OpenWeatherGeocoder) Resolve(ctx context.Context, text string) (weather.Coordinates, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return weather.Coordinates{}, weather.ErrNoLocationData
	}

	root, err := providers.Fetch(ctx, g.client, OpenWeatherName, directResource, map[string]string{
		"q":     query,
		"limit": "1",
		"appid": g.apiKey,
	})
	if err != nil {
		return weather.Coordinates{}, err
	}
	if !root.IsArray() {
		return weather.Coordinates{}, weather.Malformed(OpenWeatherName, directResource, "", nil)
	}
	if !root.Exists("0") {
		return weather.Coordinates{}, &weather.LocationError{Provider: OpenWeatherName, Query: query, Err: weather.ErrNoLocationFound}
	}

	r := root.Get("0").Reader()
	lat := r.Float("lat")
	lon := r.Float("lon")
	if err := r.Err(); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%s %s: %w", OpenWeatherName, directResource, err)
	}

	c := weather.Coordinates{Latitude: lat, Longitude: lon}
	g.log.Debugf("resolved %q to %s", query, c)
	return c, nil
}
