package geocoding

import (
	"context"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

const GoogleName = "google-geo"

// geocodeFunc matches geocoder.Geocoding.
type geocodeFunc func(geocoder.Address) (geocoder.Location, error)

// kelvins/geocoder keeps the key in a package variable.
var apiKeyMu sync.Mutex

// GoogleGeocoder resolves city names with the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	geocode geocodeFunc
	log     logger.Logger
}

// NewGoogle returns a geocoder using the given Google API key.
func NewGoogle(apiKey string, log logger.Logger) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		geocode: geocoder.Geocoding,
		log:     logger.Component(log, "geocoder").WithField("provider", GoogleName),
	}
}

type googleResult struct {
	loc geocoder.Location
	err error
}

// Resolve runs the lookup in the background and returns early if ctx is done.
// The library call itself cannot be cancelled.
func (g *GoogleGeocoder) Resolve(ctx context.Context, text string) (weather.Coordinates, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return weather.Coordinates{}, weather.ErrNoLocationData
	}

	done := make(chan googleResult, 1)
	go func() {
		apiKeyMu.Lock()
		geocoder.ApiKey = g.apiKey
		loc, err := g.geocode(geocoder.Address{City: query})
		apiKeyMu.Unlock()
		done <- googleResult{loc: loc, err: err}
	}()

	var res googleResult
	select {
	case <-ctx.Done():
		return weather.Coordinates{}, ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		if isZeroResults(res.err) {
			return weather.Coordinates{}, &weather.LocationError{Provider: GoogleName, Query: query, Err: weather.ErrNoLocationFound}
		}
		return weather.Coordinates{}, &weather.TransportError{
			Provider: GoogleName,
			Resource: "geocode",
			Message:  res.err.Error(),
			Cause:    res.err,
		}
	}

	c := weather.Coordinates{Latitude: res.loc.Latitude, Longitude: res.loc.Longitude}
	if !c.IsValid() {
		return weather.Coordinates{}, weather.Malformed(GoogleName, "geocode", "geometry.location", nil)
	}
	g.log.Debugf("resolved %q to %s", query, c)
	return c, nil
}

func isZeroResults(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "zero_results") || strings.Contains(msg, "no results")
}
