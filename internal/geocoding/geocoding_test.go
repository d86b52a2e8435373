package geocoding

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-provider-gateway/internal/testutils"
	"github.com/i474232898/weather-provider-gateway/internal/transport"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

func TestOpenWeatherGeocoder_Resolve(t *testing.T) {
	client := new(testutils.MockClient)
	client.On("Execute", mock.Anything, mock.MatchedBy(func(r transport.Request) bool {
		return r.Resource == "geo/1.0/direct" && r.Query["q"] == "Oslo" && r.Query["limit"] == "1" && r.Query["appid"] == "k"
	})).Return(testutils.OK(`[{"name":"Oslo","lat":59.9133,"lon":10.7389,"country":"NO"}]`), nil)

	c, err := NewOpenWeather(client, "k", nil).Resolve(context.Background(), "  Oslo ")
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinates{Latitude: 59.9133, Longitude: 10.7389}, c)
}

func TestOpenWeatherGeocoder_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp transport.Response
		err  error
		want error
	}{
		{name: "no results", resp: testutils.OK(`[]`), want: weather.ErrNoLocationFound},
		{name: "empty body", resp: testutils.OK(``), want: weather.ErrEmptyResponse},
		{name: "null body", resp: testutils.OK(`null`), want: weather.ErrEmptyResponse},
		{name: "lat not a number", resp: testutils.OK(`[{"lat":"59.9","lon":10.7}]`), want: weather.ErrMalformedResponse},
		{name: "not an array", resp: testutils.OK(`{"cod":"400"}`), want: weather.ErrMalformedResponse},
		{name: "missing lat", resp: testutils.OK(`[{"lon":1}]`), want: weather.ErrMalformedResponse},
		{name: "bad status", resp: testutils.Status(http.StatusUnauthorized, "invalid key"), want: weather.ErrTransport},
		{name: "network", resp: transport.Response{}, err: errors.New("no route to host"), want: weather.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(testutils.MockClient)
			client.On("Execute", mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			_, err := NewOpenWeather(client, "k", nil).Resolve(context.Background(), "Oslo")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenWeatherGeocoder_ErrorsNameTheGeocoder(t *testing.T) {
	client := new(testutils.MockClient)
	client.On("Execute", mock.Anything, mock.Anything).Return(testutils.Status(http.StatusUnauthorized, "invalid key"), nil)

	_, err := NewOpenWeather(client, "k", nil).Resolve(context.Background(), "Oslo")
	var te *weather.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, OpenWeatherName, te.Provider)
	assert.Equal(t, "geo/1.0/direct", te.Resource)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Equal(t, "invalid key", te.Message)
}

func TestOpenWeatherGeocoder_BlankInput(t *testing.T) {
	client := new(testutils.MockClient)

	_, err := NewOpenWeather(client, "k", nil).Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, weather.ErrNoLocationData)
	client.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestGoogleGeocoder_Resolve(t *testing.T) {
	g := NewGoogle("gkey", nil)
	g.geocode = func(a geocoder.Address) (geocoder.Location, error) {
		assert.Equal(t, "Lisbon", a.City)
		assert.Equal(t, "gkey", geocoder.ApiKey)
		return geocoder.Location{Latitude: 38.7223, Longitude: -9.1393}, nil
	}

	c, err := g.Resolve(context.Background(), "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinates{Latitude: 38.7223, Longitude: -9.1393}, c)
}

func TestGoogleGeocoder_Errors(t *testing.T) {
	g := NewGoogle("gkey", nil)

	g.geocode = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}
	_, err := g.Resolve(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrNoLocationFound)

	g.geocode = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("REQUEST_DENIED")
	}
	_, err = g.Resolve(context.Background(), "Lisbon")
	assert.ErrorIs(t, err, weather.ErrTransport)

	_, err = g.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, weather.ErrNoLocationData)
}

func TestGoogleGeocoder_HonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := NewGoogle("gkey", nil)
	g.geocode = func(geocoder.Address) (geocoder.Location, error) {
		<-release
		return geocoder.Location{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Resolve(ctx, "Lisbon")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCached_MemoizesHitsAndMisses(t *testing.T) {
	next := new(testutils.MockResolver)
	next.On("Resolve", mock.Anything, "Oslo").Return(weather.Coordinates{Latitude: 59.9, Longitude: 10.7}, nil).Once()
	next.On("Resolve", mock.Anything, "Atlantis").Return(weather.Coordinates{}, &weather.LocationError{Query: "Atlantis", Err: weather.ErrNoLocationFound}).Once()

	c := NewCached(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		coords, err := c.Resolve(ctx, "Oslo")
		require.NoError(t, err)
		assert.Equal(t, 59.9, coords.Latitude)
	}
	coords, err := c.Resolve(ctx, "  OSLO ")
	require.NoError(t, err)
	assert.Equal(t, 59.9, coords.Latitude)

	for i := 0; i < 2; i++ {
		_, err := c.Resolve(ctx, "Atlantis")
		assert.ErrorIs(t, err, weather.ErrNoLocationFound)
	}

	next.AssertNumberOfCalls(t, "Resolve", 2)
}

func TestCached_DoesNotMemoizeTransportFailures(t *testing.T) {
	next := new(testutils.MockResolver)
	next.On("Resolve", mock.Anything, "Oslo").Return(weather.Coordinates{}, &weather.TransportError{StatusCode: 503}).Once()
	next.On("Resolve", mock.Anything, "Oslo").Return(weather.Coordinates{Latitude: 59.9}, nil).Once()

	c := NewCached(next, time.Minute)

	_, err := c.Resolve(context.Background(), "Oslo")
	assert.ErrorIs(t, err, weather.ErrTransport)

	coords, err := c.Resolve(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.Equal(t, 59.9, coords.Latitude)

	c.Flush()
	next.On("Resolve", mock.Anything, "Oslo").Return(weather.Coordinates{Latitude: 60}, nil).Once()
	coords, err = c.Resolve(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.Equal(t, 60.0, coords.Latitude)
}

func TestCached_BlankInput(t *testing.T) {
	next := new(testutils.MockResolver)
	_, err := NewCached(next, time.Minute).Resolve(context.Background(), " \t")
	assert.ErrorIs(t, err, weather.ErrNoLocationData)
	next.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}
