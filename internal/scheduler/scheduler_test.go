package scheduler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-provider-gateway/internal/store"
	"github.com/i474232898/weather-provider-gateway/internal/testutils"
	"github.com/i474232898/weather-provider-gateway/internal/weather/providers"
)

const (
	currentBody = `{"id":2643743,"name":"London","coord":{"lat":51.5085,"lon":-0.1257},"dt":1717243200,
		"main":{"temp":15,"humidity":70},"wind":{"speed":3},"weather":[{"id":800,"description":"clear sky"}]}`
	listBody = `{"list":[{"dt":1717243200,"main":{"temp":15,"humidity":70},"wind":{"speed":3},
		"weather":[{"id":800,"description":"clear sky"}],
		"temp":{"day":15,"min":10,"max":18},"humidity":70,"speed":3}]}`
)

func newOWMStore(t *testing.T, client *testutils.MockClient, clock *testutils.Clock) *store.RepositoryStore {
	t.Helper()
	family := providers.NewOpenWeatherMap(providers.Settings{APIKey: "k", Client: client, Clock: clock.Now})
	s, err := store.New(context.Background(), family, store.Initial{Code: "2643743"}, "en", nil)
	require.NoError(t, err)
	return s
}

func TestRunOnce_WarmsEveryCapability(t *testing.T) {
	client := new(testutils.MockClient)
	client.On("Execute", mock.Anything, testutils.Resource("weather")).Return(testutils.OK(currentBody), nil)
	client.On("Execute", mock.Anything, testutils.Resource("forecast")).Return(testutils.OK(listBody), nil)
	client.On("Execute", mock.Anything, testutils.Resource("forecast/daily")).Return(testutils.OK(listBody), nil)

	clock := testutils.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s := newOWMStore(t, client, clock)
	client.AssertNumberOfCalls(t, "Execute", 1)

	sched := New(store.NewRegistry(nil, s), time.Minute, nil)
	sched.RunOnce(context.Background())
	client.AssertNumberOfCalls(t, "Execute", 4)

	// Caches are fresh: reads do not reach the network.
	_, err := s.GetCurrentWeather(context.Background())
	require.NoError(t, err)
	_, err = s.GetDailyForecast(context.Background())
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Execute", 4)

	// Within the window the warm-up is a no-op too.
	sched.RunOnce(context.Background())
	client.AssertNumberOfCalls(t, "Execute", 4)

	clock.Advance(providers.FreshnessWindow)
	sched.RunOnce(context.Background())
	client.AssertNumberOfCalls(t, "Execute", 7)
}

func TestRunOnce_FailuresAreNotFatal(t *testing.T) {
	client := new(testutils.MockClient)
	client.On("Execute", mock.Anything, testutils.Resource("weather")).Return(testutils.OK(currentBody), nil).Once()
	client.On("Execute", mock.Anything, mock.Anything).Return(testutils.Status(http.StatusBadGateway, "down"), nil)

	s := newOWMStore(t, client, testutils.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))

	sched := New(store.NewRegistry(nil, s), 0, nil)
	assert.Equal(t, defaultInterval, sched.interval)
	assert.NotPanics(t, func() { sched.RunOnce(context.Background()) })
	client.AssertNumberOfCalls(t, "Execute", 4)
}

func TestStartStop(t *testing.T) {
	sched := New(store.NewRegistry(nil), time.Hour, nil)
	require.NoError(t, sched.Start())
	sched.Stop()
}
