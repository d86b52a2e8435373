package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

func newNamedStore(t *testing.T, name string, temp float64, currentErr error) *RepositoryStore {
	t.Helper()
	f := newFakeFamily(name)
	f.temperature = temp
	f.currentErr = currentErr
	return newBerlinStore(t, f)
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(nil,
		newNamedStore(t, "weatherbit", 10, nil),
		newNamedStore(t, "accuweather", 12, nil),
	)

	assert.Equal(t, []string{"accuweather", "weatherbit"}, r.Names())

	s, err := r.Get("accuweather")
	require.NoError(t, err)
	assert.Equal(t, "accuweather", s.Provider())

	_, err = r.Get("darksky")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	var visited []string
	r.Each(func(s *RepositoryStore) { visited = append(visited, s.Provider()) })
	assert.Equal(t, []string{"accuweather", "weatherbit"}, visited)
}

func TestRegistry_CurrentFromAll(t *testing.T) {
	r := NewRegistry(nil,
		newNamedStore(t, "a", 10, nil),
		newNamedStore(t, "b", 14, nil),
		newNamedStore(t, "c", 0, &weather.TransportError{Provider: "c", StatusCode: 503}),
	)

	got, err := r.CurrentFromAll(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 12.0, got.Record.Temperature().Value, 1e-9)
	require.Len(t, got.Readings, 2)
	assert.Equal(t, "a", got.Readings[0].Provider)
	assert.Equal(t, "b", got.Readings[1].Provider)
	assert.Contains(t, got.Failures, "c")
}

func TestRegistry_CurrentFromAllNoReadings(t *testing.T) {
	r := NewRegistry(nil, newNamedStore(t, "a", 0, &weather.TransportError{Provider: "a"}))

	_, err := r.CurrentFromAll(context.Background())
	assert.ErrorIs(t, err, weather.ErrNoReadings)
	assert.ErrorIs(t, err, weather.ErrTransport)

	_, err = NewRegistry(nil).CurrentFromAll(context.Background())
	assert.ErrorIs(t, err, weather.ErrNoReadings)
}

func TestRegistry_CurrentFromAllSkipsUnsupported(t *testing.T) {
	f := newFakeFamily("nocurrent")
	f.On("LocateByCode", mock.Anything, "10178", "de").Return(berlin, nil).Once()
	s, err := New(context.Background(), f, Initial{Code: "10178"}, "de", nil)
	require.NoError(t, err)

	r := NewRegistry(nil, s, newNamedStore(t, "a", 8, nil))
	// Drop the current slot of the first store.
	st := *s.current()
	st.adapters.Current = nil
	s.state.Store(&st)

	got, err := r.CurrentFromAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Readings, 1)
	assert.Equal(t, "a", got.Readings[0].Provider)
	assert.Nil(t, got.Failures)
}
