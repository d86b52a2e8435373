package weather

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinates_IsValid(t *testing.T) {
	tests := []struct {
		c    Coordinates
		want bool
	}{
		{Coordinates{0, 0}, true},
		{Coordinates{90, 180}, true},
		{Coordinates{-90, -180}, true},
		{Coordinates{90.0001, 0}, false},
		{Coordinates{0, -180.5}, false},
		{Coordinates{-91, 200}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.IsValid(), "%+v", tt.c)
	}
}

func TestParseCoordinates(t *testing.T) {
	c := Coordinates{Latitude: 52.52, Longitude: 13.405}
	assert.Equal(t, "52.5200,13.4050", c.String())

	parsed, err := ParseCoordinates(c.String())
	require.NoError(t, err)
	assert.Equal(t, c, parsed)

	for _, in := range []string{"", "52.5", "abc,13", "95,13", "10,x"} {
		_, err := ParseCoordinates(in)
		assert.ErrorIs(t, err, ErrInvalidCoordinates, in)
	}
}

func TestTemperature_Celsius(t *testing.T) {
	assert.InDelta(t, 100.0, Temperature{Value: 212, Scale: Fahrenheit}.Celsius(), 1e-9)
	assert.Equal(t, 12.5, Temperature{Value: 12.5, Scale: Celsius}.Celsius())
}

func TestRecord_MarshalJSON(t *testing.T) {
	rec, err := NewBuilder().
		SetDate(time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)).
		SetTemperature(4.5, Celsius).
		SetHumidity(80).
		SetDescription("Fog").
		Build()
	require.NoError(t, err)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "2024-01-02T03:00:00Z", out["date"])
	assert.Equal(t, "Fog", out["description"])
	assert.Equal(t, 80.0, out["humidityPercent"])
	assert.Equal(t, map[string]any{"value": 4.5, "scale": "C"}, out["temperature"])
}
