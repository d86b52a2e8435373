package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, b *Builder) Record {
	t.Helper()
	rec, err := b.Build()
	require.NoError(t, err)
	return rec
}

func TestAggregate(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	records := []Record{
		mustRecord(t, NewBuilder().SetDate(base).SetDescription("Rain").SetWeatherCode(12).
			SetTemperature(10, Celsius).SetPressure(1000).SetHumidity(80).
			SetWindSpeed(10, KilometersPerHour).SetWindDirection(350)),
		mustRecord(t, NewBuilder().SetDate(base.Add(time.Minute)).SetDescription("Clouds").SetWeatherCode(803).
			SetTemperature(50, Fahrenheit).SetHumidity(60).
			SetWindSpeed(20, KilometersPerHour).SetWindDirection(10)),
		mustRecord(t, NewBuilder().SetDate(base.Add(-time.Hour)).SetDescription("Rain").SetWeatherCode(500).
			SetTemperature(13, Celsius).SetPressure(1010).SetHumidity(70).
			SetWindSpeed(30, KilometersPerHour).SetWindDirection(0)),
	}

	got, err := Aggregate(records)
	require.NoError(t, err)

	assert.Equal(t, base.Add(time.Minute), got.Date())
	assert.Equal(t, "Rain", got.Description())
	assert.Equal(t, 12, got.WeatherCode())
	assert.InDelta(t, 11.0, got.Temperature().Value, 1e-9)
	assert.Equal(t, Celsius, got.Temperature().Scale)
	assert.InDelta(t, 1005.0, got.Pressure(), 1e-9)
	assert.InDelta(t, 70.0, got.Humidity(), 1e-9)
	assert.InDelta(t, 20.0, got.WindSpeed(), 1e-9)

	dir := got.WindDirection()
	assert.True(t, dir < 5 || dir > 355, "wind direction %v should be near north", dir)
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, ErrNoReadings)
}

func TestAggregate_IgnoresUnreportedFields(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	records := []Record{
		mustRecord(t, NewBuilder().SetDate(base).SetDescription("Clear").
			SetTemperature(20, Celsius).SetWindSpeed(10, KilometersPerHour)),
		mustRecord(t, NewBuilder().SetDate(base).SetDescription("Clear").
			SetTemperature(22, Celsius).SetWindSpeed(10, KilometersPerHour).SetWindDirection(180).
			SetHumidity(50).SetChanceOfRain(40).SetPrecipitation(1.5)),
	}

	got, err := Aggregate(records)
	require.NoError(t, err)

	assert.InDelta(t, 180.0, got.WindDirection(), 1e-9)
	assert.InDelta(t, 50.0, got.Humidity(), 1e-9)
	assert.InDelta(t, 40.0, got.ChanceOfRain(), 1e-9)
	assert.InDelta(t, 1.5, got.Precipitation(), 1e-9)
	assert.InDelta(t, 10.0, got.WindSpeed(), 1e-9)
	assert.Zero(t, got.Pressure())
}

func TestAggregate_CalmReadingsHaveNoDirection(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	got, err := Aggregate([]Record{
		mustRecord(t, NewBuilder().SetDate(base).SetDescription("Fog").
			SetWindSpeed(0, KilometersPerHour).SetWindDirection(90)),
	})
	require.NoError(t, err)
	assert.Zero(t, got.WindDirection())
	assert.Zero(t, got.WindSpeed())
}
