package weather

import (
	"context"
	"time"
)

// Source identifies where a capability's data comes from.
type Source interface {
	Provider() string
	CityID() string
	Language() string
}

// CurrentConditions returns the latest observation.
type CurrentConditions interface {
	Source
	GetCurrentWeather(ctx context.Context) (Record, error)
}

// HourlyForecast returns one record per forecast step.
type HourlyForecast interface {
	Source
	GetHourlyForecast(ctx context.Context) ([]Record, error)
	// ForecastHorizon is the number of hours the forecast covers.
	ForecastHorizon() int
}

// DailyForecast returns one record per forecast day.
type DailyForecast interface {
	Source
	GetDailyForecast(ctx context.Context) ([]Record, error)
}

// HistoricalData returns past observations.
type HistoricalData interface {
	Source
	GetHistoricalData(ctx context.Context) ([]Record, error)
	HistoryHorizon() time.Duration
	SamplingInterval() time.Duration
}
