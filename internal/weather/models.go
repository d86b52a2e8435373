package weather

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Scale is a temperature scale.
type Scale string

const (
	Celsius    Scale = "C"
	Fahrenheit Scale = "F"
)

// SpeedUnit is the unit a provider reports wind speed in.
type SpeedUnit string

const (
	MetersPerSecond   SpeedUnit = "m/s"
	KilometersPerHour SpeedUnit = "km/h"
	MilesPerHour      SpeedUnit = "mph"
)

// Temperature is a value on a given scale.
type Temperature struct {
	Value float64 `json:"value"`
	Scale Scale   `json:"scale"`
}

// Celsius returns the temperature converted to degrees Celsius.
func (t Temperature) Celsius() float64 {
	if t.Scale == Fahrenheit {
		return (t.Value - 32) * 5 / 9
	}
	return t.Value
}

// Record is the provider-agnostic, normalized weather observation or forecast
// entry. Records are only produced by Builder and cannot be modified.
type Record struct {
	date          time.Time
	temperature   Temperature
	apparent      Temperature
	minimum       Temperature
	maximum       Temperature
	pressure      float64
	humidity      float64
	windSpeed     float64
	windDirection float64
	chanceOfRain  float64
	precipitation float64
	weatherCode   int
	description   string
	reported      measure
}

// measure flags the optional numeric fields a provider actually supplied.
type measure uint8

const (
	measurePressure measure = 1 << iota
	measureHumidity
	measureWindSpeed
	measureWindDirection
	measureChanceOfRain
	measurePrecipitation
)

func (r Record) has(m measure) bool { return r.reported&m != 0 }

// Date is the observation or forecast time in UTC.
func (r Record) Date() time.Time { return r.date }
func (r Record) Temperature() Temperature { return r.temperature }
func (r Record) ApparentTemperature() Temperature { return r.apparent }
func (r Record) MinTemperature() Temperature { return r.minimum }
func (r Record) MaxTemperature() Temperature { return r.maximum }

// Pressure in hPa.
func (r Record) Pressure() float64 { return r.pressure }

// Humidity in percent.
func (r Record) Humidity() float64 { return r.humidity }

// WindSpeed in km/h.
func (r Record) WindSpeed() float64 { return r.windSpeed }

// WindDirection in degrees.
func (r Record) WindDirection() float64 { return r.windDirection }

// ChanceOfRain in percent.
func (r Record) ChanceOfRain() float64 { return r.chanceOfRain }

// Precipitation in mm.
func (r Record) Precipitation() float64 { return r.precipitation }

func (r Record) WeatherCode() int { return r.weatherCode }
func (r Record) Description() string { return r.description }

type recordJSON struct {
	Date          time.Time   `json:"date"` // always UTC
	Temperature   Temperature `json:"temperature"`
	Apparent      Temperature `json:"apparentTemperature"`
	Minimum       Temperature `json:"minTemperature"`
	Maximum       Temperature `json:"maxTemperature"`
	Pressure      float64     `json:"pressureHpa"`
	Humidity      float64     `json:"humidityPercent"`
	WindSpeed     float64     `json:"windSpeedKmh"`
	WindDirection float64     `json:"windDirectionDeg"`
	ChanceOfRain  float64     `json:"chanceOfRainPercent"`
	Precipitation float64     `json:"precipitationMm"`
	WeatherCode   int         `json:"weatherCode"`
	Description   string      `json:"description"`
}

// MarshalJSON exposes the record's fields for the HTTP layer.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Date:          r.date,
		Temperature:   r.temperature,
		Apparent:      r.apparent,
		Minimum:       r.minimum,
		Maximum:       r.maximum,
		Pressure:      r.pressure,
		Humidity:      r.humidity,
		WindSpeed:     r.windSpeed,
		WindDirection: r.windDirection,
		ChanceOfRain:  r.chanceOfRain,
		Precipitation: r.precipitation,
		WeatherCode:   r.weatherCode,
		Description:   r.description,
	})
}

// Coordinates is a point on the globe in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsValid reports whether both components are within their ranges.
func (c Coordinates) IsValid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// String renders the coordinates as "lat,lon".
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', 4, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', 4, 64)
}

// ParseCoordinates parses the "lat,lon" form produced by Coordinates.String.
func ParseCoordinates(s string) (Coordinates, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, s)
	}
	var c Coordinates
	var err error
	if c.Latitude, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, s)
	}
	if c.Longitude, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, s)
	}
	if !c.IsValid() {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, s)
	}
	return c, nil
}
