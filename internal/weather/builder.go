package weather

import (
	"math"
	"strings"
	"time"
)

// Physical ranges enforced by Builder.
const (
	MinPressure      = 900.0
	MaxPressure      = 1100.0
	MinPercent       = 0.0
	MaxPercent       = 100.0
	MinWindDirection = 0.0
	MaxWindDirection = 360.0

	absoluteZeroC = -273.15
	absoluteZeroF = -459.67
)

// EarliestDate is the first instant a record may describe.
var EarliestDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var windFactors = map[SpeedUnit]float64{
	MetersPerSecond:   3.6,
	MilesPerHour:      1.609,
	KilometersPerHour: 1.0,
}

type fieldError struct {
	field string
	err   error
}

// Builder assembles a Record through validating setters.
//
// A setter that rejects its input leaves the field as it was and remembers the
// error; calling the same setter again with a valid value clears it. Build
// fails with the first outstanding error. A Builder produces one Record and
// must not be shared between goroutines.
type Builder struct {
	rec     Record
	hasDate bool
	errs    []fieldError
	built   bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Err returns the first rejected input that has not been corrected yet.
func (b *Builder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return b.errs[0].err
}

func (b *Builder) reject(field string, value any, kind error) *Builder {
	b.accept(field)
	b.errs = append(b.errs, fieldError{
		field: field,
		err:   &ValidationError{Field: field, Value: value, Err: kind},
	})
	return b
}

func (b *Builder) accept(field string) {
	for i, fe := range b.errs {
		if fe.field == field {
			b.errs = append(b.errs[:i], b.errs[i+1:]...)
			return
		}
	}
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// SetDate sets the record timestamp, stored in UTC.
func (b *Builder) SetDate(t time.Time) *Builder {
	if t.IsZero() || t.Before(EarliestDate) {
		return b.reject("date", t, ErrInvalidDate)
	}
	b.accept("date")
	b.rec.date = t.UTC()
	b.hasDate = true
	return b
}

func (b *Builder) temperature(field string, dst *Temperature, value float64, scale Scale) *Builder {
	var floor float64
	switch scale {
	case Celsius:
		floor = absoluteZeroC
	case Fahrenheit:
		floor = absoluteZeroF
	default:
		return b.reject(field, scale, ErrUnsupportedUnit)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < floor {
		return b.reject(field, value, ErrOutOfRange)
	}
	b.accept(field)
	*dst = Temperature{Value: value, Scale: scale}
	return b
}

// SetTemperature sets the main temperature. Values below absolute zero for
// the given scale are rejected.
func (b *Builder) SetTemperature(value float64, scale Scale) *Builder {
	return b.temperature("temperature", &b.rec.temperature, value, scale)
}

// SetApparentTemperature sets the feels-like temperature.
func (b *Builder) SetApparentTemperature(value float64, scale Scale) *Builder {
	return b.temperature("apparentTemperature", &b.rec.apparent, value, scale)
}

// SetMinTemperature sets the period minimum, used by daily forecasts.
func (b *Builder) SetMinTemperature(value float64, scale Scale) *Builder {
	return b.temperature("minTemperature", &b.rec.minimum, value, scale)
}

// SetMaxTemperature sets the period maximum.
func (b *Builder) SetMaxTemperature(value float64, scale Scale) *Builder {
	return b.temperature("maxTemperature", &b.rec.maximum, value, scale)
}

// SetPressure sets the pressure in hPa.
func (b *Builder) SetPressure(hpa float64) *Builder {
	if !inRange(hpa, MinPressure, MaxPressure) {
		return b.reject("pressure", hpa, ErrOutOfRange)
	}
	b.accept("pressure")
	b.rec.pressure = hpa
	b.rec.reported |= measurePressure
	return b
}

// SetHumidity sets the relative humidity in percent.
func (b *Builder) SetHumidity(pct float64) *Builder {
	if !inRange(pct, MinPercent, MaxPercent) {
		return b.reject("humidity", pct, ErrOutOfRange)
	}
	b.accept("humidity")
	b.rec.humidity = pct
	b.rec.reported |= measureHumidity
	return b
}

// SetWindSpeed converts the speed to km/h before storing it.
func (b *Builder) SetWindSpeed(value float64, unit SpeedUnit) *Builder {
	factor, ok := windFactors[unit]
	if !ok {
		return b.reject("windSpeed", unit, ErrUnsupportedUnit)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return b.reject("windSpeed", value, ErrOutOfRange)
	}
	b.accept("windSpeed")
	b.rec.windSpeed = value * factor
	b.rec.reported |= measureWindSpeed
	return b
}

// SetWindDirection sets the direction the wind blows from, in degrees.
func (b *Builder) SetWindDirection(deg float64) *Builder {
	if !inRange(deg, MinWindDirection, MaxWindDirection) {
		return b.reject("windDirection", deg, ErrOutOfRange)
	}
	b.accept("windDirection")
	b.rec.windDirection = deg
	b.rec.reported |= measureWindDirection
	return b
}

// SetChanceOfRain sets the probability of precipitation in percent.
func (b *Builder) SetChanceOfRain(pct float64) *Builder {
	if !inRange(pct, MinPercent, MaxPercent) {
		return b.reject("chanceOfRain", pct, ErrOutOfRange)
	}
	b.accept("chanceOfRain")
	b.rec.chanceOfRain = pct
	b.rec.reported |= measureChanceOfRain
	return b
}

// SetPrecipitation sets the precipitation amount in mm.
func (b *Builder) SetPrecipitation(mm float64) *Builder {
	if math.IsNaN(mm) || math.IsInf(mm, 0) || mm < 0 {
		return b.reject("precipitation", mm, ErrOutOfRange)
	}
	b.accept("precipitation")
	b.rec.precipitation = mm
	b.rec.reported |= measurePrecipitation
	return b
}

// SetWeatherCode stores the provider's condition code as is.
func (b *Builder) SetWeatherCode(code int) *Builder {
	b.rec.weatherCode = code
	return b
}

// SetDescription sets the human-readable condition. Blank text is rejected.
func (b *Builder) SetDescription(text string) *Builder {
	text = strings.TrimSpace(text)
	if text == "" {
		return b.reject("description", text, ErrEmptyDescription)
	}
	b.accept("description")
	b.rec.description = text
	return b
}

// Build returns the assembled Record. It requires a date and a description.
func (b *Builder) Build() (Record, error) {
	if b.built {
		return Record{}, ErrBuilderReused
	}
	if err := b.Err(); err != nil {
		return Record{}, err
	}
	if !b.hasDate {
		return Record{}, &ValidationError{Field: "date", Value: time.Time{}, Err: ErrInvalidDate}
	}
	if b.rec.description == "" {
		return Record{}, &ValidationError{Field: "description", Value: "", Err: ErrEmptyDescription}
	}
	b.built = true
	return b.rec, nil
}
