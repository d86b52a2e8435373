package weather

import (
	"errors"
	"math"
	"time"
)

// ErrNoReadings is returned by Aggregate for an empty input.
var ErrNoReadings = errors.New("no readings to aggregate")

// Aggregate combines records from several providers into one consensus record.
// Numeric fields are averaged over the records that report them, temperatures
// in Celsius, wind direction as a vector mean of the moving-air readings.
// Fields a provider left unset never count as zero. The description and code are
// taken by majority (first seen wins a tie) and the newest timestamp is kept.
func Aggregate(records []Record) (Record, error) {
	if len(records) == 0 {
		return Record{}, ErrNoReadings
	}

	type mean struct {
		sum float64
		n   int
	}
	add := func(m *mean, v float64, reported bool) {
		if reported {
			m.sum += v
			m.n++
		}
	}
	avg := func(m mean) (float64, bool) {
		if m.n == 0 {
			return 0, false
		}
		return m.sum / float64(m.n), true
	}

	var (
		temp, apparent, minT, maxT mean
		pressure, humidity, wind   mean
		rain, precip               mean
		dirX, dirY                 float64
		dirN                       int
		newest                     time.Time
	)

	descCounts := make(map[string]int)
	codes := make(map[string]int)
	var order []string

	for _, r := range records {
		add(&temp, r.temperature.Celsius(), r.temperature.Scale != "")
		add(&apparent, r.apparent.Celsius(), r.apparent.Scale != "")
		add(&minT, r.minimum.Celsius(), r.minimum.Scale != "")
		add(&maxT, r.maximum.Celsius(), r.maximum.Scale != "")
		add(&pressure, r.pressure, r.has(measurePressure))
		add(&humidity, r.humidity, r.has(measureHumidity))
		add(&wind, r.windSpeed, r.has(measureWindSpeed))
		add(&rain, r.chanceOfRain, r.has(measureChanceOfRain))
		add(&precip, r.precipitation, r.has(measurePrecipitation))

		if r.has(measureWindDirection) && r.windSpeed > 0 {
			rad := r.windDirection * math.Pi / 180
			dirX += math.Cos(rad)
			dirY += math.Sin(rad)
			dirN++
		}

		if _, seen := descCounts[r.description]; !seen {
			order = append(order, r.description)
			codes[r.description] = r.weatherCode
		}
		descCounts[r.description]++

		if r.date.After(newest) {
			newest = r.date
		}
	}

	bestDesc := order[0]
	for _, d := range order[1:] {
		if descCounts[d] > descCounts[bestDesc] {
			bestDesc = d
		}
	}

	b := NewBuilder().
		SetDate(newest).
		SetDescription(bestDesc).
		SetWeatherCode(codes[bestDesc])

	if v, ok := avg(temp); ok {
		b.SetTemperature(v, Celsius)
	}
	if v, ok := avg(apparent); ok {
		b.SetApparentTemperature(v, Celsius)
	}
	if v, ok := avg(minT); ok {
		b.SetMinTemperature(v, Celsius)
	}
	if v, ok := avg(maxT); ok {
		b.SetMaxTemperature(v, Celsius)
	}
	if v, ok := avg(pressure); ok {
		b.SetPressure(v)
	}
	if v, ok := avg(humidity); ok {
		b.SetHumidity(v)
	}
	if v, ok := avg(wind); ok {
		b.SetWindSpeed(v, KilometersPerHour)
	}
	if v, ok := avg(rain); ok {
		b.SetChanceOfRain(v)
	}
	if v, ok := avg(precip); ok {
		b.SetPrecipitation(v)
	}
	if dirN > 0 {
		deg := math.Atan2(dirY, dirX) * 180 / math.Pi
		if deg < 0 {
			deg += 360
		}
		b.SetWindDirection(deg)
	}

	return b.Build()
}
