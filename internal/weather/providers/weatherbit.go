package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

const (
	WeatherbitName    = "weatherbit"
	WeatherbitBaseURL = "https://api.weatherbit.io/v2.0"

	wbHourlyHorizon = 24
	wbDailyDays     = 16
	wbHistoryWindow = 24 * time.Hour
)

// Weatherbit is queried by coordinates; the city id is the "lat,lon" string.
// Free-text names go through the geocoding collaborator.
type Weatherbit struct {
	family
	geocoder CoordinateResolver
}

// NewWeatherbit returns the Weatherbit family. geocoder may be nil, in which
// case lookups by name fail.
func NewWeatherbit(s Settings, geocoder CoordinateResolver) *Weatherbit {
	return &Weatherbit{family: newFamily(WeatherbitName, s), geocoder: geocoder}
}

// FormatLanguage returns a two-letter code, "zh-tw" for traditional Chinese.
func (w *Weatherbit) FormatLanguage(tag language.Tag) string {
	if baseLanguage(tag) == "zh" && regionalLanguage(tag, "-") == "zh-tw" {
		return "zh-tw"
	}
	return baseLanguage(tag)
}

func coordParams(c weather.Coordinates) map[string]string {
	return map[string]string{
		"lat": strconv.FormatFloat(c.Latitude, 'f', -1, 64),
		"lon": strconv.FormatFloat(c.Longitude, 'f', -1, 64),
	}
}

func (w *Weatherbit) LocateByCoordinates(ctx context.Context, c weather.Coordinates, lang string) (Location, error) {
	q := coordParams(c)
	q["key"] = w.apiKey
	q["lang"] = lang

	root, err := w.lookup(ctx, "current", q)
	if err != nil {
		return Location{}, err
	}
	if root.FloatOr("count", 0) == 0 || !root.Exists("data.0") {
		return Location{}, noLocation(w.name, c.String())
	}
	name, err := root.String("data.0.city_name")
	if err != nil {
		return Location{}, annotate(err, w.name, "current")
	}
	return Location{ID: c.String(), Name: name, Coordinates: c}, nil
}

// LocateByName geocodes name and uses the best match; Weatherbit has no city
// search of its own.
func (w *Weatherbit) LocateByName(ctx context.Context, name, _ string) (Location, error) {
	if w.geocoder == nil {
		return Location{}, fmt.Errorf("%s: no geocoder configured: %w", w.name, weather.ErrNoLocationFound)
	}
	c, err := w.geocoder.Resolve(ctx, name)
	if err != nil {
		return Location{}, err
	}
	if !c.IsValid() {
		return Location{}, fmt.Errorf("%s: geocoder returned %v: %w", w.name, c, weather.ErrInvalidCoordinates)
	}
	return Location{ID: c.String(), Name: strings.TrimSpace(name), Coordinates: c}, nil
}

// LocateByCode accepts a "lat,lon" code.
func (w *Weatherbit) LocateByCode(ctx context.Context, code, lang string) (Location, error) {
	c, err := weather.ParseCoordinates(code)
	if err != nil {
		return Location{}, err
	}
	return w.LocateByCoordinates(ctx, c, lang)
}

func (w *Weatherbit) Adapters(loc Location, lang string) AdapterSet {
	params := func(extra func(now time.Time) map[string]string) func(Target, time.Time) map[string]string {
		return func(t Target, now time.Time) map[string]string {
			q := coordParams(t.Coordinates)
			q["key"] = t.APIKey
			q["lang"] = t.Language
			q["units"] = "M"
			if extra != nil {
				for k, v := range extra(now) {
					q[k] = v
				}
			}
			return q
		}
	}
	fixed := func(path string) func(Target) string {
		return func(Target) string { return path }
	}
	const day = "2006-01-02"

	return AdapterSet{
		Current: &CurrentAdapter{w.adapter(loc, lang, Endpoint{
			Capability: "current",
			Resource:   fixed("current"),
			Params:     params(nil),
			Items:      "data",
			Map:        mapWeatherbitCurrent,
		})},
		Hourly: &HourlyAdapter{Adapter: w.adapter(loc, lang, Endpoint{
			Capability: "hourly",
			Resource:   fixed("forecast/hourly"),
			Params: params(func(time.Time) map[string]string {
				return map[string]string{"hours": strconv.Itoa(wbHourlyHorizon)}
			}),
			Items: "data",
			Map:   mapWeatherbitForecast,
		}), horizon: wbHourlyHorizon},
		Daily: &DailyAdapter{w.adapter(loc, lang, Endpoint{
			Capability: "daily",
			Resource:   fixed("forecast/daily"),
			Params: params(func(time.Time) map[string]string {
				return map[string]string{"days": strconv.Itoa(wbDailyDays)}
			}),
			Items: "data",
			Map:   mapWeatherbitDaily,
		})},
		Historical: &HistoricalAdapter{Adapter: w.adapter(loc, lang, Endpoint{
			Capability: "historical",
			Resource:   fixed("history/hourly"),
			Params: params(func(now time.Time) map[string]string {
				end := now.UTC()
				return map[string]string{
					"start_date": end.Add(-wbHistoryWindow).Format(day),
					"end_date":   end.Format(day),
				}
			}),
			Items: "data",
			Map:   mapWeatherbitForecast,
		}), horizon: wbHistoryWindow, interval: time.Hour},
	}
}

// wbCommon reads the fields every Weatherbit item carries. Weatherbit reports
// station pressure in "pres"; sea-level pressure "slp" is used instead.
func wbCommon(item Node, date time.Time) (*weather.Builder, error) {
	r := item.Reader()
	temp := r.Float("temp")
	humidity := r.Float("rh")
	wind := r.Float("wind_spd")
	code := r.Int("weather.code")
	text := r.String("weather.description")
	if err := r.Err(); err != nil {
		return nil, err
	}

	b := weather.NewBuilder().
		SetDate(date).
		SetTemperature(temp, weather.Celsius).
		SetHumidity(humidity).
		SetWindSpeed(wind, weather.MetersPerSecond).
		SetWeatherCode(code).
		SetDescription(text)

	if item.Exists("precip") {
		b.SetPrecipitation(item.FloatOr("precip", 0))
	}

	if item.Exists("app_temp") {
		b.SetApparentTemperature(item.FloatOr("app_temp", 0), weather.Celsius)
	}
	if item.Exists("slp") {
		b.SetPressure(item.FloatOr("slp", 0))
	}
	if item.Exists("wind_dir") {
		b.SetWindDirection(item.FloatOr("wind_dir", 0))
	}
	return b, nil
}

func mapWeatherbitCurrent(item Node, now time.Time) (weather.Record, error) {
	date := now
	if item.Exists("ts") {
		t, err := item.Unix("ts")
		if err != nil {
			return weather.Record{}, err
		}
		date = t
	}
	b, err := wbCommon(item, date)
	if err != nil {
		return weather.Record{}, err
	}
	return b.Build()
}

func mapWeatherbitForecast(item Node, _ time.Time) (weather.Record, error) {
	date, err := item.Unix("ts")
	if err != nil {
		return weather.Record{}, err
	}
	b, err := wbCommon(item, date)
	if err != nil {
		return weather.Record{}, err
	}
	if item.Exists("pop") {
		b.SetChanceOfRain(item.FloatOr("pop", 0))
	}
	return b.Build()
}

func mapWeatherbitDaily(item Node, _ time.Time) (weather.Record, error) {
	date, err := item.Unix("ts")
	if err != nil {
		return weather.Record{}, err
	}
	b, err := wbCommon(item, date)
	if err != nil {
		return weather.Record{}, err
	}

	r := item.Reader()
	minT := r.Float("min_temp")
	maxT := r.Float("max_temp")
	if err := r.Err(); err != nil {
		return weather.Record{}, err
	}
	b.SetMinTemperature(minT, weather.Celsius).
		SetMaxTemperature(maxT, weather.Celsius)

	if item.Exists("pop") {
		b.SetChanceOfRain(item.FloatOr("pop", 0))
	}

	if item.Exists("app_max_temp") {
		b.SetApparentTemperature(item.FloatOr("app_max_temp", 0), weather.Celsius)
	}
	return b.Build()
}
