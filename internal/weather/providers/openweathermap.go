package providers

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

const (
	OpenWeatherMapName    = "openweathermap"
	OpenWeatherMapBaseURL = "https://api.openweathermap.org/data/2.5"

	// 5 days in 3-hour steps.
	owmHourlyHorizon = 120
	owmDailyDays     = 16
)

// OpenWeatherMap identifies cities by numeric city id. Historical data is not
// available on this plan, so that slot stays empty.
type OpenWeatherMap struct {
	family
}

// NewOpenWeatherMap returns the OpenWeatherMap family.
func NewOpenWeatherMap(s Settings) *OpenWeatherMap {
	return &OpenWeatherMap{family: newFamily(OpenWeatherMapName, s)}
}

// FormatLanguage returns a two-letter code, with the region for the Chinese
// and Portuguese variants ("zh_cn", "pt_br").
func (o *OpenWeatherMap) FormatLanguage(tag language.Tag) string {
	switch baseLanguage(tag) {
	case "zh", "pt":
		return regionalLanguage(tag, "_")
	default:
		return baseLanguage(tag)
	}
}

func (o *OpenWeatherMap) query(extra map[string]string, lang string) map[string]string {
	q := map[string]string{
		"appid": o.apiKey,
		"units": "metric",
		"lang":  lang,
	}
	for k, v := range extra {
		q[k] = v
	}
	return q
}

func (o *OpenWeatherMap) LocateByCoordinates(ctx context.Context, c weather.Coordinates, lang string) (Location, error) {
	if !c.IsValid() {
		return Location{}, weather.ErrInvalidCoordinates
	}
	root, err := o.lookup(ctx, "weather", o.query(map[string]string{
		"lat": strconv.FormatFloat(c.Latitude, 'f', -1, 64),
		"lon": strconv.FormatFloat(c.Longitude, 'f', -1, 64),
	}, lang))
	if err != nil {
		return Location{}, err
	}
	if root.FloatOr("id", 0) == 0 {
		return Location{}, noLocation(o.name, c.String())
	}
	return owmLocation(root)
}

func (o *OpenWeatherMap) LocateByName(ctx context.Context, name, lang string) (Location, error) {
	root, err := o.lookup(ctx, "find", o.query(map[string]string{"q": name, "type": "accurate"}, lang))
	if err != nil {
		return Location{}, err
	}
	if !root.Exists("list") {
		return Location{}, noLocation(o.name, name)
	}
	items, err := root.Items("list")
	if err != nil {
		return Location{}, annotate(err, o.name, "find")
	}
	switch len(items) {
	case 0:
		return Location{}, noLocation(o.name, name)
	case 1:
		return owmLocation(items[0])
	default:
		return Location{}, ambiguous(o.name, name, len(items))
	}
}

func (o *OpenWeatherMap) LocateByCode(ctx context.Context, code, lang string) (Location, error) {
	root, err := o.lookup(ctx, "weather", o.query(map[string]string{"id": code}, lang))
	if err != nil {
		return Location{}, err
	}
	return owmLocation(root)
}

func owmLocation(n Node) (Location, error) {
	r := n.Reader()
	id := r.Int("id")
	loc := Location{
		Name: r.String("name"),
		Coordinates: weather.Coordinates{
			Latitude:  r.Float("coord.lat"),
			Longitude: r.Float("coord.lon"),
		},
	}
	if err := r.Err(); err != nil {
		return Location{}, annotate(err, OpenWeatherMapName, "location")
	}
	loc.ID = strconv.Itoa(id)
	return loc, nil
}

// Adapters leaves the historical slot empty.
func (o *OpenWeatherMap) Adapters(loc Location, lang string) AdapterSet {
	params := func(extra map[string]string) func(Target, time.Time) map[string]string {
		return func(t Target, _ time.Time) map[string]string {
			q := map[string]string{
				"id":    t.CityID,
				"appid": t.APIKey,
				"units": "metric",
				"lang":  t.Language,
			}
			for k, v := range extra {
				q[k] = v
			}
			return q
		}
	}
	fixed := func(path string) func(Target) string {
		return func(Target) string { return path }
	}

	return AdapterSet{
		Current: &CurrentAdapter{o.adapter(loc, lang, Endpoint{
			Capability: "current",
			Resource:   fixed("weather"),
			Params:     params(nil),
			Map:        mapOWMCurrent,
		})},
		Hourly: &HourlyAdapter{Adapter: o.adapter(loc, lang, Endpoint{
			Capability: "hourly",
			Resource:   fixed("forecast"),
			Params:     params(nil),
			Items:      "list",
			Map:        mapOWMHourly,
		}), horizon: owmHourlyHorizon},
		Daily: &DailyAdapter{o.adapter(loc, lang, Endpoint{
			Capability: "daily",
			Resource:   fixed("forecast/daily"),
			Params:     params(map[string]string{"cnt": strconv.Itoa(owmDailyDays)}),
			Items:      "list",
			Map:        mapOWMDaily,
		})},
	}
}

// owmMain reads the fields shared by the current and 3-hourly payloads.
func owmMain(item Node, date time.Time) (*weather.Builder, error) {
	r := item.Reader()
	temp := r.Float("main.temp")
	humidity := r.Float("main.humidity")
	wind := r.Float("wind.speed")
	code := r.Int("weather.0.id")
	text := r.String("weather.0.description")
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

	if item.Exists("main.feels_like") {
		b.SetApparentTemperature(item.FloatOr("main.feels_like", 0), weather.Celsius)
	}
	if item.Exists("main.temp_min") {
		b.SetMinTemperature(item.FloatOr("main.temp_min", 0), weather.Celsius)
	}
	if item.Exists("main.temp_max") {
		b.SetMaxTemperature(item.FloatOr("main.temp_max", 0), weather.Celsius)
	}
	if item.Exists("main.pressure") {
		b.SetPressure(item.FloatOr("main.pressure", 0))
	}
	if item.Exists("wind.deg") {
		b.SetWindDirection(item.FloatOr("wind.deg", 0))
	}
	return b, nil
}

func mapOWMCurrent(item Node, now time.Time) (weather.Record, error) {
	date := now
	if item.Exists("dt") {
		t, err := item.Unix("dt")
		if err != nil {
			return weather.Record{}, err
		}
		date = t
	}
	b, err := owmMain(item, date)
	if err != nil {
		return weather.Record{}, err
	}
	precip := item.FloatOr("rain.1h", 0) + item.FloatOr("snow.1h", 0)
	return b.SetPrecipitation(precip).Build()
}

func mapOWMHourly(item Node, _ time.Time) (weather.Record, error) {
	date, err := item.Unix("dt")
	if err != nil {
		return weather.Record{}, err
	}
	b, err := owmMain(item, date)
	if err != nil {
		return weather.Record{}, err
	}
	if item.Exists("pop") {
		b.SetChanceOfRain(item.FloatOr("pop", 0) * 100)
	}
	// OpenWeatherMap omits rain and snow when nothing falls.
	precip := item.FloatOr("rain.3h", 0) + item.FloatOr("snow.3h", 0)
	return b.SetPrecipitation(precip).Build()
}

func mapOWMDaily(item Node, _ time.Time) (weather.Record, error) {
	r := item.Reader()
	date := r.Unix("dt")
	day := r.Float("temp.day")
	minT := r.Float("temp.min")
	maxT := r.Float("temp.max")
	humidity := r.Float("humidity")
	wind := r.Float("speed")
	code := r.Int("weather.0.id")
	text := r.String("weather.0.description")
	if err := r.Err(); err != nil {
		return weather.Record{}, err
	}

	b := weather.NewBuilder().
		SetDate(date).
		SetTemperature(day, weather.Celsius).
		SetMinTemperature(minT, weather.Celsius).
		SetMaxTemperature(maxT, weather.Celsius).
		SetHumidity(humidity).
		SetWindSpeed(wind, weather.MetersPerSecond).
		SetWeatherCode(code).
		SetDescription(text).
		SetPrecipitation(item.FloatOr("rain", 0) + item.FloatOr("snow", 0))

	if item.Exists("pop") {
		b.SetChanceOfRain(item.FloatOr("pop", 0) * 100)
	}

	if item.Exists("feels_like.day") {
		b.SetApparentTemperature(item.FloatOr("feels_like.day", 0), weather.Celsius)
	}
	if item.Exists("pressure") {
		b.SetPressure(item.FloatOr("pressure", 0))
	}
	if item.Exists("deg") {
		b.SetWindDirection(item.FloatOr("deg", 0))
	}
	return b.Build()
}
