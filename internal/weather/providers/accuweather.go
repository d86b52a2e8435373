package providers

import (
	"context"
	"errors"
	"time"

	"golang.org/x/text/language"

	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

const (
	AccuWeatherName    = "accuweather"
	AccuWeatherBaseURL = "https://dataservice.accuweather.com"

	accuHourlyHorizon = 12
	accuHistoryWindow = 24 * time.Hour
)

// AccuWeather resolves locations to AccuWeather location keys and offers all
// four capabilities.
type AccuWeather struct {
	family
}

// NewAccuWeather returns the AccuWeather family.
func NewAccuWeather(s Settings) *AccuWeather {
	return &AccuWeather{family: newFamily(AccuWeatherName, s)}
}

// FormatLanguage renders tags the way AccuWeather expects them ("en-us").
func (a *AccuWeather) FormatLanguage(tag language.Tag) string {
	return regionalLanguage(tag, "-")
}

func (a *AccuWeather) query(extra map[string]string, lang string) map[string]string {
	q := map[string]string{
		"apikey":   a.apiKey,
		"language": lang,
	}
	for k, v := range extra {
		q[k] = v
	}
	return q
}

func (a *AccuWeather) LocateByCoordinates(ctx context.Context, c weather.Coordinates, lang string) (Location, error) {
	root, err := a.lookup(ctx, "locations/v1/cities/geoposition/search", a.query(map[string]string{"q": c.String()}, lang))
	if errors.Is(err, weather.ErrEmptyResponse) {
		return Location{}, noLocation(a.name, c.String())
	}
	if err != nil {
		return Location{}, err
	}
	if !root.Exists("Key") {
		return Location{}, noLocation(a.name, c.String())
	}
	return accuLocation(root)
}

func (a *AccuWeather) LocateByName(ctx context.Context, name, lang string) (Location, error) {
	root, err := a.lookup(ctx, "locations/v1/cities/search", a.query(map[string]string{"q": name}, lang))
	if err != nil {
		return Location{}, err
	}
	items, err := root.Items("")
	if err != nil {
		return Location{}, annotate(err, a.name, "locations/v1/cities/search")
	}
	switch len(items) {
	case 0:
		return Location{}, noLocation(a.name, name)
	case 1:
		return accuLocation(items[0])
	default:
		return Location{}, ambiguous(a.name, name, len(items))
	}
}

func (a *AccuWeather) LocateByCode(ctx context.Context, code, lang string) (Location, error) {
	root, err := a.lookup(ctx, "locations/v1/"+code, a.query(nil, lang))
	if err != nil {
		return Location{}, err
	}
	if !root.Exists("Key") {
		return Location{}, noLocation(a.name, code)
	}
	return accuLocation(root)
}

func accuLocation(n Node) (Location, error) {
	r := n.Reader()
	loc := Location{
		ID:   r.String("Key"),
		Name: r.String("LocalizedName"),
		Coordinates: weather.Coordinates{
			Latitude:  r.Float("GeoPosition.Latitude"),
			Longitude: r.Float("GeoPosition.Longitude"),
		},
	}
	if err := r.Err(); err != nil {
		return Location{}, annotate(err, AccuWeatherName, "locations")
	}
	return loc, nil
}

// Adapters supports all four capabilities.
func (a *AccuWeather) Adapters(loc Location, lang string) AdapterSet {
	details := func(t Target, _ time.Time) map[string]string {
		return map[string]string{"apikey": t.APIKey, "language": t.Language, "details": "true"}
	}
	metricDetails := func(t Target, now time.Time) map[string]string {
		q := details(t, now)
		q["metric"] = "true"
		return q
	}

	return AdapterSet{
		Current: &CurrentAdapter{a.adapter(loc, lang, Endpoint{
			Capability: "current",
			Resource:   func(t Target) string { return "currentconditions/v1/" + t.CityID },
			Params:     details,
			Map:        mapAccuCurrent,
		})},
		Hourly: &HourlyAdapter{Adapter: a.adapter(loc, lang, Endpoint{
			Capability: "hourly",
			Resource:   func(t Target) string { return "forecasts/v1/hourly/12hour/" + t.CityID },
			Params:     metricDetails,
			Map:        mapAccuHourly,
		}), horizon: accuHourlyHorizon},
		Daily: &DailyAdapter{a.adapter(loc, lang, Endpoint{
			Capability: "daily",
			Resource:   func(t Target) string { return "forecasts/v1/daily/5day/" + t.CityID },
			Params:     metricDetails,
			Items:      "DailyForecasts",
			Map:        mapAccuDaily,
		})},
		Historical: &HistoricalAdapter{Adapter: a.adapter(loc, lang, Endpoint{
			Capability: "historical",
			Resource:   func(t Target) string { return "currentconditions/v1/" + t.CityID + "/historical/24" },
			Params:     details,
			Map:        mapAccuHistorical,
		}), horizon: accuHistoryWindow, interval: time.Hour},
	}
}

// mapAccuCurrent reads the Metric branch of a current-conditions item.
func mapAccuCurrent(item Node, now time.Time) (weather.Record, error) {
	date := now
	switch {
	case item.Exists("EpochTime"):
		t, err := item.Unix("EpochTime")
		if err != nil {
			return weather.Record{}, err
		}
		date = t
	case item.Exists("LocalObservationDateTime"):
		t, err := item.Time("LocalObservationDateTime")
		if err != nil {
			return weather.Record{}, err
		}
		date = t
	}
	return accuObservation(item, date)
}

func mapAccuHistorical(item Node, _ time.Time) (weather.Record, error) {
	date, err := item.Unix("EpochTime")
	if err != nil {
		return weather.Record{}, err
	}
	return accuObservation(item, date)
}

func accuObservation(item Node, date time.Time) (weather.Record, error) {
	r := item.Reader()
	temp := r.Float("Temperature.Metric.Value")
	unit := r.String("Temperature.Metric.Unit")
	humidity := r.Float("RelativeHumidity")
	wind := r.Float("Wind.Speed.Metric.Value")
	windUnit := r.String("Wind.Speed.Metric.Unit")
	code := r.Int("WeatherIcon")
	text := r.String("WeatherText")
	if err := r.Err(); err != nil {
		return weather.Record{}, err
	}

	b := weather.NewBuilder().
		SetDate(date).
		SetTemperature(temp, scaleOf(unit)).
		SetHumidity(humidity).
		SetWindSpeed(wind, speedUnitOf(windUnit)).
		SetWeatherCode(code).
		SetDescription(text)

	if item.Exists("RealFeelTemperature.Metric.Value") {
		b.SetApparentTemperature(item.FloatOr("RealFeelTemperature.Metric.Value", 0), scaleOf(unit))
	}
	if item.Exists("TemperatureSummary.Past24HourRange.Minimum.Metric.Value") {
		b.SetMinTemperature(item.FloatOr("TemperatureSummary.Past24HourRange.Minimum.Metric.Value", 0), scaleOf(unit))
		b.SetMaxTemperature(item.FloatOr("TemperatureSummary.Past24HourRange.Maximum.Metric.Value", 0), scaleOf(unit))
	}
	if item.Exists("Pressure.Metric.Value") {
		b.SetPressure(item.FloatOr("Pressure.Metric.Value", 0))
	}
	if item.Exists("Wind.Direction.Degrees") {
		b.SetWindDirection(item.FloatOr("Wind.Direction.Degrees", 0))
	}
	if item.Exists("PrecipitationSummary.Precipitation.Metric.Value") {
		b.SetPrecipitation(item.FloatOr("PrecipitationSummary.Precipitation.Metric.Value", 0))
	}
	return b.Build()
}

func mapAccuHourly(item Node, _ time.Time) (weather.Record, error) {
	r := item.Reader()
	date := r.Unix("EpochDateTime")
	temp := r.Float("Temperature.Value")
	unit := r.String("Temperature.Unit")
	code := r.Int("WeatherIcon")
	text := r.String("IconPhrase")
	if err := r.Err(); err != nil {
		return weather.Record{}, err
	}

	b := weather.NewBuilder().
		SetDate(date).
		SetTemperature(temp, scaleOf(unit)).
		SetWeatherCode(code).
		SetDescription(text)

	if item.Exists("PrecipitationProbability") {
		b.SetChanceOfRain(item.FloatOr("PrecipitationProbability", 0))
	}
	if item.Exists("TotalLiquid.Value") {
		b.SetPrecipitation(item.FloatOr("TotalLiquid.Value", 0))
	}
	if item.Exists("RealFeelTemperature.Value") {
		b.SetApparentTemperature(item.FloatOr("RealFeelTemperature.Value", 0), scaleOf(unit))
	}
	if item.Exists("RelativeHumidity") {
		b.SetHumidity(item.FloatOr("RelativeHumidity", 0))
	}
	if item.Exists("Wind.Speed.Value") {
		b.SetWindSpeed(item.FloatOr("Wind.Speed.Value", 0), speedUnitOf(item.Get("Wind.Speed.Unit").str()))
	}
	if item.Exists("Wind.Direction.Degrees") {
		b.SetWindDirection(item.FloatOr("Wind.Direction.Degrees", 0))
	}
	return b.Build()
}

func mapAccuDaily(item Node, _ time.Time) (weather.Record, error) {
	r := item.Reader()
	date := r.Unix("EpochDate")
	minT := r.Float("Temperature.Minimum.Value")
	maxT := r.Float("Temperature.Maximum.Value")
	unit := r.String("Temperature.Maximum.Unit")
	code := r.Int("Day.Icon")
	text := r.String("Day.IconPhrase")
	if err := r.Err(); err != nil {
		return weather.Record{}, err
	}

	b := weather.NewBuilder().
		SetDate(date).
		SetTemperature(maxT, scaleOf(unit)).
		SetMinTemperature(minT, scaleOf(unit)).
		SetMaxTemperature(maxT, scaleOf(unit)).
		SetWeatherCode(code).
		SetDescription(text)

	if item.Exists("Day.PrecipitationProbability") {
		b.SetChanceOfRain(item.FloatOr("Day.PrecipitationProbability", 0))
	}
	if item.Exists("Day.TotalLiquid.Value") {
		b.SetPrecipitation(item.FloatOr("Day.TotalLiquid.Value", 0))
	}
	if item.Exists("RealFeelTemperature.Maximum.Value") {
		b.SetApparentTemperature(item.FloatOr("RealFeelTemperature.Maximum.Value", 0), scaleOf(unit))
	}
	if item.Exists("Day.RelativeHumidity.Average") {
		b.SetHumidity(item.FloatOr("Day.RelativeHumidity.Average", 0))
	}
	if item.Exists("Day.Wind.Speed.Value") {
		b.SetWindSpeed(item.FloatOr("Day.Wind.Speed.Value", 0), speedUnitOf(item.Get("Day.Wind.Speed.Unit").str()))
	}
	if item.Exists("Day.Wind.Direction.Degrees") {
		b.SetWindDirection(item.FloatOr("Day.Wind.Direction.Degrees", 0))
	}
	return b.Build()
}
