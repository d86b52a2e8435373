package providers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
	"github.com/i474232898/weather-provider-gateway/internal/transport"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

// Location is a provider-specific resolved city.
type Location struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Coordinates weather.Coordinates `json:"coordinates"`
}

// AdapterSet holds one adapter per capability. A nil slot means the provider
// does not offer that capability.
type AdapterSet struct {
	Current    weather.CurrentConditions
	Hourly     weather.HourlyForecast
	Daily      weather.DailyForecast
	Historical weather.HistoricalData
}

// Family knows how to resolve locations for a provider and how to build its
// adapters for a resolved location.
type Family interface {
	Name() string
	LocateByCoordinates(ctx context.Context, c weather.Coordinates, lang string) (Location, error)
	LocateByName(ctx context.Context, name, lang string) (Location, error)
	LocateByCode(ctx context.Context, code, lang string) (Location, error)
	ValidCityName(name string) bool
	FormatLanguage(tag language.Tag) string
	Adapters(loc Location, lang string) AdapterSet
}

// CoordinateResolver turns free text into coordinates. Implemented by the
// geocoding package.
type CoordinateResolver interface {
	Resolve(ctx context.Context, text string) (weather.Coordinates, error)
}

// Settings are shared by all families.
type Settings struct {
	APIKey string
	Client transport.Client
	Logger logger.Logger
	// Clock overrides time.Now for adapters and mappers.
	Clock func() time.Time
}

var cityNamePattern = regexp.MustCompile(`^[\p{L}\p{M}][\p{L}\p{M} .,'’-]{0,84}$`)

type family struct {
	name   string
	apiKey string
	client transport.Client
	log    logger.Logger
	clock  func() time.Time
}

func newFamily(name string, s Settings) family {
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	return family{
		name:   name,
		apiKey: s.APIKey,
		client: s.Client,
		log:    s.Logger,
		clock:  clock,
	}
}

func (f family) Name() string { return f.name }

// ValidCityName accepts letters, spaces and the punctuation found in place
// names.
func (f family) ValidCityName(name string) bool {
	return cityNamePattern.MatchString(strings.TrimSpace(name))
}

func (f family) target(loc Location, lang string) Target {
	return Target{
		Provider:    f.name,
		APIKey:      f.apiKey,
		CityID:      loc.ID,
		Coordinates: loc.Coordinates,
		Language:    lang,
	}
}

func (f family) adapter(loc Location, lang string, ep Endpoint) *Adapter {
	return NewAdapter(f.client, f.target(loc, lang), ep, WithClock(f.clock), WithLogger(f.log))
}

func (f family) lookup(ctx context.Context, resource string, params map[string]string) (Node, error) {
	return Fetch(ctx, f.client, f.name, resource, params)
}

// ParseLanguage validates a BCP 47 language code.
func ParseLanguage(code string) (language.Tag, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", weather.ErrInvalidLanguage, code)
	}
	return tag, nil
}

func baseLanguage(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

func regionalLanguage(tag language.Tag, sep string) string {
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf != language.Exact {
		return base.String()
	}
	return base.String() + sep + strings.ToLower(region.String())
}

func noLocation(provider, query string) error {
	return &weather.LocationError{Provider: provider, Query: query, Err: weather.ErrNoLocationFound}
}

func ambiguous(provider, query string, matches int) error {
	return &weather.LocationError{Provider: provider, Query: query, Matches: matches, Err: weather.ErrAmbiguousLocation}
}

func scaleOf(unit string) weather.Scale {
	switch strings.ToUpper(unit) {
	case "C":
		return weather.Celsius
	case "F":
		return weather.Fahrenheit
	default:
		return weather.Scale(unit)
	}
}

func speedUnitOf(unit string) weather.SpeedUnit {
	switch strings.ToLower(unit) {
	case "km/h", "kph":
		return weather.KilometersPerHour
	case "m/s", "mps":
		return weather.MetersPerSecond
	case "mi/h", "mph":
		return weather.MilesPerHour
	default:
		return weather.SpeedUnit(unit)
	}
}
