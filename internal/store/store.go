package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
	"github.com/i474232898/weather-provider-gateway/internal/weather/providers"
)

// Initial is the starting location of a store: coordinates, or an opaque
// provider city code.
type Initial struct {
	Coordinates *weather.Coordinates
	Code        string
}

// state is never mutated once published.
type state struct {
	location providers.Location
	tag      language.Tag
	lang     string
	adapters providers.AdapterSet
}

// RepositoryStore owns the adapters of one provider for the current city and
// language. Changes build a complete new state and publish it with one
// pointer swap, so readers see either the old or the new city, never a mix.
type RepositoryStore struct {
	family providers.Family
	log    logger.Logger

	mu    sync.Mutex
	state atomic.Pointer[state]
}

// New resolves the initial location and builds the first adapter set.
func New(ctx context.Context, family providers.Family, initial Initial, lang string, log logger.Logger) (*RepositoryStore, error) {
	s := &RepositoryStore{
		family: family,
		log:    logger.Component(log, "store").WithField("provider", family.Name()),
	}

	tag, err := providers.ParseLanguage(lang)
	if err != nil {
		return nil, err
	}
	formatted := family.FormatLanguage(tag)

	var loc providers.Location
	switch {
	case initial.Coordinates != nil:
		if !initial.Coordinates.IsValid() {
			return nil, fmt.Errorf("%w: %s", weather.ErrInvalidCoordinates, initial.Coordinates)
		}
		loc, err = family.LocateByCoordinates(ctx, *initial.Coordinates, formatted)
	case strings.TrimSpace(initial.Code) != "":
		loc, err = family.LocateByCode(ctx, strings.TrimSpace(initial.Code), formatted)
	default:
		return nil, fmt.Errorf("%s: %w", family.Name(), weather.ErrNoLocationData)
	}
	if err != nil {
		return nil, err
	}

	s.state.Store(s.build(loc, tag, formatted))
	s.log.Infof("initialized for %s (%s), language %s", loc.Name, loc.ID, formatted)
	return s, nil
}

func (s *RepositoryStore) build(loc providers.Location, tag language.Tag, lang string) *state {
	return &state{
		location: loc,
		tag:      tag,
		lang:     lang,
		adapters: s.family.Adapters(loc, lang),
	}
}

func (s *RepositoryStore) current() *state {
	return s.state.Load()
}

// ChangeCityByCoordinates moves the store to the city at c. On any failure
// the store keeps its previous city and adapters.
func (s *RepositoryStore) ChangeCityByCoordinates(ctx context.Context, c weather.Coordinates) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: %s", weather.ErrInvalidCoordinates, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	loc, err := s.family.LocateByCoordinates(ctx, c, cur.lang)
	if err != nil {
		return err
	}
	return s.swap(ctx, loc, cur)
}

// ChangeCityByName moves the store to the only city matching name.
func (s *RepositoryStore) ChangeCityByName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || !s.family.ValidCityName(name) {
		return fmt.Errorf("%w: %q", weather.ErrInvalidCityName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	loc, err := s.family.LocateByName(ctx, name, cur.lang)
	if err != nil {
		return err
	}
	return s.swap(ctx, loc, cur)
}

func (s *RepositoryStore) swap(ctx context.Context, loc providers.Location, cur *state) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state.Store(s.build(loc, cur.tag, cur.lang))
	s.log.WithFields(map[string]interface{}{
		"from": cur.location.ID,
		"to":   loc.ID,
	}).Infof("city changed to %s", loc.Name)
	return nil
}

// ChangeLanguage rebuilds every adapter for the same city in the new
// language. It makes no network call.
func (s *RepositoryStore) ChangeLanguage(code string) error {
	tag, err := providers.ParseLanguage(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	lang := s.family.FormatLanguage(tag)
	s.state.Store(s.build(cur.location, tag, lang))
	s.log.Infof("language changed from %s to %s", cur.lang, lang)
	return nil
}

func (s *RepositoryStore) unsupported(capability string) error {
	return fmt.Errorf("%s %s: %w", s.family.Name(), capability, weather.ErrCapabilityUnsupported)
}

// GetCurrentWeather reads through the current adapter. It fails with
// weather.ErrCapabilityUnsupported when the provider has none.
func (s *RepositoryStore) GetCurrentWeather(ctx context.Context) (weather.Record, error) {
	a := s.current().adapters.Current
	if a == nil {
		return weather.Record{}, s.unsupported("current")
	}
	return a.GetCurrentWeather(ctx)
}

func (s *RepositoryStore) GetHourlyForecast(ctx context.Context) ([]weather.Record, error) {
	a := s.current().adapters.Hourly
	if a == nil {
		return nil, s.unsupported("hourly")
	}
	return a.GetHourlyForecast(ctx)
}

func (s *RepositoryStore) GetDailyForecast(ctx context.Context) ([]weather.Record, error) {
	a := s.current().adapters.Daily
	if a == nil {
		return nil, s.unsupported("daily")
	}
	return a.GetDailyForecast(ctx)
}

func (s *RepositoryStore) GetHistoricalData(ctx context.Context) ([]weather.Record, error) {
	a := s.current().adapters.Historical
	if a == nil {
		return nil, s.unsupported("historical")
	}
	return a.GetHistoricalData(ctx)
}

// Contains* report which capabilities the current adapter set provides.
func (s *RepositoryStore) ContainsCurrentWeather() bool { return s.current().adapters.Current != nil }

func (s *RepositoryStore) ContainsHourlyForecasts() bool { return s.current().adapters.Hourly != nil }

func (s *RepositoryStore) ContainsDailyForecasts() bool { return s.current().adapters.Daily != nil }

func (s *RepositoryStore) ContainsHistoricalData() bool {
	return s.current().adapters.Historical != nil
}

func (s *RepositoryStore) Provider() string { return s.family.Name() }

func (s *RepositoryStore) CityID() string { return s.current().location.ID }

func (s *RepositoryStore) CityName() string { return s.current().location.Name }

func (s *RepositoryStore) Coordinates() weather.Coordinates { return s.current().location.Coordinates }

// Language is the language code in the provider's own format.
func (s *RepositoryStore) Language() string { return s.current().lang }

// LanguageTag is the parsed language the store was configured with.
func (s *RepositoryStore) LanguageTag() language.Tag { return s.current().tag }

// Adapters returns the adapter set currently owned by the store.
func (s *RepositoryStore) Adapters() providers.AdapterSet { return s.current().adapters }

// Capabilities reports which capabilities the provider offers.
type Capabilities struct {
	Current    bool `json:"current"`
	Hourly     bool `json:"hourly"`
	Daily      bool `json:"daily"`
	Historical bool `json:"historical"`
}

// Info describes a store at one instant.
type Info struct {
	Provider     string              `json:"provider"`
	CityID       string              `json:"cityId"`
	CityName     string              `json:"cityName"`
	Coordinates  weather.Coordinates `json:"coordinates"`
	Language     string              `json:"language"`
	Capabilities Capabilities        `json:"capabilities"`
}

// Describe reads all store properties from a single snapshot.
func (s *RepositoryStore) Describe() Info {
	st := s.current()
	return Info{
		Provider:    s.family.Name(),
		CityID:      st.location.ID,
		CityName:    st.location.Name,
		Coordinates: st.location.Coordinates,
		Language:    st.lang,
		Capabilities: Capabilities{
			Current:    st.adapters.Current != nil,
			Hourly:     st.adapters.Hourly != nil,
			Daily:      st.adapters.Daily != nil,
			Historical: st.adapters.Historical != nil,
		},
	}
}
