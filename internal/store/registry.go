package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

// ErrUnknownProvider is returned for a provider name with no store.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry holds one RepositoryStore per configured provider.
type Registry struct {
	stores map[string]*RepositoryStore
	log    logger.Logger
}

// NewRegistry indexes stores by provider name. A later store with the same
// name replaces an earlier one.
func NewRegistry(log logger.Logger, stores ...*RepositoryStore) *Registry {
	r := &Registry{
		stores: make(map[string]*RepositoryStore, len(stores)),
		log:    logger.Component(log, "registry"),
	}
	for _, s := range stores {
		r.stores[s.Provider()] = s
	}
	return r
}

// Get returns the store for a provider, or ErrUnknownProvider.
func (r *Registry) Get(name string) (*RepositoryStore, error) {
	s, ok := r.stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return s, nil
}

// Names returns the configured provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each calls fn for every store in name order.
func (r *Registry) Each(fn func(*RepositoryStore)) {
	for _, name := range r.Names() {
		fn(r.stores[name])
	}
}

// Reading is one provider's current observation.
type Reading struct {
	Provider string         `json:"provider"`
	Record   weather.Record `json:"record"`
}

// Consensus combines the current observation of every provider that answered.
type Consensus struct {
	Record   weather.Record    `json:"record"`
	Readings []Reading         `json:"readings"`
	Failures map[string]string `json:"failures,omitempty"`
}

// CurrentFromAll asks every store for current conditions concurrently and
// aggregates the successful readings. It fails only when no provider answers.
func (r *Registry) CurrentFromAll(ctx context.Context) (Consensus, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []Reading
		failures = make(map[string]string)
		errs     []error
	)

	for _, s := range r.stores {
		if !s.ContainsCurrentWeather() {
			continue
		}
		wg.Add(1)
		go func(s *RepositoryStore) {
			defer wg.Done()

			rec, err := s.GetCurrentWeather(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.log.WithError(err).Warnf("current conditions from %s failed", s.Provider())
				failures[s.Provider()] = err.Error()
				errs = append(errs, err)
				return
			}
			readings = append(readings, Reading{Provider: s.Provider(), Record: rec})
		}(s)
	}
	wg.Wait()

	if len(readings) == 0 {
		if len(errs) == 0 {
			return Consensus{}, weather.ErrNoReadings
		}
		return Consensus{}, fmt.Errorf("%w: %w", weather.ErrNoReadings, errors.Join(errs...))
	}

	sort.Slice(readings, func(i, j int) bool { return readings[i].Provider < readings[j].Provider })
	records := make([]weather.Record, len(readings))
	for i, rd := range readings {
		records[i] = rd.Record
	}

	rec, err := weather.Aggregate(records)
	if err != nil {
		return Consensus{}, err
	}
	if len(failures) == 0 {
		failures = nil
	}
	return Consensus{Record: rec, Readings: readings, Failures: failures}, nil
}
