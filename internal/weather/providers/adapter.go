package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
	"github.com/i474232898/weather-provider-gateway/internal/transport"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

// FreshnessWindow is how long a fetched result is served from cache.
const FreshnessWindow = 30 * time.Minute

// Target is what an adapter fetches data for.
type Target struct {
	Provider    string
	APIKey      string
	CityID      string
	Coordinates weather.Coordinates
	Language    string
}

// Mapper turns one raw response item into a canonical record. now is the
// adapter clock, used when the provider omits a timestamp.
type Mapper func(item Node, now time.Time) (weather.Record, error)

// Endpoint describes one provider capability: where to ask, what to send and
// how to read the answer.
type Endpoint struct {
	Capability string
	Resource   func(t Target) string
	Params     func(t Target, now time.Time) map[string]string
	// Items is the gjson path of the result collection; empty means the
	// document root.
	Items string
	Map   Mapper
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) {
		a.log = l
	}
}

// Adapter fetches one capability of one provider, normalizes the response and
// caches the result for FreshnessWindow.
//
// Fetches are serialized: concurrent callers on a cache miss wait for the one
// in flight and then read its result. A failed or cancelled fetch keeps the
// previous cache entry.
type Adapter struct {
	target   Target
	endpoint Endpoint
	client   transport.Client
	now      func() time.Time
	log      logger.Logger

	inflight *semaphore.Weighted

	mu        sync.RWMutex
	cached    []weather.Record
	fetchedAt time.Time
}

// NewAdapter returns an Adapter that fetches endpoint for target. Nothing is
// fetched until the first GetWeatherData call.
func NewAdapter(client transport.Client, target Target, endpoint Endpoint, opts ...Option) *Adapter {
	a := &Adapter{
		target:   target,
		endpoint: endpoint,
		client:   client,
		now:      time.Now,
		inflight: semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logger.Component(a.log, "adapter").WithFields(map[string]interface{}{
		"provider":   target.Provider,
		"capability": endpoint.Capability,
		"city":       target.CityID,
	})
	return a
}

// Provider, CityID and Language describe the target the adapter serves.
func (a *Adapter) Provider() string { return a.target.Provider }

func (a *Adapter) CityID() string { return a.target.CityID }

func (a *Adapter) Language() string { return a.target.Language }

// Capability names the endpoint kind: current, hourly, daily or historical.
func (a *Adapter) Capability() string { return a.endpoint.Capability }

// FetchedAt reports when the cached result was fetched; zero if never.
func (a *Adapter) FetchedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fetchedAt
}

// Invalidate drops the cached result.
func (a *Adapter) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cached, a.fetchedAt = nil, time.Time{}
}

func (a *Adapter) fresh(now time.Time) ([]weather.Record, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.fetchedAt.IsZero() || now.Sub(a.fetchedAt) >= FreshnessWindow {
		return nil, false
	}
	return append([]weather.Record(nil), a.cached...), true
}

// GetWeatherData returns the cached records while they are fresh, otherwise
// fetches, normalizes and caches a new set.
func (a *Adapter) GetWeatherData(ctx context.Context) ([]weather.Record, error) {
	if err := a.inflight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer a.inflight.Release(1)

	now := a.now()
	if records, ok := a.fresh(now); ok {
		a.log.Debug("serving cached data")
		return records, nil
	}

	records, err := a.fetch(ctx, now)
	if err != nil {
		a.log.WithError(err).Warn("fetch failed")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.cached, a.fetchedAt = records, now
	a.mu.Unlock()

	a.log.Infof("fetched %d records", len(records))
	return append([]weather.Record(nil), records...), nil
}

func (a *Adapter) fetch(ctx context.Context, now time.Time) ([]weather.Record, error) {
	resource := a.endpoint.Resource(a.target)

	var params map[string]string
	if a.endpoint.Params != nil {
		params = a.endpoint.Params(a.target, now)
	}

	root, err := Fetch(ctx, a.client, a.target.Provider, resource, params)
	if err != nil {
		return nil, err
	}

	items, err := root.Items(a.endpoint.Items)
	if err != nil {
		return nil, annotate(err, a.target.Provider, resource)
	}
	if len(items) == 0 {
		return nil, &weather.ResponseError{Provider: a.target.Provider, Resource: resource, Err: weather.ErrEmptyResponse}
	}

	records := make([]weather.Record, 0, len(items))
	for _, item := range items {
		rec, err := a.endpoint.Map(item, now)
		if err != nil {
			return nil, annotate(err, a.target.Provider, resource)
		}
		records = append(records, rec)
	}
	return records, nil
}

// request executes a GET and parses the body, applying the shared error
// taxonomy. It is also used for one-off location lookups.
// Fetch performs one GET against a provider and parses the body. Network
// failures and error statuses become weather.TransportError; empty or invalid
// bodies fail with weather.ErrEmptyResponse.
func Fetch(ctx context.Context, client transport.Client, provider, resource string, params map[string]string) (Node, error) {
	resp, err := client.Execute(ctx, transport.Request{Resource: resource, Query: params})
	if err != nil {
		return Node{}, &weather.TransportError{Provider: provider, Resource: resource, Message: err.Error(), Cause: err}
	}
	if !resp.Success {
		return Node{}, &weather.TransportError{
			Provider:   provider,
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Message:    resp.ErrorMessage,
		}
	}

	root, err := ParseBody(resp.Body)
	if err != nil {
		return Node{}, annotate(err, provider, resource)
	}
	return root, nil
}

func annotate(err error, provider, resource string) error {
	var re *weather.ResponseError
	if errors.As(err, &re) {
		if re.Provider == "" {
			re.Provider = provider
			re.Resource = resource
		}
		return err
	}
	return fmt.Errorf("%s %s: %w", provider, resource, err)
}

// CurrentAdapter exposes an Adapter as weather.CurrentConditions.
type CurrentAdapter struct {
	*Adapter
}

// GetCurrentWeather returns the first record of the current-conditions
// response.
func (c *CurrentAdapter) GetCurrentWeather(ctx context.Context) (weather.Record, error) {
	records, err := c.GetWeatherData(ctx)
	if err != nil {
		return weather.Record{}, err
	}
	return records[0], nil
}

// HourlyAdapter exposes an Adapter as weather.HourlyForecast.
type HourlyAdapter struct {
	*Adapter
	horizon int
}

func (h *HourlyAdapter) GetHourlyForecast(ctx context.Context) ([]weather.Record, error) {
	return h.GetWeatherData(ctx)
}

// ForecastHorizon is the number of hours the forecast covers.
func (h *HourlyAdapter) ForecastHorizon() int { return h.horizon }

// DailyAdapter exposes an Adapter as weather.DailyForecast.
type DailyAdapter struct {
	*Adapter
}

func (d *DailyAdapter) GetDailyForecast(ctx context.Context) ([]weather.Record, error) {
	return d.GetWeatherData(ctx)
}

// HistoricalAdapter exposes an Adapter as weather.HistoricalData.
type HistoricalAdapter struct {
	*Adapter
	horizon  time.Duration
	interval time.Duration
}

func (h *HistoricalAdapter) GetHistoricalData(ctx context.Context) ([]weather.Record, error) {
	return h.GetWeatherData(ctx)
}

// HistoryHorizon is how far back the data reaches.
func (h *HistoricalAdapter) HistoryHorizon() time.Duration { return h.horizon }

// SamplingInterval is the spacing between historical records.
func (h *HistoricalAdapter) SamplingInterval() time.Duration { return h.interval }
