package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
	"github.com/i474232898/weather-provider-gateway/internal/store"
)

const (
	defaultInterval = 15 * time.Minute
	jobTimeout      = 30 * time.Second
)

// Warmer lists the stores to keep warm.
type Warmer interface {
	Each(fn func(*store.RepositoryStore))
}

// Scheduler periodically calls every capability of every store so adapter
// caches are refreshed before clients ask.
type Scheduler struct {
	scheduler *gocron.Scheduler
	stores    Warmer
	interval  time.Duration
	log       logger.Logger
}

// New creates a new Scheduler.
func New(stores Warmer, interval time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		stores:    stores,
		interval:  interval,
		log:       logger.Component(log, "scheduler"),
	}
}

// Start schedules the warm-up job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce warms every store once and waits for all fetches to finish.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.log.Debug("running cache warm-up")

	var wg sync.WaitGroup
	s.stores.Each(func(st *store.RepositoryStore) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.warm(ctx, st)
		}()
	})
	wg.Wait()

	s.log.Debug("cache warm-up completed")
}

func (s *Scheduler) warm(ctx context.Context, st *store.RepositoryStore) {
	log := s.log.WithField("provider", st.Provider())
	report := func(capability string, err error) {
		if err != nil {
			log.WithError(err).Warnf("warming %s failed", capability)
		}
	}

	if st.ContainsCurrentWeather() {
		_, err := st.GetCurrentWeather(ctx)
		report("current", err)
	}
	if st.ContainsHourlyForecasts() {
		_, err := st.GetHourlyForecast(ctx)
		report("hourly", err)
	}
	if st.ContainsDailyForecasts() {
		_, err := st.GetDailyForecast(ctx)
		report("daily", err)
	}
	if st.ContainsHistoricalData() {
		_, err := st.GetHistoricalData(ctx)
		report("historical", err)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
