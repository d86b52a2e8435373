package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	httpapi "github.com/i474232898/weather-provider-gateway/internal/api/http"
	"github.com/i474232898/weather-provider-gateway/internal/config"
	"github.com/i474232898/weather-provider-gateway/internal/geocoding"
	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
	"github.com/i474232898/weather-provider-gateway/internal/scheduler"
	"github.com/i474232898/weather-provider-gateway/internal/store"
	"github.com/i474232898/weather-provider-gateway/internal/transport"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
	"github.com/i474232898/weather-provider-gateway/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog := logger.New(cfg.LogLevel, cfg.Env)
	appLog.WithFields(map[string]interface{}{
		"env":      cfg.Env,
		"port":     cfg.Port,
		"language": cfg.Language,
	}).Info("starting " + httpapi.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := func(name, baseURL string) transport.Client {
		return transport.NewRestyClient(transport.Config{
			Name:    name,
			BaseURL: baseURL,
			Timeout: cfg.HTTPTimeout,
		}, appLog)
	}

	geocoder := newGeocoder(cfg, client, appLog)

	initial, err := initialCoordinates(ctx, cfg, geocoder)
	if err != nil {
		appLog.Fatalf("failed to resolve initial location: %v", err)
	}

	var families []providers.Family
	if cfg.AccuWeatherAPIKey != "" {
		families = append(families, providers.NewAccuWeather(providers.Settings{
			APIKey: cfg.AccuWeatherAPIKey,
			Client: client(providers.AccuWeatherName, providers.AccuWeatherBaseURL),
			Logger: appLog,
		}))
	}
	if cfg.OpenWeatherAPIKey != "" {
		families = append(families, providers.NewOpenWeatherMap(providers.Settings{
			APIKey: cfg.OpenWeatherAPIKey,
			Client: client(providers.OpenWeatherMapName, providers.OpenWeatherMapBaseURL),
			Logger: appLog,
		}))
	}
	if cfg.WeatherbitAPIKey != "" {
		families = append(families, providers.NewWeatherbit(providers.Settings{
			APIKey: cfg.WeatherbitAPIKey,
			Client: client(providers.WeatherbitName, providers.WeatherbitBaseURL),
			Logger: appLog,
		}, geocoder))
	}

	var stores []*store.RepositoryStore
	for _, family := range families {
		c := initial
		s, err := store.New(ctx, family, store.Initial{Coordinates: &c}, cfg.Language, appLog)
		if err != nil {
			appLog.WithError(err).Errorf("skipping provider %s", family.Name())
			continue
		}
		stores = append(stores, s)
	}
	if len(stores) == 0 {
		appLog.Fatalf("no provider could be initialized")
	}
	registry := store.NewRegistry(appLog, stores...)

	sched := scheduler.New(registry, cfg.RefreshInterval, appLog)
	if err := sched.Start(); err != nil {
		appLog.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(registry, fiberlogger.New())

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLog.WithError(err).Error("fiber server stopped")
		}
	}()
	appLog.Infof("listening on :%s with providers %v", cfg.Port, registry.Names())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.WithError(err).Error("error during shutdown")
	}
}

// newGeocoder prefers Google and falls back to OpenWeatherMap geocoding.
// It returns nil when neither key is configured.
func newGeocoder(cfg *config.AppConfig, client func(name, baseURL string) transport.Client, log logger.Logger) geocoding.Resolver {
	if !cfg.HasGeocoder() {
		return nil
	}
	var next geocoding.Resolver
	if cfg.GoogleGeocoderAPIKey != "" {
		next = geocoding.NewGoogle(cfg.GoogleGeocoderAPIKey, log)
	} else {
		next = geocoding.NewOpenWeather(client(geocoding.OpenWeatherName, geocoding.OpenWeatherBaseURL), cfg.OpenWeatherAPIKey, log)
	}
	return geocoding.NewCached(next, cfg.GeocoderCacheTTL)
}

func initialCoordinates(ctx context.Context, cfg *config.AppConfig, geocoder geocoding.Resolver) (weather.Coordinates, error) {
	if cfg.Location.City == "" {
		return cfg.Location.Coordinates()
	}
	if geocoder == nil {
		return weather.Coordinates{}, weather.ErrNoLocationData
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
	defer cancel()
	return geocoder.Resolve(ctx, cfg.Location.City)
}
