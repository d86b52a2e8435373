package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

// AppConfig holds the service settings.
type AppConfig struct {
	Port     string `mapstructure:"port" validate:"required,numeric"`
	Env      string `mapstructure:"app_env" validate:"oneof=development production test"`
	LogLevel string `mapstructure:"log_level"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gt=0"`
	// RefreshInterval is how often the scheduler warms adapter caches.
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gt=0"`
	// Language is the initial BCP 47 language of every store.
	Language string `mapstructure:"language" validate:"required,bcp47_language_tag"`

	AccuWeatherAPIKey    string `mapstructure:"accuweather_api_key"`
	OpenWeatherAPIKey    string `mapstructure:"openweather_api_key"`
	WeatherbitAPIKey     string `mapstructure:"weatherbit_api_key"`
	GoogleGeocoderAPIKey string `mapstructure:"google_geocoder_api_key"`

	GeocoderCacheTTL time.Duration `mapstructure:"geocoder_cache_ttl" validate:"gt=0"`

	Location LocationConfig `mapstructure:",squash"`
}

// LocationConfig is the starting city. A city name, when set, wins over the
// coordinates and is resolved through the geocoder.
type LocationConfig struct {
	City      string `mapstructure:"weather_location_city"`
	Latitude  string `mapstructure:"weather_location_lat"`
	Longitude string `mapstructure:"weather_location_lon"`
}

// Coordinates parses the configured latitude and longitude.
func (l LocationConfig) Coordinates() (weather.Coordinates, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(l.Latitude), 64)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("invalid WEATHER_LOCATION_LAT: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(l.Longitude), 64)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("invalid WEATHER_LOCATION_LON: %w", err)
	}
	c := weather.Coordinates{Latitude: lat, Longitude: lon}
	if !c.IsValid() {
		return weather.Coordinates{}, fmt.Errorf("%w: %s", weather.ErrInvalidCoordinates, c)
	}
	return c, nil
}

var defaults = map[string]interface{}{
	"port":                    "8080",
	"app_env":                 "development",
	"log_level":               "info",
	"http_timeout":            "10s",
	"refresh_interval":        "15m",
	"language":                "en",
	"accuweather_api_key":     "",
	"openweather_api_key":     "",
	"weatherbit_api_key":      "",
	"google_geocoder_api_key": "",
	"geocoder_cache_ttl":      "24h",
	"weather_location_city":   "",
	"weather_location_lat":    "51.5074",
	"weather_location_lon":    "-0.1278",
}

var validate = validator.New()

// Load reads .env (if present), an optional config.yaml and the environment,
// in increasing order of precedence.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks field tags and the rules that span several fields.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.AccuWeatherAPIKey == "" && c.OpenWeatherAPIKey == "" && c.WeatherbitAPIKey == "" {
		return errors.New("at least one of ACCUWEATHER_API_KEY, OPENWEATHER_API_KEY or WEATHERBIT_API_KEY is required")
	}
	if strings.TrimSpace(c.Location.City) == "" {
		if _, err := c.Location.Coordinates(); err != nil {
			return err
		}
	}
	return nil
}

// HasGeocoder reports whether any geocoding backend is configured.
func (c *AppConfig) HasGeocoder() bool {
	return c.GoogleGeocoderAPIKey != "" || c.OpenWeatherAPIKey != ""
}
