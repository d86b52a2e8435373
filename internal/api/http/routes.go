package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weather-provider-gateway/internal/store"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

const ServiceName = "weather-provider-gateway"

var validate = validator.New()

// NewApp builds the Fiber app with the JSON error handler and all routes.
// middleware runs before every route.
func NewApp(registry *store.Registry, middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	for _, m := range middleware {
		app.Use(m)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": ServiceName,
		})
	})

	RegisterRoutes(app, registry)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, registry *store.Registry) {
	h := &handler{registry: registry}

	v1 := app.Group("/api/v1")
	v1.Get("/providers", h.listProviders)
	v1.Get("/providers/:provider", h.describe)
	v1.Get("/providers/:provider/current", h.current)
	v1.Get("/providers/:provider/hourly", h.records(func(ctx context.Context, s *store.RepositoryStore) ([]weather.Record, error) {
		return s.GetHourlyForecast(ctx)
	}))
	v1.Get("/providers/:provider/daily", h.records(func(ctx context.Context, s *store.RepositoryStore) ([]weather.Record, error) {
		return s.GetDailyForecast(ctx)
	}))
	v1.Get("/providers/:provider/historical", h.records(func(ctx context.Context, s *store.RepositoryStore) ([]weather.Record, error) {
		return s.GetHistoricalData(ctx)
	}))
	v1.Put("/providers/:provider/city", h.changeCity)
	v1.Put("/providers/:provider/language", h.changeLanguage)
	v1.Get("/consensus/current", h.consensus)
}

type handler struct {
	registry *store.Registry
}

func (h *handler) store(c *fiber.Ctx) (*store.RepositoryStore, error) {
	s, err := h.registry.Get(c.Params("provider"))
	if err != nil {
		return nil, toHTTPError(err)
	}
	return s, nil
}

func (h *handler) listProviders(c *fiber.Ctx) error {
	infos := make([]store.Info, 0, len(h.registry.Names()))
	h.registry.Each(func(s *store.RepositoryStore) {
		infos = append(infos, s.Describe())
	})
	return c.JSON(fiber.Map{"providers": infos})
}

func (h *handler) describe(c *fiber.Ctx) error {
	s, err := h.store(c)
	if err != nil {
		return err
	}
	return c.JSON(s.Describe())
}

func (h *handler) current(c *fiber.Ctx) error {
	s, err := h.store(c)
	if err != nil {
		return err
	}
	rec, err := s.GetCurrentWeather(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{
		"provider": s.Provider(),
		"cityId":   s.CityID(),
		"language": s.Language(),
		"record":   rec,
	})
}

func (h *handler) records(get func(context.Context, *store.RepositoryStore) ([]weather.Record, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := h.store(c)
		if err != nil {
			return err
		}
		records, err := get(c.UserContext(), s)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"provider": s.Provider(),
			"cityId":   s.CityID(),
			"language": s.Language(),
			"records":  records,
		})
	}
}

// cityRequest selects a city by name or by coordinates.
type cityRequest struct {
	Name      string   `json:"name" validate:"omitempty,max=85"`
	Latitude  *float64 `json:"latitude" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"required_with=Latitude,omitempty,longitude"`
}

func (h *handler) changeCity(c *fiber.Ctx) error {
	s, err := h.store(c)
	if err != nil {
		return err
	}

	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	switch {
	case req.Latitude != nil && req.Longitude != nil:
		err = s.ChangeCityByCoordinates(c.UserContext(), weather.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude})
	case req.Name != "":
		err = s.ChangeCityByName(c.UserContext(), req.Name)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "either name or latitude and longitude are required")
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(s.Describe())
}

type languageRequest struct {
	Language string `json:"language" validate:"required,bcp47_language_tag"`
}

func (h *handler) changeLanguage(c *fiber.Ctx) error {
	s, err := h.store(c)
	if err != nil {
		return err
	}

	var req languageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := s.ChangeLanguage(req.Language); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(s.Describe())
}

func (h *handler) consensus(c *fiber.Ctx) error {
	result, err := h.registry.CurrentFromAll(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(result)
}

// toHTTPError maps domain errors to status codes.
func toHTTPError(err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrUnknownProvider),
		errors.Is(err, weather.ErrNoLocationFound):
		code = fiber.StatusNotFound
	case errors.Is(err, weather.ErrInvalidCoordinates),
		errors.Is(err, weather.ErrInvalidCityName),
		errors.Is(err, weather.ErrInvalidLanguage),
		errors.Is(err, weather.ErrNoLocationData):
		code = fiber.StatusBadRequest
	case errors.Is(err, weather.ErrAmbiguousLocation):
		code = fiber.StatusConflict
	case errors.Is(err, weather.ErrCapabilityUnsupported):
		code = fiber.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusGatewayTimeout
	case errors.Is(err, weather.ErrTransport),
		errors.Is(err, weather.ErrEmptyResponse),
		errors.Is(err, weather.ErrMalformedResponse),
		errors.Is(err, weather.ErrNoReadings):
		code = fiber.StatusBadGateway
	}
	return fiber.NewError(code, err.Error())
}
