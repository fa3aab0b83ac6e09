package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-proxy/internal/weather"
)

var validate = validator.New()

const (
	msgCityNotFound         = "Ciudad no encontrada. Verifica el nombre e intenta nuevamente."
	msgWeatherInternal      = "Error interno del servidor al obtener el clima"
	msgWeatherByCoords      = "Error al obtener el clima por coordenadas"
	msgForecastCityNotFound = "Ciudad no encontrada para el pronóstico. Verifica el nombre e intenta nuevamente."
	msgForecastInternal     = "Error al obtener el pronóstico detallado"
	msgForecastByCoords     = "Error al obtener el pronóstico por coordenadas"
	msgInvalidCoordinates   = "Latitud y longitud deben ser números válidos"
	msgRouteNotFound        = "Ruta no encontrada"
)

var errInvalidDays = errors.New("days debe ser un número entero entre 1 y 5")

// healthProbeHistory is how many recent probes /health reports.
const healthProbeHistory = 5

// availableEndpoints is returned with every 404 for unmatched routes.
var availableEndpoints = []string{
	"GET /api/test",
	"GET /api/debug/test-api",
	"GET /api/weather/:city",
	"GET /api/weather/coords/:lat/:lon",
	"GET /api/forecast/:city",
	"GET /api/forecast/coords/:lat/:lon",
}

type handlers struct {
	service *weather.Service
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. The catch-all 404
// handler is registered last, so call this after any other routes.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	h := &handlers{service: service}

	app.Get("/health", h.health)

	api := app.Group("/api")

	// Coordinate routes go first so "coords" is never taken as a city name.
	api.Get("/weather/coords/:lat/:lon", h.weatherByCoordinates)
	api.Get("/weather/:city?", h.weatherByCity)
	api.Get("/forecast/coords/:lat/:lon", h.forecastByCoordinates)
	api.Get("/forecast/:city?", h.forecastByCity)

	api.Get("/test", h.test)
	api.Get("/debug/test-api", h.testAPI)
	api.Get("/saludo", h.saludo)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":              msgRouteNotFound,
			"availableEndpoints": availableEndpoints,
		})
	})
}

func (h *handlers) weatherByCity(c *fiber.Ctx) error {
	rec, err := h.service.CurrentByCity(c.UserContext(), c.Params("city"))
	if err != nil {
		var verr *weather.ValidationError
		switch {
		case errors.As(err, &verr):
			return jsonError(c, fiber.StatusBadRequest, verr.Message, nil)
		case errors.Is(err, weather.ErrNotFound):
			return jsonError(c, fiber.StatusNotFound, msgCityNotFound, nil)
		default:
			return jsonError(c, fiber.StatusInternalServerError, msgWeatherInternal, nil)
		}
	}
	return c.JSON(rec)
}

func (h *handlers) weatherByCoordinates(c *fiber.Ctx) error {
	coords, err := parseCoordinates(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	rec, err := h.service.CurrentByCoordinates(c.UserContext(), coords)
	if err != nil {
		var verr *weather.ValidationError
		if errors.As(err, &verr) {
			return jsonError(c, fiber.StatusBadRequest, verr.Message, nil)
		}
		return jsonError(c, fiber.StatusInternalServerError, msgWeatherByCoords, nil)
	}
	return c.JSON(rec)
}

func (h *handlers) forecastByCity(c *fiber.Ctx) error {
	var q forecastQuery
	if err := q.bind(c); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	city := c.Params("city")
	f, err := h.service.ForecastByCity(c.UserContext(), city)
	if err != nil {
		var verr *weather.ValidationError
		switch {
		case errors.As(err, &verr):
			return jsonError(c, fiber.StatusBadRequest, verr.Message, nil)
		case errors.Is(err, weather.ErrNotFound):
			return jsonError(c, fiber.StatusNotFound, msgForecastCityNotFound, nil)
		default:
			return jsonError(c, fiber.StatusInternalServerError, msgForecastInternal, fiber.Map{"city": city})
		}
	}
	return c.JSON(f.LimitDays(q.Days))
}

func (h *handlers) forecastByCoordinates(c *fiber.Ctx) error {
	var q forecastQuery
	if err := q.bind(c); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	coords, err := parseCoordinates(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	f, err := h.service.ForecastByCoordinates(c.UserContext(), coords)
	if err != nil {
		var verr *weather.ValidationError
		if errors.As(err, &verr) {
			return jsonError(c, fiber.StatusBadRequest, verr.Message, nil)
		}
		return jsonError(c, fiber.StatusInternalServerError, msgForecastByCoords, fiber.Map{
			"coordinates": fmt.Sprintf("%s, %s", c.Params("lat"), c.Params("lon")),
		})
	}
	return c.JSON(f.LimitDays(q.Days))
}

func (h *handlers) test(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":   "✅ API del clima con OpenWeatherMap funcionando correctamente! 🌤️",
		"service":   "OpenWeatherMap",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) saludo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"mensaje": "Hola! Bienvenido a la aplicación del clima 🌞",
		"service": "OpenWeatherMap",
		"status":  "online",
	})
}

// testAPI runs a live probe against the provider.
func (h *handlers) testAPI(c *fiber.Ctx) error {
	res := h.service.Probe(c.UserContext())
	ts := time.Now().UTC().Format(time.RFC3339)

	if !res.Success {
		body := fiber.Map{
			"success":   false,
			"message":   "❌ OpenWeatherMap API con problemas",
			"timestamp": ts,
		}
		if errors.Is(res.Err(), weather.ErrUnauthorized) {
			body["suggestion"] = "Verifica tu API key en https://openweathermap.org/api"
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "✅ OpenWeatherMap API funcionando correctamente",
		"testLocation": res.Location,
		"apiKeyStatus": "Valid",
		"temperature":  res.Temperature,
		"timestamp":    ts,
	})
}

func (h *handlers) health(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":       "ok",
		"service":      "weather-proxy",
		"provider":     h.service.ProviderName(),
		"recentProbes": h.service.RecentProbes(healthProbeHistory),
	}
	if p, ok := h.service.LatestProbe(); ok {
		body["lastProbe"] = p
	}
	return c.JSON(body)
}

func jsonError(c *fiber.Ctx, status int, msg string, debug fiber.Map) error {
	body := fiber.Map{"error": msg}
	if debug != nil {
		body["debug"] = debug
	}
	return c.Status(status).JSON(body)
}

func parseCoordinates(c *fiber.Ctx) (weather.Coordinates, error) {
	lat, err := strconv.ParseFloat(c.Params("lat"), 64)
	if err != nil {
		return weather.Coordinates{}, errors.New(msgInvalidCoordinates)
	}
	lon, err := strconv.ParseFloat(c.Params("lon"), 64)
	if err != nil {
		return weather.Coordinates{}, errors.New(msgInvalidCoordinates)
	}
	return weather.Coordinates{Lat: lat, Lon: lon}, nil
}

// forecastQuery holds the optional query parameters of the forecast endpoints.
// A zero Days means "all days".
type forecastQuery struct {
	Days int `validate:"min=1,max=5"`
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	s := c.Query("days")
	if s == "" {
		return nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return errInvalidDays
	}
	q.Days = n
	if err := validate.Struct(q); err != nil {
		return errInvalidDays
	}
	return nil
}
