package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/observability"
)

// Observability records request metrics and one access log line per /api call.
// Route labels use the registered template so ids do not explode cardinality.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), "/api/") {
			return err
		}

		elapsed := time.Since(started)
		status := c.Response().StatusCode()
		labels := requestLabels{method: c.Method(), route: matchedRoute(c), status: strconv.Itoa(status)}
		labels.record(elapsed, status)

		event := accessLogEvent(logger, status).
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", labels.method).
			Str("route", labels.route).
			Int("status", status).
			Dur("latency", elapsed)
		if userID, ok := c.Locals("user_id").(uint); ok {
			event = event.Uint("user_id", userID)
		}
		if role, ok := c.Locals("user_role").(string); ok && role != "" {
			event = event.Str("role", role)
		}
		event.Msg("request")

		return err
	}
}

type requestLabels struct {
	method string
	route  string
	status string
}

func (l requestLabels) record(elapsed time.Duration, status int) {
	observability.HTTPRequests().WithLabelValues(l.method, l.route, l.status).Inc()
	observability.HTTPLatency().WithLabelValues(l.method, l.route).Observe(elapsed.Seconds())
	if status >= fiber.StatusBadRequest {
		observability.HTTPErrors().WithLabelValues(l.method, l.route, l.status).Inc()
	}
}

func accessLogEvent(logger zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= fiber.StatusInternalServerError:
		return logger.Error()
	case status >= fiber.StatusBadRequest:
		return logger.Warn()
	default:
		return logger.Debug()
	}
}

func matchedRoute(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}
