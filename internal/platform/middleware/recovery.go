package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rxpad/rxpad/internal/platform/auth"
	"github.com/rxpad/rxpad/internal/platform/metrics"
)

const stackSize = 8 << 10

// Recovery turns a handler panic into a 500, logged and counted against the
// route pattern. http.ErrAbortHandler is re-panicked for net/http.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				stack := make([]byte, stackSize)
				stack = stack[:runtime.Stack(stack, false)]
				route := routeOf(c)
				metrics.HTTPPanics.WithLabelValues(c.Request().Method, route).Inc()

				event := logger.Error().
					Str("request_id", requestID(c)).
					Str("method", c.Request().Method).
					Str("route", route).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", stack)
				if user := auth.UsernameFromContext(c.Request().Context()); user != "" {
					event = event.Str("username", user)
				}
				event.Msg("panic recovered")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}

func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}
