package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are route paths reachable without a token: infrastructure
// probes and the login endpoint itself.
var publicPaths = map[string]bool{
	"/health":         true,
	"/health/db":      true,
	"/metrics":        true,
	"/api/auth/login": true,
}

// AuthSkipper matches on the registered route, so /health?x=1 and friends
// are skipped too.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
