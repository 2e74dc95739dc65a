package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Bounds describes how a `limit` query parameter is interpreted for one
// endpoint: absent or non-positive values fall back to Default, values above
// Max are clamped to Max.
type Bounds struct {
	Default int
	Max     int
}

var (
	// Search bounds catalog autocomplete lookups.
	Search = Bounds{Default: 50, Max: 50}
	// List bounds full listings (prescription history, medicine catalog).
	List = Bounds{Default: 1000, Max: 1000}
)

// Limit extracts the effective limit from the echo context.
func (b Bounds) Limit(c echo.Context) int {
	return b.Clamp(c.QueryParam("limit"))
}

// Clamp parses raw and applies the bounds.
func (b Bounds) Clamp(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		limit = b.Default
	}
	if limit > b.Max {
		limit = b.Max
	}
	return limit
}
