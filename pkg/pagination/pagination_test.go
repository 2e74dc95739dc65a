package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestLimit_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if got := Search.Limit(c); got != 50 {
		t.Errorf("expected default search limit 50, got %d", got)
	}
	if got := List.Limit(c); got != 1000 {
		t.Errorf("expected default list limit 1000, got %d", got)
	}
}

func TestLimit_CustomValue(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if got := Search.Limit(c); got != 10 {
		t.Errorf("expected limit 10, got %d", got)
	}
}

func TestClamp(t *testing.T) {
	b := Bounds{Default: 20, Max: 100}
	tests := []struct {
		raw  string
		want int
	}{
		{"", 20},
		{"abc", 20},
		{"0", 20},
		{"-5", 20},
		{"1", 1},
		{"100", 100},
		{"5000", 100},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := b.Clamp(tt.raw); got != tt.want {
				t.Errorf("Clamp(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
