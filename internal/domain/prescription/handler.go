package prescription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rxpad/rxpad/pkg/pagination"
)

// PDFRoute is the one route that also accepts its token as a query
// parameter, so links opened in a new tab can authenticate.
const PDFRoute = "/prescriptions/:id/pdf"

// Renderer turns a stored prescription into a printable PDF.
type Renderer interface {
	Render(ctx context.Context, p *Prescription) ([]byte, error)
}

type Handler struct {
	svc      *Service
	renderer Renderer
}

func NewHandler(svc *Service, renderer Renderer) *Handler {
	return &Handler{svc: svc, renderer: renderer}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/prescriptions", h.Create)
	api.GET("/prescriptions", h.List)
	api.GET("/prescriptions/:id", h.Get)
	api.DELETE("/prescriptions/:id", h.Delete)
	api.GET(PDFRoute, h.PDF)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Prescription not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("patient_name"), pagination.List.Limit(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Prescription deleted successfully"})
}

// PDF renders the prescription. inline (default true) only changes the
// Content-Disposition header, never the bytes.
func (h *Handler) PDF(c echo.Context) error {
	inline := true
	if raw := c.QueryParam("inline"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "inline must be true or false")
		}
		inline = v
	}

	ctx := c.Request().Context()
	p, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	body, err := h.renderer.Render(ctx, p)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, ContentDisposition(p.ID, inline))
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.Blob(http.StatusOK, "application/pdf", body)
}

func ContentDisposition(id string, inline bool) string {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	return fmt.Sprintf(`%s; filename="prescription_%s.pdf"`, disposition, id)
}
