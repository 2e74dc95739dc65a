package catalog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rxpad/rxpad/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the catalog endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/medicines/search", h.SearchMedicines)
	api.GET("/patients/search", h.SearchPatients)
	api.GET("/investigations/search", h.SearchInvestigations)
	api.GET("/diagnosis-investigations/search", h.SearchDiagnosisInvestigations)

	api.POST("/medicines/save", h.SaveMedicine)
	api.POST("/investigations/save", h.SaveInvestigation)
	api.POST("/diagnosis-investigations/save", h.SaveDiagnosisInvestigation)

	api.GET("/medicines", h.ListMedicines)
	api.DELETE("/medicines/:id", h.DeleteMedicine)
}

// saveResponse is the body returned by the explicit save endpoints.
type saveResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Exists  bool   `json:"exists"`
}

func newSaveResponse(res *SaveResult, what string) saveResponse {
	msg := what + " saved"
	if res.Exists {
		msg = what + " already exists"
	}
	return saveResponse{Message: msg, ID: res.ID, Exists: res.Exists}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// -- Search --

func (h *Handler) SearchMedicines(c echo.Context) error {
	items, err := h.svc.SearchMedicines(c.Request().Context(), c.QueryParam("q"), pagination.Search.Limit(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	items, err := h.svc.SearchPatients(c.Request().Context(), c.QueryParam("q"), pagination.Search.Limit(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) SearchInvestigations(c echo.Context) error {
	items, err := h.svc.SearchInvestigations(c.Request().Context(), c.QueryParam("q"), pagination.Search.Limit(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) SearchDiagnosisInvestigations(c echo.Context) error {
	items, err := h.svc.SearchDiagnosisInvestigations(c.Request().Context(), c.QueryParam("q"), pagination.Search.Limit(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// -- Explicit saves --

func (h *Handler) SaveMedicine(c echo.Context) error {
	var in MedicineInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.SaveMedicine(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newSaveResponse(res, "Medicine combination"))
}

func (h *Handler) SaveInvestigation(c echo.Context) error {
	var in InvestigationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.SaveInvestigation(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newSaveResponse(res, "Investigation"))
}

func (h *Handler) SaveDiagnosisInvestigation(c echo.Context) error {
	var in DiagnosisInvestigationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.SaveDiagnosisInvestigation(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newSaveResponse(res, "Diagnosis/Investigation combination"))
}

// -- Medicine catalog management --

func (h *Handler) ListMedicines(c echo.Context) error {
	items, err := h.svc.ListMedicines(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DeleteMedicine(c echo.Context) error {
	if err := h.svc.DeleteMedicine(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Medicine not found")
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Medicine deleted successfully"})
}
