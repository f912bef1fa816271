package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tnyandoro/schoolcore/services"
)

type PeriodHandler struct {
	registry *services.PeriodRegistry
	rollover *services.RolloverService
}

func NewPeriodHandler(registry *services.PeriodRegistry, rollover *services.RolloverService) *PeriodHandler {
	return &PeriodHandler{registry: registry, rollover: rollover}
}

type yearPayload struct {
	Year      int    `json:"year" validate:"required,min=2020"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

type termPayload struct {
	AcademicYear int             `json:"academic_year" validate:"required,min=2020"`
	Term         int             `json:"term" validate:"required,min=1,max=3"`
	StartDate    string          `json:"start_date" validate:"required"`
	EndDate      string          `json:"end_date" validate:"required"`
	FeeAmount    decimal.Decimal `json:"fee_amount"`
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

// POST /years
func (h *PeriodHandler) CreateYear(c echo.Context) error {
	var p yearPayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	start, ok1 := parseDate(p.StartDate)
	end, ok2 := parseDate(p.EndDate)
	if !ok1 || !ok2 {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error": "VALIDATION_ERROR", "fields": map[string]string{"start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD"},
		})
	}
	y, err := h.registry.CreateYear(p.Year, start, end)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, y)
}

// POST /terms
func (h *PeriodHandler) CreateTerm(c echo.Context) error {
	var p termPayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	start, ok1 := parseDate(p.StartDate)
	end, ok2 := parseDate(p.EndDate)
	if !ok1 || !ok2 {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error": "VALIDATION_ERROR", "fields": map[string]string{"start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD"},
		})
	}
	t, err := h.registry.CreateTerm(p.AcademicYear, p.Term, start, end, p.FeeAmount)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// POST /years/:id/activate
func (h *PeriodHandler) ActivateYear(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	if err := h.registry.ActivateYear(id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /terms/:id/activate
func (h *PeriodHandler) ActivateTerm(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	if err := h.registry.ActivateTerm(id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /years/:id/rollover
func (h *PeriodHandler) Rollover(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	res, err := h.rollover.RolloverYear(id, actorID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GET /years
func (h *PeriodHandler) ListYears(c echo.Context) error {
	years, err := h.registry.ListYears()
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, years)
}

// GET /terms?year=
func (h *PeriodHandler) ListTerms(c echo.Context) error {
	year := atoiOr(c.QueryParam("year"), 0)
	if year == 0 {
		if y, err := h.registry.CurrentYear(); err == nil {
			year = y.Year
		}
	}
	terms, err := h.registry.ListTerms(year)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, terms)
}
