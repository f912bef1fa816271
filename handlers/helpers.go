package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/tnyandoro/schoolcore/services"
)

var validate = validator.New()

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseID(c echo.Context, name string) (uint, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// actorID reads the authenticated admin id set by the JWT middleware.
func actorID(c echo.Context) *uint {
	if id, ok := c.Get("user_id").(uint); ok && id > 0 {
		return &id
	}
	return nil
}

func bindAndValidate(c echo.Context, payload any) error {
	if err := c.Bind(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{"error": "INVALID_PAYLOAD"})
	}
	if err := validate.Struct(payload); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "fields": fields})
	}
	return nil
}

// serviceError maps the service error taxonomy onto HTTP responses. Fatal
// causes are logged for operators and surface as a generic failure.
func serviceError(c echo.Context, err error) error {
	var (
		ve *services.ValidationError
		ce *services.ConflictError
		se *services.StateError
		ne *services.NotFoundError
		fe *services.FatalError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "rule": ve.Rule, "detail": ve.Message})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, map[string]any{"error": "CONFLICT", "detail": ce.Message})
	case errors.As(err, &se):
		return c.JSON(http.StatusConflict, map[string]any{"error": "STATE_ERROR", "detail": se.Message})
	case errors.As(err, &ne):
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND", "detail": ne.Error()})
	case errors.As(err, &fe):
		log.Printf("[fatal] %v", fe)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "INTERNAL_ERROR"})
	}
	log.Printf("[error] %v", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "INTERNAL_ERROR"})
}

// movementError renders the MovementResult failure shape for single moves.
func movementError(c echo.Context, err error) error {
	var (
		ve *services.ValidationError
		ne *services.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false, "error_kind": ve.Rule, "error_detail": ve.Message,
		})
	case errors.As(err, &ne):
		return c.JSON(http.StatusNotFound, map[string]any{
			"success": false, "error_kind": "NOT_FOUND", "error_detail": ne.Error(),
		})
	}
	return serviceError(c, err)
}
