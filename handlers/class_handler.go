package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tnyandoro/schoolcore/services"
)

type ClassHandler struct {
	svc *services.ClassService
}

func NewClassHandler(svc *services.ClassService) *ClassHandler {
	return &ClassHandler{svc: svc}
}

type classPayload struct {
	Grade        string `json:"grade" validate:"required"`
	Section      string `json:"section" validate:"required,oneof=A B"`
	AcademicYear int    `json:"academic_year" validate:"required,min=2020"`
	TeacherID    *uint  `json:"teacher_id"`
}

type classTeacherPayload struct {
	TeacherID *uint `json:"teacher_id"`
}

// POST /classes
func (h *ClassHandler) Create(c echo.Context) error {
	var p classPayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	class, err := h.svc.CreateClass(p.Grade, p.Section, p.AcademicYear, p.TeacherID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, class)
}

// PUT /classes/:id/teacher
func (h *ClassHandler) UpdateTeacher(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	var p classTeacherPayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	class, err := h.svc.UpdateClassTeacher(id, p.TeacherID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, class)
}

// GET /classes?year=
func (h *ClassHandler) List(c echo.Context) error {
	year := atoiOr(c.QueryParam("year"), 0)
	if year == 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error": "VALIDATION_ERROR", "fields": map[string]string{"year": "required"},
		})
	}
	classes, err := h.svc.ListClasses(year)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, classes)
}
