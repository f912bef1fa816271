package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tnyandoro/schoolcore/database"
	"github.com/tnyandoro/schoolcore/models"
)

type TeacherHandler struct{}

func NewTeacherHandler() *TeacherHandler { return &TeacherHandler{} }

type teacherPayload struct {
	TeacherCode string `json:"teacher_code" validate:"required,max=20"`
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	Phone       string `json:"phone" validate:"max=15"`
	Email       string `json:"email" validate:"omitempty,email,max=50"`
}

// POST /teachers
func (h *TeacherHandler) Create(c echo.Context) error {
	var p teacherPayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	p.TeacherCode = strings.TrimSpace(p.TeacherCode)

	var dup int64
	database.DB.Model(&models.Teacher{}).Where("teacher_code = ?", p.TeacherCode).Count(&dup)
	if dup > 0 {
		return c.JSON(http.StatusConflict, map[string]string{"error": "TEACHER_CODE_EXISTS"})
	}

	t := models.Teacher{
		TeacherCode: p.TeacherCode,
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		Phone:       strings.TrimSpace(p.Phone),
		Email:       strings.TrimSpace(strings.ToLower(p.Email)),
	}
	if err := database.DB.Create(&t).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, t)
}

// GET /teachers
func (h *TeacherHandler) List(c echo.Context) error {
	var items []models.Teacher
	if err := database.DB.Order("id").Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, items)
}

// GET /teachers/:id
func (h *TeacherHandler) GetByID(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	var t models.Teacher
	if err := database.DB.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, t)
}
