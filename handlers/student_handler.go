package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tnyandoro/schoolcore/database"
	"github.com/tnyandoro/schoolcore/models"
)

type StudentHandler struct{}

func NewStudentHandler() *StudentHandler { return &StudentHandler{} }

type studentPayload struct {
	StudentCode  string `json:"student_code" validate:"required,max=20"`
	FirstName    string `json:"first_name" validate:"required,max=50"`
	LastName     string `json:"last_name" validate:"required,max=50"`
	BirthDate    string `json:"birth_date"`
	DateEnrolled string `json:"date_enrolled" validate:"required"`
	ClassID      *uint  `json:"class_id"`
}

func (p *studentPayload) normalize() {
	p.StudentCode = strings.TrimSpace(p.StudentCode)
	p.FirstName = strings.Join(strings.Fields(p.FirstName), " ")
	p.LastName = strings.Join(strings.Fields(p.LastName), " ")
	p.BirthDate = strings.TrimSpace(p.BirthDate)
	p.DateEnrolled = strings.TrimSpace(p.DateEnrolled)
}

// POST /students
func (h *StudentHandler) Create(c echo.Context) error {
	var p studentPayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	p.normalize()

	enrolled, err := time.Parse("2006-01-02", p.DateEnrolled)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error": "VALIDATION_ERROR", "fields": map[string]string{"date_enrolled": "YYYY-MM-DD"},
		})
	}
	var birth *time.Time
	if p.BirthDate != "" {
		b, err := time.Parse("2006-01-02", p.BirthDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error": "VALIDATION_ERROR", "fields": map[string]string{"birth_date": "YYYY-MM-DD"},
			})
		}
		birth = &b
	}

	var dup int64
	database.DB.Model(&models.Student{}).Where("student_code = ?", p.StudentCode).Count(&dup)
	if dup > 0 {
		return c.JSON(http.StatusConflict, map[string]string{"error": "STUDENT_CODE_EXISTS"})
	}
	if p.ClassID != nil {
		var cls models.Class
		if err := database.DB.First(&cls, "id = ?", *p.ClassID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "CLASS_NOT_FOUND"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
		}
	}

	stu := models.Student{
		StudentCode:    p.StudentCode,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		BirthDate:      birth,
		DateEnrolled:   enrolled,
		CurrentClassID: p.ClassID,
		IsActive:       true,
		Status:         models.StatusEnrolled,
	}
	if err := database.DB.Create(&stu).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, stu)
}

// GET /students?class_id=&active=&limit=&offset=
func (h *StudentHandler) List(c echo.Context) error {
	limit := atoiOr(c.QueryParam("limit"), 20)
	if limit < 1 {
		limit = 1
	} else if limit > 100 {
		limit = 100
	}
	offset := atoiOr(c.QueryParam("offset"), 0)

	tx := database.DB.Model(&models.Student{}).Where("is_deleted = ?", false)
	if v := c.QueryParam("class_id"); v != "" {
		tx = tx.Where("current_class_id = ?", atoiOr(v, 0))
	}
	if v := c.QueryParam("active"); v == "true" {
		tx = tx.Where("is_active = ?", true)
	} else if v == "false" {
		tx = tx.Where("is_active = ?", false)
	}

	var items []models.Student
	if err := tx.Order("id").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, items)
}

// GET /students/:id
func (h *StudentHandler) GetByID(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	var stu models.Student
	if err := database.DB.Where("is_deleted = ?", false).First(&stu, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, stu)
}
