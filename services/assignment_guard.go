package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tnyandoro/schoolcore/models"
)

// CheckTeacherAssignment enforces the one-class-per-teacher-per-year rule.
// excludeClassID skips the class being edited so re-saving it is allowed.
func CheckTeacherAssignment(tx *gorm.DB, teacherID uint, academicYear int, excludeClassID uint) error {
	var existing models.Class
	err := tx.Where("teacher_id = ? AND academic_year = ? AND id <> ?", teacherID, academicYear, excludeClassID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fatalErr("check teacher assignment", err)
	}

	var teacher models.Teacher
	name := "teacher"
	if terr := tx.First(&teacher, "id = ?", teacherID).Error; terr == nil {
		name = teacher.FullName()
	}
	return conflictErr("%s is already assigned to %s in %d; a teacher can only teach one class per academic year",
		name, existing.Label(), academicYear)
}
