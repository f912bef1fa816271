package services

import (
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/tnyandoro/schoolcore/models"
)

// ClassService manages the class register. Create/update paths run the
// assignment guard before any teacher reference is persisted.
type ClassService struct {
	db *gorm.DB
}

func NewClassService(db *gorm.DB) *ClassService { return &ClassService{db: db} }

func (s *ClassService) CreateClass(grade, section string, academicYear int, teacherID *uint) (*models.Class, error) {
	if _, ok := models.GradeRank(grade); !ok {
		return nil, validationErr("UNKNOWN_GRADE", "unknown grade code %q", grade)
	}
	if section != "A" && section != "B" {
		return nil, validationErr("UNKNOWN_SECTION", "section must be A or B")
	}

	// No year-existence check: next-year classes are registered ahead of the
	// rollover, which creates the year row itself.
	var class *models.Class
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var dup int64
		if err := tx.Model(&models.Class{}).
			Where("grade = ? AND section = ? AND academic_year = ?", grade, section, academicYear).
			Count(&dup).Error; err != nil {
			return fatalErr("check class uniqueness", err)
		}
		if dup > 0 {
			return conflictErr("class %s%s already exists in %d", grade, section, academicYear)
		}
		if teacherID != nil {
			if err := CheckTeacherAssignment(tx, *teacherID, academicYear, 0); err != nil {
				return err
			}
		}
		class = &models.Class{Grade: grade, Section: section, AcademicYear: academicYear, TeacherID: teacherID}
		if err := tx.Create(class).Error; err != nil {
			return fatalErr("create class", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return class, nil
}

// UpdateClassTeacher reassigns (or clears) the owning teacher of a class.
func (s *ClassService) UpdateClassTeacher(classID uint, teacherID *uint) (*models.Class, error) {
	var class models.Class
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&class, "id = ?", classID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("class", classID)
			}
			return fatalErr("load class", err)
		}
		if teacherID != nil {
			if err := CheckTeacherAssignment(tx, *teacherID, class.AcademicYear, class.ID); err != nil {
				return err
			}
		}
		class.TeacherID = teacherID
		if err := tx.Save(&class).Error; err != nil {
			return fatalErr("update class", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// ListClasses returns the classes of one year in the registry's natural
// order (grade scale position, then section, then id).
func (s *ClassService) ListClasses(academicYear int) ([]models.Class, error) {
	var classes []models.Class
	if err := s.db.Where("academic_year = ?", academicYear).
		Order("grade, section, id").Find(&classes).Error; err != nil {
		return nil, fatalErr("list classes", err)
	}
	// "ECD" sorts after digits lexically; re-order on the grade scale.
	sort.SliceStable(classes, func(i, j int) bool {
		ri, _ := models.GradeRank(classes[i].Grade)
		rj, _ := models.GradeRank(classes[j].Grade)
		if ri != rj {
			return ri < rj
		}
		if classes[i].Section != classes[j].Section {
			return classes[i].Section < classes[j].Section
		}
		return classes[i].ID < classes[j].ID
	})
	return classes, nil
}
