package models

import (
	"fmt"
	"time"
)

// Grade codes on the fixed ordered scale: ECD < 1 < 2 < ... < 7.
const (
	GradeECD      = "ECD"
	TerminalGrade = "7"
)

var gradeRank = map[string]int{
	GradeECD: 0,
	"1":      1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
}

// GradeRank returns the position of a grade code on the ordered scale.
func GradeRank(grade string) (int, bool) {
	r, ok := gradeRank[grade]
	return r, ok
}

// NextGrade returns the grade one step up the scale ("" for the terminal grade).
func NextGrade(grade string) string {
	r, ok := gradeRank[grade]
	if !ok || r >= gradeRank[TerminalGrade] {
		return ""
	}
	for g, rank := range gradeRank {
		if rank == r+1 {
			return g
		}
	}
	return ""
}

type Class struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Grade        string    `gorm:"size:4;not null;uniqueIndex:uniq_class" json:"grade"`   // ECD | 1..7
	Section      string    `gorm:"size:1;not null;uniqueIndex:uniq_class" json:"section"` // A | B
	AcademicYear int       `gorm:"not null;uniqueIndex:uniq_class" json:"academic_year"`
	TeacherID    *uint     `json:"teacher_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Class) Label() string {
	if c.Grade == GradeECD {
		return fmt.Sprintf("ECD %s", c.Section)
	}
	return fmt.Sprintf("Grade %s%s", c.Grade, c.Section)
}
