package models

import "time"

// Student status values. GRADUATED is terminal.
const (
	StatusEnrolled  = "ENROLLED"
	StatusGraduated = "GRADUATED"
)

type Student struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StudentCode    string     `gorm:"size:20;uniqueIndex;not null" json:"student_code"`
	FirstName      string     `gorm:"size:50;not null" json:"first_name"`
	LastName       string     `gorm:"size:50;not null" json:"last_name"`
	BirthDate      *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	DateEnrolled   time.Time  `gorm:"type:date;not null" json:"date_enrolled"`
	CurrentClassID *uint      `json:"current_class_id,omitempty"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	Status         string     `gorm:"size:10;not null;default:'ENROLLED'" json:"status"`
	IsArchived     bool       `gorm:"default:false" json:"is_archived"`
	IsDeleted      bool       `gorm:"default:false" json:"is_deleted"` // soft delete, financial records preserved
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
