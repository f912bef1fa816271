package models

import "time"

// Terms run 1..3 within a year. At most one row system-wide has IsCurrent set.
const (
	FirstTerm = 1
	LastTerm  = 3
)

type AcademicTerm struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AcademicYear int       `gorm:"not null;uniqueIndex:uniq_year_term" json:"academic_year"`
	Term         int       `gorm:"not null;uniqueIndex:uniq_year_term" json:"term"` // 1 | 2 | 3
	StartDate    time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate      time.Time `gorm:"type:date;not null" json:"end_date"`
	IsCurrent    bool      `gorm:"default:false" json:"is_current"`
	IsCompleted  bool      `gorm:"default:false" json:"is_completed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (t *AcademicTerm) Label() string {
	switch t.Term {
	case 1:
		return "First Term"
	case 2:
		return "Second Term"
	case 3:
		return "Third Term"
	}
	return "Unknown Term"
}
