package models

import "time"

type AcademicYear struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Year        int       `gorm:"uniqueIndex;not null" json:"year"` // e.g. 2025
	StartDate   time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null" json:"end_date"`
	IsActive    bool      `gorm:"default:false" json:"is_active"`
	IsCompleted bool      `gorm:"default:false" json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
