package models

import "time"

// Bulk movement kinds.
const (
	BulkPromotion     = "PROMOTION"
	BulkYearRollover  = "YEAR_ROLLOVER"
	BulkClassTransfer = "CLASS_TRANSFER"
)

// BulkMovement summarizes one batch run (bulk promote, rollover).
type BulkMovement struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OperationID      string    `gorm:"size:50;uniqueIndex;not null" json:"operation_id"`
	MovementType     string    `gorm:"size:15;not null;index" json:"movement_type"`
	FromAcademicYear int       `gorm:"not null" json:"from_academic_year"`
	ToAcademicYear   int       `gorm:"not null" json:"to_academic_year"`
	ExecutionDate    time.Time `gorm:"not null;index" json:"execution_date"`
	ExecutedByID     *uint     `json:"executed_by_id,omitempty"`
	TotalStudents    int       `gorm:"default:0" json:"total_students"`
	SuccessfulMoves  int       `gorm:"default:0" json:"successful_moves"`
	FailedMoves      int       `gorm:"default:0" json:"failed_moves"`
	Notes            string    `gorm:"size:255" json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
}

func (b *BulkMovement) SuccessRate() float64 {
	if b.TotalStudents == 0 {
		return 0
	}
	return float64(b.SuccessfulMoves) / float64(b.TotalStudents) * 100
}
