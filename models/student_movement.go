package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement types.
const (
	MovePromotion  = "PROMOTION"
	MoveDemotion   = "DEMOTION"
	MoveTransfer   = "TRANSFER"
	MoveGraduation = "GRADUATION"
)

// StudentMovement is an append-only record of a class change or graduation.
// PreviousArrears/PreservedArrears are captured at creation time and never
// recomputed: they are the financial snapshot at the moment of the move.
type StudentMovement struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	StudentID        uint            `gorm:"not null;index" json:"student_id"`
	FromClassID      *uint           `json:"from_class_id,omitempty"`
	ToClassID        *uint           `json:"to_class_id,omitempty"` // always null for GRADUATION
	MovementType     string          `gorm:"size:10;not null;index" json:"movement_type"`
	MovementDate     time.Time       `gorm:"not null;index" json:"movement_date"`
	Reason           string          `gorm:"size:255" json:"reason"`
	MovedByID        *uint           `json:"moved_by_id,omitempty"` // nil = system
	PreviousArrears  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"previous_arrears"`
	PreservedArrears decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"preserved_arrears"`
	IsBulkOperation  bool            `gorm:"default:false" json:"is_bulk_operation"`
	BulkOperationID  string          `gorm:"size:50;index" json:"bulk_operation_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
