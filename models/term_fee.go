package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TermFee is the base fee charged for one term. One row per term.
type TermFee struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	TermID    uint            `gorm:"uniqueIndex;not null" json:"term_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
