package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status codes derived from a balance row.
const (
	PayStatusPaid    = "PAID"
	PayStatusPartial = "PARTIAL"
	PayStatusUnpaid  = "UNPAID"
)

// StudentBalance is the per-student, per-term financial snapshot. Created
// exactly once per (student, term) by the balance ledger; only payment
// application mutates it afterwards.
type StudentBalance struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	StudentID       uint            `gorm:"not null;uniqueIndex:uniq_student_term" json:"student_id"`
	TermID          uint            `gorm:"not null;uniqueIndex:uniq_student_term" json:"term_id"`
	TermFee         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"term_fee"`
	PreviousArrears decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"previous_arrears"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount_paid"`
	LastPaymentDate *time.Time      `gorm:"type:date" json:"last_payment_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (b *StudentBalance) TotalDue() decimal.Decimal {
	return b.TermFee.Add(b.PreviousArrears)
}

// CurrentBalance is signed: positive = owed, negative = credit.
func (b *StudentBalance) CurrentBalance() decimal.Decimal {
	return b.TotalDue().Sub(b.AmountPaid)
}

func (b *StudentBalance) PaymentStatus() string {
	bal := b.CurrentBalance()
	switch {
	case bal.Sign() <= 0:
		return PayStatusPaid
	case b.AmountPaid.Sign() > 0:
		return PayStatusPartial
	default:
		return PayStatusUnpaid
	}
}
