package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tnyandoro/schoolcore/models"
)

// BalanceLedger computes and stores the per-student, per-term financial
// snapshots. InitializeTermBalance is the single authoritative way a balance
// row comes into existence.
type BalanceLedger struct {
	db *gorm.DB
}

func NewBalanceLedger(db *gorm.DB) *BalanceLedger { return &BalanceLedger{db: db} }

// InitializeTermBalance creates the balance row for (student, term), carrying
// forward the unpaid remainder of the preceding term as arrears. Idempotent:
// an existing row is returned untouched.
func (l *BalanceLedger) InitializeTermBalance(studentID, termID uint) (*models.StudentBalance, error) {
	var bal *models.StudentBalance
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		bal, err = l.initializeTermBalanceTx(tx, studentID, termID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bal, nil
}

// initializeTermBalanceTx runs inside the caller's transaction. carry, when
// non-nil, overrides the computed arrears (the rollover passes the amount it
// snapshotted on the movement so the seeded balance matches it exactly).
func (l *BalanceLedger) initializeTermBalanceTx(tx *gorm.DB, studentID, termID uint, carry *decimal.Decimal) (*models.StudentBalance, error) {
	var existing models.StudentBalance
	err := tx.Where("student_id = ? AND term_id = ?", studentID, termID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fatalErr("load balance", err)
	}

	var student models.Student
	if err := tx.First(&student, "id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("student", studentID)
		}
		return nil, fatalErr("load student", err)
	}
	if !student.IsActive {
		// Graduated/withdrawn students accrue no new term fees.
		return nil, stateErr("student %s is inactive and cannot be billed for a new term", student.FullName())
	}

	var term models.AcademicTerm
	if err := tx.First(&term, "id = ?", termID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("academic term", termID)
		}
		return nil, fatalErr("load term", err)
	}

	var fee models.TermFee
	if err := tx.Where("term_id = ?", term.ID).First(&fee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("TERM_FEE_MISSING", "term fee has not been set for %s %d", term.Label(), term.AcademicYear)
		}
		return nil, fatalErr("load term fee", err)
	}

	arrears := decimal.Zero
	if carry != nil {
		arrears = *carry
	} else {
		computed, err := l.carriedArrears(tx, studentID, &term)
		if err != nil {
			return nil, err
		}
		arrears = computed
	}

	bal := &models.StudentBalance{
		StudentID:       studentID,
		TermID:          term.ID,
		TermFee:         fee.Amount,
		PreviousArrears: arrears,
		AmountPaid:      decimal.Zero,
	}
	if err := tx.Create(bal).Error; err != nil {
		// Unique (student, term): a concurrent initializer won the race.
		var raced models.StudentBalance
		if ferr := tx.Where("student_id = ? AND term_id = ?", studentID, term.ID).First(&raced).Error; ferr == nil {
			return &raced, nil
		}
		return nil, fatalErr("create balance", err)
	}
	return bal, nil
}

// carriedArrears is the unpaid remainder of the immediately preceding term,
// floored at zero. A credit does not become negative arrears.
func (l *BalanceLedger) carriedArrears(tx *gorm.DB, studentID uint, term *models.AcademicTerm) (decimal.Decimal, error) {
	prev, err := previousTerm(tx, term)
	if err != nil {
		return decimal.Zero, err
	}
	if prev == nil {
		return decimal.Zero, nil
	}
	var prior models.StudentBalance
	if err := tx.Where("student_id = ? AND term_id = ?", studentID, prev.ID).First(&prior).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fatalErr("load prior balance", err)
	}
	owed := prior.CurrentBalance()
	if owed.Sign() < 0 {
		return decimal.Zero, nil
	}
	return owed, nil
}

// OutstandingArrears is the full amount a student owes as of the current
// term: the arrears already carried onto the current balance row plus the
// row's own unpaid remainder. Zero when no current term or no row exists.
func (l *BalanceLedger) OutstandingArrears(tx *gorm.DB, studentID uint) (decimal.Decimal, error) {
	cur, err := currentTerm(tx)
	if err != nil {
		return decimal.Zero, err
	}
	if cur == nil {
		return decimal.Zero, nil
	}
	var bal models.StudentBalance
	if err := tx.Where("student_id = ? AND term_id = ?", studentID, cur.ID).First(&bal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fatalErr("load current balance", err)
	}
	return bal.PreviousArrears.Add(bal.CurrentBalance()), nil
}

// StudentBalances lists a student's balance rows, newest term first.
func (l *BalanceLedger) StudentBalances(studentID uint) ([]models.StudentBalance, error) {
	var rows []models.StudentBalance
	err := l.db.
		Joins("JOIN academic_terms ON academic_terms.id = student_balances.term_id").
		Where("student_balances.student_id = ?", studentID).
		Order("academic_terms.academic_year DESC, academic_terms.term DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fatalErr("list balances", err)
	}
	return rows, nil
}
