package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tnyandoro/schoolcore/models"
)

// PeriodRegistry owns academic years and terms and the exactly-one-active
// invariants. Activation is a single transactional read-modify-write: the
// rows are locked, prior flags cleared and the new flag set before commit,
// so two concurrent activations cannot both win.
type PeriodRegistry struct {
	db *gorm.DB
}

func NewPeriodRegistry(db *gorm.DB) *PeriodRegistry { return &PeriodRegistry{db: db} }

// CreateYear registers a new academic year (inactive). Years must not
// overlap temporally and the year number is unique.
func (r *PeriodRegistry) CreateYear(year int, startDate, endDate time.Time) (*models.AcademicYear, error) {
	if !startDate.Before(endDate) {
		return nil, validationErr("YEAR_DATES", "end date must be after start date")
	}

	var y *models.AcademicYear
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var overlap int64
		if err := tx.Model(&models.AcademicYear{}).
			Where("start_date <= ? AND end_date >= ?", endDate, startDate).
			Count(&overlap).Error; err != nil {
			return fatalErr("count overlapping years", err)
		}
		if overlap > 0 {
			return conflictErr("academic year dates overlap with an existing academic year")
		}
		var dup int64
		if err := tx.Model(&models.AcademicYear{}).Where("year = ?", year).Count(&dup).Error; err != nil {
			return fatalErr("check year uniqueness", err)
		}
		if dup > 0 {
			return conflictErr("academic year %d already exists", year)
		}
		y = &models.AcademicYear{Year: year, StartDate: startDate, EndDate: endDate}
		if err := tx.Create(y).Error; err != nil {
			return fatalErr("create academic year", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return y, nil
}

// CreateTerm registers one term of a year along with its fee. Terms cannot
// be skipped: all preceding terms of the year must already exist.
func (r *PeriodRegistry) CreateTerm(year, term int, startDate, endDate time.Time, fee decimal.Decimal) (*models.AcademicTerm, error) {
	if term < models.FirstTerm || term > models.LastTerm {
		return nil, validationErr("TERM_NUMBER", "term must be between 1 and 3")
	}
	if !startDate.Before(endDate) {
		return nil, validationErr("TERM_DATES", "end date must be after start date")
	}

	var t *models.AcademicTerm
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var yearRow models.AcademicYear
		if err := tx.Where("year = ?", year).First(&yearRow).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("academic year", year)
			}
			return fatalErr("load academic year", err)
		}
		for n := models.FirstTerm; n < term; n++ {
			var cnt int64
			if err := tx.Model(&models.AcademicTerm{}).
				Where("academic_year = ? AND term = ?", year, n).Count(&cnt).Error; err != nil {
				return fatalErr("check preceding terms", err)
			}
			if cnt == 0 {
				return validationErr("TERM_SEQUENCE", "cannot create term %d of %d: term %d is missing", term, year, n)
			}
		}
		var dup int64
		if err := tx.Model(&models.AcademicTerm{}).
			Where("academic_year = ? AND term = ?", year, term).Count(&dup).Error; err != nil {
			return fatalErr("check term uniqueness", err)
		}
		if dup > 0 {
			return conflictErr("term %d of %d already exists", term, year)
		}
		t = &models.AcademicTerm{AcademicYear: year, Term: term, StartDate: startDate, EndDate: endDate}
		if err := tx.Create(t).Error; err != nil {
			return fatalErr("create term", err)
		}
		if err := tx.Create(&models.TermFee{TermID: t.ID, Amount: fee}).Error; err != nil {
			return fatalErr("create term fee", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ActivateYear makes the given year the sole active year. Years advance
// forward only, one step at a time, and only once the outgoing year sits on
// its final term.
func (r *PeriodRegistry) ActivateYear(yearID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var target models.AcademicYear
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&target, "id = ?", yearID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("academic year", yearID)
			}
			return fatalErr("load academic year", err)
		}
		if target.IsActive {
			return nil // already active
		}
		if target.IsCompleted {
			return stateErr("academic year %d is completed and cannot be re-activated", target.Year)
		}

		var active models.AcademicYear
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("is_active = ?", true).First(&active).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First activation ever.
		case err != nil:
			return fatalErr("load active year", err)
		default:
			if target.Year < active.Year {
				return stateErr("cannot move back to academic year %d: %d is active", target.Year, active.Year)
			}
			if target.Year != active.Year+1 {
				return stateErr("years are sequential: next year after %d is %d, not %d", active.Year, active.Year+1, target.Year)
			}
			cur, err := currentTerm(tx)
			if err != nil {
				return err
			}
			if cur == nil || cur.AcademicYear != active.Year || cur.Term != models.LastTerm {
				return stateErr("cannot advance to %d: year %d must be on its final term", target.Year, active.Year)
			}
			active.IsActive = false
			active.IsCompleted = true
			if err := tx.Save(&active).Error; err != nil {
				return fatalErr("complete outgoing year", err)
			}
		}

		target.IsActive = true
		if err := tx.Save(&target).Error; err != nil {
			return fatalErr("activate year", err)
		}
		return nil
	})
}

// ActivateTerm makes the given term the sole current term. Terms progress
// forward only and cannot be skipped; completed terms stay closed.
func (r *PeriodRegistry) ActivateTerm(termID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var target models.AcademicTerm
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&target, "id = ?", termID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("academic term", termID)
			}
			return fatalErr("load term", err)
		}
		if target.IsCurrent {
			return nil
		}
		if target.IsCompleted {
			return stateErr("%s %d is completed and cannot be re-activated", target.Label(), target.AcademicYear)
		}

		var cur models.AcademicTerm
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("is_current = ?", true).First(&cur).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No current term yet: allow any open term (initial setup).
		case err != nil:
			return fatalErr("load current term", err)
		default:
			if target.AcademicYear == cur.AcademicYear {
				if target.Term <= cur.Term {
					return stateErr("terms move forward only: cannot activate term %d while term %d is current", target.Term, cur.Term)
				}
				if target.Term != cur.Term+1 {
					return stateErr("terms cannot be skipped: next term after %d is %d", cur.Term, cur.Term+1)
				}
			} else {
				if target.AcademicYear != cur.AcademicYear+1 || cur.Term != models.LastTerm || target.Term != models.FirstTerm {
					return stateErr("cannot activate %s %d while %s %d is current", target.Label(), target.AcademicYear, cur.Label(), cur.AcademicYear)
				}
			}
			cur.IsCurrent = false
			cur.IsCompleted = true
			if err := tx.Save(&cur).Error; err != nil {
				return fatalErr("complete outgoing term", err)
			}
		}

		target.IsCurrent = true
		if err := tx.Save(&target).Error; err != nil {
			return fatalErr("activate term", err)
		}
		return nil
	})
}

// CurrentYear returns the single active year.
func (r *PeriodRegistry) CurrentYear() (*models.AcademicYear, error) {
	var y models.AcademicYear
	if err := r.db.Where("is_active = ?", true).First(&y).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("active academic year", "none")
		}
		return nil, fatalErr("load active year", err)
	}
	return &y, nil
}

// CurrentTerm returns the single current term.
func (r *PeriodRegistry) CurrentTerm() (*models.AcademicTerm, error) {
	t, err := currentTerm(r.db)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFoundErr("current academic term", "none")
	}
	return t, nil
}

// ListYears returns all years, newest first.
func (r *PeriodRegistry) ListYears() ([]models.AcademicYear, error) {
	var years []models.AcademicYear
	if err := r.db.Order("year DESC").Find(&years).Error; err != nil {
		return nil, fatalErr("list years", err)
	}
	return years, nil
}

// ListTerms returns the terms of one year in order.
func (r *PeriodRegistry) ListTerms(year int) ([]models.AcademicTerm, error) {
	var terms []models.AcademicTerm
	if err := r.db.Where("academic_year = ?", year).Order("term").Find(&terms).Error; err != nil {
		return nil, fatalErr("list terms", err)
	}
	return terms, nil
}

// currentTerm reads the current term within the caller's transaction; nil
// when none is set.
func currentTerm(tx *gorm.DB) (*models.AcademicTerm, error) {
	var t models.AcademicTerm
	if err := tx.Where("is_current = ?", true).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fatalErr("load current term", err)
	}
	return &t, nil
}

// previousTerm resolves the term immediately before the given one: term-1 of
// the same year, or term 3 of the prior year for a first term. Nil when the
// predecessor does not exist.
func previousTerm(tx *gorm.DB, term *models.AcademicTerm) (*models.AcademicTerm, error) {
	year, num := term.AcademicYear, term.Term-1
	if term.Term == models.FirstTerm {
		year, num = term.AcademicYear-1, models.LastTerm
	}
	var prev models.AcademicTerm
	if err := tx.Where("academic_year = ? AND term = ?", year, num).First(&prev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fatalErr("load previous term", err)
	}
	return &prev, nil
}
