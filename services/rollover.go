package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tnyandoro/schoolcore/models"
)

// RolloverService advances the whole school from one academic year to the
// next: it creates the target year and terms, promotes or graduates every
// active student, and carries each student's outstanding arrears onto the
// new year's first-term balance. Everything runs in one transaction; the
// only deviation is the defensive per-student skip-and-warn for a student
// whose destination class disappears between pre-validation and execution.
type RolloverService struct {
	db     *gorm.DB
	ledger *BalanceLedger
}

func NewRolloverService(db *gorm.DB, ledger *BalanceLedger) *RolloverService {
	return &RolloverService{db: db, ledger: ledger}
}

// RolloverResult reports one rollover run.
type RolloverResult struct {
	NewYear     *models.AcademicYear `json:"new_year"`
	OperationID string               `json:"operation_id"`
	Promoted    int                  `json:"promoted"`
	Graduated   int                  `json:"graduated"`
	Skipped     int                  `json:"skipped"`
	Warnings    []RolloverWarning    `json:"warnings"`
}

type RolloverWarning struct {
	StudentID uint   `json:"student_id"`
	Reason    string `json:"reason"`
}

// RolloverYear rolls the given year forward to year+1. Pre-validation is
// read-only: if it fails, nothing has been written.
func (s *RolloverService) RolloverYear(currentYearID uint, actorID *uint) (*RolloverResult, error) {
	result := &RolloverResult{OperationID: uuid.NewString()}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.AcademicYear
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "id = ?", currentYearID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("academic year", currentYearID)
			}
			return fatalErr("load academic year", err)
		}

		if err := s.preValidate(tx, &current); err != nil {
			return err
		}

		newYear, firstTerm, err := s.createTargetYear(tx, &current)
		if err != nil {
			return err
		}
		result.NewYear = newYear

		if err := s.moveStudents(tx, &current, newYear, firstTerm, actorID, result); err != nil {
			return err
		}

		summary := &models.BulkMovement{
			OperationID:      result.OperationID,
			MovementType:     models.BulkYearRollover,
			FromAcademicYear: current.Year,
			ToAcademicYear:   newYear.Year,
			ExecutionDate:    time.Now(),
			ExecutedByID:     actorID,
			TotalStudents:    result.Promoted + result.Graduated + result.Skipped,
			SuccessfulMoves:  result.Promoted + result.Graduated,
			FailedMoves:      result.Skipped,
		}
		if err := tx.Create(summary).Error; err != nil {
			return fatalErr("record rollover summary", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// preValidate runs the read-only checks that must all pass before any
// mutation: the target year is free and sequential, the current year sits on
// its final term, and a destination class exists for every grade that will
// be promoted into (same section or any-section fallback).
func (s *RolloverService) preValidate(tx *gorm.DB, current *models.AcademicYear) error {
	if !current.IsActive {
		return stateErr("academic year %d is not active", current.Year)
	}
	if current.IsCompleted {
		return stateErr("academic year %d is already completed", current.Year)
	}

	cur, err := currentTerm(tx)
	if err != nil {
		return err
	}
	if cur == nil || cur.AcademicYear != current.Year || cur.Term != models.LastTerm {
		return stateErr("cannot rollover %d: the year must be on its final term", current.Year)
	}

	target := current.Year + 1
	var exists int64
	if err := tx.Model(&models.AcademicYear{}).Where("year = ?", target).Count(&exists).Error; err != nil {
		return fatalErr("check target year", err)
	}
	if exists > 0 {
		return validationErr("YEAR_EXISTS", "academic year %d already exists; cannot rollover to an existing year", target)
	}

	missing, err := s.missingTargetGrades(tx, current.Year, target)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return validationErr("TARGET_CLASSES_MISSING",
			"cannot rollover: classes for %s must exist in %d before rolling over", strings.Join(missing, ", "), target)
	}
	return nil
}

// missingTargetGrades lists every next-grade with no class at all in the
// target year, across the grades of all active, classed, non-terminal
// students.
func (s *RolloverService) missingTargetGrades(tx *gorm.DB, fromYear, targetYear int) ([]string, error) {
	var classes []models.Class
	err := tx.Model(&models.Class{}).
		Distinct("classes.grade").
		Joins("JOIN students ON students.current_class_id = classes.id").
		Where("classes.academic_year = ?", fromYear).
		Where("students.is_active = ? AND students.is_archived = ? AND students.is_deleted = ?", true, false, false).
		Find(&classes).Error
	if err != nil {
		return nil, fatalErr("collect promoted grades", err)
	}

	var missing []string
	seen := map[string]bool{}
	for _, c := range classes {
		next := models.NextGrade(c.Grade)
		if next == "" || seen[next] {
			continue
		}
		seen[next] = true
		var cnt int64
		if err := tx.Model(&models.Class{}).
			Where("grade = ? AND academic_year = ?", next, targetYear).Count(&cnt).Error; err != nil {
			return nil, fatalErr("check target class", err)
		}
		if cnt == 0 {
			missing = append(missing, gradeName(next))
		}
	}
	sort.Strings(missing)
	return missing, nil
}

func gradeName(grade string) string {
	if grade == models.GradeECD {
		return "ECD"
	}
	return "Grade " + grade
}

// createTargetYear creates the inactive target year and its three terms,
// shifting the current year's dates forward one year and copying each
// term's fee. Returns the new year and its first term.
func (s *RolloverService) createTargetYear(tx *gorm.DB, current *models.AcademicYear) (*models.AcademicYear, *models.AcademicTerm, error) {
	newYear := &models.AcademicYear{
		Year:      current.Year + 1,
		StartDate: current.StartDate.AddDate(1, 0, 0),
		EndDate:   current.EndDate.AddDate(1, 0, 0),
	}
	if err := tx.Create(newYear).Error; err != nil {
		// Unique year index: a concurrent rollover already created it.
		return nil, nil, conflictErr("academic year %d was created concurrently", newYear.Year)
	}

	var terms []models.AcademicTerm
	if err := tx.Where("academic_year = ?", current.Year).Order("term").Find(&terms).Error; err != nil {
		return nil, nil, fatalErr("load current terms", err)
	}
	if len(terms) != models.LastTerm {
		return nil, nil, validationErr("TERMS_INCOMPLETE", "academic year %d does not have all %d terms", current.Year, models.LastTerm)
	}

	var firstTerm *models.AcademicTerm
	for i := range terms {
		var fee models.TermFee
		if err := tx.Where("term_id = ?", terms[i].ID).First(&fee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, validationErr("TERM_FEE_MISSING", "term fee has not been set for %s %d", terms[i].Label(), terms[i].AcademicYear)
			}
			return nil, nil, fatalErr("load term fee", err)
		}
		nt := models.AcademicTerm{
			AcademicYear: newYear.Year,
			Term:         terms[i].Term,
			StartDate:    terms[i].StartDate.AddDate(1, 0, 0),
			EndDate:      terms[i].EndDate.AddDate(1, 0, 0),
		}
		if err := tx.Create(&nt).Error; err != nil {
			return nil, nil, fatalErr("create target term", err)
		}
		if err := tx.Create(&models.TermFee{TermID: nt.ID, Amount: fee.Amount}).Error; err != nil {
			return nil, nil, fatalErr("create target term fee", err)
		}
		if nt.Term == models.FirstTerm {
			first := nt
			firstTerm = &first
		}
	}
	return newYear, firstTerm, nil
}

// moveStudents promotes or graduates every active student. Destination
// resolution failures at this point are defensive: the student is skipped
// with a warning instead of aborting the batch.
func (s *RolloverService) moveStudents(tx *gorm.DB, current, newYear *models.AcademicYear, firstTerm *models.AcademicTerm, actorID *uint, result *RolloverResult) error {
	var students []models.Student
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_active = ? AND is_archived = ? AND is_deleted = ?", true, false, false).
		Order("id").Find(&students).Error
	if err != nil {
		return fatalErr("load active students", err)
	}

	for i := range students {
		student := &students[i]

		arrears, err := s.ledger.OutstandingArrears(tx, student.ID)
		if err != nil {
			return err
		}

		if student.CurrentClassID == nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, RolloverWarning{
				StudentID: student.ID,
				Reason:    "no class assignment; not moved",
			})
			continue
		}
		fromClass, err := loadClass(tx, *student.CurrentClassID)
		if err != nil {
			return err
		}

		if fromClass.Grade == models.TerminalGrade {
			// The graduation record carries no arrears snapshot; whatever is
			// owed stays visible on the student's own balance rows.
			_, err := writeGraduation(tx, student, fromClass, decimal.Zero,
				fmt.Sprintf("year-end graduation %d", current.Year), actorID, true, result.OperationID)
			if err != nil {
				return err
			}
			result.Graduated++
			continue
		}

		dest, sameSection, err := resolveDestination(tx, models.NextGrade(fromClass.Grade), fromClass.Section, newYear.Year)
		if err != nil {
			return err
		}
		if dest == nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, RolloverWarning{
				StudentID: student.ID,
				Reason:    fmt.Sprintf("no %s class exists in %d; student not promoted", gradeName(models.NextGrade(fromClass.Grade)), newYear.Year),
			})
			continue
		}
		if !sameSection {
			result.Warnings = append(result.Warnings, RolloverWarning{
				StudentID: student.ID,
				Reason:    fmt.Sprintf("no section %s class in %s %d; placed in %s", fromClass.Section, gradeName(dest.Grade), newYear.Year, dest.Label()),
			})
		}

		mv := &models.StudentMovement{
			StudentID:        student.ID,
			FromClassID:      &fromClass.ID,
			ToClassID:        &dest.ID,
			MovementType:     models.MovePromotion,
			MovementDate:     time.Now(),
			Reason:           fmt.Sprintf("year-end promotion %d to %d", current.Year, newYear.Year),
			MovedByID:        actorID,
			PreviousArrears:  arrears,
			PreservedArrears: arrears,
			IsBulkOperation:  true,
			BulkOperationID:  result.OperationID,
		}
		if err := tx.Create(mv).Error; err != nil {
			return fatalErr("create rollover movement", err)
		}
		student.CurrentClassID = &dest.ID
		if err := tx.Save(student).Error; err != nil {
			return fatalErr("update student", err)
		}

		if _, err := s.ledger.initializeTermBalanceTx(tx, student.ID, firstTerm.ID, &arrears); err != nil {
			return err
		}
		result.Promoted++
	}
	return nil
}
