package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tnyandoro/schoolcore/database"
	"github.com/tnyandoro/schoolcore/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedYear creates an academic year with three terms and one fee for all
// terms, optionally active with the given term current.
func seedYear(t *testing.T, db *gorm.DB, year int, fee string, active bool, currentTerm int) *models.AcademicYear {
	t.Helper()
	y := &models.AcademicYear{
		Year:      year,
		StartDate: date(year, 1, 10),
		EndDate:   date(year, 12, 5),
		IsActive:  active,
	}
	require.NoError(t, db.Create(y).Error)

	starts := [][2]int{{1, 10}, {5, 10}, {9, 10}}
	ends := [][2]int{{4, 10}, {8, 10}, {12, 5}}
	for n := models.FirstTerm; n <= models.LastTerm; n++ {
		term := &models.AcademicTerm{
			AcademicYear: year,
			Term:         n,
			StartDate:    date(year, starts[n-1][0], starts[n-1][1]),
			EndDate:      date(year, ends[n-1][0], ends[n-1][1]),
			IsCurrent:    active && n == currentTerm,
			IsCompleted:  active && n < currentTerm,
		}
		require.NoError(t, db.Create(term).Error)
		require.NoError(t, db.Create(&models.TermFee{TermID: term.ID, Amount: money(fee)}).Error)
	}
	return y
}

func getTerm(t *testing.T, db *gorm.DB, year, term int) *models.AcademicTerm {
	t.Helper()
	var row models.AcademicTerm
	require.NoError(t, db.Where("academic_year = ? AND term = ?", year, term).First(&row).Error)
	return &row
}

func seedClass(t *testing.T, db *gorm.DB, grade, section string, year int) *models.Class {
	t.Helper()
	c := &models.Class{Grade: grade, Section: section, AcademicYear: year}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedStudent(t *testing.T, db *gorm.DB, code string, class *models.Class) *models.Student {
	t.Helper()
	s := &models.Student{
		StudentCode:  code,
		FirstName:    "Test",
		LastName:     code,
		DateEnrolled: date(2024, 1, 15),
		IsActive:     true,
		Status:       models.StatusEnrolled,
	}
	if class != nil {
		s.CurrentClassID = &class.ID
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

// seedBalance writes a balance row directly, bypassing the ledger.
func seedBalance(t *testing.T, db *gorm.DB, studentID, termID uint, fee, arrears, paid string) *models.StudentBalance {
	t.Helper()
	b := &models.StudentBalance{
		StudentID:       studentID,
		TermID:          termID,
		TermFee:         money(fee),
		PreviousArrears: money(arrears),
		AmountPaid:      money(paid),
	}
	require.NoError(t, db.Create(b).Error)
	return b
}
