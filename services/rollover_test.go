package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnyandoro/schoolcore/models"
)

func TestRollover_NotOnFinalTerm(t *testing.T) {
	db := newTestDB(t)
	y25 := seedYear(t, db, 2025, "100", true, 2)
	cls := seedClass(t, db, "3", "A", 2025)
	seedStudent(t, db, "S001", cls)
	seedClass(t, db, "4", "A", 2026)
	svc := NewRolloverService(db, NewBalanceLedger(db))

	_, err := svc.RolloverYear(y25.ID, nil)
	var se *StateError
	require.ErrorAs(t, err, &se)

	var yearCnt, mvCnt, bulkCnt int64
	db.Model(&models.AcademicYear{}).Where("year = ?", 2026).Count(&yearCnt)
	db.Model(&models.StudentMovement{}).Count(&mvCnt)
	db.Model(&models.BulkMovement{}).Count(&bulkCnt)
	assert.Zero(t, yearCnt, "no target year may be created")
	assert.Zero(t, mvCnt)
	assert.Zero(t, bulkCnt)
}

func TestRollover_TargetYearAlreadyExists(t *testing.T) {
	db := newTestDB(t)
	y25 := seedYear(t, db, 2025, "100", true, 3)
	seedYear(t, db, 2026, "100", false, 0)
	cls := seedClass(t, db, "3", "A", 2025)
	seedStudent(t, db, "S001", cls)
	seedClass(t, db, "4", "A", 2026)
	svc := NewRolloverService(db, NewBalanceLedger(db))

	_, err := svc.RolloverYear(y25.ID, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "YEAR_EXISTS", ve.Rule)

	var mvCnt int64
	db.Model(&models.StudentMovement{}).Count(&mvCnt)
	assert.Zero(t, mvCnt)
}

func TestRollover_MissingTargetGradesAllListed(t *testing.T) {
	db := newTestDB(t)
	y25 := seedYear(t, db, 2025, "100", true, 3)
	c3 := seedClass(t, db, "3", "A", 2025)
	c5 := seedClass(t, db, "5", "A", 2025)
	seedStudent(t, db, "S001", c3)
	seedStudent(t, db, "S002", c5)
	svc := NewRolloverService(db, NewBalanceLedger(db))

	_, err := svc.RolloverYear(y25.ID, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "TARGET_CLASSES_MISSING", ve.Rule)
	assert.Contains(t, ve.Message, "Grade 4")
	assert.Contains(t, ve.Message, "Grade 6")

	var yearCnt int64
	db.Model(&models.AcademicYear{}).Where("year = ?", 2026).Count(&yearCnt)
	assert.Zero(t, yearCnt)
}

func TestRollover_PromotesGraduatesAndCarriesArrears(t *testing.T) {
	db := newTestDB(t)
	y25 := seedYear(t, db, 2025, "100", true, 3)
	c3 := seedClass(t, db, "3", "A", 2025)
	c7 := seedClass(t, db, "7", "A", 2025)
	dest := seedClass(t, db, "4", "A", 2026)
	promoted := seedStudent(t, db, "S001", c3)
	leaver := seedStudent(t, db, "S002", c7)
	// promoted student: 20 arrears + final-term balance (100+20-90) = 50 owed
	seedBalance(t, db, promoted.ID, getTerm(t, db, 2025, 3).ID, "100", "20", "90")
	seedBalance(t, db, leaver.ID, getTerm(t, db, 2025, 3).ID, "100", "0", "60")
	svc := NewRolloverService(db, NewBalanceLedger(db))

	result, err := svc.RolloverYear(y25.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, result.NewYear)
	assert.Equal(t, 2026, result.NewYear.Year)
	assert.Equal(t, 1, result.Promoted)
	assert.Equal(t, 1, result.Graduated)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Warnings)

	// three terms created with the fee carried over
	terms, err := NewPeriodRegistry(db).ListTerms(2026)
	require.NoError(t, err)
	require.Len(t, terms, 3)
	var fee models.TermFee
	require.NoError(t, db.First(&fee, "term_id = ?", terms[0].ID).Error)
	assert.True(t, fee.Amount.Equal(money("100")))

	// promoted student sits in 4A/2026 with the debt snapshot on the movement
	var s1 models.Student
	require.NoError(t, db.First(&s1, "id = ?", promoted.ID).Error)
	assert.Equal(t, dest.ID, *s1.CurrentClassID)
	var mv models.StudentMovement
	require.NoError(t, db.First(&mv, "student_id = ?", promoted.ID).Error)
	assert.Equal(t, models.MovePromotion, mv.MovementType)
	assert.True(t, mv.IsBulkOperation)
	assert.Equal(t, result.OperationID, mv.BulkOperationID)
	assert.True(t, mv.PreviousArrears.Equal(money("50")), "got %s", mv.PreviousArrears)

	// and the debt reappears on the new year's first-term balance
	var bal models.StudentBalance
	require.NoError(t, db.First(&bal, "student_id = ? AND term_id = ?", promoted.ID, terms[0].ID).Error)
	assert.True(t, bal.PreviousArrears.Equal(money("50")))
	assert.True(t, bal.TermFee.Equal(money("100")))

	// the grade 7 student graduates with a zero snapshot and no new balance
	var s2 models.Student
	require.NoError(t, db.First(&s2, "id = ?", leaver.ID).Error)
	assert.False(t, s2.IsActive)
	assert.Equal(t, models.StatusGraduated, s2.Status)
	assert.True(t, s2.IsArchived)
	var gmv models.StudentMovement
	require.NoError(t, db.First(&gmv, "student_id = ?", leaver.ID).Error)
	assert.Equal(t, models.MoveGraduation, gmv.MovementType)
	assert.Nil(t, gmv.ToClassID)
	assert.True(t, gmv.PreservedArrears.IsZero())
	var balCnt int64
	db.Model(&models.StudentBalance{}).Where("student_id = ? AND term_id = ?", leaver.ID, terms[0].ID).Count(&balCnt)
	assert.Zero(t, balCnt)

	var summary models.BulkMovement
	require.NoError(t, db.First(&summary, "operation_id = ?", result.OperationID).Error)
	assert.Equal(t, models.BulkYearRollover, summary.MovementType)
	assert.Equal(t, 2025, summary.FromAcademicYear)
	assert.Equal(t, 2026, summary.ToAcademicYear)
	assert.Equal(t, 2, summary.TotalStudents)
	assert.Equal(t, 2, summary.SuccessfulMoves)
	assert.Zero(t, summary.FailedMoves)
}

func TestRollover_SectionFallbackWarns(t *testing.T) {
	db := newTestDB(t)
	y25 := seedYear(t, db, 2025, "100", true, 3)
	from := seedClass(t, db, "4", "B", 2025)
	destA := seedClass(t, db, "5", "A", 2026)
	stu := seedStudent(t, db, "S001", from)
	svc := NewRolloverService(db, NewBalanceLedger(db))

	result, err := svc.RolloverYear(y25.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Promoted)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, stu.ID, result.Warnings[0].StudentID)
	assert.Contains(t, result.Warnings[0].Reason, "section B")

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, "id = ?", stu.ID).Error)
	assert.Equal(t, destA.ID, *reloaded.CurrentClassID)
}

func TestRollover_UnassignedStudentSkippedWithWarning(t *testing.T) {
	db := newTestDB(t)
	y25 := seedYear(t, db, 2025, "100", true, 3)
	cls := seedClass(t, db, "3", "A", 2025)
	seedClass(t, db, "4", "A", 2026)
	moved := seedStudent(t, db, "S001", cls)
	loose := seedStudent(t, db, "S002", nil)
	svc := NewRolloverService(db, NewBalanceLedger(db))

	result, err := svc.RolloverYear(y25.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Promoted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, loose.ID, result.Warnings[0].StudentID)

	var mvCnt int64
	db.Model(&models.StudentMovement{}).Where("student_id = ?", moved.ID).Count(&mvCnt)
	assert.EqualValues(t, 1, mvCnt)
}

func TestRollover_ArchivedStudentsLeftAlone(t *testing.T) {
	db := newTestDB(t)
	y25 := seedYear(t, db, 2025, "100", true, 3)
	cls := seedClass(t, db, "3", "A", 2025)
	seedClass(t, db, "4", "A", 2026)
	old := seedStudent(t, db, "S001", cls)
	require.NoError(t, db.Model(old).Updates(map[string]any{
		"is_active": false, "is_archived": true, "status": models.StatusGraduated,
	}).Error)
	svc := NewRolloverService(db, NewBalanceLedger(db))

	result, err := svc.RolloverYear(y25.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Promoted+result.Graduated+result.Skipped)

	var mvCnt int64
	db.Model(&models.StudentMovement{}).Count(&mvCnt)
	assert.Zero(t, mvCnt)
}
