package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnyandoro/schoolcore/models"
)

func TestPromote_CarriesArrearsSnapshot(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 2)
	from := seedClass(t, db, "3", "A", 2025)
	to := seedClass(t, db, "4", "A", 2025)
	stu := seedStudent(t, db, "S001", from)
	// current term row: fee 100 + arrears 20, paid 90 -> 50 owed in total
	seedBalance(t, db, stu.ID, getTerm(t, db, 2025, 2).ID, "100", "20", "90")
	svc := NewMovementService(db, NewBalanceLedger(db))

	mv, err := svc.Promote(stu.ID, to.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.MovePromotion, mv.MovementType)
	require.NotNil(t, mv.ToClassID)
	assert.Equal(t, to.ID, *mv.ToClassID)
	assert.True(t, mv.PreviousArrears.Equal(money("50")), "got %s", mv.PreviousArrears)
	assert.True(t, mv.PreservedArrears.Equal(money("50")))

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, "id = ?", stu.ID).Error)
	require.NotNil(t, reloaded.CurrentClassID)
	assert.Equal(t, to.ID, *reloaded.CurrentClassID)
}

func TestPromote_TerminalGradeGraduatesInstead(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 3)
	from := seedClass(t, db, "7", "A", 2025)
	other := seedClass(t, db, "7", "B", 2025)
	stu := seedStudent(t, db, "S001", from)
	seedBalance(t, db, stu.ID, getTerm(t, db, 2025, 3).ID, "100", "0", "60")
	svc := NewMovementService(db, NewBalanceLedger(db))

	mv, err := svc.Promote(stu.ID, other.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.MoveGraduation, mv.MovementType)
	assert.Nil(t, mv.ToClassID)
	assert.True(t, mv.PreservedArrears.Equal(money("40")), "graduation keeps the debt snapshot")

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, "id = ?", stu.ID).Error)
	assert.False(t, reloaded.IsActive)
	assert.Equal(t, models.StatusGraduated, reloaded.Status)
	assert.True(t, reloaded.IsArchived)
	assert.NotNil(t, reloaded.CurrentClassID, "historical class link stays for the archive")
}

func TestPromote_GraduatedStudentRejected(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 1)
	from := seedClass(t, db, "3", "A", 2025)
	to := seedClass(t, db, "4", "A", 2025)
	stu := seedStudent(t, db, "S001", from)
	require.NoError(t, db.Model(stu).Updates(map[string]any{"is_active": false, "status": models.StatusGraduated}).Error)
	svc := NewMovementService(db, NewBalanceLedger(db))

	_, err := svc.Promote(stu.ID, to.ID, "", nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, RuleStudentInactive, ve.Rule)
}

func TestDemote_EmptyReasonPersistsNothing(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 1)
	from := seedClass(t, db, "4", "A", 2025)
	to := seedClass(t, db, "3", "A", 2025)
	stu := seedStudent(t, db, "S001", from)
	svc := NewMovementService(db, NewBalanceLedger(db))

	_, err := svc.Demote(stu.ID, to.ID, "  ", nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, RuleDemotionNoReason, ve.Rule)

	var count int64
	db.Model(&models.StudentMovement{}).Count(&count)
	assert.EqualValues(t, 0, count)
	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, "id = ?", stu.ID).Error)
	assert.Equal(t, from.ID, *reloaded.CurrentClassID)
}

func TestDemote_WithReason(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 1)
	from := seedClass(t, db, "4", "A", 2025)
	to := seedClass(t, db, "3", "A", 2025)
	stu := seedStudent(t, db, "S001", from)
	svc := NewMovementService(db, NewBalanceLedger(db))

	mv, err := svc.Demote(stu.ID, to.ID, "repeating the year", nil)
	require.NoError(t, err)
	assert.Equal(t, models.MoveDemotion, mv.MovementType)
	assert.Equal(t, "repeating the year", mv.Reason)
}

func TestTransfer_CrossGradeRejected(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 1)
	from := seedClass(t, db, "4", "A", 2025)
	wrong := seedClass(t, db, "5", "B", 2025)
	right := seedClass(t, db, "4", "B", 2025)
	stu := seedStudent(t, db, "S001", from)
	svc := NewMovementService(db, NewBalanceLedger(db))

	_, err := svc.Transfer(stu.ID, wrong.ID, "", nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, RuleTransferGrade, ve.Rule)

	mv, err := svc.Transfer(stu.ID, right.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.MoveTransfer, mv.MovementType)
}

func TestBulkPromote_FailuresAreIndependent(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 1)
	c3 := seedClass(t, db, "3", "A", 2025)
	c6 := seedClass(t, db, "6", "A", 2025)
	seedClass(t, db, "4", "A", 2025)
	// no grade 7 class: the grade 6 student has nowhere to go
	ok := seedStudent(t, db, "S001", c3)
	stuck := seedStudent(t, db, "S002", c6)
	unassigned := seedStudent(t, db, "S003", nil)
	svc := NewMovementService(db, NewBalanceLedger(db))

	result, err := svc.BulkPromote([]uint{ok.ID, stuck.ID, unassigned.ID}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.OperationID)
	assert.Equal(t, []uint{ok.ID}, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, stuck.ID, result.Failed[0].StudentID)
	assert.Equal(t, unassigned.ID, result.Failed[1].StudentID)

	// the failed students are untouched
	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, "id = ?", stuck.ID).Error)
	assert.Equal(t, c6.ID, *reloaded.CurrentClassID)

	var summary models.BulkMovement
	require.NoError(t, db.First(&summary, "operation_id = ?", result.OperationID).Error)
	assert.Equal(t, models.BulkPromotion, summary.MovementType)
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, 1, summary.SuccessfulMoves)
	assert.Equal(t, 2, summary.FailedMoves)

	var mv models.StudentMovement
	require.NoError(t, db.First(&mv, "student_id = ?", ok.ID).Error)
	assert.True(t, mv.IsBulkOperation)
	assert.Equal(t, result.OperationID, mv.BulkOperationID)
}

func TestBulkPromote_SectionFallback(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 1)
	from := seedClass(t, db, "4", "B", 2025)
	destA := seedClass(t, db, "5", "A", 2025)
	stu := seedStudent(t, db, "S001", from)
	svc := NewMovementService(db, NewBalanceLedger(db))

	result, err := svc.BulkPromote([]uint{stu.ID}, nil)
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 1)

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, "id = ?", stu.ID).Error)
	assert.Equal(t, destA.ID, *reloaded.CurrentClassID)
}

func TestMovements_DeletedStudentNotFound(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 1)
	cls := seedClass(t, db, "3", "A", 2025)
	to := seedClass(t, db, "4", "A", 2025)
	stu := seedStudent(t, db, "S001", cls)
	require.NoError(t, db.Model(stu).Update("is_deleted", true).Error)
	svc := NewMovementService(db, NewBalanceLedger(db))

	_, err := svc.Promote(stu.ID, to.ID, "", nil)
	var ne *NotFoundError
	require.ErrorAs(t, err, &ne)
}

func TestListMovements(t *testing.T) {
	db := newTestDB(t)
	seedYear(t, db, 2025, "100", true, 1)
	c3 := seedClass(t, db, "3", "A", 2025)
	c4 := seedClass(t, db, "4", "A", 2025)
	c4b := seedClass(t, db, "4", "B", 2025)
	stu := seedStudent(t, db, "S001", c3)
	svc := NewMovementService(db, NewBalanceLedger(db))

	_, err := svc.Promote(stu.ID, c4.ID, "", nil)
	require.NoError(t, err)
	_, err = svc.Transfer(stu.ID, c4b.ID, "", nil)
	require.NoError(t, err)

	items, err := svc.ListMovements(stu.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.MoveTransfer, items[0].MovementType, "newest first")

	got, err := svc.GetMovement(items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, items[0].ID, got.ID)

	_, err = svc.GetMovement(9999)
	var ne *NotFoundError
	require.ErrorAs(t, err, &ne)
}
