package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tnyandoro/schoolcore/models"
)

// MovementService executes validated single and bulk student movements.
// Each movement is one transaction: the student row is locked, the proposal
// validated, the arrears snapshot taken, and the movement record plus the
// student's class assignment written together.
type MovementService struct {
	db     *gorm.DB
	ledger *BalanceLedger
}

func NewMovementService(db *gorm.DB, ledger *BalanceLedger) *MovementService {
	return &MovementService{db: db, ledger: ledger}
}

// BatchResult reports a bulk operation: independent per-student outcomes.
type BatchResult struct {
	OperationID string        `json:"operation_id"`
	Succeeded   []uint        `json:"succeeded"`
	Failed      []BatchFailed `json:"failed"`
}

type BatchFailed struct {
	StudentID uint   `json:"student_id"`
	Reason    string `json:"reason"`
}

// Promote moves a student one or more grades up. A terminal-grade student is
// redirected to graduation: the target class is ignored and the student
// leaves the school instead.
func (s *MovementService) Promote(studentID, targetClassID uint, reason string, actorID *uint) (*models.StudentMovement, error) {
	var mv *models.StudentMovement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		student, fromClass, err := s.lockStudent(tx, studentID)
		if err != nil {
			return err
		}
		if fromClass != nil && fromClass.Grade == models.TerminalGrade {
			mv, err = s.graduate(tx, student, fromClass, reason, actorID, false, "")
			return err
		}
		toClass, err := loadClass(tx, targetClassID)
		if err != nil {
			return err
		}
		mv, err = s.move(tx, student, fromClass, toClass, models.MovePromotion, reason, actorID, false, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// Demote moves a student down the grade scale. A reason is mandatory.
func (s *MovementService) Demote(studentID, targetClassID uint, reason string, actorID *uint) (*models.StudentMovement, error) {
	return s.single(studentID, targetClassID, models.MoveDemotion, reason, actorID)
}

// Transfer moves a student sideways: same grade, same year, different class.
func (s *MovementService) Transfer(studentID, targetClassID uint, reason string, actorID *uint) (*models.StudentMovement, error) {
	return s.single(studentID, targetClassID, models.MoveTransfer, reason, actorID)
}

func (s *MovementService) single(studentID, targetClassID uint, movementType, reason string, actorID *uint) (*models.StudentMovement, error) {
	var mv *models.StudentMovement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		student, fromClass, err := s.lockStudent(tx, studentID)
		if err != nil {
			return err
		}
		toClass, err := loadClass(tx, targetClassID)
		if err != nil {
			return err
		}
		mv, err = s.move(tx, student, fromClass, toClass, movementType, reason, actorID, false, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// BulkPromote promotes each listed student into the next grade of their own
// class's year, same section first, lowest section then lowest id as the
// fallback. Students are processed in independent transactions: one failure
// never rolls back another's success.
func (s *MovementService) BulkPromote(studentIDs []uint, actorID *uint) (*BatchResult, error) {
	opID := uuid.NewString()
	result := &BatchResult{OperationID: opID}

	fromYear, toYear := 0, 0
	for _, id := range studentIDs {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			student, fromClass, err := s.lockStudent(tx, id)
			if err != nil {
				return err
			}
			if fromClass == nil {
				return validationErr(RuleStudentUnassigned, "student %s has no class assignment", student.FullName())
			}
			if fromYear == 0 {
				fromYear = fromClass.AcademicYear
				toYear = fromClass.AcademicYear
			}
			if fromClass.Grade == models.TerminalGrade {
				_, err = s.graduate(tx, student, fromClass, "bulk promotion: terminal grade", actorID, true, opID)
				return err
			}
			dest, _, err := resolveDestination(tx, models.NextGrade(fromClass.Grade), fromClass.Section, fromClass.AcademicYear)
			if err != nil {
				return err
			}
			if dest == nil {
				return validationErr("NO_DESTINATION_CLASS", "no grade %s class exists in %d", models.NextGrade(fromClass.Grade), fromClass.AcademicYear)
			}
			_, err = s.move(tx, student, fromClass, dest, models.MovePromotion, "", actorID, true, opID)
			return err
		})
		if err != nil {
			result.Failed = append(result.Failed, BatchFailed{StudentID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	summary := &models.BulkMovement{
		OperationID:      opID,
		MovementType:     models.BulkPromotion,
		FromAcademicYear: fromYear,
		ToAcademicYear:   toYear,
		ExecutionDate:    time.Now(),
		ExecutedByID:     actorID,
		TotalStudents:    len(studentIDs),
		SuccessfulMoves:  len(result.Succeeded),
		FailedMoves:      len(result.Failed),
	}
	if err := s.db.Create(summary).Error; err != nil {
		return nil, fatalErr("record bulk movement", err)
	}
	return result, nil
}

// lockStudent loads the student row FOR UPDATE so same-student movements
// serialize, along with the current class when one is assigned.
func (s *MovementService) lockStudent(tx *gorm.DB, studentID uint) (*models.Student, *models.Class, error) {
	var student models.Student
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_deleted = ?", false).
		First(&student, "id = ?", studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFoundErr("student", studentID)
		}
		return nil, nil, fatalErr("load student", err)
	}
	if student.CurrentClassID == nil {
		return &student, nil, nil
	}
	fromClass, err := loadClass(tx, *student.CurrentClassID)
	if err != nil {
		return nil, nil, err
	}
	return &student, fromClass, nil
}

func loadClass(tx *gorm.DB, classID uint) (*models.Class, error) {
	var class models.Class
	if err := tx.First(&class, "id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("class", classID)
		}
		return nil, fatalErr("load class", err)
	}
	return &class, nil
}

func classRef(c *models.Class) *ClassRef {
	if c == nil {
		return nil
	}
	return &ClassRef{ID: c.ID, Grade: c.Grade, Section: c.Section, AcademicYear: c.AcademicYear}
}

// move validates and applies one movement. The arrears snapshot is taken
// immediately before the write and stored on the movement record; it is
// never recomputed afterwards.
func (s *MovementService) move(tx *gorm.DB, student *models.Student, fromClass, toClass *models.Class, movementType, reason string, actorID *uint, bulk bool, opID string) (*models.StudentMovement, error) {
	verdict := ValidateMovement(MovementProposal{
		StudentActive: student.IsActive,
		StudentStatus: student.Status,
		MovementType:  movementType,
		FromClass:     classRef(fromClass),
		ToClass:       classRef(toClass),
		Reason:        reason,
	})
	if !verdict.Approved {
		return nil, &ValidationError{Rule: verdict.Rule, Message: verdict.Message}
	}

	arrears, err := s.ledger.OutstandingArrears(tx, student.ID)
	if err != nil {
		return nil, err
	}

	mv := &models.StudentMovement{
		StudentID:        student.ID,
		FromClassID:      &fromClass.ID,
		ToClassID:        &toClass.ID,
		MovementType:     movementType,
		MovementDate:     time.Now(),
		Reason:           reason,
		MovedByID:        actorID,
		PreviousArrears:  arrears,
		PreservedArrears: arrears,
		IsBulkOperation:  bulk,
		BulkOperationID:  opID,
	}
	if err := tx.Create(mv).Error; err != nil {
		return nil, fatalErr("create movement", err)
	}
	student.CurrentClassID = &toClass.ID
	if err := tx.Save(student).Error; err != nil {
		return nil, fatalErr("update student", err)
	}
	return mv, nil
}

// graduate records the terminal exit of a grade-7 student and retires the
// record: inactive, GRADUATED, archived. The arrears snapshot stays on the
// movement; no new balance rows are created for a graduate.
func (s *MovementService) graduate(tx *gorm.DB, student *models.Student, fromClass *models.Class, reason string, actorID *uint, bulk bool, opID string) (*models.StudentMovement, error) {
	verdict := ValidateMovement(MovementProposal{
		StudentActive: student.IsActive,
		StudentStatus: student.Status,
		MovementType:  models.MoveGraduation,
		FromClass:     classRef(fromClass),
		ToClass:       nil,
		Reason:        reason,
	})
	if !verdict.Approved {
		return nil, &ValidationError{Rule: verdict.Rule, Message: verdict.Message}
	}

	arrears, err := s.ledger.OutstandingArrears(tx, student.ID)
	if err != nil {
		return nil, err
	}
	mv, err := writeGraduation(tx, student, fromClass, arrears, reason, actorID, bulk, opID)
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// writeGraduation persists a graduation movement and flips the student to
// the terminal state. Shared by the movement service and the rollover.
func writeGraduation(tx *gorm.DB, student *models.Student, fromClass *models.Class, snapshot decimal.Decimal, reason string, actorID *uint, bulk bool, opID string) (*models.StudentMovement, error) {
	mv := &models.StudentMovement{
		StudentID:        student.ID,
		FromClassID:      &fromClass.ID,
		ToClassID:        nil,
		MovementType:     models.MoveGraduation,
		MovementDate:     time.Now(),
		Reason:           reason,
		MovedByID:        actorID,
		PreviousArrears:  snapshot,
		PreservedArrears: snapshot,
		IsBulkOperation:  bulk,
		BulkOperationID:  opID,
	}
	if err := tx.Create(mv).Error; err != nil {
		return nil, fatalErr("create graduation movement", err)
	}
	student.IsActive = false
	student.Status = models.StatusGraduated
	student.IsArchived = true
	if err := tx.Save(student).Error; err != nil {
		return nil, fatalErr("retire student", err)
	}
	return mv, nil
}

// resolveDestination picks the destination class for a promotion into the
// given grade and year: the same section when it exists, otherwise the
// lowest section code then lowest id. The second return reports whether the
// same-section match was used.
func resolveDestination(tx *gorm.DB, grade, section string, year int) (*models.Class, bool, error) {
	if grade == "" {
		return nil, false, nil
	}
	var dest models.Class
	err := tx.Where("grade = ? AND section = ? AND academic_year = ?", grade, section, year).First(&dest).Error
	if err == nil {
		return &dest, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fatalErr("resolve destination class", err)
	}
	err = tx.Where("grade = ? AND academic_year = ?", grade, year).
		Order("section, id").First(&dest).Error
	if err == nil {
		return &dest, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fatalErr("resolve destination class", err)
	}
	return nil, false, nil
}

// ListMovements returns movement records, newest first.
func (s *MovementService) ListMovements(studentID uint, limit, offset int) ([]models.StudentMovement, error) {
	q := s.db.Model(&models.StudentMovement{})
	if studentID > 0 {
		q = q.Where("student_id = ?", studentID)
	}
	var items []models.StudentMovement
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, fatalErr("list movements", err)
	}
	return items, nil
}

// GetMovement loads one movement record.
func (s *MovementService) GetMovement(id uint) (*models.StudentMovement, error) {
	var mv models.StudentMovement
	if err := s.db.First(&mv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("movement", id)
		}
		return nil, fatalErr("load movement", err)
	}
	return &mv, nil
}
