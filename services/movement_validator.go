package services

import (
	"strings"

	"github.com/tnyandoro/schoolcore/models"
)

// Rule identifiers reported on rejected movements.
const (
	RuleStudentInactive    = "STUDENT_INACTIVE"
	RuleStudentGraduated   = "STUDENT_GRADUATED"
	RuleStudentUnassigned  = "STUDENT_UNASSIGNED"
	RuleTargetRequired     = "TARGET_CLASS_REQUIRED"
	RuleUnknownGrade       = "UNKNOWN_GRADE"
	RuleUnknownType        = "UNKNOWN_MOVEMENT_TYPE"
	RulePromotionNotHigher = "PROMOTION_GRADE_NOT_HIGHER"
	RulePromoteTerminal    = "PROMOTION_FROM_TERMINAL_GRADE"
	RuleDemotionNotLower   = "DEMOTION_GRADE_NOT_LOWER"
	RuleDemotionNoReason   = "DEMOTION_REASON_REQUIRED"
	RuleTransferGrade      = "TRANSFER_GRADE_MISMATCH"
	RuleTransferYear       = "TRANSFER_YEAR_MISMATCH"
	RuleTransferSameClass  = "TRANSFER_SAME_CLASS"
	RuleGraduationGrade    = "GRADUATION_NOT_TERMINAL_GRADE"
	RuleGraduationTarget   = "GRADUATION_TARGET_NOT_NULL"
)

// ClassRef carries the class attributes the validator needs.
type ClassRef struct {
	ID           uint
	Grade        string
	Section      string
	AcademicYear int
}

// MovementProposal is a proposed movement, fully resolved by the caller.
// FromClass is derived from the student's current assignment, never
// caller-supplied.
type MovementProposal struct {
	StudentActive bool
	StudentStatus string
	MovementType  string
	FromClass     *ClassRef
	ToClass       *ClassRef // nil for graduation
	Reason        string
}

// Verdict is the outcome of validating a proposal.
type Verdict struct {
	Approved bool
	Rule     string // violated rule id when rejected
	Message  string
}

func approved() Verdict { return Verdict{Approved: true} }

func rejected(rule, message string) Verdict {
	return Verdict{Approved: false, Rule: rule, Message: message}
}

// ValidateMovement applies the movement rule book to a proposal. Pure: it
// reads nothing and writes nothing, so it can be tested without a database.
func ValidateMovement(p MovementProposal) Verdict {
	if !p.StudentActive {
		return rejected(RuleStudentInactive, "cannot move inactive student; student must be active")
	}
	if p.StudentStatus == models.StatusGraduated {
		return rejected(RuleStudentGraduated, "cannot move graduated student; graduated students cannot be moved")
	}
	if p.FromClass == nil {
		return rejected(RuleStudentUnassigned, "cannot move student without a class assignment")
	}

	switch p.MovementType {
	case models.MovePromotion:
		return validatePromotion(p)
	case models.MoveDemotion:
		return validateDemotion(p)
	case models.MoveTransfer:
		return validateTransfer(p)
	case models.MoveGraduation:
		return validateGraduation(p)
	}
	return rejected(RuleUnknownType, "unknown movement type "+p.MovementType)
}

func gradeRanks(from, to *ClassRef) (int, int, bool) {
	fr, ok1 := models.GradeRank(from.Grade)
	tr, ok2 := models.GradeRank(to.Grade)
	return fr, tr, ok1 && ok2
}

func validatePromotion(p MovementProposal) Verdict {
	if p.ToClass == nil {
		return rejected(RuleTargetRequired, "target class is required for promotion")
	}
	if p.FromClass.Grade == models.TerminalGrade {
		// Terminal-grade students graduate; the caller must redirect.
		return rejected(RulePromoteTerminal, "students in the terminal grade graduate instead of being promoted")
	}
	fr, tr, ok := gradeRanks(p.FromClass, p.ToClass)
	if !ok {
		return rejected(RuleUnknownGrade, "unknown grade code on from/to class")
	}
	if tr <= fr {
		return rejected(RulePromotionNotHigher,
			"invalid promotion: new grade must be higher than current grade (current: "+p.FromClass.Grade+", target: "+p.ToClass.Grade+")")
	}
	return approved()
}

func validateDemotion(p MovementProposal) Verdict {
	if p.ToClass == nil {
		return rejected(RuleTargetRequired, "target class is required for demotion")
	}
	fr, tr, ok := gradeRanks(p.FromClass, p.ToClass)
	if !ok {
		return rejected(RuleUnknownGrade, "unknown grade code on from/to class")
	}
	if tr >= fr {
		return rejected(RuleDemotionNotLower,
			"invalid demotion: new grade must be lower than current grade (current: "+p.FromClass.Grade+", target: "+p.ToClass.Grade+")")
	}
	if strings.TrimSpace(p.Reason) == "" {
		return rejected(RuleDemotionNoReason, "reason is required for demotion")
	}
	return approved()
}

func validateTransfer(p MovementProposal) Verdict {
	if p.ToClass == nil {
		return rejected(RuleTargetRequired, "target class is required for transfer")
	}
	if p.ToClass.Grade != p.FromClass.Grade {
		return rejected(RuleTransferGrade, "invalid transfer: must stay within the same grade")
	}
	if p.ToClass.AcademicYear != p.FromClass.AcademicYear {
		return rejected(RuleTransferYear, "invalid transfer: must stay within the same academic year")
	}
	if p.ToClass.ID == p.FromClass.ID {
		return rejected(RuleTransferSameClass, "cannot transfer to the class the student is already in")
	}
	return approved()
}

func validateGraduation(p MovementProposal) Verdict {
	if p.ToClass != nil {
		return rejected(RuleGraduationTarget, "graduation has no target class")
	}
	if p.FromClass.Grade != models.TerminalGrade {
		return rejected(RuleGraduationGrade, "only terminal-grade students can graduate")
	}
	return approved()
}
