package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tnyandoro/schoolcore/services"
)

type BalanceHandler struct {
	ledger *services.BalanceLedger
}

func NewBalanceHandler(ledger *services.BalanceLedger) *BalanceHandler {
	return &BalanceHandler{ledger: ledger}
}

type initBalancePayload struct {
	StudentID uint `json:"student_id" validate:"required"`
	TermID    uint `json:"term_id" validate:"required"`
}

// POST /balances/initialize, idempotent per (student, term).
func (h *BalanceHandler) Initialize(c echo.Context) error {
	var p initBalancePayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	bal, err := h.ledger.InitializeTermBalance(p.StudentID, p.TermID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, bal)
}

// GET /students/:id/balances
func (h *BalanceHandler) StudentBalances(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	rows, err := h.ledger.StudentBalances(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
