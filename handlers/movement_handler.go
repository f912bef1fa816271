package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tnyandoro/schoolcore/services"
)

type MovementHandler struct {
	svc *services.MovementService
}

func NewMovementHandler(svc *services.MovementService) *MovementHandler {
	return &MovementHandler{svc: svc}
}

type movePayload struct {
	StudentID     uint   `json:"student_id" validate:"required"`
	TargetClassID uint   `json:"target_class_id" validate:"required"`
	Reason        string `json:"reason"`
}

type demotePayload struct {
	StudentID     uint   `json:"student_id" validate:"required"`
	TargetClassID uint   `json:"target_class_id" validate:"required"`
	Reason        string `json:"reason" validate:"required"`
}

type bulkPromotePayload struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,dive,required"`
}

// POST /movements/promote
func (h *MovementHandler) Promote(c echo.Context) error {
	var p movePayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	mv, err := h.svc.Promote(p.StudentID, p.TargetClassID, p.Reason, actorID(c))
	if err != nil {
		return movementError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "movement_id": mv.ID, "movement": mv})
}

// POST /movements/demote
func (h *MovementHandler) Demote(c echo.Context) error {
	var p demotePayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	mv, err := h.svc.Demote(p.StudentID, p.TargetClassID, p.Reason, actorID(c))
	if err != nil {
		return movementError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "movement_id": mv.ID, "movement": mv})
}

// POST /movements/transfer
func (h *MovementHandler) Transfer(c echo.Context) error {
	var p movePayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	mv, err := h.svc.Transfer(p.StudentID, p.TargetClassID, p.Reason, actorID(c))
	if err != nil {
		return movementError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "movement_id": mv.ID, "movement": mv})
}

// POST /movements/bulk-promote
func (h *MovementHandler) BulkPromote(c echo.Context) error {
	var p bulkPromotePayload
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	res, err := h.svc.BulkPromote(p.StudentIDs, actorID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GET /movements?student_id=&limit=&offset=
func (h *MovementHandler) List(c echo.Context) error {
	limit := atoiOr(c.QueryParam("limit"), 20)
	if limit < 1 {
		limit = 1
	} else if limit > 100 {
		limit = 100
	}
	offset := atoiOr(c.QueryParam("offset"), 0)
	studentID := uint(atoiOr(c.QueryParam("student_id"), 0))

	items, err := h.svc.ListMovements(studentID, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GET /movements/:id
func (h *MovementHandler) GetByID(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "INVALID_ID"})
	}
	mv, err := h.svc.GetMovement(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, mv)
}
