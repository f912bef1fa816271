package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnyandoro/schoolcore/services"
)

func record(t *testing.T, handle func(c echo.Context) error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handle(e.NewContext(req, rec)))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", &services.ValidationError{Rule: "DEMOTION_NO_REASON", Message: "a reason is required"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "class already exists"}, http.StatusConflict, "CONFLICT"},
		{"state", &services.StateError{Message: "year is completed"}, http.StatusConflict, "STATE_ERROR"},
		{"not found", &services.NotFoundError{Entity: "student", ID: 9}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := record(t, func(c echo.Context) error {
				return serviceError(c, tc.err)
			})
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantErr, body["error"])
		})
	}
}

func TestMovementErrorShape(t *testing.T) {
	rec, body := record(t, func(c echo.Context) error {
		return movementError(c, &services.ValidationError{Rule: "PROMOTION_NOT_HIGHER", Message: "target grade must be higher"})
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "PROMOTION_NOT_HIGHER", body["error_kind"])
	assert.Equal(t, "target grade must be higher", body["error_detail"])
}

func TestActorID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, actorID(c))

	c.Set("user_id", uint(7))
	got := actorID(c)
	require.NotNil(t, got)
	assert.Equal(t, uint(7), *got)
}
