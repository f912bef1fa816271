package routes

import (
	"os"

	"github.com/labstack/echo/v4"

	"github.com/tnyandoro/schoolcore/database"
	"github.com/tnyandoro/schoolcore/handlers"
	"github.com/tnyandoro/schoolcore/middlewares"
	"github.com/tnyandoro/schoolcore/services"
)

// Register wires all HTTP routes.
func Register(e *echo.Echo) {
	// ===== Services over the shared DB =====
	ledger := services.NewBalanceLedger(database.DB)
	registry := services.NewPeriodRegistry(database.DB)
	movements := services.NewMovementService(database.DB, ledger)
	rollover := services.NewRolloverService(database.DB, ledger)
	classes := services.NewClassService(database.DB)

	// ===== Handlers =====
	auth := handlers.NewAuthHandler()
	std := handlers.NewStudentHandler()
	tch := handlers.NewTeacherHandler()
	cls := handlers.NewClassHandler(classes)
	mv := handlers.NewMovementHandler(movements)
	per := handlers.NewPeriodHandler(registry, rollover)
	bal := handlers.NewBalanceHandler(ledger)

	// ===== Public =====
	e.POST("/admin/login", auth.AdminLogin)

	// ===== Admin =====
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}
	admin := e.Group("", middlewares.RequireAuth(secret), middlewares.RequireRole("admin"))

	admin.GET("/students", std.List)
	admin.GET("/students/:id", std.GetByID)
	admin.POST("/students", std.Create)
	admin.GET("/students/:id/balances", bal.StudentBalances)

	admin.GET("/teachers", tch.List)
	admin.GET("/teachers/:id", tch.GetByID)
	admin.POST("/teachers", tch.Create)

	admin.GET("/classes", cls.List)
	admin.POST("/classes", cls.Create)
	admin.PUT("/classes/:id/teacher", cls.UpdateTeacher)

	admin.GET("/movements", mv.List)
	admin.GET("/movements/:id", mv.GetByID)
	admin.POST("/movements/promote", mv.Promote)
	admin.POST("/movements/demote", mv.Demote)
	admin.POST("/movements/transfer", mv.Transfer)
	admin.POST("/movements/bulk-promote", mv.BulkPromote)

	admin.GET("/years", per.ListYears)
	admin.POST("/years", per.CreateYear)
	admin.POST("/years/:id/activate", per.ActivateYear)
	admin.POST("/years/:id/rollover", per.Rollover)

	admin.GET("/terms", per.ListTerms)
	admin.POST("/terms", per.CreateTerm)
	admin.POST("/terms/:id/activate", per.ActivateTerm)

	admin.POST("/balances/initialize", bal.Initialize)
}
