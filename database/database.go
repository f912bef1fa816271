package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tnyandoro/schoolcore/config"
	"github.com/tnyandoro/schoolcore/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}
}

// Migrate creates/updates the schema. Separated from Connect so tests can
// run it against their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Administrator{},
		&models.Teacher{},
		&models.AcademicYear{},
		&models.AcademicTerm{},
		&models.TermFee{},
		&models.Class{},
		&models.Student{},
		&models.StudentMovement{},
		&models.BulkMovement{},
		&models.StudentBalance{},
	)
}
