//go:build ignore

// Seed an administrator account:
//
//	go run scripts/create_admin.go -username admin -password secret -name "Head Admin"
package main

import (
	"flag"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tnyandoro/schoolcore/config"
	"github.com/tnyandoro/schoolcore/database"
	"github.com/tnyandoro/schoolcore/models"
)

func main() {
	username := flag.String("username", "admin", "login username")
	password := flag.String("password", "", "login password")
	name := flag.String("name", "Administrator", "display name")
	flag.Parse()

	if strings.TrimSpace(*password) == "" {
		log.Fatal("-password is required")
	}

	cfg := config.Load()
	database.Connect(cfg)

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := models.Administrator{
		Username: strings.ToLower(strings.TrimSpace(*username)),
		Password: string(hash),
		Role:     "admin",
		Name:     *name,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatalf("create administrator: %v", err)
	}
	log.Printf("administrator %q created (id=%d)", admin.Username, admin.ID)
}
