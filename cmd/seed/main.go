package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"easylaw-be/internal/config"
	"easylaw-be/internal/constant"
	"easylaw-be/internal/model"
	"easylaw-be/internal/pkg/serverutils"
	"easylaw-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeds the default admin account and prints a token for local testing.
func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}
	if cfg.Admin.Password == "" {
		color.Red("Error: ADMIN_PASSWORD is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding admin account %s...", cfg.Admin.Email)

	var admin model.User
	err = db.Where("email = ?", cfg.Admin.Email).First(&admin).Error
	switch {
	case err == nil:
		color.Yellow("Admin '%s' already exists, skipping...", cfg.Admin.Email)
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Error: Failed to hash password:", err)
		}
		now := time.Now().UTC()
		admin = model.User{
			Id:           uuid.New(),
			Email:        cfg.Admin.Email,
			PasswordHash: string(hash),
			FullName:     "Administrator",
			Role:         constant.RoleAdmin,
			Status:       constant.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatal("Error: Failed to create admin:", err)
		}
		color.Green("Created admin: %s", admin.Email)
	default:
		log.Fatal("Error: Failed to look up admin:", err)
	}

	if cfg.IsProduction() || cfg.Auth.JwtSecret == "" {
		return
	}
	token, err := serverutils.GenerateToken(cfg.Auth.JwtSecret, admin.Id, constant.RoleAdmin, time.Duration(cfg.Auth.JwtExpireMinutes)*time.Minute)
	if err != nil {
		log.Fatal("Error: Failed to sign token:", err)
	}
	color.Green("Development admin token:")
	fmt.Println(token)
}
