package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"siteflow/internal/auth"
	"siteflow/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init connects to PostgreSQL, retrying while the database starts, and
// migrates the schema.
func Init(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		logger.Info("connecting to database", "attempt", i, "max_attempts", maxAttempts)

		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			logger.Info("connected to database")
			break
		}

		logger.Warn("database connection failed", "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to db after %d attempts: %w", maxAttempts, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Trade{},
		&models.Issue{},
		&models.IssueHistory{},
		&models.Comment{},
		&models.Attachment{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// EnsureAdmin creates an admin account with email and password unless a
// user with that email exists, in which case it is promoted to admin.
// It reports whether a new account was created.
func EnsureAdmin(db *gorm.DB, email, password string) (bool, error) {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			return false, nil
		}
		return false, db.Model(&existing).Update("role", models.RoleAdmin).Error
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("check admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
