package main

import (
	"fmt"
	"log/slog"
	"os"

	"siteflow/internal/database"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	dsn := pflag.String("dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN (default $DB_DSN)")
	email := pflag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email (default $ADMIN_EMAIL)")
	password := pflag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (default $ADMIN_PASSWORD)")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *dsn == "" || *email == "" || *password == "" {
		logger.Error("dsn, email and password are required")
		pflag.Usage()
		os.Exit(2)
	}

	db, err := database.Init(*dsn, logger)
	if err != nil {
		logger.Error("connect to database", "error", err)
		os.Exit(1)
	}

	created, err := database.EnsureAdmin(db, *email, *password)
	if err != nil {
		logger.Error("create admin", "error", err)
		os.Exit(1)
	}

	if created {
		fmt.Printf("Admin created: %s\n", *email)
	} else {
		fmt.Printf("Existing user %s is an admin\n", *email)
	}
}
