// Command seedadmin creates the first administrator account so the API can
// be used right after deployment. It is idempotent: an existing login is
// left untouched unless -reset-password is given.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/repository"
	"github.com/campus-suite/attendance-api/pkg/config"
	"github.com/campus-suite/attendance-api/pkg/database"
)

func main() {
	var (
		login         string
		password      string
		fio           string
		resetPassword bool
		timeout       time.Duration
	)

	flag.StringVar(&login, "login", "admin", "Administrator login")
	flag.StringVar(&password, "password", "", "Initial password (required)")
	flag.StringVar(&fio, "fio", "Администратор", "Full name shown in the user list")
	flag.BoolVar(&resetPassword, "reset-password", false, "Overwrite the password if the login already exists")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Database operation timeout")
	flag.Parse()

	if password == "" {
		log.Fatal("-password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := repository.NewUserRepository(db)

	existing, err := users.FindByLogin(ctx, login)
	switch {
	case err == nil:
		if !resetPassword {
			log.Printf("user %q already exists (id=%s), nothing to do", login, existing.ID)
			return
		}
		if err := users.UpdatePassword(ctx, existing.ID, string(hash)); err != nil {
			log.Fatalf("failed to reset password: %v", err)
		}
		log.Printf("password reset for %q (id=%s)", login, existing.ID)
		return
	case !errors.Is(err, sql.ErrNoRows):
		log.Fatalf("failed to look up %q: %v", login, err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Login:        login,
		FIO:          fio,
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
		FirstStart:   true,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}
	log.Printf("created administrator %q (id=%s)", login, user.ID)
}
