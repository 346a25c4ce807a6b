// Package main seeds a Shelfside database with demo accounts.
//
// It creates (or resets) an "admin" account with the ADMIN role and a "user"
// account with the USER role, both with the password pw123. Running it again
// updates the existing accounts in place.
//
// Usage:
//
//	go run ./cmd/seed --data-path ~/Shelfside/data
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shelfside/shelfside/internal/auth"
	"github.com/shelfside/shelfside/internal/config"
	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/id"
	"github.com/shelfside/shelfside/internal/logger"
	"github.com/shelfside/shelfside/internal/store/sqlite"
)

const demoPassword = "pw123"

var demoAccounts = []struct {
	name     string
	nickname string
	role     domain.Role
}{
	{"admin", "Admin", domain.RoleAdmin},
	{"user", "Reader", domain.RoleUser},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	st, err := sqlite.Open(cfg.Data.DatabasePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to open database", "path", cfg.Data.DatabasePath, "error", err)
	}
	defer st.Close()

	if err := seed(context.Background(), st, log); err != nil {
		log.Error("Seeding failed", "error", err)
		st.Close()
		os.Exit(1)
	}
}

func seed(ctx context.Context, st *sqlite.Store, log *logger.Logger) error {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	for _, acct := range demoAccounts {
		u, err := st.UpsertUserByName(ctx, &domain.User{
			Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser), CreatedAt: now, UpdatedAt: now},
			Name:         acct.name,
			Nickname:     acct.nickname,
			Role:         acct.role,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", acct.name, err)
		}
		log.Info("Account ready", "name", u.Name, "role", u.Role, "id", u.ID)
	}
	return nil
}
