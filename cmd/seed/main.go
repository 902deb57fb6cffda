package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/nordveldt/userbase/config"
	"github.com/nordveldt/userbase/internal/domain/entity"
	repo "github.com/nordveldt/userbase/internal/domain/repository"
	"github.com/nordveldt/userbase/internal/events"
	pginfra "github.com/nordveldt/userbase/internal/infrastructure/postgres"
	"github.com/nordveldt/userbase/pkg/helpers"
)

// Seeds one admin and a handful of demo users through the real repositories,
// so the same hashing, contact fan-out and role change path run as in the
// API. Safe to run twice; existing emails are skipped.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Role change events land in the log instead of a broker.
	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe(func(_ context.Context, ev events.UserEvent) error {
		logger.WithField("event", ev.Name).WithField("user_id", ev.User.ID).Info("role change")
		return nil
	})

	contacts := pginfra.NewContactRepository(pool)
	users := pginfra.NewUserRepository(pool, contacts, helpers.BcryptHasher{}, dispatcher, cfg.AdminRole, logger)

	seedAdmin(ctx, users, cfg.AdminRole)
	seedDemoUsers(ctx, users)
}

func seedAdmin(ctx context.Context, users repo.UserRepository, adminRole string) {
	const email = "admin@example.com"
	if _, err := users.GetByEmail(ctx, email); err == nil {
		fmt.Printf("admin already present: %s\n", email)
		return
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Fatalf("failed to check admin: %v", err)
	}

	admin := &entity.User{
		Realname: "Site Admin",
		Role:     adminRole,
		Email:    email,
		Password: "changeme123",
		Contacts: []entity.Contact{{Type: entity.TypeEmail, Value: email}},
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%d email=%s password=changeme123\n", admin.ID, email)
}

func seedDemoUsers(ctx context.Context, users repo.UserRepository) {
	const probe = "demo1@example.com"
	if _, err := users.GetByEmail(ctx, probe); err == nil {
		fmt.Println("demo users already present")
		return
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Fatalf("failed to check demo users: %v", err)
	}

	demo := make([]*entity.User, 0, 3)
	for i := 1; i <= 3; i++ {
		email := fmt.Sprintf("demo%d@example.com", i)
		demo = append(demo, &entity.User{
			Realname: fmt.Sprintf("Demo User %d", i),
			Role:     "user",
			Email:    email,
			Password: "password123",
			Contacts: []entity.Contact{{Type: entity.TypeEmail, Value: email}},
		})
	}
	ids, err := users.CreateMany(ctx, demo)
	if err != nil {
		log.Fatalf("failed to seed demo users: %v", err)
	}
	fmt.Printf("seeded %d demo users: ids=%v password=password123\n", len(ids), ids)
}
