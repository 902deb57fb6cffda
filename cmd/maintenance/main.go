package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/nordveldt/userbase/config"
	userapp "github.com/nordveldt/userbase/internal/application"
	pginfra "github.com/nordveldt/userbase/internal/infrastructure/postgres"
	"github.com/nordveldt/userbase/pkg/helpers"
)

// One-shot maintenance run: sweeps reset tokens past their TTL. Token expiry
// is otherwise lazy, so stale rows only leave the table through this path.
// Meant for cron.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.Component(helpers.NewLogger(cfg.AppName, cfg.Env), "maintenance")

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	svc := userapp.NewPasswordResetService(
		pginfra.NewResetTokenRepository(pool),
		nil, // user lookups not needed for sweeping
		nil,
		nil,
		nil,
		cfg.ResetTokenTTL,
		cfg.ResetPasswordURL,
	)

	n, err := svc.DeleteExpired(ctx)
	if err != nil {
		log.Fatalf("failed to delete expired tokens: %v", err)
	}
	logger.WithField("deleted", n).Info("expired reset tokens removed")
}
