package router

import (
	userapp "github.com/nordveldt/userbase/internal/application"
	"github.com/nordveldt/userbase/internal/container"
	repo "github.com/nordveldt/userbase/internal/domain/repository"
	"github.com/nordveldt/userbase/internal/events"
	pginfra "github.com/nordveldt/userbase/internal/infrastructure/postgres"
	handlers "github.com/nordveldt/userbase/internal/interface/http"
	"github.com/nordveldt/userbase/internal/router/modules"
	"github.com/nordveldt/userbase/pkg/helpers"
)

// InitModules wires repositories, services and handlers from the container
// singletons and registers every feature module. Called once at startup,
// after the container is populated.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	contactRepo := pginfra.NewContactRepository(pool)
	hasher := helpers.BcryptHasher{}

	// Publishers are optional; a nil check here keeps the interface fields
	// truly nil instead of holding a typed nil.
	var notifier repo.RoleChangeNotifier
	if pub := container.GetEventsPub(); pub != nil {
		notifier = events.NewAMQPNotifier(pub)
	}
	var emails userapp.EmailQueue
	if pub := container.GetEmailPub(); pub != nil {
		emails = pub
	}

	userRepo := pginfra.NewUserRepository(pool, contactRepo, hasher, notifier, cfg.AdminRole, logger)
	tokenRepo := pginfra.NewResetTokenRepository(pool)

	userSvc := userapp.NewUserService(userRepo, contactRepo, container.GetRedis(), logger)
	resetSvc := userapp.NewPasswordResetService(
		tokenRepo,
		userRepo,
		hasher,
		emails,
		logger,
		cfg.ResetTokenTTL,
		cfg.ResetPasswordURL,
	)

	r.Add(modules.NewUserModule(handlers.NewUserHandler(userSvc, logger)))
	r.Add(modules.NewResetModule(handlers.NewPasswordResetHandler(resetSvc, logger)))
	r.Add(modules.NewDebugModule())
}
