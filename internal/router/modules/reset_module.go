package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nordveldt/userbase/internal/container"
	handlers "github.com/nordveldt/userbase/internal/interface/http"
	"github.com/nordveldt/userbase/internal/interface/middleware"
)

// ResetModule registers the password recovery routes. Request is the abuse
// magnet (it sends mail), so it gets the tightest limiter.
type ResetModule struct {
	Handler *handlers.PasswordResetHandler
}

func NewResetModule(h *handlers.PasswordResetHandler) *ResetModule {
	return &ResetModule{Handler: h}
}

func (m *ResetModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	requestLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIP(), nil)
	tokenLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	reset := rg.Group("/password-reset")
	{
		reset.POST("/request", requestLimiter, m.Handler.Request)
		reset.POST("/validate", tokenLimiter, m.Handler.Validate)
		reset.POST("/confirm", tokenLimiter, m.Handler.Confirm)
	}
}
