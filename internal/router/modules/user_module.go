package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nordveldt/userbase/internal/container"
	handlers "github.com/nordveldt/userbase/internal/interface/http"
	"github.com/nordveldt/userbase/internal/interface/middleware"
)

// UserModule registers the user CRUD and search routes under /api/users.
// Reads share a generous per-IP limiter; writes get a tighter per-route one,
// and bulk import tighter still.
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	readLimiter := middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil)
	writeLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIPAndPath(), nil)
	importLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	users := rg.Group("/users")
	{
		users.GET("", readLimiter, m.Handler.List)
		users.GET("/count", readLimiter, m.Handler.Count)
		users.GET("/by-email", readLimiter, m.Handler.GetByEmail)
		users.GET("/:id", readLimiter, m.Handler.Get)

		users.POST("", writeLimiter, m.Handler.Create)
		users.POST("/import", importLimiter, m.Handler.Import)
		users.PUT("/:id", writeLimiter, m.Handler.Update)
		users.DELETE("/:id", writeLimiter, m.Handler.Delete)
	}
}
