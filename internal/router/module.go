package router

import "github.com/gin-gonic/gin"

// Module is a self-contained feature that registers its own routes.
type Module interface {
	Register(rg *gin.RouterGroup)
}
