package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glitchbyte/streambot/internal/common"
	"github.com/glitchbyte/streambot/internal/httpapi/handlers"
	"github.com/glitchbyte/streambot/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(h.Cfg.JWTSecret))
	authGroup.GET("/users/:platform_id/turns", h.ListTurns)
	authGroup.DELETE("/users/:platform_id/turns", h.ClearTurns)
	authGroup.GET("/users/:platform_id/routing", h.GetRoutingState)
	authGroup.PUT("/users/:platform_id/routing", h.SetRoutingState)
	authGroup.POST("/messages", h.InjectMessage)

	return r
}
