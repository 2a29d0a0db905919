package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matria-app/matria/internal/common"
	"github.com/matria-app/matria/internal/config"
	"github.com/matria-app/matria/internal/httpapi/handlers"
	"github.com/matria-app/matria/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)

	// auth
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/link", h.SendLoginLink)
	r.POST("/auth/link/verify", h.VerifyLoginLink)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	authGroup.POST("/auth/logout", h.Logout)

	// chat (JWT required)
	authGroup.POST("/chat/conversations", h.CreateConversation)
	authGroup.POST("/chat/messages", h.SendMessage)
	authGroup.GET("/chat/conversations", h.ListConversations)
	authGroup.GET("/chat/conversations/:id/messages", h.ListMessages)
	authGroup.DELETE("/chat/conversations/:id", h.DeleteConversation)

	// local-store maintenance
	authGroup.GET("/stats", h.Stats)
	authGroup.POST("/sync", h.TriggerSync)

	return r
}
