package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/quillfeed/quillfeed/config"
	"github.com/quillfeed/quillfeed/internal/api/handler"
	"github.com/quillfeed/quillfeed/pkg/middleware"
)

// NewRouter assembles the HTTP surface.
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
		otelgin.Middleware(cfg.App.Name),
		middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.Burst),
	)

	api := r.Group("/api/v1")
	api.POST("/users", h.Register)

	auth := api.Group("", middleware.Auth(cfg.Auth.JWTSecret))
	auth.POST("/statuses", h.PublishStatus)
	auth.POST("/statuses/:id/boost", h.BoostStatus)
	auth.DELETE("/statuses/:id", h.DeleteStatus)
	auth.POST("/relations/follow", h.Follow)
	auth.POST("/relations/unfollow", h.Unfollow)
	auth.POST("/relations/block", h.Block)
	auth.POST("/relations/unblock", h.Unblock)
	auth.GET("/relations/following", h.ListFollowing)
	auth.GET("/feeds/:key", h.GetFeed)
	auth.GET("/feeds/:key/unread", h.GetUnread)
	return r
}
