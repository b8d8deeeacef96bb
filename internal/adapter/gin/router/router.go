package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ledger-service/internal/adapter/gin/handler"
	"ledger-service/internal/adapter/gin/middleware"
	grpcmiddleware "ledger-service/internal/adapter/grpc/middleware"
)

// HealthChecker probes the service's dependencies.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Deps groups what the router needs to serve the API.
type Deps struct {
	Users       *handler.UserHandler
	Entries     *handler.EntryHandler
	Tokens      middleware.TokenVerifier
	RateLimiter *grpcmiddleware.RateLimiter // nil disables rate limiting
	Health      HealthChecker               // nil reports healthy unconditionally
	ServiceName string
	Log         *zap.Logger
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(d.Log))
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.RateLimiter(d.RateLimiter))

	router.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health.Check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": d.ServiceName,
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": d.ServiceName,
		})
	})

	auth := middleware.Auth(d.Tokens, d.Log)

	v1 := router.Group("/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("", d.Users.Register)
			users.POST("/authenticate", d.Users.Authenticate)
			users.GET("/:id", auth, d.Users.GetUser)
		}

		entries := v1.Group("/entries", auth)
		{
			entries.POST("", d.Entries.Create)
			entries.GET("", d.Entries.Search)
			entries.GET("/:id", d.Entries.Get)
			entries.PUT("/:id", d.Entries.Update)
			entries.PUT("/:id/status", d.Entries.UpdateStatus)
			entries.DELETE("/:id", d.Entries.Delete)
		}
	}

	return router
}
