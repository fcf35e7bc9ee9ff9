package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"userstore.backend/internal/interfaces/http/handlers"
	"userstore.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "userstore-backend"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	userHandler   *handlers.UserHandler
	changeHandler *handlers.ChangeHandler
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, g prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.GET("", d.userHandler.ListUsers)
			users.POST("", middleware.IdempotencyMiddleware(), d.userHandler.CreateUser)
			users.DELETE("", d.userHandler.DeleteAllUsers)
			users.GET("/:id", d.userHandler.GetUser)
			users.PUT("/:id", d.userHandler.UpdateUser)
			users.DELETE("/:id", d.userHandler.DeleteUser)
		}

		v1.GET("/tables/:table", d.userHandler.BrowseTable)

		changes := v1.Group("/changes")
		{
			changes.GET("", d.changeHandler.GetPending)
			changes.POST("/commit", middleware.IdempotencyMiddleware(), d.changeHandler.Commit)
		}
	}
}
