package routes

import (
	"net/http"

	"socialpush/api/handlers"
	"socialpush/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PublicApi(router *gin.Engine, events *handlers.EventHandlers, profiles *handlers.ProfileHandlers) *gin.RouterGroup {
	router.Use(middleware.PrometheusMiddleware("socialpush"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "socialpush"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", handlers.WSDeviceHandler)

	publicEndpoints := router.Group("/api/v1/")
	{
		publicEndpoints.POST("events", events.Ingest)

		if profiles != nil {
			publicEndpoints.PUT("users/:id", profiles.SaveUser)
			publicEndpoints.POST("friends", profiles.AddFriend)
			publicEndpoints.GET("friends/exists", profiles.FriendshipExists)
		}
	}
	return publicEndpoints
}
