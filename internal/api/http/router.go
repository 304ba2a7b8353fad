package http

import "github.com/gin-gonic/gin"

func NewRouter(healthController *HealthController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", healthController.Health)
	router.GET("/status", healthController.Status)
	router.GET("/ready", healthController.Ready)

	return router
}
