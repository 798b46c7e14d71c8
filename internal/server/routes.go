package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"certificate-backend/internal/certificates"
	"certificate-backend/internal/shared/metrics"
	"certificate-backend/internal/shared/server/middleware"
)

func registerRoutes(r *gin.Engine, certs *certificates.Handler) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.Identity())

	api.POST("/certificates", certs.Upload)
	api.GET("/certificates", certs.List)
	api.GET("/certificates/:id", certs.Get)
}
