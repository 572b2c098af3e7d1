// Package api assembles the Gin router that the host application talks to.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printbridge/agent/internal/api/handlers"
	"github.com/printbridge/agent/internal/api/middleware"
)

func NewRouter(svc handlers.PrintService, auth *middleware.AuthMiddleware, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/api/v1/login", auth.LoginHandler)

	printerHandler := handlers.NewPrinterHandler(svc)
	jobHandler := handlers.NewJobHandler(svc)

	v1 := router.Group("/api/v1")
	v1.Use(auth.RequireAuth())
	{
		v1.GET("/printers", printerHandler.ListPrinters)
		v1.POST("/print", jobHandler.Print)
		v1.GET("/jobs", jobHandler.ListJobs)
	}

	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}
