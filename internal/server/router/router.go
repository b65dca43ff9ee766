package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/server/handlers"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/taxonomy", handler.Taxonomy)

	api.GET("/counts", handler.Counts)
	api.DELETE("/counts", handler.Reset)
	api.PUT("/counts/:breed/breeders/:sex", handler.SetBreeders)
	api.PUT("/counts/:breed/juvenile/:sex", handler.SetJuvenile)
	api.PUT("/counts/:breed/stages/:stage", handler.SetStage)
	api.POST("/counts/:breed/step", handler.Step)

	api.POST("/snapshots", handler.SaveSnapshot)
	api.GET("/snapshots/latest", handler.LatestSnapshot)
	api.DELETE("/snapshots", handler.ClearSnapshots)

	api.GET("/history", handler.History)
	api.GET("/export", handler.ExportRange)
	api.GET("/export/latest", handler.ExportLatest)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
