package router

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cvpanel/internal/handlers"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.Default()

	r.Use(requestID())

	api := r.Group("/api")
	{
		api.POST("/generate", h.StartGeneration)
		api.GET("/status", h.Status)
		api.POST("/stop", h.StopGeneration)
		api.DELETE("/clear", h.ClearGeneration)
		api.GET("/models", h.Models)
		api.GET("/files", h.Files)
		api.DELETE("/files/:name", h.DeleteFile)
		api.GET("/health", h.Health)
	}

	r.GET("/ws", h.WebSocket)

	return r
}

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)

		c.Next()
	}
}
