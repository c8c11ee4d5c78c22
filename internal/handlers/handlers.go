package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cvpanel/internal/models"
)

type Handler struct {
	service  Servicer
	backend  Backender
	hub      Hub
	upgrader websocket.Upgrader
	Log      *slog.Logger
}

// Servicer is the reconciler surface the HTTP layer drives.
type Servicer interface {
	StartBatch(ctx context.Context, req models.GenerationRequest) (string, error)
	Snapshot() models.StatusSnapshot
	Stop()
	Clear()
}

// Backender covers the backend lookups the panel proxies for the browser.
type Backender interface {
	Models(ctx context.Context) (*models.ModelsResponse, error)
	Files(ctx context.Context) (*models.FilesResponse, error)
	DeleteFile(ctx context.Context, filename string) error
	Health(ctx context.Context) (*models.HealthResponse, error)
}

// Hub accepts upgraded WebSocket connections.
type Hub interface {
	RegisterClient(conn *websocket.Conn)
	UnregisterClient(conn *websocket.Conn)
}

func NewHandler(srv Servicer, backend Backender, hub Hub, log *slog.Logger) *Handler {
	return &Handler{
		service: srv,
		backend: backend,
		hub:     hub,
		upgrader: websocket.Upgrader{
			// The panel is served from the same origin in production and
			// from a dev server locally.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		Log: log,
	}
}

func (h *Handler) StartGeneration(c *gin.Context) {
	var req models.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Log.Error("invalid request", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))

		c.JSON(400, models.ErrorResponse{
			Request: c.Request.URL.Path,
			Error:   err.Error(),
		})
		return
	}

	batchID, err := h.service.StartBatch(c.Request.Context(), req)
	if err != nil {
		c.JSON(502, models.ErrorResponse{
			Request: c.Request.URL.Path,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(200, gin.H{"batch_id": batchID})
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(200, h.service.Snapshot())
}

func (h *Handler) StopGeneration(c *gin.Context) {
	h.service.Stop()

	c.JSON(200, gin.H{"message": "generation stopped"})
}

func (h *Handler) ClearGeneration(c *gin.Context) {
	h.service.Clear()

	c.JSON(200, gin.H{"message": "cleared"})
}

func (h *Handler) Models(c *gin.Context) {
	res, err := h.backend.Models(c.Request.Context())
	if err != nil {
		c.JSON(502, models.ErrorResponse{
			Request: c.Request.URL.Path,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(200, res)
}

func (h *Handler) Files(c *gin.Context) {
	res, err := h.backend.Files(c.Request.Context())
	if err != nil {
		c.JSON(502, models.ErrorResponse{
			Request: c.Request.URL.Path,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(200, res)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	if err := h.backend.DeleteFile(c.Request.Context(), c.Param("name")); err != nil {
		c.JSON(502, models.ErrorResponse{
			Request: c.Request.URL.Path,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(200, gin.H{"message": "deleted " + c.Param("name")})
}

func (h *Handler) Health(c *gin.Context) {
	res, err := h.backend.Health(c.Request.Context())
	if err != nil {
		c.JSON(502, models.ErrorResponse{
			Request: c.Request.URL.Path,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(200, res)
}

func (h *Handler) WebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Error("websocket upgrade failed", slog.String("error", err.Error()))

		return
	}

	h.hub.RegisterClient(conn)

	// The panel never sends anything meaningful; the read loop only exists
	// to notice the close.
	go func() {
		defer h.hub.UnregisterClient(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
