package websocket

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/auth"
	"github.com/kandev/kanban/internal/common/logger"
)

// Handler upgrades authenticated requests to WebSocket connections.
type Handler struct {
	hub      *Hub
	upgrader gorillaws.Upgrader
	logger   *logger.Logger
}

// NewHandler creates a handler. allowOrigins lists the accepted Origin
// headers; "*" or an empty list accepts any origin.
func NewHandler(hub *Hub, allowOrigins []string, log *logger.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
		logger: log.WithFields(zap.String("component", "ws_handler")),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(set) == 0 || origin == "" {
			return true
		}
		if set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// HandleConnection expects auth.Middleware to have run on the route.
func (h *Handler) HandleConnection(c *gin.Context) {
	owner := auth.OwnerID(c)
	if owner == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := NewClient(uuid.New().String(), owner, conn, h.hub, h.logger)
	h.logger.Debug("WebSocket connection established",
		zap.String("client_id", client.ID),
		zap.String("owner_id", owner),
		zap.String("remote_addr", c.Request.RemoteAddr))

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}
