package websocket

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kandev/kanban/internal/common/logger"
	"github.com/kandev/kanban/internal/events/bus"
)

// Gateway bundles the hub, the HTTP handler and the event forwarding.
type Gateway struct {
	Hub     *Hub
	Handler *Handler
	logger  *logger.Logger
}

func NewGateway(allowOrigins []string, log *logger.Logger) *Gateway {
	hub := NewHub(log)
	return &Gateway{
		Hub:     hub,
		Handler: NewHandler(hub, allowOrigins, log),
		logger:  log,
	}
}

// Start runs the hub and forwards board events until ctx is done.
func (g *Gateway) Start(ctx context.Context, eventBus bus.EventBus) error {
	if _, err := RegisterBoardNotifications(ctx, eventBus, g.Hub, g.logger); err != nil {
		return err
	}
	go g.Hub.Run(ctx)
	return nil
}

// SetupRoutes adds the WebSocket route to an authenticated group.
func (g *Gateway) SetupRoutes(api *gin.RouterGroup) {
	api.GET("/ws", g.Handler.HandleConnection)
}
