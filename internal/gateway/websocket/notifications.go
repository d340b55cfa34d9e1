package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/common/logger"
	"github.com/kandev/kanban/internal/events"
	"github.com/kandev/kanban/internal/events/bus"
)

// BoardEventBroadcaster forwards board.changed events to the hub.
type BoardEventBroadcaster struct {
	hub          *Hub
	subscription bus.Subscription
	logger       *logger.Logger
}

// RegisterBoardNotifications subscribes to board changes of every owner. The
// subscription ends when ctx is done.
func RegisterBoardNotifications(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) (*BoardEventBroadcaster, error) {
	b := &BoardEventBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws-board-broadcaster")),
	}
	if eventBus == nil {
		return b, nil
	}

	sub, err := eventBus.Subscribe(events.BoardChangedWildcard, b.handle)
	if err != nil {
		return nil, err
	}
	b.subscription = sub

	go func() {
		<-ctx.Done()
		b.Close()
	}()
	return b, nil
}

func (b *BoardEventBroadcaster) handle(_ context.Context, event *bus.Event) error {
	data := events.ParseBoardChanged(event.Data)
	if data.OwnerID == "" {
		b.logger.Warn("board change without owner", zap.String("event_id", event.ID))
		return nil
	}
	msg, err := NewNotification(ActionBoardChanged, data)
	if err != nil {
		b.logger.Error("failed to build websocket notification", zap.Error(err))
		return nil
	}
	b.hub.BroadcastToOwner(data.OwnerID, data.BoardID, msg)
	return nil
}

func (b *BoardEventBroadcaster) Close() {
	if b.subscription != nil && b.subscription.IsValid() {
		_ = b.subscription.Unsubscribe()
	}
}
