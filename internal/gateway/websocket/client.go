package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/common/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

// Client represents a single WebSocket connection
type Client struct {
	ID      string
	OwnerID string
	conn    *websocket.Conn
	hub     *Hub
	send    chan []byte

	// Boards this client watches. Empty means every board of the owner.
	mu     sync.RWMutex
	boards map[string]bool

	logger *logger.Logger
}

func NewClient(id, ownerID string, conn *websocket.Conn, hub *Hub, log *logger.Logger) *Client {
	return &Client{
		ID:      id,
		OwnerID: ownerID,
		conn:    conn,
		hub:     hub,
		send:    make(chan []byte, 256),
		boards:  make(map[string]bool),
		logger:  log.WithFields(zap.String("client_id", id)),
	}
}

func (c *Client) watches(boardID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.boards) == 0 || c.boards[boardID]
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("", "", ErrorCodeBadRequest, "Invalid message format")
			continue
		}
		c.handleMessage(&msg)
	}
}

// SubscribeRequest is the payload for board.subscribe and board.unsubscribe
type SubscribeRequest struct {
	BoardID string `json:"board_id"`
}

func (c *Client) handleMessage(msg *Message) {
	c.logger.Debug("Received message",
		zap.String("action", msg.Action),
		zap.String("id", msg.ID))

	switch msg.Action {
	case ActionHealthCheck:
		c.respond(msg, map[string]interface{}{"status": "ok"})
	case ActionBoardSubscribe, ActionBoardUnsubscribe:
		var req SubscribeRequest
		if err := msg.ParsePayload(&req); err != nil {
			c.sendError(msg.ID, msg.Action, ErrorCodeBadRequest, "Invalid payload: "+err.Error())
			return
		}
		if req.BoardID == "" {
			c.sendError(msg.ID, msg.Action, ErrorCodeValidation, "board_id is required")
			return
		}
		c.mu.Lock()
		if msg.Action == ActionBoardSubscribe {
			c.boards[req.BoardID] = true
		} else {
			delete(c.boards, req.BoardID)
		}
		c.mu.Unlock()
		c.respond(msg, map[string]interface{}{"success": true, "board_id": req.BoardID})
	default:
		c.sendError(msg.ID, msg.Action, ErrorCodeUnknownAction, "unknown action")
	}
}

func (c *Client) respond(req *Message, payload interface{}) {
	resp, err := NewResponse(req.ID, req.Action, payload)
	if err != nil {
		c.logger.Error("Failed to create response", zap.Error(err))
		return
	}
	c.sendMessage(resp)
}

func (c *Client) sendMessage(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("Client send buffer full")
	}
}

func (c *Client) sendError(id, action, code, message string) {
	msg, err := NewError(id, action, code, message)
	if err != nil {
		c.logger.Error("Failed to create error message", zap.Error(err))
		return
	}
	c.sendMessage(msg)
}

// WritePump pumps messages from the hub to the WebSocket connection. Each
// message goes out as its own frame.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
