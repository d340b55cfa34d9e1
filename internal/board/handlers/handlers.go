// Package handlers exposes the board service over HTTP.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/auth"
	"github.com/kandev/kanban/internal/board/command"
	"github.com/kandev/kanban/internal/board/dto"
	"github.com/kandev/kanban/internal/board/service"
	"github.com/kandev/kanban/internal/common/logger"
)

type Handlers struct {
	service *service.Service
	logger  *logger.Logger
}

func NewHandlers(svc *service.Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: svc,
		logger:  log.WithFields(zap.String("component", "board-handlers")),
	}
}

// RegisterRoutes mounts every board route on api. The group must already
// carry the auth middleware.
func RegisterRoutes(api *gin.RouterGroup, svc *service.Service, log *logger.Logger) *Handlers {
	h := NewHandlers(svc, log)
	h.registerBoards(api)
	h.registerLists(api)
	h.registerCards(api)

	api.POST("/boards/:boardId/drops", h.httpDrop)
	api.POST("/undo", h.httpUndo)
	api.GET("/roster/members", h.httpRosterMembers)
	api.GET("/roster/labels", h.httpRosterLabels)
	return h
}

// execute runs cmd for the request's owner. On failure it writes the error
// response and returns false.
func (h *Handlers) execute(c *gin.Context, cmd command.Command) (command.State, bool) {
	state, err := h.service.Execute(c.Request.Context(), auth.OwnerID(c), cmd)
	if err != nil {
		writeError(c, h.logger, err)
		return state, false
	}
	return state, true
}

func (h *Handlers) httpDrop(c *gin.Context) {
	var body dropRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	boardID := c.Param("boardId")
	cmd, state, err := h.service.Drop(c.Request.Context(), auth.OwnerID(c), boardID, body.result())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp := dto.DropResponse{}
	if cmd != nil {
		resp.Command = cmd.Name()
	}
	resp.Board, _ = state.Board(boardID)
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) httpUndo(c *gin.Context) {
	state, err := h.service.Undo(c.Request.Context(), auth.OwnerID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.StateResponse{Boards: dto.FromBoards(state.Boards), CurrentBoardID: state.CurrentBoardID})
}

func (h *Handlers) httpRosterMembers(c *gin.Context) {
	c.JSON(http.StatusOK, dto.RosterMembersResponse{Members: h.service.Roster().Members})
}

func (h *Handlers) httpRosterLabels(c *gin.Context) {
	c.JSON(http.StatusOK, dto.RosterLabelsResponse{Labels: h.service.Roster().Labels})
}

// requireTitle trims title and reports whether anything is left.
func requireTitle(c *gin.Context, title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		badRequest(c, "title is required")
		return "", false
	}
	return title, true
}

func optionalTitle(c *gin.Context, title *string) bool {
	if title != nil && strings.TrimSpace(*title) == "" {
		badRequest(c, "title cannot be blank")
		return false
	}
	return true
}

// splitQuery accepts both repeated and comma separated query values.
func splitQuery(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
