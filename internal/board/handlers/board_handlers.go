package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kandev/kanban/internal/auth"
	"github.com/kandev/kanban/internal/board/command"
	"github.com/kandev/kanban/internal/board/dto"
	"github.com/kandev/kanban/internal/board/models"
	"github.com/kandev/kanban/internal/board/search"
)

func (h *Handlers) registerBoards(api *gin.RouterGroup) {
	api.GET("/boards", h.httpListBoards)
	api.POST("/boards", h.httpCreateBoard)
	api.GET("/boards/:boardId", h.httpGetBoard)
	api.PATCH("/boards/:boardId", h.httpUpdateBoard)
	api.DELETE("/boards/:boardId", h.httpDeleteBoard)
	api.POST("/boards/:boardId/select", h.httpSelectBoard)
}

func (h *Handlers) httpListBoards(c *gin.Context) {
	state, err := h.service.State(c.Request.Context(), auth.OwnerID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListBoardsResponse{
		Boards:         dto.FromBoards(state.Boards),
		Total:          len(state.Boards),
		CurrentBoardID: state.CurrentBoardID,
	})
}

func (h *Handlers) httpCreateBoard(c *gin.Context) {
	var body createBoardRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	title, ok := requireTitle(c, body.Title)
	if !ok {
		return
	}
	id := uuid.New().String()
	state, ok := h.execute(c, command.CreateBoard{ID: id, Title: title, Description: body.Description})
	if !ok {
		return
	}
	board, _ := state.Board(id)
	c.JSON(http.StatusCreated, board)
}

// httpGetBoard returns the board, filtered when any of q, labels, members or
// due is given.
func (h *Handlers) httpGetBoard(c *gin.Context) {
	due, err := search.ParseDue(c.Query("due"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	filter := search.Filter{
		Query:   c.Query("q"),
		Labels:  splitQuery(c, "labels"),
		Members: splitQuery(c, "members"),
		Due:     due,
	}
	board, err := h.service.SearchBoard(c.Request.Context(), auth.OwnerID(c), c.Param("boardId"), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.BoardResponse{Board: board, Filtered: filter.HasActiveFilters()})
}

func (h *Handlers) httpUpdateBoard(c *gin.Context) {
	var body updateBoardRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !optionalTitle(c, body.Title) {
		return
	}
	id := c.Param("boardId")
	state, ok := h.execute(c, command.UpdateBoard{
		BoardID: id,
		Update:  models.BoardUpdate{Title: body.Title, Description: body.Description},
	})
	if !ok {
		return
	}
	board, _ := state.Board(id)
	c.JSON(http.StatusOK, board)
}

func (h *Handlers) httpDeleteBoard(c *gin.Context) {
	if _, ok := h.execute(c, command.DeleteBoard{BoardID: c.Param("boardId")}); !ok {
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *Handlers) httpSelectBoard(c *gin.Context) {
	state, ok := h.execute(c, command.SelectBoard{BoardID: c.Param("boardId")})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.StateResponse{Boards: dto.FromBoards(state.Boards), CurrentBoardID: state.CurrentBoardID})
}
