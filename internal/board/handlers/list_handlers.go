package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kandev/kanban/internal/board/command"
	"github.com/kandev/kanban/internal/board/dto"
	"github.com/kandev/kanban/internal/board/models"
)

func (h *Handlers) registerLists(api *gin.RouterGroup) {
	api.POST("/boards/:boardId/lists", h.httpCreateList)
	api.PUT("/boards/:boardId/lists/move", h.httpMoveList)
	api.PATCH("/lists/:listId", h.httpUpdateList)
	api.DELETE("/lists/:listId", h.httpDeleteList)
}

func (h *Handlers) httpCreateList(c *gin.Context) {
	var body createListRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	title, ok := requireTitle(c, body.Title)
	if !ok {
		return
	}
	id := uuid.New().String()
	state, ok := h.execute(c, command.CreateList{BoardID: c.Param("boardId"), ID: id, Title: title})
	if !ok {
		return
	}
	list, _ := state.List(id)
	c.JSON(http.StatusCreated, list)
}

func (h *Handlers) httpMoveList(c *gin.Context) {
	var body moveListRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id := c.Param("boardId")
	state, ok := h.execute(c, command.MoveList{BoardID: id, FromIndex: body.FromIndex, ToIndex: body.ToIndex})
	if !ok {
		return
	}
	board, _ := state.Board(id)
	c.JSON(http.StatusOK, board)
}

func (h *Handlers) httpUpdateList(c *gin.Context) {
	var body updateListRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !optionalTitle(c, body.Title) {
		return
	}
	id := c.Param("listId")
	state, ok := h.execute(c, command.UpdateList{ListID: id, Update: models.ListUpdate{Title: body.Title}})
	if !ok {
		return
	}
	list, _ := state.List(id)
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) httpDeleteList(c *gin.Context) {
	if _, ok := h.execute(c, command.DeleteList{ListID: c.Param("listId")}); !ok {
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
