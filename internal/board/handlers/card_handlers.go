package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kandev/kanban/internal/auth"
	"github.com/kandev/kanban/internal/board/command"
	"github.com/kandev/kanban/internal/board/dto"
	"github.com/kandev/kanban/internal/board/models"
	apperrors "github.com/kandev/kanban/internal/common/errors"
)

func (h *Handlers) registerCards(api *gin.RouterGroup) {
	api.POST("/lists/:listId/cards", h.httpCreateCard)
	api.PATCH("/cards/:cardId", h.httpUpdateCard)
	api.DELETE("/cards/:cardId", h.httpDeleteCard)
	api.PUT("/cards/:cardId/move", h.httpMoveCard)
	api.POST("/cards/:cardId/toggle", h.httpToggleCard)
	api.POST("/cards/:cardId/labels", h.httpAddLabel)
	api.DELETE("/cards/:cardId/labels/:labelId", h.httpRemoveLabel)
	api.POST("/cards/:cardId/members", h.httpAddMember)
	api.DELETE("/cards/:cardId/members/:memberId", h.httpRemoveMember)
	api.PUT("/cards/:cardId/due", h.httpSetDue)
	api.PUT("/cards/:cardId/cover", h.httpSetCover)
	api.POST("/cards/:cardId/comments", h.httpAddComment)
	api.DELETE("/cards/:cardId/comments/:commentId", h.httpDeleteComment)
	api.POST("/cards/:cardId/attachments", h.httpAddAttachment)
	api.DELETE("/cards/:cardId/attachments/:attachmentId", h.httpDeleteAttachment)
}

// respondCard executes cmd and writes the card it touched.
func (h *Handlers) respondCard(c *gin.Context, status int, cardID string, cmd command.Command) {
	state, ok := h.execute(c, cmd)
	if !ok {
		return
	}
	card, found := state.Card(cardID)
	if !found {
		writeError(c, h.logger, apperrors.NotFound("card", cardID))
		return
	}
	c.JSON(status, card)
}

func (h *Handlers) httpCreateCard(c *gin.Context) {
	var body createCardRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	title, ok := requireTitle(c, body.Title)
	if !ok {
		return
	}
	id := uuid.New().String()
	h.respondCard(c, http.StatusCreated, id, command.CreateCard{
		ListID:      c.Param("listId"),
		ID:          id,
		Title:       title,
		Description: body.Description,
	})
}

func (h *Handlers) httpUpdateCard(c *gin.Context) {
	var body updateCardRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !optionalTitle(c, body.Title) {
		return
	}
	update := models.CardUpdate{
		Title:       body.Title,
		Description: body.Description,
		Completed:   body.Completed,
		Checklist:   body.Checklist,
	}
	if !update.Valid() {
		badRequest(c, "checklist completed must be between 0 and total")
		return
	}
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.UpdateCard{CardID: id, Update: update})
}

func (h *Handlers) httpDeleteCard(c *gin.Context) {
	if _, ok := h.execute(c, command.DeleteCard{CardID: c.Param("cardId")}); !ok {
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *Handlers) httpMoveCard(c *gin.Context) {
	var body moveCardRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id := c.Param("cardId")
	if body.FromListID == "" {
		state, err := h.service.State(c.Request.Context(), auth.OwnerID(c))
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		card, ok := state.Card(id)
		if !ok {
			writeError(c, h.logger, apperrors.NotFound("card", id))
			return
		}
		body.FromListID = card.ListID
	}
	state, ok := h.execute(c, command.MoveCard{
		CardID:     id,
		FromListID: body.FromListID,
		ToListID:   body.ToListID,
		DestIndex:  body.DestIndex,
	})
	if !ok {
		return
	}
	card, _ := state.Card(id)
	c.JSON(http.StatusOK, card)
}

func (h *Handlers) httpToggleCard(c *gin.Context) {
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.ToggleCardCompletion{CardID: id})
}

func (h *Handlers) httpAddLabel(c *gin.Context) {
	var body addLabelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	label, err := h.service.ResolveLabel(models.Label{ID: body.ID, Name: body.Name, Color: body.Color})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.AddLabelToCard{CardID: id, Label: label})
}

func (h *Handlers) httpRemoveLabel(c *gin.Context) {
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.RemoveLabelFromCard{CardID: id, LabelID: c.Param("labelId")})
}

func (h *Handlers) httpAddMember(c *gin.Context) {
	var body addMemberRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "member_id is required")
		return
	}
	member, err := h.service.ResolveMember(body.MemberID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.AddMemberToCard{CardID: id, Member: member})
}

func (h *Handlers) httpRemoveMember(c *gin.Context) {
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.RemoveMemberFromCard{CardID: id, MemberID: c.Param("memberId")})
}

// httpSetDue sets the due date. A null or missing due clears it.
func (h *Handlers) httpSetDue(c *gin.Context) {
	var body setDueRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "due must be an RFC 3339 timestamp or null")
		return
	}
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.SetCardDueDate{CardID: id, Due: body.Due})
}

func (h *Handlers) httpSetCover(c *gin.Context) {
	var body setCoverRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if body.Color != nil && strings.TrimSpace(*body.Color) == "" {
		body.Color = nil
	}
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.SetCardCover{CardID: id, Color: body.Color})
}

func (h *Handlers) httpAddComment(c *gin.Context) {
	var body addCommentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	text := strings.TrimSpace(body.Text)
	if text == "" {
		badRequest(c, "text is required")
		return
	}
	author := body.AuthorID
	if author == "" {
		author = auth.OwnerID(c)
	}
	id := c.Param("cardId")
	h.respondCard(c, http.StatusCreated, id, command.AddComment{
		CardID:  id,
		Comment: models.Comment{ID: uuid.New().String(), Text: text, AuthorID: author},
	})
}

func (h *Handlers) httpDeleteComment(c *gin.Context) {
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.DeleteComment{CardID: id, CommentID: c.Param("commentId")})
}

func (h *Handlers) httpAddAttachment(c *gin.Context) {
	var body addAttachmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "name and url are required")
		return
	}
	if body.Size < 0 {
		badRequest(c, "size cannot be negative")
		return
	}
	id := c.Param("cardId")
	h.respondCard(c, http.StatusCreated, id, command.AddAttachment{
		CardID:     id,
		Attachment: models.Attachment{ID: uuid.New().String(), Name: body.Name, URL: body.URL, Size: body.Size},
	})
}

func (h *Handlers) httpDeleteAttachment(c *gin.Context) {
	id := c.Param("cardId")
	h.respondCard(c, http.StatusOK, id, command.DeleteAttachment{CardID: id, AttachmentID: c.Param("attachmentId")})
}
