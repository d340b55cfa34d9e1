package handlers

import (
	"time"

	"github.com/kandev/kanban/internal/board/drag"
	"github.com/kandev/kanban/internal/board/models"
)

type createBoardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type updateBoardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type createListRequest struct {
	Title string `json:"title"`
}

type updateListRequest struct {
	Title *string `json:"title"`
}

type moveListRequest struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

type createCardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type updateCardRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Completed   *bool             `json:"completed"`
	Checklist   *models.Checklist `json:"checklist"`
}

// moveCardRequest moves a card. FromListID defaults to the card's current
// list.
type moveCardRequest struct {
	FromListID string `json:"from_list_id"`
	ToListID   string `json:"to_list_id" binding:"required"`
	DestIndex  int    `json:"dest_index"`
}

type addLabelRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type addMemberRequest struct {
	MemberID string `json:"member_id" binding:"required"`
}

type setDueRequest struct {
	Due *time.Time `json:"due"`
}

type setCoverRequest struct {
	Color *string `json:"color"`
}

type addCommentRequest struct {
	Text     string `json:"text"`
	AuthorID string `json:"author_id"`
}

type addAttachmentRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
	Size int64  `json:"size"`
}

type dropRequest struct {
	DraggableID string         `json:"draggableId" binding:"required"`
	Type        string         `json:"type"`
	Source      drag.Location  `json:"source"`
	Destination *drag.Location `json:"destination"`
}

func (r dropRequest) result() drag.Result {
	return drag.Result{
		DraggableID: r.DraggableID,
		Type:        r.Type,
		Source:      r.Source,
		Destination: r.Destination,
	}
}
