package dto

import (
	"time"

	"github.com/kandev/kanban/internal/board/models"
)

// BoardSummaryDTO is a board without its lists, for the board picker.
type BoardSummaryDTO struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	ListCount      int       `json:"list_count"`
	CardCount      int       `json:"card_count"`
	CompletedCount int       `json:"completed_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListBoardsResponse struct {
	Boards         []BoardSummaryDTO `json:"boards"`
	Total          int               `json:"total"`
	CurrentBoardID string            `json:"current_board_id,omitempty"`
}

type BoardResponse struct {
	Board    models.Board `json:"board"`
	Filtered bool         `json:"filtered,omitempty"`
}

type DropResponse struct {
	Command string       `json:"command,omitempty"`
	Board   models.Board `json:"board"`
}

type StateResponse struct {
	Boards         []BoardSummaryDTO `json:"boards"`
	CurrentBoardID string            `json:"current_board_id,omitempty"`
}

type RosterMembersResponse struct {
	Members []models.Member `json:"members"`
}

type RosterLabelsResponse struct {
	Labels []models.Label `json:"labels"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
