package dto

import "github.com/kandev/kanban/internal/board/models"

func FromBoardSummary(b models.Board) BoardSummaryDTO {
	stats := b.Stats()
	return BoardSummaryDTO{
		ID:             b.ID,
		Title:          b.Title,
		Description:    b.Description,
		ListCount:      stats.Lists,
		CardCount:      stats.Cards,
		CompletedCount: stats.Completed,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func FromBoards(boards []models.Board) []BoardSummaryDTO {
	out := make([]BoardSummaryDTO, 0, len(boards))
	for _, b := range boards {
		out = append(out, FromBoardSummary(b))
	}
	return out
}
