// Package repository is the storage boundary of the board store. A Backend
// loads an owner's nested tree in one call and persists the row-level
// changes of each committed command.
package repository

import (
	"context"
	"errors"

	"github.com/kandev/kanban/internal/board/models"
)

// ErrOwnerRequired is returned when a change set carries no owner.
var ErrOwnerRequired = errors.New("owner id is required")

// Backend is implemented by the memory and SQL adapters and by decorators
// such as the Redis cache.
type Backend interface {
	// Load returns the owner's boards, newest first, with lists and cards
	// nested and ordered by position.
	Load(ctx context.Context, ownerID string) ([]models.Board, error)
	// Apply persists cs atomically. On error nothing is written.
	Apply(ctx context.Context, cs *ChangeSet) error
}

// ChangeSet lists the rows to create, update and delete for one command.
// Created and updated boards and lists are row values; their nested
// children are carried in the list and card slices.
type ChangeSet struct {
	OwnerID string

	CreatedBoards []models.Board
	UpdatedBoards []models.Board
	DeletedBoards []string

	CreatedLists []models.List
	UpdatedLists []models.List
	DeletedLists []string

	CreatedCards []models.Card
	UpdatedCards []models.Card
	DeletedCards []string
}

// Empty reports whether the change set writes nothing.
func (cs *ChangeSet) Empty() bool {
	return len(cs.CreatedBoards)+len(cs.UpdatedBoards)+len(cs.DeletedBoards)+
		len(cs.CreatedLists)+len(cs.UpdatedLists)+len(cs.DeletedLists)+
		len(cs.CreatedCards)+len(cs.UpdatedCards)+len(cs.DeletedCards) == 0
}
