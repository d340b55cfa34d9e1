package repository

import (
	"reflect"

	"github.com/kandev/kanban/internal/board/models"
)

// Diff computes the rows that turn before into after. Deleting a board or
// list also lists every descendant so backends without cascading deletes
// leave no orphans. Boards are compared by id; order of the boards slice is
// not persisted.
func Diff(ownerID string, before, after []models.Board) *ChangeSet {
	cs := &ChangeSet{OwnerID: ownerID}

	old := make(map[string]models.Board, len(before))
	for _, b := range before {
		old[b.ID] = b
	}
	kept := make(map[string]bool, len(after))

	for _, b := range after {
		kept[b.ID] = true
		prev, ok := old[b.ID]
		if !ok {
			cs.CreatedBoards = append(cs.CreatedBoards, boardRow(b))
			for _, l := range b.Lists {
				cs.CreatedLists = append(cs.CreatedLists, listRow(l))
				cs.CreatedCards = append(cs.CreatedCards, l.Cards...)
			}
			continue
		}
		if !sameBoardRow(prev, b) {
			cs.UpdatedBoards = append(cs.UpdatedBoards, boardRow(b))
		}
		diffLists(cs, prev, b)
	}

	for _, b := range before {
		if kept[b.ID] {
			continue
		}
		cs.DeletedBoards = append(cs.DeletedBoards, b.ID)
		for _, l := range b.Lists {
			cs.DeletedLists = append(cs.DeletedLists, l.ID)
			for _, c := range l.Cards {
				cs.DeletedCards = append(cs.DeletedCards, c.ID)
			}
		}
	}
	return cs
}

func diffLists(cs *ChangeSet, before, after models.Board) {
	oldLists := make(map[string]models.List, len(before.Lists))
	oldCards := make(map[string]models.Card)
	for _, l := range before.Lists {
		oldLists[l.ID] = l
		for _, c := range l.Cards {
			oldCards[c.ID] = c
		}
	}
	keptLists := make(map[string]bool, len(after.Lists))
	keptCards := make(map[string]bool)

	for _, l := range after.Lists {
		keptLists[l.ID] = true
		if prev, ok := oldLists[l.ID]; !ok {
			cs.CreatedLists = append(cs.CreatedLists, listRow(l))
		} else if !sameListRow(prev, l) {
			cs.UpdatedLists = append(cs.UpdatedLists, listRow(l))
		}
		for _, c := range l.Cards {
			keptCards[c.ID] = true
			prev, ok := oldCards[c.ID]
			switch {
			case !ok:
				cs.CreatedCards = append(cs.CreatedCards, c)
			case !reflect.DeepEqual(prev, c):
				cs.UpdatedCards = append(cs.UpdatedCards, c)
			}
		}
	}

	for _, l := range before.Lists {
		if !keptLists[l.ID] {
			cs.DeletedLists = append(cs.DeletedLists, l.ID)
		}
		for _, c := range l.Cards {
			if !keptCards[c.ID] {
				cs.DeletedCards = append(cs.DeletedCards, c.ID)
			}
		}
	}
}

func sameBoardRow(a, b models.Board) bool {
	return a.Title == b.Title && a.Description == b.Description && a.OwnerID == b.OwnerID &&
		a.CreatedAt.Equal(b.CreatedAt) && a.UpdatedAt.Equal(b.UpdatedAt)
}

func sameListRow(a, b models.List) bool {
	return a.Title == b.Title && a.Position == b.Position && a.BoardID == b.BoardID &&
		a.CreatedAt.Equal(b.CreatedAt) && a.UpdatedAt.Equal(b.UpdatedAt)
}

func boardRow(b models.Board) models.Board {
	b.Lists = nil
	return b
}

func listRow(l models.List) models.List {
	l.Cards = nil
	return l
}
