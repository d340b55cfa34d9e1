package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/kandev/kanban/internal/board/models"
)

// MemoryBackend keeps rows in process memory. Boards, lists and cards are
// stored flat, keyed by id, and reassembled on Load.
type MemoryBackend struct {
	mu     sync.RWMutex
	boards map[string]models.Board
	lists  map[string]models.List
	cards  map[string]models.Card
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		boards: make(map[string]models.Board),
		lists:  make(map[string]models.List),
		cards:  make(map[string]models.Card),
	}
}

// Load reassembles the owner's tree.
func (m *MemoryBackend) Load(ctx context.Context, ownerID string) ([]models.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cardsByList := make(map[string][]models.Card)
	for _, c := range m.cards {
		cardsByList[c.ListID] = append(cardsByList[c.ListID], c.Clone())
	}
	listsByBoard := make(map[string][]models.List)
	for _, l := range m.lists {
		cards := cardsByList[l.ID]
		sort.Slice(cards, func(i, j int) bool { return cards[i].Position < cards[j].Position })
		if cards == nil {
			cards = []models.Card{}
		}
		l.Cards = cards
		listsByBoard[l.BoardID] = append(listsByBoard[l.BoardID], l)
	}

	boards := []models.Board{}
	for _, b := range m.boards {
		if b.OwnerID != ownerID {
			continue
		}
		lists := listsByBoard[b.ID]
		sort.Slice(lists, func(i, j int) bool { return lists[i].Position < lists[j].Position })
		if lists == nil {
			lists = []models.List{}
		}
		b.Lists = lists
		boards = append(boards, b)
	}
	sortNewestFirst(boards)
	return boards, nil
}

// Apply writes cs. Deletes run first, then creates, then updates.
func (m *MemoryBackend) Apply(ctx context.Context, cs *ChangeSet) error {
	if cs.OwnerID == "" {
		return ErrOwnerRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range cs.DeletedCards {
		delete(m.cards, id)
	}
	for _, id := range cs.DeletedLists {
		m.deleteListLocked(id)
	}
	for _, id := range cs.DeletedBoards {
		delete(m.boards, id)
		for lid, l := range m.lists {
			if l.BoardID == id {
				m.deleteListLocked(lid)
			}
		}
	}

	for _, rows := range [][]models.Board{cs.CreatedBoards, cs.UpdatedBoards} {
		for _, b := range rows {
			b.Lists = nil
			m.boards[b.ID] = b
		}
	}
	for _, rows := range [][]models.List{cs.CreatedLists, cs.UpdatedLists} {
		for _, l := range rows {
			l.Cards = nil
			m.lists[l.ID] = l
		}
	}
	for _, rows := range [][]models.Card{cs.CreatedCards, cs.UpdatedCards} {
		for _, c := range rows {
			m.cards[c.ID] = c.Clone()
		}
	}
	return nil
}

func (m *MemoryBackend) deleteListLocked(id string) {
	delete(m.lists, id)
	for cid, c := range m.cards {
		if c.ListID == id {
			delete(m.cards, cid)
		}
	}
}

// sortNewestFirst orders boards by creation time, newest first, breaking ties
// by id so loads are deterministic.
func sortNewestFirst(boards []models.Board) {
	sort.Slice(boards, func(i, j int) bool {
		if !boards[i].CreatedAt.Equal(boards[j].CreatedAt) {
			return boards[i].CreatedAt.After(boards[j].CreatedAt)
		}
		return boards[i].ID < boards[j].ID
	})
}
