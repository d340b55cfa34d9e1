package command

import (
	"github.com/kandev/kanban/internal/board/models"
)

// State is one immutable snapshot of an owner's boards. Reduce never writes
// into a State it was given, so older snapshots stay valid.
type State struct {
	Boards         []models.Board `json:"boards"`
	CurrentBoardID string         `json:"current_board_id,omitempty"`
}

// Board returns the board with id.
func (s State) Board(id string) (models.Board, bool) {
	if i := s.boardIndex(id); i >= 0 {
		return s.Boards[i], true
	}
	return models.Board{}, false
}

// Current returns the selected board, if any.
func (s State) Current() (models.Board, bool) {
	if s.CurrentBoardID == "" {
		return models.Board{}, false
	}
	return s.Board(s.CurrentBoardID)
}

// List returns the list with id from whichever board holds it.
func (s State) List(id string) (models.List, bool) {
	if bi, li, ok := s.locateList(id); ok {
		return s.Boards[bi].Lists[li], true
	}
	return models.List{}, false
}

func (s State) Card(id string) (models.Card, bool) {
	if bi, li, ci, ok := s.locateCard(id); ok {
		return s.Boards[bi].Lists[li].Cards[ci], true
	}
	return models.Card{}, false
}

// Clone deep-copies the snapshot.
func (s State) Clone() State {
	out := State{CurrentBoardID: s.CurrentBoardID}
	if s.Boards != nil {
		out.Boards = make([]models.Board, len(s.Boards))
		for i, b := range s.Boards {
			out.Boards[i] = b.Clone()
		}
	}
	return out
}

func (s State) boardIndex(id string) int {
	for i := range s.Boards {
		if s.Boards[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) locateList(id string) (bi, li int, ok bool) {
	for bi := range s.Boards {
		if li := s.Boards[bi].ListIndex(id); li >= 0 {
			return bi, li, true
		}
	}
	return -1, -1, false
}

func (s State) locateCard(id string) (bi, li, ci int, ok bool) {
	for bi := range s.Boards {
		if li, ci := s.Boards[bi].CardIndex(id); li >= 0 {
			return bi, li, ci, true
		}
	}
	return -1, -1, -1, false
}

func (s State) boardOfList(listID string) string {
	if bi, _, ok := s.locateList(listID); ok {
		return s.Boards[bi].ID
	}
	return ""
}

func (s State) hasBoard(id string) bool {
	return s.boardIndex(id) >= 0
}

func (s State) hasList(id string) bool {
	_, _, ok := s.locateList(id)
	return ok
}

func (s State) hasCard(id string) bool {
	_, _, _, ok := s.locateCard(id)
	return ok
}

// withBoard returns s with board i replaced. The boards slice is copied.
func (s State) withBoard(i int, b models.Board) State {
	boards := make([]models.Board, len(s.Boards))
	copy(boards, s.Boards)
	boards[i] = b
	s.Boards = boards
	return s
}

// withList returns b with list i replaced. The lists slice is copied.
func withList(b models.Board, i int, l models.List) models.Board {
	lists := make([]models.List, len(b.Lists))
	copy(lists, b.Lists)
	lists[i] = l
	b.Lists = lists
	return b
}

func withCard(l models.List, i int, c models.Card) models.List {
	cards := make([]models.Card, len(l.Cards))
	copy(cards, l.Cards)
	cards[i] = c
	l.Cards = cards
	return l
}
