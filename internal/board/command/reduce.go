package command

import (
	"strings"
	"time"

	"github.com/kandev/kanban/internal/board/models"
	"github.com/kandev/kanban/internal/board/ordering"
)

// Reduce applies cmd to s and reports whether anything changed. It is pure:
// s is not modified and unchanged boards, lists and cards are shared with the
// result. now stamps UpdatedAt on the touched entity and its ancestors.
func Reduce(s State, cmd Command, now time.Time) (State, bool) {
	switch c := cmd.(type) {
	case CreateBoard:
		return createBoard(s, c, now)
	case UpdateBoard:
		if !c.Update.Valid() {
			return s, false
		}
		return editBoard(s, c.BoardID, now, func(b models.Board) (models.Board, bool) {
			return c.Update.Apply(b)
		})
	case DeleteBoard:
		return deleteBoard(s, c)
	case SelectBoard:
		if c.BoardID == s.CurrentBoardID || (c.BoardID != "" && !s.hasBoard(c.BoardID)) {
			return s, false
		}
		s.CurrentBoardID = c.BoardID
		return s, true
	case CreateList:
		return createList(s, c, now)
	case UpdateList:
		if !c.Update.Valid() {
			return s, false
		}
		return editList(s, c.ListID, now, func(l models.List) (models.List, bool) {
			return c.Update.Apply(l)
		})
	case DeleteList:
		return deleteList(s, c, now)
	case MoveList:
		return moveList(s, c, now)
	case CreateCard:
		return createCard(s, c, now)
	case UpdateCard:
		if !c.Update.Valid() {
			return s, false
		}
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			return c.Update.Apply(card)
		})
	case DeleteCard:
		return deleteCard(s, c, now)
	case MoveCard:
		return moveCard(s, c, now)
	case ToggleCardCompletion:
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			card.Completed = !card.Completed
			return card, true
		})
	case AddLabelToCard:
		if c.Label.ID == "" {
			return s, false
		}
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			if card.HasLabel(c.Label.ID) {
				return card, false
			}
			card.Labels = appendCopy(card.Labels, c.Label)
			return card, true
		})
	case RemoveLabelFromCard:
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			labels, ok := removeWhere(card.Labels, func(l models.Label) bool { return l.ID == c.LabelID })
			card.Labels = labels
			return card, ok
		})
	case AddMemberToCard:
		if c.Member.ID == "" {
			return s, false
		}
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			if card.HasMember(c.Member.ID) {
				return card, false
			}
			card.Members = appendCopy(card.Members, c.Member)
			return card, true
		})
	case RemoveMemberFromCard:
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			members, ok := removeWhere(card.Members, func(m models.Member) bool { return m.ID == c.MemberID })
			card.Members = members
			return card, ok
		})
	case SetCardDueDate:
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			if models.SameInstant(card.DueDate, c.Due) {
				return card, false
			}
			card.DueDate = nil
			if c.Due != nil {
				d := c.Due.UTC()
				card.DueDate = &d
			}
			return card, true
		})
	case AddComment:
		if c.Comment.ID == "" || strings.TrimSpace(c.Comment.Text) == "" {
			return s, false
		}
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			for _, existing := range card.Comments {
				if existing.ID == c.Comment.ID {
					return card, false
				}
			}
			card.Comments = appendCopy(card.Comments, c.Comment)
			return card, true
		})
	case DeleteComment:
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			comments, ok := removeWhere(card.Comments, func(cm models.Comment) bool { return cm.ID == c.CommentID })
			card.Comments = comments
			return card, ok
		})
	case AddAttachment:
		if c.Attachment.ID == "" || strings.TrimSpace(c.Attachment.Name) == "" {
			return s, false
		}
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			for _, existing := range card.Attachments {
				if existing.ID == c.Attachment.ID {
					return card, false
				}
			}
			card.Attachments = appendCopy(card.Attachments, c.Attachment)
			return card, true
		})
	case DeleteAttachment:
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			atts, ok := removeWhere(card.Attachments, func(a models.Attachment) bool { return a.ID == c.AttachmentID })
			card.Attachments = atts
			return card, ok
		})
	case SetCardCover:
		return editCard(s, c.CardID, now, func(card models.Card) (models.Card, bool) {
			if models.SameString(card.CoverColor, c.Color) {
				return card, false
			}
			card.CoverColor = nil
			if c.Color != nil {
				color := *c.Color
				card.CoverColor = &color
			}
			return card, true
		})
	}
	return s, false
}

func createBoard(s State, c CreateBoard, now time.Time) (State, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" || c.ID == "" || s.hasBoard(c.ID) {
		return s, false
	}
	b := models.Board{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Title:       title,
		Description: c.Description,
		Lists:       []models.List{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Boards = appendCopy(s.Boards, b)
	s.CurrentBoardID = b.ID
	return s, true
}

func deleteBoard(s State, c DeleteBoard) (State, bool) {
	i := s.boardIndex(c.BoardID)
	if i < 0 {
		return s, false
	}
	boards := make([]models.Board, 0, len(s.Boards)-1)
	boards = append(boards, s.Boards[:i]...)
	boards = append(boards, s.Boards[i+1:]...)
	s.Boards = boards
	if s.CurrentBoardID == c.BoardID {
		s.CurrentBoardID = ""
	}
	return s, true
}

func editBoard(s State, boardID string, now time.Time, fn func(models.Board) (models.Board, bool)) (State, bool) {
	i := s.boardIndex(boardID)
	if i < 0 {
		return s, false
	}
	b, changed := fn(s.Boards[i])
	if !changed {
		return s, false
	}
	b.UpdatedAt = now
	return s.withBoard(i, b), true
}

func createList(s State, c CreateList, now time.Time) (State, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" || c.ID == "" || s.hasList(c.ID) {
		return s, false
	}
	return editBoard(s, c.BoardID, now, func(b models.Board) (models.Board, bool) {
		l := models.List{
			ID:        c.ID,
			BoardID:   b.ID,
			Title:     title,
			Cards:     []models.Card{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		b.Lists = ordering.InsertAt(b.Lists, len(b.Lists), l)
		return b, true
	})
}

func editList(s State, listID string, now time.Time, fn func(models.List) (models.List, bool)) (State, bool) {
	bi, li, ok := s.locateList(listID)
	if !ok {
		return s, false
	}
	l, changed := fn(s.Boards[bi].Lists[li])
	if !changed {
		return s, false
	}
	l.UpdatedAt = now
	b := withList(s.Boards[bi], li, l)
	b.UpdatedAt = now
	return s.withBoard(bi, b), true
}

func deleteList(s State, c DeleteList, now time.Time) (State, bool) {
	bi, _, ok := s.locateList(c.ListID)
	if !ok {
		return s, false
	}
	b := s.Boards[bi]
	b.Lists, _ = ordering.RemoveByID(b.Lists, c.ListID)
	b.UpdatedAt = now
	return s.withBoard(bi, b), true
}

func moveList(s State, c MoveList, now time.Time) (State, bool) {
	bi := s.boardIndex(c.BoardID)
	if bi < 0 {
		return s, false
	}
	b := s.Boards[bi]
	n := len(b.Lists)
	if n == 0 || clamp(c.FromIndex, 0, n-1) == clamp(c.ToIndex, 0, n-1) {
		return s, false
	}
	b.Lists = ordering.Move(b.Lists, c.FromIndex, c.ToIndex)
	b.UpdatedAt = now
	return s.withBoard(bi, b), true
}

func createCard(s State, c CreateCard, now time.Time) (State, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" || c.ID == "" || s.hasCard(c.ID) {
		return s, false
	}
	return editList(s, c.ListID, now, func(l models.List) (models.List, bool) {
		card := models.Card{
			ID:          c.ID,
			ListID:      l.ID,
			Title:       title,
			Description: c.Description,
			Labels:      []models.Label{},
			Members:     []models.Member{},
			Comments:    []models.Comment{},
			Attachments: []models.Attachment{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		l.Cards = ordering.InsertAt(l.Cards, len(l.Cards), card)
		return l, true
	})
}

func editCard(s State, cardID string, now time.Time, fn func(models.Card) (models.Card, bool)) (State, bool) {
	bi, li, ci, ok := s.locateCard(cardID)
	if !ok {
		return s, false
	}
	l := s.Boards[bi].Lists[li]
	card, changed := fn(l.Cards[ci])
	if !changed {
		return s, false
	}
	card.UpdatedAt = now
	l = withCard(l, ci, card)
	l.UpdatedAt = now
	b := withList(s.Boards[bi], li, l)
	b.UpdatedAt = now
	return s.withBoard(bi, b), true
}

func deleteCard(s State, c DeleteCard, now time.Time) (State, bool) {
	bi, li, _, ok := s.locateCard(c.CardID)
	if !ok {
		return s, false
	}
	l := s.Boards[bi].Lists[li]
	l.Cards, _ = ordering.RemoveByID(l.Cards, c.CardID)
	l.UpdatedAt = now
	b := withList(s.Boards[bi], li, l)
	b.UpdatedAt = now
	return s.withBoard(bi, b), true
}

func moveCard(s State, c MoveCard, now time.Time) (State, bool) {
	bi, from, ok := s.locateList(c.FromListID)
	if !ok {
		return s, false
	}
	b := s.Boards[bi]
	to := b.ListIndex(c.ToListID)
	if to < 0 {
		return s, false
	}
	src := b.Lists[from]
	ci := ordering.IndexOf(src.Cards, c.CardID)
	if ci < 0 {
		return s, false
	}

	if from == to {
		if ci == clamp(c.DestIndex, 0, len(src.Cards)-1) {
			return s, false
		}
		src.Cards = ordering.Move(src.Cards, ci, c.DestIndex)
		src.UpdatedAt = now
		b = withList(b, from, src)
		b.UpdatedAt = now
		return s.withBoard(bi, b), true
	}

	dst := b.Lists[to]
	srcCards, dstCards, _ := ordering.MoveBetween(src.Cards, dst.Cards, c.CardID, c.DestIndex)
	moved := ordering.IndexOf(dstCards, c.CardID)
	card := dstCards[moved]
	card.ListID = dst.ID
	card.UpdatedAt = now
	dstCards[moved] = card

	src.Cards, src.UpdatedAt = srcCards, now
	dst.Cards, dst.UpdatedAt = dstCards, now
	b = withList(b, from, src)
	b = withList(b, to, dst)
	b.UpdatedAt = now
	return s.withBoard(bi, b), true
}

func appendCopy[T any](in []T, item T) []T {
	out := make([]T, 0, len(in)+1)
	out = append(out, in...)
	return append(out, item)
}

func removeWhere[T any](in []T, match func(T) bool) ([]T, bool) {
	for i, item := range in {
		if match(item) {
			out := make([]T, 0, len(in)-1)
			out = append(out, in[:i]...)
			return append(out, in[i+1:]...), true
		}
	}
	return in, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
