// Package command holds the board mutations and the pure reducer applying
// them. Commands that fail validation leave the state untouched.
package command

import (
	"time"

	"github.com/kandev/kanban/internal/board/models"
)

// Command is one user-facing mutation.
type Command interface {
	Name() string
}

type CreateBoard struct {
	ID          string `json:"id,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type UpdateBoard struct {
	BoardID string             `json:"board_id"`
	Update  models.BoardUpdate `json:"update"`
}

type DeleteBoard struct {
	BoardID string `json:"board_id"`
}

// SelectBoard changes the current board. An empty BoardID clears it.
type SelectBoard struct {
	BoardID string `json:"board_id"`
}

type CreateList struct {
	BoardID string `json:"board_id"`
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
}

type UpdateList struct {
	ListID string            `json:"list_id"`
	Update models.ListUpdate `json:"update"`
}

type DeleteList struct {
	ListID string `json:"list_id"`
}

type MoveList struct {
	BoardID   string `json:"board_id"`
	FromIndex int    `json:"from_index"`
	ToIndex   int    `json:"to_index"`
}

type CreateCard struct {
	ListID      string `json:"list_id"`
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type UpdateCard struct {
	CardID string            `json:"card_id"`
	Update models.CardUpdate `json:"update"`
}

type DeleteCard struct {
	CardID string `json:"card_id"`
}

// MoveCard relocates a card. DestIndex is read against the destination list
// after the card has been taken out of the source.
type MoveCard struct {
	CardID     string `json:"card_id"`
	FromListID string `json:"from_list_id"`
	ToListID   string `json:"to_list_id"`
	DestIndex  int    `json:"dest_index"`
}

type ToggleCardCompletion struct {
	CardID string `json:"card_id"`
}

type AddLabelToCard struct {
	CardID string       `json:"card_id"`
	Label  models.Label `json:"label"`
}

type RemoveLabelFromCard struct {
	CardID  string `json:"card_id"`
	LabelID string `json:"label_id"`
}

type AddMemberToCard struct {
	CardID string        `json:"card_id"`
	Member models.Member `json:"member"`
}

type RemoveMemberFromCard struct {
	CardID   string `json:"card_id"`
	MemberID string `json:"member_id"`
}

// SetCardDueDate sets the due date, or clears it when Due is nil.
type SetCardDueDate struct {
	CardID string     `json:"card_id"`
	Due    *time.Time `json:"due,omitempty"`
}

type AddComment struct {
	CardID  string         `json:"card_id"`
	Comment models.Comment `json:"comment"`
}

type DeleteComment struct {
	CardID    string `json:"card_id"`
	CommentID string `json:"comment_id"`
}

type AddAttachment struct {
	CardID     string            `json:"card_id"`
	Attachment models.Attachment `json:"attachment"`
}

type DeleteAttachment struct {
	CardID       string `json:"card_id"`
	AttachmentID string `json:"attachment_id"`
}

// SetCardCover sets the cover color, or clears it when Color is nil.
type SetCardCover struct {
	CardID string  `json:"card_id"`
	Color  *string `json:"color,omitempty"`
}

func (CreateBoard) Name() string          { return "create_board" }
func (UpdateBoard) Name() string          { return "update_board" }
func (DeleteBoard) Name() string          { return "delete_board" }
func (SelectBoard) Name() string          { return "select_board" }
func (CreateList) Name() string           { return "create_list" }
func (UpdateList) Name() string           { return "update_list" }
func (DeleteList) Name() string           { return "delete_list" }
func (MoveList) Name() string             { return "move_list" }
func (CreateCard) Name() string           { return "create_card" }
func (UpdateCard) Name() string           { return "update_card" }
func (DeleteCard) Name() string           { return "delete_card" }
func (MoveCard) Name() string             { return "move_card" }
func (ToggleCardCompletion) Name() string { return "toggle_card_completion" }
func (AddLabelToCard) Name() string       { return "add_label" }
func (RemoveLabelFromCard) Name() string  { return "remove_label" }
func (AddMemberToCard) Name() string      { return "add_member" }
func (RemoveMemberFromCard) Name() string { return "remove_member" }
func (SetCardDueDate) Name() string       { return "set_due_date" }
func (AddComment) Name() string           { return "add_comment" }
func (DeleteComment) Name() string        { return "delete_comment" }
func (AddAttachment) Name() string        { return "add_attachment" }
func (DeleteAttachment) Name() string     { return "delete_attachment" }
func (SetCardCover) Name() string         { return "set_cover" }

// Prepare fills the ids a command needs before it can be reduced. Caller
// supplied ids are kept.
func Prepare(cmd Command, ownerID string, newID func() string, now time.Time) Command {
	switch c := cmd.(type) {
	case CreateBoard:
		if c.ID == "" {
			c.ID = newID()
		}
		if c.OwnerID == "" {
			c.OwnerID = ownerID
		}
		return c
	case CreateList:
		if c.ID == "" {
			c.ID = newID()
		}
		return c
	case CreateCard:
		if c.ID == "" {
			c.ID = newID()
		}
		return c
	case AddComment:
		if c.Comment.ID == "" {
			c.Comment.ID = newID()
		}
		if c.Comment.CreatedAt.IsZero() {
			c.Comment.CreatedAt = now
		}
		return c
	case AddAttachment:
		if c.Attachment.ID == "" {
			c.Attachment.ID = newID()
		}
		return c
	}
	return cmd
}

// BoardID returns the board a command targets when the command names it
// directly. Commands addressed by list or card id resolve through the state.
func BoardID(s State, cmd Command) string {
	switch c := cmd.(type) {
	case CreateBoard:
		return c.ID
	case UpdateBoard:
		return c.BoardID
	case DeleteBoard:
		return c.BoardID
	case SelectBoard:
		return c.BoardID
	case CreateList:
		return c.BoardID
	case MoveList:
		return c.BoardID
	case UpdateList:
		return s.boardOfList(c.ListID)
	case DeleteList:
		return s.boardOfList(c.ListID)
	case CreateCard:
		return s.boardOfList(c.ListID)
	case MoveCard:
		return s.boardOfList(c.FromListID)
	}
	if id := cardID(cmd); id != "" {
		if bi, _, _, ok := s.locateCard(id); ok {
			return s.Boards[bi].ID
		}
	}
	return ""
}

func cardID(cmd Command) string {
	switch c := cmd.(type) {
	case UpdateCard:
		return c.CardID
	case DeleteCard:
		return c.CardID
	case ToggleCardCompletion:
		return c.CardID
	case AddLabelToCard:
		return c.CardID
	case RemoveLabelFromCard:
		return c.CardID
	case AddMemberToCard:
		return c.CardID
	case RemoveMemberFromCard:
		return c.CardID
	case SetCardDueDate:
		return c.CardID
	case AddComment:
		return c.CardID
	case DeleteComment:
		return c.CardID
	case AddAttachment:
		return c.CardID
	case DeleteAttachment:
		return c.CardID
	case SetCardCover:
		return c.CardID
	}
	return ""
}
