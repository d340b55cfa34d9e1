// Package models defines the board tree: boards own ordered lists, lists own
// ordered cards.
package models

import (
	"time"
)

// Board is the top-level container a user works within.
type Board struct {
	ID          string    `json:"id" yaml:"id"`
	OwnerID     string    `json:"owner_id" yaml:"owner_id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Lists       []List    `json:"lists" yaml:"lists"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// List is an ordered column of cards.
type List struct {
	ID        string    `json:"id" yaml:"id"`
	BoardID   string    `json:"board_id" yaml:"board_id"`
	Title     string    `json:"title" yaml:"title"`
	Position  int       `json:"position" yaml:"position"`
	Cards     []Card    `json:"cards" yaml:"cards"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Card is a single work item.
type Card struct {
	ID          string       `json:"id" yaml:"id"`
	ListID      string       `json:"list_id" yaml:"list_id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Position    int          `json:"position" yaml:"position"`
	DueDate     *time.Time   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Completed   bool         `json:"completed" yaml:"completed"`
	Labels      []Label      `json:"labels" yaml:"labels"`
	Members     []Member     `json:"members" yaml:"members"`
	Comments    []Comment    `json:"comments" yaml:"comments"`
	Attachments []Attachment `json:"attachments" yaml:"attachments"`
	CoverColor  *string      `json:"cover_color,omitempty" yaml:"cover_color,omitempty"`
	Checklist   *Checklist   `json:"checklist,omitempty" yaml:"checklist,omitempty"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" yaml:"updated_at"`
}

type Label struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Member is a person from the fixed roster.
type Member struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email" yaml:"email"`
	Initials  string `json:"initials" yaml:"initials"`
	AvatarURL string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
}

type Comment struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	AuthorID  string    `json:"author_id" yaml:"author_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type Attachment struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Size int64  `json:"size" yaml:"size"`
}

// Checklist is a progress counter, not a list of items.
type Checklist struct {
	Completed int `json:"completed" yaml:"completed"`
	Total     int `json:"total" yaml:"total"`
}

// Key, Pos and WithPosition let the ordering engine renumber lists and cards.

func (l List) Key() string { return l.ID }
func (l List) Pos() int    { return l.Position }

func (l List) WithPosition(p int) List {
	l.Position = p
	return l
}

func (c Card) Key() string { return c.ID }
func (c Card) Pos() int    { return c.Position }

func (c Card) WithPosition(p int) Card {
	c.Position = p
	return c
}

// ListIndex returns the index of the list with id, or -1.
func (b *Board) ListIndex(id string) int {
	for i := range b.Lists {
		if b.Lists[i].ID == id {
			return i
		}
	}
	return -1
}

// CardIndex returns the list and card index of the card with id, or -1, -1.
func (b *Board) CardIndex(id string) (int, int) {
	for li := range b.Lists {
		for ci := range b.Lists[li].Cards {
			if b.Lists[li].Cards[ci].ID == id {
				return li, ci
			}
		}
	}
	return -1, -1
}

// HasLabel reports whether the card carries the label id.
func (c *Card) HasLabel(id string) bool {
	for _, l := range c.Labels {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (c *Card) HasMember(id string) bool {
	for _, m := range c.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// BoardStats summarises a board for selectors and listings.
type BoardStats struct {
	Lists     int `json:"lists"`
	Cards     int `json:"cards"`
	Completed int `json:"completed"`
}

func (b *Board) Stats() BoardStats {
	s := BoardStats{Lists: len(b.Lists)}
	for _, l := range b.Lists {
		s.Cards += len(l.Cards)
		for _, c := range l.Cards {
			if c.Completed {
				s.Completed++
			}
		}
	}
	return s
}
