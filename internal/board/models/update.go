package models

import (
	"strings"
	"time"
)

// BoardUpdate is a partial board edit. Nil fields are left alone.
type BoardUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ListUpdate renames a list. Repositioning goes through the move command.
type ListUpdate struct {
	Title *string `json:"title,omitempty"`
}

// CardUpdate is a partial card edit. Due date and cover have their own
// commands because they need an explicit clear.
type CardUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Checklist   *Checklist `json:"checklist,omitempty"`
}

// Valid reports whether the update can be applied. A title, when present,
// must not be blank.
func (u BoardUpdate) Valid() bool { return validTitle(u.Title) }

func (u ListUpdate) Valid() bool { return validTitle(u.Title) }

func (u CardUpdate) Valid() bool {
	if u.Checklist != nil && (u.Checklist.Completed < 0 || u.Checklist.Total < u.Checklist.Completed) {
		return false
	}
	return validTitle(u.Title)
}

func validTitle(t *string) bool {
	return t == nil || strings.TrimSpace(*t) != ""
}

// Apply merges u into b and reports whether any field changed.
func (u BoardUpdate) Apply(b Board) (Board, bool) {
	changed := false
	if u.Title != nil && strings.TrimSpace(*u.Title) != b.Title {
		b.Title = strings.TrimSpace(*u.Title)
		changed = true
	}
	if u.Description != nil && *u.Description != b.Description {
		b.Description = *u.Description
		changed = true
	}
	return b, changed
}

func (u ListUpdate) Apply(l List) (List, bool) {
	if u.Title != nil && strings.TrimSpace(*u.Title) != l.Title {
		l.Title = strings.TrimSpace(*u.Title)
		return l, true
	}
	return l, false
}

func (u CardUpdate) Apply(c Card) (Card, bool) {
	changed := false
	if u.Title != nil && strings.TrimSpace(*u.Title) != c.Title {
		c.Title = strings.TrimSpace(*u.Title)
		changed = true
	}
	if u.Description != nil && *u.Description != c.Description {
		c.Description = *u.Description
		changed = true
	}
	if u.Completed != nil && *u.Completed != c.Completed {
		c.Completed = *u.Completed
		changed = true
	}
	if u.Checklist != nil && (c.Checklist == nil || *c.Checklist != *u.Checklist) {
		cl := *u.Checklist
		c.Checklist = &cl
		changed = true
	}
	return c, changed
}

// Clone returns a deep copy sharing no slices or pointers with b.
func (b Board) Clone() Board {
	out := b
	if b.Lists != nil {
		out.Lists = make([]List, len(b.Lists))
		for i, l := range b.Lists {
			out.Lists[i] = l.Clone()
		}
	}
	return out
}

func (l List) Clone() List {
	out := l
	if l.Cards != nil {
		out.Cards = make([]Card, len(l.Cards))
		for i, c := range l.Cards {
			out.Cards[i] = c.Clone()
		}
	}
	return out
}

func (c Card) Clone() Card {
	out := c
	out.Labels = cloneSlice(c.Labels)
	out.Members = cloneSlice(c.Members)
	out.Comments = cloneSlice(c.Comments)
	out.Attachments = cloneSlice(c.Attachments)
	if c.DueDate != nil {
		d := *c.DueDate
		out.DueDate = &d
	}
	if c.CoverColor != nil {
		s := *c.CoverColor
		out.CoverColor = &s
	}
	if c.Checklist != nil {
		cl := *c.Checklist
		out.Checklist = &cl
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// SameInstant reports whether two optional times are both nil or equal.
func SameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// SameString reports whether two optional strings are both nil or equal.
func SameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
