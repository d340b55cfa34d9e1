// Package search filters the cards of a board for display.
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/kandev/kanban/internal/board/models"
)

// DueFilter selects cards by due date.
type DueFilter string

const (
	DueAll       DueFilter = "all"
	DueOverdue   DueFilter = "overdue"
	DueToday     DueFilter = "today"
	DueThisWeek  DueFilter = "thisWeek"
	DueCompleted DueFilter = "completed"
)

// ParseDue maps a query value to a DueFilter. Empty means DueAll.
func ParseDue(s string) (DueFilter, error) {
	switch DueFilter(s) {
	case "", DueAll:
		return DueAll, nil
	case DueOverdue, DueToday, DueThisWeek, DueCompleted:
		return DueFilter(s), nil
	}
	return "", fmt.Errorf("unknown due filter %q", s)
}

// Filter is the set of criteria a card must meet. Labels and Members match
// when the card carries any of the given ids.
type Filter struct {
	Query   string
	Labels  []string
	Members []string
	Due     DueFilter
}

func (f Filter) HasActiveFilters() bool {
	return strings.TrimSpace(f.Query) != "" ||
		len(f.Labels) > 0 ||
		len(f.Members) > 0 ||
		(f.Due != "" && f.Due != DueAll)
}

// Apply returns a copy of b keeping only matching cards. Lists are kept even
// when all their cards are filtered out. Day boundaries follow now's location.
func (f Filter) Apply(b models.Board, now time.Time) models.Board {
	out := b.Clone()
	if !f.HasActiveFilters() {
		return out
	}
	m := f.matcher(now)
	for i := range out.Lists {
		kept := make([]models.Card, 0, len(out.Lists[i].Cards))
		for _, c := range out.Lists[i].Cards {
			if m(c) {
				kept = append(kept, c)
			}
		}
		out.Lists[i].Cards = kept
	}
	return out
}

func (f Filter) matcher(now time.Time) func(models.Card) bool {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	weekEnd := today.AddDate(0, 0, 7)

	return func(c models.Card) bool {
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Title), query) &&
			!strings.Contains(strings.ToLower(c.Description), query) {
			return false
		}
		if len(f.Labels) > 0 && !anyOf(f.Labels, c.HasLabel) {
			return false
		}
		if len(f.Members) > 0 && !anyOf(f.Members, c.HasMember) {
			return false
		}

		switch f.Due {
		case DueOverdue:
			return c.DueDate != nil && c.DueDate.Before(today) && !c.Completed
		case DueToday:
			return c.DueDate != nil && !c.DueDate.Before(today) && c.DueDate.Before(tomorrow)
		case DueThisWeek:
			return c.DueDate != nil && !c.DueDate.Before(today) && c.DueDate.Before(weekEnd)
		case DueCompleted:
			return c.Completed
		}
		return true
	}
}

func anyOf(ids []string, has func(string) bool) bool {
	for _, id := range ids {
		if has(id) {
			return true
		}
	}
	return false
}
