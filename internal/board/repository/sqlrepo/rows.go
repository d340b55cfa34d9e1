package sqlrepo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kandev/kanban/internal/board/models"
)

type boardRow struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type listRow struct {
	ID        string    `db:"id"`
	BoardID   string    `db:"board_id"`
	Title     string    `db:"title"`
	Position  int       `db:"position"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// cardRow stores the card's embedded collections as JSON text so one row
// holds the whole card.
type cardRow struct {
	ID          string         `db:"id"`
	ListID      string         `db:"list_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Position    int            `db:"position"`
	DueDate     sql.NullTime   `db:"due_date"`
	Completed   bool           `db:"completed"`
	CoverColor  sql.NullString `db:"cover_color"`
	Labels      string         `db:"labels"`
	Members     string         `db:"members"`
	Comments    string         `db:"comments"`
	Attachments string         `db:"attachments"`
	Checklist   sql.NullString `db:"checklist"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toBoardRow(b models.Board) boardRow {
	return boardRow{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Title:       b.Title,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

func (r boardRow) model() models.Board {
	return models.Board{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Lists:       []models.List{},
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toListRow(l models.List) listRow {
	return listRow{
		ID:        l.ID,
		BoardID:   l.BoardID,
		Title:     l.Title,
		Position:  l.Position,
		CreatedAt: l.CreatedAt.UTC(),
		UpdatedAt: l.UpdatedAt.UTC(),
	}
}

func (r listRow) model() models.List {
	return models.List{
		ID:        r.ID,
		BoardID:   r.BoardID,
		Title:     r.Title,
		Position:  r.Position,
		Cards:     []models.Card{},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toCardRow(c models.Card) (cardRow, error) {
	row := cardRow{
		ID:          c.ID,
		ListID:      c.ListID,
		Title:       c.Title,
		Description: c.Description,
		Position:    c.Position,
		Completed:   c.Completed,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
	if c.DueDate != nil {
		row.DueDate = sql.NullTime{Time: c.DueDate.UTC(), Valid: true}
	}
	if c.CoverColor != nil {
		row.CoverColor = sql.NullString{String: *c.CoverColor, Valid: true}
	}

	var err error
	if row.Labels, err = encodeList(c.Labels); err != nil {
		return row, fmt.Errorf("encode labels: %w", err)
	}
	if row.Members, err = encodeList(c.Members); err != nil {
		return row, fmt.Errorf("encode members: %w", err)
	}
	if row.Comments, err = encodeList(c.Comments); err != nil {
		return row, fmt.Errorf("encode comments: %w", err)
	}
	if row.Attachments, err = encodeList(c.Attachments); err != nil {
		return row, fmt.Errorf("encode attachments: %w", err)
	}
	if c.Checklist != nil {
		b, err := json.Marshal(c.Checklist)
		if err != nil {
			return row, fmt.Errorf("encode checklist: %w", err)
		}
		row.Checklist = sql.NullString{String: string(b), Valid: true}
	}
	return row, nil
}

func (r cardRow) model() (models.Card, error) {
	c := models.Card{
		ID:          r.ID,
		ListID:      r.ListID,
		Title:       r.Title,
		Description: r.Description,
		Position:    r.Position,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.DueDate.Valid {
		d := r.DueDate.Time.UTC()
		c.DueDate = &d
	}
	if r.CoverColor.Valid {
		color := r.CoverColor.String
		c.CoverColor = &color
	}
	if err := decodeList(r.Labels, &c.Labels); err != nil {
		return c, fmt.Errorf("card %s labels: %w", r.ID, err)
	}
	if err := decodeList(r.Members, &c.Members); err != nil {
		return c, fmt.Errorf("card %s members: %w", r.ID, err)
	}
	if err := decodeList(r.Comments, &c.Comments); err != nil {
		return c, fmt.Errorf("card %s comments: %w", r.ID, err)
	}
	for i := range c.Comments {
		c.Comments[i].CreatedAt = c.Comments[i].CreatedAt.UTC()
	}
	if err := decodeList(r.Attachments, &c.Attachments); err != nil {
		return c, fmt.Errorf("card %s attachments: %w", r.ID, err)
	}
	if r.Checklist.Valid {
		var cl models.Checklist
		if err := json.Unmarshal([]byte(r.Checklist.String), &cl); err != nil {
			return c, fmt.Errorf("card %s checklist: %w", r.ID, err)
		}
		c.Checklist = &cl
	}
	return c, nil
}

func encodeList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}

func decodeList[T any](raw string, out *[]T) error {
	*out = []T{}
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}
