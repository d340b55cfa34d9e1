// Package sqlrepo is the relational Backend. It runs against SQLite or
// PostgreSQL through sqlx, with the schema from internal/db/migrations.
package sqlrepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kandev/kanban/internal/board/models"
	"github.com/kandev/kanban/internal/board/repository"
	"github.com/kandev/kanban/internal/db"
)

// Repository reads through the pool's reader and writes every change set in
// a single transaction on the writer.
type Repository struct {
	db *sqlx.DB // writer
	ro *sqlx.DB // reader
}

var _ repository.Backend = (*Repository)(nil)

func New(pool *db.Pool) *Repository {
	return &Repository{db: pool.Writer(), ro: pool.Reader()}
}

// Load fetches boards, lists and cards for ownerID and nests them.
func (r *Repository) Load(ctx context.Context, ownerID string) ([]models.Board, error) {
	var boards []boardRow
	err := r.ro.SelectContext(ctx, &boards, r.ro.Rebind(`
		SELECT id, owner_id, title, description, created_at, updated_at
		FROM boards WHERE owner_id = ?
		ORDER BY created_at DESC, id ASC`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("select boards: %w", err)
	}

	var lists []listRow
	err = r.ro.SelectContext(ctx, &lists, r.ro.Rebind(`
		SELECT l.id, l.board_id, l.title, l.position, l.created_at, l.updated_at
		FROM lists l JOIN boards b ON b.id = l.board_id
		WHERE b.owner_id = ?
		ORDER BY l.board_id, l.position`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("select lists: %w", err)
	}

	var cards []cardRow
	err = r.ro.SelectContext(ctx, &cards, r.ro.Rebind(`
		SELECT c.id, c.list_id, c.title, c.description, c.position, c.due_date, c.completed,
		       c.cover_color, c.labels, c.members, c.comments, c.attachments, c.checklist,
		       c.created_at, c.updated_at
		FROM cards c JOIN lists l ON l.id = c.list_id JOIN boards b ON b.id = l.board_id
		WHERE b.owner_id = ?
		ORDER BY c.list_id, c.position`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("select cards: %w", err)
	}

	cardsByList := make(map[string][]models.Card)
	for _, row := range cards {
		c, err := row.model()
		if err != nil {
			return nil, err
		}
		cardsByList[c.ListID] = append(cardsByList[c.ListID], c)
	}
	listsByBoard := make(map[string][]models.List)
	for _, row := range lists {
		l := row.model()
		if cs, ok := cardsByList[l.ID]; ok {
			l.Cards = cs
		}
		listsByBoard[l.BoardID] = append(listsByBoard[l.BoardID], l)
	}

	out := make([]models.Board, 0, len(boards))
	for _, row := range boards {
		b := row.model()
		if ls, ok := listsByBoard[b.ID]; ok {
			b.Lists = ls
		}
		out = append(out, b)
	}
	return out, nil
}

// Apply writes cs in one transaction: deletes, then inserts, then updates.
// An update that matches no row aborts the whole change set.
func (r *Repository) Apply(ctx context.Context, cs *repository.ChangeSet) (err error) {
	if cs.OwnerID == "" {
		return repository.ErrOwnerRequired
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = deleteIDs(ctx, tx, "cards", cs.DeletedCards); err != nil {
		return err
	}
	if err = deleteIDs(ctx, tx, "lists", cs.DeletedLists); err != nil {
		return err
	}
	if err = deleteBoards(ctx, tx, cs.OwnerID, cs.DeletedBoards); err != nil {
		return err
	}

	for _, b := range cs.CreatedBoards {
		if _, err = tx.NamedExecContext(ctx, insertBoardSQL, toBoardRow(b)); err != nil {
			return fmt.Errorf("insert board %s: %w", b.ID, err)
		}
	}
	for _, l := range cs.CreatedLists {
		if _, err = tx.NamedExecContext(ctx, insertListSQL, toListRow(l)); err != nil {
			return fmt.Errorf("insert list %s: %w", l.ID, err)
		}
	}
	for _, c := range cs.CreatedCards {
		row, convErr := toCardRow(c)
		if convErr != nil {
			err = convErr
			return err
		}
		if _, err = tx.NamedExecContext(ctx, insertCardSQL, row); err != nil {
			return fmt.Errorf("insert card %s: %w", c.ID, err)
		}
	}

	for _, b := range cs.UpdatedBoards {
		if err = execOne(ctx, tx, updateBoardSQL, toBoardRow(b), "board", b.ID); err != nil {
			return err
		}
	}
	for _, l := range cs.UpdatedLists {
		if err = execOne(ctx, tx, updateListSQL, toListRow(l), "list", l.ID); err != nil {
			return err
		}
	}
	for _, c := range cs.UpdatedCards {
		row, convErr := toCardRow(c)
		if convErr != nil {
			err = convErr
			return err
		}
		if err = execOne(ctx, tx, updateCardSQL, row, "card", c.ID); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const (
	insertBoardSQL = `
		INSERT INTO boards (id, owner_id, title, description, created_at, updated_at)
		VALUES (:id, :owner_id, :title, :description, :created_at, :updated_at)`
	updateBoardSQL = `
		UPDATE boards SET title = :title, description = :description, updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id`

	insertListSQL = `
		INSERT INTO lists (id, board_id, title, position, created_at, updated_at)
		VALUES (:id, :board_id, :title, :position, :created_at, :updated_at)`
	updateListSQL = `
		UPDATE lists SET title = :title, position = :position, updated_at = :updated_at
		WHERE id = :id`

	insertCardSQL = `
		INSERT INTO cards (id, list_id, title, description, position, due_date, completed, cover_color,
		                   labels, members, comments, attachments, checklist, created_at, updated_at)
		VALUES (:id, :list_id, :title, :description, :position, :due_date, :completed, :cover_color,
		        :labels, :members, :comments, :attachments, :checklist, :created_at, :updated_at)`
	updateCardSQL = `
		UPDATE cards SET list_id = :list_id, title = :title, description = :description,
		       position = :position, due_date = :due_date, completed = :completed,
		       cover_color = :cover_color, labels = :labels, members = :members,
		       comments = :comments, attachments = :attachments, checklist = :checklist,
		       updated_at = :updated_at
		WHERE id = :id`
)

func execOne(ctx context.Context, tx *sqlx.Tx, query string, arg interface{}, kind, id string) error {
	res, err := tx.NamedExecContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}

func deleteIDs(ctx context.Context, tx *sqlx.Tx, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

func deleteBoards(ctx context.Context, tx *sqlx.Tx, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM boards WHERE owner_id = ? AND id IN (?)", ownerID, ids)
	if err != nil {
		return fmt.Errorf("delete boards: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete boards: %w", err)
	}
	return nil
}
