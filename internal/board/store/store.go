// Package store owns the live board tree of one owner. All mutations go
// through Dispatch, which reduces the command, persists the row changes and
// only then commits the new snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/board/command"
	"github.com/kandev/kanban/internal/board/repository"
	"github.com/kandev/kanban/internal/common/logger"
	"github.com/kandev/kanban/internal/common/tracing"
)

// ErrNothingToUndo is returned by Undo when the history is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// UndoCommand is the command name reported to listeners after an undo.
const UndoCommand = "undo"

// Change describes a committed mutation.
type Change struct {
	OwnerID string
	Command string
	BoardID string
	State   command.State
}

// Listener is called after each commit while the store lock is held, in
// commit order. It must not call back into the store.
type Listener func(Change)

// Options tunes a Store. Zero values select defaults.
type Options struct {
	HistoryDepth int
	Now          func() time.Time
	NewID        func() string
	Logger       *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.New().String() }
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}
	return o
}

type Store struct {
	ownerID string
	backend repository.Backend
	opts    Options
	logger  *logger.Logger

	mu        sync.Mutex
	state     command.State
	history   []command.State
	lastStamp time.Time

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// New creates a store over an already loaded state.
func New(ownerID string, backend repository.Backend, initial command.State, opts Options) *Store {
	opts = opts.withDefaults()
	s := &Store{
		ownerID:   ownerID,
		backend:   backend,
		opts:      opts,
		logger:    opts.Logger.WithFields(zap.String("component", "board-store"), zap.String("owner_id", ownerID)),
		state:     initial,
		listeners: make(map[int]Listener),
	}
	for _, b := range initial.Boards {
		if b.UpdatedAt.After(s.lastStamp) {
			s.lastStamp = b.UpdatedAt
		}
	}
	return s
}

// Load reads the owner's boards from backend and wraps them in a store. The
// first loaded board becomes current.
func Load(ctx context.Context, ownerID string, backend repository.Backend, opts Options) (*Store, error) {
	boards, err := backend.Load(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load boards for %s: %w", ownerID, err)
	}
	initial := command.State{Boards: boards}
	if len(boards) > 0 {
		initial.CurrentBoardID = boards[0].ID
	}
	return New(ownerID, backend, initial, opts), nil
}

func (s *Store) OwnerID() string { return s.ownerID }

// State returns the current snapshot. Snapshots are never modified.
func (s *Store) State() command.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies cmd. A rejected command returns the unchanged state and
// no error. A backend failure returns the error and leaves the state as it
// was.
func (s *Store) Dispatch(ctx context.Context, cmd command.Command) (command.State, error) {
	st, _, err := s.Apply(ctx, cmd)
	return st, err
}

// Apply is Dispatch that also reports whether the command changed anything.
func (s *Store) Apply(ctx context.Context, cmd command.Command) (command.State, bool, error) {
	ctx, span := tracing.Tracer("board-store").Start(ctx, "store.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("command", cmd.Name()), attribute.String("owner_id", s.ownerID))

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	cmd = command.Prepare(cmd, s.ownerID, s.opts.NewID, now)
	prev := s.state
	next, changed := command.Reduce(prev, cmd, now)
	if !changed {
		span.SetAttributes(attribute.Bool("changed", false))
		return prev, false, nil
	}

	cs := repository.Diff(s.ownerID, prev.Boards, next.Boards)
	if !cs.Empty() {
		if err := s.backend.Apply(ctx, cs); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.WithContext(ctx).Error("persist command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return prev, false, fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		s.pushHistory(prev)
	}

	s.state = next
	span.SetAttributes(attribute.Bool("changed", true))

	boardID := command.BoardID(next, cmd)
	if boardID == "" {
		boardID = command.BoardID(prev, cmd)
	}
	s.logger.WithContext(ctx).Debug("command applied", zap.String("command", cmd.Name()), zap.String("board_id", boardID))
	s.notify(Change{OwnerID: s.ownerID, Command: cmd.Name(), BoardID: boardID, State: next})
	return next, true, nil
}

// Undo restores the snapshot before the last persisted command.
func (s *Store) Undo(ctx context.Context) (command.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return s.state, ErrNothingToUndo
	}
	prev := s.history[len(s.history)-1]
	cs := repository.Diff(s.ownerID, s.state.Boards, prev.Boards)
	if !cs.Empty() {
		if err := s.backend.Apply(ctx, cs); err != nil {
			return s.state, fmt.Errorf("%s: %w", UndoCommand, err)
		}
	}
	s.history = s.history[:len(s.history)-1]

	// Selection is local, so keep it when the board survives the undo.
	if _, ok := prev.Board(s.state.CurrentBoardID); ok {
		prev.CurrentBoardID = s.state.CurrentBoardID
	}
	s.state = prev
	s.notify(Change{OwnerID: s.ownerID, Command: UndoCommand, BoardID: prev.CurrentBoardID, State: prev})
	return prev, nil
}

// stamp returns the clock reading for the next command, bumped past the
// previous one so UpdatedAt strictly increases even when the clock stalls
// or steps back. Callers hold s.mu.
func (s *Store) stamp() time.Time {
	now := s.opts.Now()
	if floor := s.lastStamp.Add(time.Microsecond); !s.lastStamp.IsZero() && now.Before(floor) {
		now = floor
	}
	s.lastStamp = now
	return now
}

// CanUndo reports whether Undo has a snapshot to restore.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history) > 0
}

func (s *Store) pushHistory(prev command.State) {
	if s.opts.HistoryDepth <= 0 {
		return
	}
	s.history = append(s.history, prev)
	if over := len(s.history) - s.opts.HistoryDepth; over > 0 {
		s.history = append([]command.State(nil), s.history[over:]...)
	}
}

// Subscribe registers fn and returns a function removing it.
func (s *Store) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.lmu.RLock()
	defer s.lmu.RUnlock()
	for _, fn := range s.listeners {
		fn(c)
	}
}
