// Package drag turns pick-up/drop gestures into move commands.
package drag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kandev/kanban/internal/board/command"
)

// Kind is the type of the dragged entity.
type Kind string

const (
	KindList Kind = "list"
	KindCard Kind = "card"
)

// ParseKind accepts the wire spellings ("LIST", "list", "CARD", ...). Anything
// that is not a list drag is treated as a card drag.
func ParseKind(s string) Kind {
	if strings.EqualFold(s, string(KindList)) {
		return KindList
	}
	return KindCard
}

// Phase is the translator's state.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Dropped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var (
	ErrDragInProgress = errors.New("drag already in progress")
	ErrNotDragging    = errors.New("no drag in progress")
)

// Location is a slot in a container. For list drags the container is the
// board; for card drags it is the list.
type Location struct {
	ContainerID string `json:"droppableId"`
	Index       int    `json:"index"`
}

// Dispatcher receives the emitted command. *store.Store satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) (command.State, error)
}

// Translator tracks one gesture at a time.
type Translator struct {
	dispatcher Dispatcher

	mu     sync.Mutex
	phase  Phase
	kind   Kind
	id     string
	source Location
}

func NewTranslator(d Dispatcher) *Translator {
	return &Translator{dispatcher: d}
}

func (t *Translator) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// PickUp starts a drag of the entity id from source.
func (t *Translator) PickUp(kind Kind, id string, source Location) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != Idle {
		return ErrDragInProgress
	}
	t.phase = Dragging
	t.kind = kind
	t.id = id
	t.source = source
	return nil
}

// Cancel abandons the current drag, if any.
func (t *Translator) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

// Drop ends the drag at dest. A nil dest, or a dest equal to the source slot,
// emits nothing. The returned command is nil when nothing was emitted. The
// translator is back to Idle when Drop returns, even on dispatch errors.
func (t *Translator) Drop(ctx context.Context, dest *Location) (command.Command, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != Dragging {
		return nil, ErrNotDragging
	}
	t.phase = Dropped
	defer t.reset()

	cmd := moveFor(t.kind, t.id, t.source, dest)
	if cmd == nil {
		return nil, nil
	}
	_, err := t.dispatcher.Dispatch(ctx, cmd)
	return cmd, err
}

func (t *Translator) reset() {
	t.phase = Idle
	t.kind = ""
	t.id = ""
	t.source = Location{}
}

func moveFor(kind Kind, id string, source Location, dest *Location) command.Command {
	if dest == nil || *dest == source {
		return nil
	}
	if kind == KindList {
		return command.MoveList{BoardID: source.ContainerID, FromIndex: source.Index, ToIndex: dest.Index}
	}
	return command.MoveCard{CardID: id, FromListID: source.ContainerID, ToListID: dest.ContainerID, DestIndex: dest.Index}
}

// Result is the one-shot payload a drag-and-drop front end reports when a
// gesture ends.
type Result struct {
	DraggableID string    `json:"draggableId"`
	Type        string    `json:"type"`
	Source      Location  `json:"source"`
	Destination *Location `json:"destination"`
}

// FromResult runs a complete gesture through t.
func (t *Translator) FromResult(ctx context.Context, r Result) (command.Command, error) {
	if err := t.PickUp(ParseKind(r.Type), r.DraggableID, r.Source); err != nil {
		return nil, err
	}
	return t.Drop(ctx, r.Destination)
}
