package drag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/kanban/internal/board/command"
)

type recorder struct {
	cmds []command.Command
	err  error
}

func (r *recorder) Dispatch(_ context.Context, cmd command.Command) (command.State, error) {
	r.cmds = append(r.cmds, cmd)
	return command.State{}, r.err
}

func TestCardDropEmitsMoveCard(t *testing.T) {
	rec := &recorder{}
	tr := NewTranslator(rec)

	require.NoError(t, tr.PickUp(KindCard, "c2", Location{ContainerID: "A", Index: 1}))
	assert.Equal(t, Dragging, tr.Phase())

	cmd, err := tr.Drop(context.Background(), &Location{ContainerID: "B", Index: 0})
	require.NoError(t, err)
	assert.Equal(t, command.MoveCard{CardID: "c2", FromListID: "A", ToListID: "B", DestIndex: 0}, cmd)
	assert.Equal(t, []command.Command{cmd}, rec.cmds)
	assert.Equal(t, Idle, tr.Phase())
}

func TestListDropEmitsMoveList(t *testing.T) {
	rec := &recorder{}
	tr := NewTranslator(rec)

	cmd, err := tr.FromResult(context.Background(), Result{
		DraggableID: "done",
		Type:        "LIST",
		Source:      Location{ContainerID: "board-1", Index: 2},
		Destination: &Location{ContainerID: "board-1", Index: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, command.MoveList{BoardID: "board-1", FromIndex: 2, ToIndex: 0}, cmd)
	assert.Len(t, rec.cmds, 1)
}

func TestDropWithoutDestinationCancels(t *testing.T) {
	rec := &recorder{}
	tr := NewTranslator(rec)
	require.NoError(t, tr.PickUp(KindCard, "c1", Location{ContainerID: "A", Index: 0}))

	cmd, err := tr.Drop(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Empty(t, rec.cmds)
	assert.Equal(t, Idle, tr.Phase())
}

func TestDropOnSourceSlotEmitsNothing(t *testing.T) {
	rec := &recorder{}
	tr := NewTranslator(rec)

	cmd, err := tr.FromResult(context.Background(), Result{
		DraggableID: "c1",
		Type:        "DEFAULT",
		Source:      Location{ContainerID: "A", Index: 3},
		Destination: &Location{ContainerID: "A", Index: 3},
	})
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Empty(t, rec.cmds)
}

func TestPickUpWhileDraggingFails(t *testing.T) {
	tr := NewTranslator(&recorder{})
	require.NoError(t, tr.PickUp(KindCard, "c1", Location{ContainerID: "A"}))
	assert.ErrorIs(t, tr.PickUp(KindList, "l1", Location{ContainerID: "b"}), ErrDragInProgress)

	tr.Cancel()
	assert.Equal(t, Idle, tr.Phase())
	assert.NoError(t, tr.PickUp(KindList, "l1", Location{ContainerID: "b"}))
}

func TestDropWhenIdleFails(t *testing.T) {
	_, err := NewTranslator(&recorder{}).Drop(context.Background(), &Location{})
	assert.ErrorIs(t, err, ErrNotDragging)
}

func TestDispatchErrorStillResets(t *testing.T) {
	rec := &recorder{err: errors.New("backend down")}
	tr := NewTranslator(rec)
	require.NoError(t, tr.PickUp(KindCard, "c1", Location{ContainerID: "A"}))

	cmd, err := tr.Drop(context.Background(), &Location{ContainerID: "B"})
	assert.EqualError(t, err, "backend down")
	assert.NotNil(t, cmd)
	assert.Equal(t, Idle, tr.Phase())
}

func TestTranslatorAgainstReducer(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var s command.State
	for _, c := range []command.Command{
		command.CreateBoard{ID: "b", Title: "Sprint 1"},
		command.CreateList{BoardID: "b", ID: "A", Title: "A"},
		command.CreateList{BoardID: "b", ID: "B", Title: "B"},
		command.CreateCard{ListID: "A", ID: "c1", Title: "c1"},
		command.CreateCard{ListID: "A", ID: "c2", Title: "c2"},
	} {
		s, _ = command.Reduce(s, c, now)
	}
	d := dispatchFunc(func(_ context.Context, cmd command.Command) (command.State, error) {
		s, _ = command.Reduce(s, cmd, now)
		return s, nil
	})

	_, err := NewTranslator(d).FromResult(context.Background(), Result{
		DraggableID: "c2",
		Source:      Location{ContainerID: "A", Index: 1},
		Destination: &Location{ContainerID: "B", Index: 0},
	})
	require.NoError(t, err)

	board, _ := s.Board("b")
	require.Len(t, board.Lists[1].Cards, 1)
	assert.Equal(t, "c2", board.Lists[1].Cards[0].ID)
}

type dispatchFunc func(context.Context, command.Command) (command.State, error)

func (f dispatchFunc) Dispatch(ctx context.Context, cmd command.Command) (command.State, error) {
	return f(ctx, cmd)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindList, ParseKind("LIST"))
	assert.Equal(t, KindList, ParseKind("list"))
	assert.Equal(t, KindCard, ParseKind("DEFAULT"))
	assert.Equal(t, KindCard, ParseKind(""))
	assert.Equal(t, "dropped", Dropped.String())
}
