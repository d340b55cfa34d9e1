package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kandev/kanban/internal/board/command"
	"github.com/kandev/kanban/internal/board/models"
	"github.com/kandev/kanban/internal/board/repository"
	"github.com/kandev/kanban/internal/common/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type flakyBackend struct {
	repository.Backend
	fail    atomic.Bool
	applies atomic.Int32
	loads   atomic.Int32
}

func (f *flakyBackend) Load(ctx context.Context, ownerID string) ([]models.Board, error) {
	f.loads.Add(1)
	time.Sleep(5 * time.Millisecond)
	return f.Backend.Load(ctx, ownerID)
}

func (f *flakyBackend) Apply(ctx context.Context, cs *repository.ChangeSet) error {
	if f.fail.Load() {
		return errors.New("disk full")
	}
	f.applies.Add(1)
	return f.Backend.Apply(ctx, cs)
}

func testOptions() Options {
	var n int
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Options{
		HistoryDepth: 3,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Logger: logger.NewNop(),
	}
}

func newStore(t *testing.T) (*Store, *flakyBackend) {
	t.Helper()
	backend := &flakyBackend{Backend: repository.NewMemoryBackend()}
	s, err := Load(context.Background(), "u1", backend, testOptions())
	require.NoError(t, err)
	return s, backend
}

func dispatch(t *testing.T, s *Store, cmds ...command.Command) command.State {
	t.Helper()
	var st command.State
	for _, c := range cmds {
		var err error
		st, err = s.Dispatch(context.Background(), c)
		require.NoError(t, err)
	}
	return st
}

func TestDispatchPersistsAndAssignsIDs(t *testing.T) {
	s, backend := newStore(t)
	st := dispatch(t, s,
		command.CreateBoard{Title: "Sprint 1"},
		command.CreateList{BoardID: "id-1", Title: "Todo"},
		command.CreateCard{ListID: "id-2", Title: "write tests"},
	)

	board, ok := st.Current()
	require.True(t, ok)
	assert.Equal(t, "id-1", board.ID)
	assert.Equal(t, "u1", board.OwnerID)
	assert.Equal(t, "id-3", board.Lists[0].Cards[0].ID)

	loaded, err := backend.Backend.Load(context.Background(), "u1")
	require.NoError(t, err)
	if diff := cmp.Diff(st.Boards, loaded); diff != "" {
		t.Fatalf("backend out of sync (-store +backend):\n%s", diff)
	}
}

func TestRejectedCommandSkipsBackend(t *testing.T) {
	s, backend := newStore(t)
	before := s.State()
	st, err := s.Dispatch(context.Background(), command.CreateBoard{Title: "   "})
	require.NoError(t, err)
	assert.Equal(t, before, st)
	assert.Zero(t, backend.applies.Load())
	assert.False(t, s.CanUndo())
}

func TestBackendFailureLeavesStateUntouched(t *testing.T) {
	s, backend := newStore(t)
	dispatch(t, s, command.CreateBoard{Title: "Sprint"})
	before := s.State()

	var notified int
	s.Subscribe(func(Change) { notified++ })

	backend.fail.Store(true)
	st, err := s.Dispatch(context.Background(), command.UpdateBoard{BoardID: "id-1", Update: models.BoardUpdate{Title: strPtr("Renamed")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update_board")
	assert.Equal(t, before, st)
	assert.Equal(t, before, s.State())
	assert.Zero(t, notified)
}

func TestSelectBoardIsLocalOnly(t *testing.T) {
	s, backend := newStore(t)
	dispatch(t, s, command.CreateBoard{Title: "One"}, command.CreateBoard{Title: "Two"})
	applies := backend.applies.Load()

	st := dispatch(t, s, command.SelectBoard{BoardID: "id-1"})
	assert.Equal(t, "id-1", st.CurrentBoardID)
	assert.Equal(t, applies, backend.applies.Load())
}

func TestUndoRestoresAndPersists(t *testing.T) {
	s, backend := newStore(t)
	dispatch(t, s,
		command.CreateBoard{Title: "Sprint"},
		command.CreateList{BoardID: "id-1", Title: "Todo"},
	)
	before := s.State()
	dispatch(t, s, command.DeleteList{ListID: "id-2"})

	st, err := s.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, st)

	loaded, err := backend.Backend.Load(context.Background(), "u1")
	require.NoError(t, err)
	if diff := cmp.Diff(before.Boards, loaded); diff != "" {
		t.Fatalf("undo not persisted (-want +got):\n%s", diff)
	}
}

func TestUndoHistoryIsBounded(t *testing.T) {
	s, _ := newStore(t)
	dispatch(t, s, command.CreateBoard{Title: "Sprint"})
	for i := 0; i < 5; i++ {
		dispatch(t, s, command.CreateList{BoardID: "id-1", Title: fmt.Sprintf("L%d", i)})
	}

	for i := 0; i < 3; i++ {
		_, err := s.Undo(context.Background())
		require.NoError(t, err)
	}
	_, err := s.Undo(context.Background())
	assert.ErrorIs(t, err, ErrNothingToUndo)

	board, ok := s.State().Current()
	require.True(t, ok)
	assert.Len(t, board.Lists, 2)
}

func TestUndoKeepsSurvivingSelection(t *testing.T) {
	s, _ := newStore(t)
	dispatch(t, s, command.CreateBoard{Title: "Sprint"}, command.CreateBoard{Title: "Later"})
	dispatch(t, s, command.SelectBoard{BoardID: "id-1"})
	dispatch(t, s, command.UpdateBoard{BoardID: "id-2", Update: models.BoardUpdate{Title: strPtr("Renamed")}})

	st, err := s.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id-1", st.CurrentBoardID)

	st, err = s.Undo(context.Background())
	require.NoError(t, err)
	assert.Len(t, st.Boards, 1)
	assert.Equal(t, "id-1", st.CurrentBoardID)
}

func TestUndoFallsBackWhenSelectionVanishes(t *testing.T) {
	s, _ := newStore(t)
	dispatch(t, s, command.CreateBoard{Title: "Sprint"}, command.CreateBoard{Title: "Later"})
	require.Equal(t, "id-2", s.State().CurrentBoardID)

	st, err := s.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id-1", st.CurrentBoardID)
}

func TestSubscribersSeeCommits(t *testing.T) {
	s, _ := newStore(t)
	var got []Change
	unsubscribe := s.Subscribe(func(c Change) { got = append(got, c) })

	dispatch(t, s,
		command.CreateBoard{Title: "Sprint"},
		command.CreateList{BoardID: "id-1", Title: "Todo"},
	)
	dispatch(t, s, command.DeleteBoard{BoardID: "id-1"})
	unsubscribe()
	dispatch(t, s, command.CreateBoard{Title: "Ignored"})

	require.Len(t, got, 3)
	assert.Equal(t, "create_board", got[0].Command)
	assert.Equal(t, "id-1", got[1].BoardID)
	assert.Equal(t, "delete_board", got[2].Command)
	assert.Equal(t, "id-1", got[2].BoardID, "deleted board resolves against the prior state")
	assert.Equal(t, "u1", got[2].OwnerID)
}

func TestLoadPicksFirstBoardAsCurrent(t *testing.T) {
	backend := repository.NewMemoryBackend()
	s, err := Load(context.Background(), "u1", backend, testOptions())
	require.NoError(t, err)
	dispatch(t, s, command.CreateBoard{Title: "Old"}, command.CreateBoard{Title: "New"})

	reloaded, err := Load(context.Background(), "u1", backend, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "id-2", reloaded.State().CurrentBoardID)
}

func TestUpdatedAtAdvancesWhenClockStalls(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	opts := testOptions()
	opts.Now = func() time.Time { return frozen }
	s := New("u1", repository.NewMemoryBackend(), command.State{}, opts)

	created := dispatch(t, s, command.CreateBoard{Title: "Sprint"})
	b1, _ := created.Current()
	renamed := dispatch(t, s, command.UpdateBoard{BoardID: b1.ID, Update: models.BoardUpdate{Title: strPtr("Sprint 2")}})
	b2, _ := renamed.Current()
	assert.True(t, b2.UpdatedAt.After(b1.UpdatedAt), "rename must bump UpdatedAt")

	frozen = frozen.Add(-time.Hour)
	stepped := dispatch(t, s, command.UpdateBoard{BoardID: b1.ID, Update: models.BoardUpdate{Title: strPtr("Sprint 3")}})
	b3, _ := stepped.Current()
	assert.True(t, b3.UpdatedAt.After(b2.UpdatedAt), "clock stepping back must not rewind UpdatedAt")
}

func TestUpdatedAtContinuesPastLoadedRows(t *testing.T) {
	backend := repository.NewMemoryBackend()
	s, err := Load(context.Background(), "u1", backend, testOptions())
	require.NoError(t, err)
	st := dispatch(t, s, command.CreateBoard{Title: "Sprint"})
	loadedAt := st.Boards[0].UpdatedAt

	opts := testOptions()
	opts.Now = func() time.Time { return loadedAt.Add(-time.Minute) }
	reloaded, err := Load(context.Background(), "u1", backend, opts)
	require.NoError(t, err)
	st = dispatch(t, reloaded, command.UpdateBoard{BoardID: st.Boards[0].ID, Update: models.BoardUpdate{Title: strPtr("Renamed")}})
	assert.True(t, st.Boards[0].UpdatedAt.After(loadedAt))
}

func TestConcurrentDispatchKeepsPositionsContiguous(t *testing.T) {
	s, _ := newStore(t)
	s.opts.NewID = newSafeIDs()
	dispatch(t, s, command.CreateBoard{ID: "b", Title: "Sprint"}, command.CreateList{BoardID: "b", ID: "l", Title: "Todo"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := s.Dispatch(context.Background(), command.CreateCard{ListID: "l", Title: fmt.Sprintf("c%d-%d", i, j)})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	board, _ := s.State().Board("b")
	cards := board.Lists[0].Cards
	require.Len(t, cards, 80)
	for i, c := range cards {
		assert.Equal(t, i, c.Position)
	}
}

func TestRegistrySharesConcurrentLoads(t *testing.T) {
	backend := &flakyBackend{Backend: repository.NewMemoryBackend()}
	r := NewRegistry(backend, testOptions())

	var wg sync.WaitGroup
	stores := make([]*Store, 10)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.Get(context.Background(), "u1")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), backend.loads.Load())
	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
	assert.Equal(t, []string{"u1"}, r.Owners())

	r.Evict("u1")
	assert.Empty(t, r.Owners())
}

type gatedBackend struct {
	repository.Backend
	started chan struct{}
	release chan struct{}
	loads   atomic.Int32
}

func (g *gatedBackend) Load(ctx context.Context, ownerID string) ([]models.Board, error) {
	if g.loads.Add(1) == 1 {
		close(g.started)
	}
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Backend.Load(ctx, ownerID)
}

func TestRegistryLoadOutlivesCancelledCaller(t *testing.T) {
	backend := &gatedBackend{
		Backend: repository.NewMemoryBackend(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewRegistry(backend, testOptions())

	first, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var firstErr, waiterErr error
	var waiter *Store
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = r.Get(first, "u1")
	}()
	<-backend.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		waiter, waiterErr = r.Get(context.Background(), "u1")
	}()
	cancel()
	close(backend.release)
	wg.Wait()

	assert.NoError(t, firstErr)
	require.NoError(t, waiterErr)
	assert.NotNil(t, waiter)
	assert.Equal(t, int32(1), backend.loads.Load())
	assert.Equal(t, []string{"u1"}, r.Owners())
}

func TestRegistryListenersReachLateStores(t *testing.T) {
	r := NewRegistry(repository.NewMemoryBackend(), testOptions())
	var owners []string
	r.Subscribe(func(c Change) { owners = append(owners, c.OwnerID) })

	s, err := r.Get(context.Background(), "u2")
	require.NoError(t, err)
	dispatch(t, s, command.CreateBoard{Title: "Sprint"})
	assert.Equal(t, []string{"u2"}, owners)

	_, err = r.Get(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrOwnerRequired)
}

func newSafeIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("gen-%d", n.Add(1)) }
}

func strPtr(s string) *string { return &s }
