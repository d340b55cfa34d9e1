package command

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kandev/kanban/internal/board/models"
	"github.com/kandev/kanban/internal/board/ordering"
)

var (
	t0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func mustReduce(t *testing.T, s State, cmd Command, now time.Time) State {
	t.Helper()
	next, changed := Reduce(s, cmd, now)
	if !changed {
		t.Fatalf("%s: expected a change", cmd.Name())
	}
	return next
}

func listTitles(b models.Board) []string {
	out := make([]string, len(b.Lists))
	for i, l := range b.Lists {
		out[i] = l.Title
	}
	return out
}

func cardIDs(l models.List) []string {
	out := make([]string, len(l.Cards))
	for i, c := range l.Cards {
		out[i] = c.ID
	}
	return out
}

func assertContiguous(t *testing.T, s State) {
	t.Helper()
	for _, b := range s.Boards {
		if !ordering.Contiguous(b.Lists) {
			t.Fatalf("board %s: list positions not contiguous", b.ID)
		}
		for _, l := range b.Lists {
			if !ordering.Contiguous(l.Cards) {
				t.Fatalf("list %s: card positions not contiguous", l.ID)
			}
			for _, c := range l.Cards {
				if c.ListID != l.ID {
					t.Fatalf("card %s claims list %s but lives in %s", c.ID, c.ListID, l.ID)
				}
			}
		}
	}
}

// sprint builds board b1 with lists Todo(A: c1,c2,c3), Doing(B: c4), Done(C).
func sprint(t *testing.T) State {
	t.Helper()
	s := mustReduce(t, State{}, CreateBoard{ID: "b1", OwnerID: "u1", Title: "Sprint 1"}, t0)
	s = mustReduce(t, s, CreateList{BoardID: "b1", ID: "A", Title: "Todo"}, t0)
	s = mustReduce(t, s, CreateList{BoardID: "b1", ID: "B", Title: "Doing"}, t0)
	s = mustReduce(t, s, CreateList{BoardID: "b1", ID: "C", Title: "Done"}, t0)
	for _, id := range []string{"c1", "c2", "c3"} {
		s = mustReduce(t, s, CreateCard{ListID: "A", ID: id, Title: id}, t0)
	}
	return mustReduce(t, s, CreateCard{ListID: "B", ID: "c4", Title: "c4"}, t0)
}

func TestCreateBoardBecomesCurrent(t *testing.T) {
	s := mustReduce(t, State{}, CreateBoard{ID: "b1", Title: "  Sprint 1 "}, t0)
	if s.CurrentBoardID != "b1" {
		t.Fatalf("expected b1 to be current, got %q", s.CurrentBoardID)
	}
	b, _ := s.Board("b1")
	if b.Title != "Sprint 1" {
		t.Fatalf("expected trimmed title, got %q", b.Title)
	}
}

func TestCreateBoardEmptyTitleIsNoop(t *testing.T) {
	s := sprint(t)
	for _, title := range []string{"", "   "} {
		next, changed := Reduce(s, CreateBoard{ID: "b2", Title: title}, t1)
		if changed {
			t.Fatalf("title %q: expected no change", title)
		}
		if len(next.Boards) != 1 || next.CurrentBoardID != "b1" {
			t.Fatalf("title %q: state changed: %+v", title, next)
		}
	}
}

func TestCreateBoardDuplicateIDIsNoop(t *testing.T) {
	s := sprint(t)
	if _, changed := Reduce(s, CreateBoard{ID: "b1", Title: "again"}, t1); changed {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestMoveListScenario(t *testing.T) {
	s := sprint(t)
	s = mustReduce(t, s, MoveList{BoardID: "b1", FromIndex: 2, ToIndex: 0}, t1)

	b, _ := s.Board("b1")
	if diff := cmp.Diff([]string{"Done", "Todo", "Doing"}, listTitles(b)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	for i, l := range b.Lists {
		if l.Position != i {
			t.Fatalf("list %s has position %d, want %d", l.Title, l.Position, i)
		}
	}
	if !b.UpdatedAt.Equal(t1) {
		t.Fatalf("board timestamp not bumped")
	}
}

func TestMoveListClampsAndNoops(t *testing.T) {
	s := sprint(t)
	next := mustReduce(t, s, MoveList{BoardID: "b1", FromIndex: 10, ToIndex: -3}, t1)
	b, _ := next.Board("b1")
	if diff := cmp.Diff([]string{"Done", "Todo", "Doing"}, listTitles(b)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	if _, changed := Reduce(s, MoveList{BoardID: "b1", FromIndex: 1, ToIndex: 1}, t1); changed {
		t.Fatal("same index should be a no-op")
	}
	if _, changed := Reduce(s, MoveList{BoardID: "nope", FromIndex: 0, ToIndex: 1}, t1); changed {
		t.Fatal("unknown board should be a no-op")
	}
	empty := mustReduce(t, State{}, CreateBoard{ID: "e", Title: "empty"}, t0)
	if _, changed := Reduce(empty, MoveList{BoardID: "e", FromIndex: 0, ToIndex: 1}, t1); changed {
		t.Fatal("moving lists on an empty board should be a no-op")
	}
}

func TestMoveCardScenario(t *testing.T) {
	s := sprint(t)
	s = mustReduce(t, s, MoveCard{CardID: "c2", FromListID: "A", ToListID: "B", DestIndex: 0}, t1)
	assertContiguous(t, s)

	b, _ := s.Board("b1")
	a, bl := b.Lists[0], b.Lists[1]
	if diff := cmp.Diff([]string{"c1", "c3"}, cardIDs(a)); diff != "" {
		t.Fatalf("list A (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c2", "c4"}, cardIDs(bl)); diff != "" {
		t.Fatalf("list B (-want +got):\n%s", diff)
	}
	if bl.Cards[0].ListID != "B" {
		t.Fatalf("moved card still points at %s", bl.Cards[0].ListID)
	}
	for _, ts := range []time.Time{a.UpdatedAt, bl.UpdatedAt, b.UpdatedAt} {
		if !ts.Equal(t1) {
			t.Fatalf("expected timestamps bumped to %v, got %v", t1, ts)
		}
	}
}

func TestMoveCardSameListReorders(t *testing.T) {
	s := sprint(t)
	s = mustReduce(t, s, MoveCard{CardID: "c1", FromListID: "A", ToListID: "A", DestIndex: 2}, t1)
	assertContiguous(t, s)
	b, _ := s.Board("b1")
	if diff := cmp.Diff([]string{"c2", "c3", "c1"}, cardIDs(b.Lists[0])); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestMoveCardNoopDropIsDeepEqual(t *testing.T) {
	s := sprint(t)
	before := s.Clone()

	next, changed := Reduce(s, MoveCard{CardID: "c2", FromListID: "A", ToListID: "A", DestIndex: 1}, t1)
	if changed {
		t.Fatal("identical source and destination should not change anything")
	}
	if diff := cmp.Diff(before, next); diff != "" {
		t.Fatalf("tree changed (-before +after):\n%s", diff)
	}
}

func TestMoveCardGuards(t *testing.T) {
	s := sprint(t)
	other := mustReduce(t, s, CreateBoard{ID: "b2", Title: "Other"}, t0)
	other = mustReduce(t, other, CreateList{BoardID: "b2", ID: "X", Title: "X"}, t0)

	cases := []MoveCard{
		{CardID: "c1", FromListID: "A", ToListID: "missing", DestIndex: 0},
		{CardID: "c1", FromListID: "missing", ToListID: "B", DestIndex: 0},
		{CardID: "c4", FromListID: "A", ToListID: "B", DestIndex: 0},
		{CardID: "c1", FromListID: "A", ToListID: "X", DestIndex: 0},
	}
	for _, mc := range cases {
		if _, changed := Reduce(other, mc, t1); changed {
			t.Errorf("expected %+v to be a no-op", mc)
		}
	}
}

func TestCascadeDelete(t *testing.T) {
	s := sprint(t)
	s = mustReduce(t, s, DeleteBoard{BoardID: "b1"}, t1)
	if len(s.Boards) != 0 {
		t.Fatalf("expected no boards, got %d", len(s.Boards))
	}
	if s.CurrentBoardID != "" {
		t.Fatalf("current board should be cleared, got %q", s.CurrentBoardID)
	}
	if BoardID(s, DeleteCard{CardID: "c1"}) != "" {
		t.Fatal("card of deleted board is still reachable")
	}
}

func TestDeleteListRenumbers(t *testing.T) {
	s := sprint(t)
	s = mustReduce(t, s, DeleteList{ListID: "A"}, t1)
	assertContiguous(t, s)
	b, _ := s.Board("b1")
	if diff := cmp.Diff([]string{"Doing", "Done"}, listTitles(b)); diff != "" {
		t.Fatalf("unexpected lists (-want +got):\n%s", diff)
	}
	if _, _, _, ok := s.locateCard("c1"); ok {
		t.Fatal("cards of deleted list still present")
	}

	s = mustReduce(t, s, CreateList{BoardID: "b1", ID: "D", Title: "Later"}, t1)
	b, _ = s.Board("b1")
	if b.Lists[2].Position != 2 {
		t.Fatalf("next position should equal the count, got %d", b.Lists[2].Position)
	}
}

func TestLabelAndCommentRoundTrip(t *testing.T) {
	s := sprint(t)
	s = mustReduce(t, s, AddLabelToCard{CardID: "c1", Label: models.Label{ID: "red", Name: "Bug", Color: "red"}}, t1)
	s = mustReduce(t, s, AddLabelToCard{CardID: "c1", Label: models.Label{ID: "green", Name: "Feature", Color: "green"}}, t1)
	if _, changed := Reduce(s, AddLabelToCard{CardID: "c1", Label: models.Label{ID: "red"}}, t1); changed {
		t.Fatal("adding an existing label should be idempotent")
	}
	s = mustReduce(t, s, AddComment{CardID: "c1", Comment: models.Comment{ID: "m1", Text: "first", AuthorID: "u1", CreatedAt: t1}}, t1)

	b, _ := s.Board("b1")
	card := b.Lists[0].Cards[0]
	if !card.HasLabel("red") || !card.HasLabel("green") || len(card.Labels) != 2 {
		t.Fatalf("unexpected labels: %+v", card.Labels)
	}
	if diff := cmp.Diff([]models.Comment{{ID: "m1", Text: "first", AuthorID: "u1", CreatedAt: t1}}, card.Comments); diff != "" {
		t.Fatalf("unexpected comments (-want +got):\n%s", diff)
	}

	s = mustReduce(t, s, RemoveLabelFromCard{CardID: "c1", LabelID: "red"}, t1)
	if _, changed := Reduce(s, RemoveLabelFromCard{CardID: "c1", LabelID: "red"}, t1); changed {
		t.Fatal("removing an absent label should be a no-op")
	}
	s = mustReduce(t, s, DeleteComment{CardID: "c1", CommentID: "m1"}, t1)
	b, _ = s.Board("b1")
	if len(b.Lists[0].Cards[0].Comments) != 0 || len(b.Lists[0].Cards[0].Labels) != 1 {
		t.Fatalf("unexpected card after removals: %+v", b.Lists[0].Cards[0])
	}
}

func TestCardMetadataCommands(t *testing.T) {
	s := sprint(t)
	due := time.Date(2026, 2, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	cover := "#ff0000"

	s = mustReduce(t, s, SetCardDueDate{CardID: "c3", Due: &due}, t1)
	s = mustReduce(t, s, SetCardCover{CardID: "c3", Color: &cover}, t1)
	s = mustReduce(t, s, ToggleCardCompletion{CardID: "c3"}, t1)
	s = mustReduce(t, s, AddMemberToCard{CardID: "c3", Member: models.Member{ID: "ana", Name: "Ana"}}, t1)
	s = mustReduce(t, s, AddAttachment{CardID: "c3", Attachment: models.Attachment{ID: "f1", Name: "plan.pdf", Size: 10}}, t1)

	b, _ := s.Board("b1")
	card := b.Lists[0].Cards[2]
	if card.DueDate == nil || !card.DueDate.Equal(due) || card.DueDate.Location() != time.UTC {
		t.Fatalf("unexpected due date: %v", card.DueDate)
	}
	if card.CoverColor == nil || *card.CoverColor != cover || !card.Completed {
		t.Fatalf("unexpected card: %+v", card)
	}
	if !card.HasMember("ana") || len(card.Attachments) != 1 {
		t.Fatalf("unexpected members/attachments: %+v", card)
	}

	if _, changed := Reduce(s, SetCardDueDate{CardID: "c3", Due: &due}, t1); changed {
		t.Fatal("setting the same due date should be a no-op")
	}
	s = mustReduce(t, s, SetCardDueDate{CardID: "c3"}, t1)
	s = mustReduce(t, s, SetCardCover{CardID: "c3"}, t1)
	s = mustReduce(t, s, RemoveMemberFromCard{CardID: "c3", MemberID: "ana"}, t1)
	s = mustReduce(t, s, DeleteAttachment{CardID: "c3", AttachmentID: "f1"}, t1)
	b, _ = s.Board("b1")
	card = b.Lists[0].Cards[2]
	if card.DueDate != nil || card.CoverColor != nil || len(card.Members) != 0 || len(card.Attachments) != 0 {
		t.Fatalf("expected cleared card, got %+v", card)
	}
}

func TestUpdatesRejectBlankTitles(t *testing.T) {
	s := sprint(t)
	blank := " "
	if _, changed := Reduce(s, UpdateBoard{BoardID: "b1", Update: models.BoardUpdate{Title: &blank}}, t1); changed {
		t.Error("blank board title accepted")
	}
	if _, changed := Reduce(s, UpdateList{ListID: "A", Update: models.ListUpdate{Title: &blank}}, t1); changed {
		t.Error("blank list title accepted")
	}
	if _, changed := Reduce(s, UpdateCard{CardID: "c1", Update: models.CardUpdate{Title: &blank}}, t1); changed {
		t.Error("blank card title accepted")
	}
	if _, changed := Reduce(s, CreateList{BoardID: "b1", ID: "Z", Title: ""}, t1); changed {
		t.Error("blank list accepted")
	}
	if _, changed := Reduce(s, CreateCard{ListID: "A", ID: "z", Title: "\t"}, t1); changed {
		t.Error("blank card accepted")
	}
}

func TestEditPropagatesUpdatedAt(t *testing.T) {
	s := sprint(t)
	title := "renamed"
	s = mustReduce(t, s, UpdateCard{CardID: "c4", Update: models.CardUpdate{Title: &title}}, t1)
	b, _ := s.Board("b1")
	if !b.UpdatedAt.Equal(t1) || !b.Lists[1].UpdatedAt.Equal(t1) || !b.Lists[1].Cards[0].UpdatedAt.Equal(t1) {
		t.Fatal("expected card, list and board timestamps to advance")
	}
	if !b.Lists[0].UpdatedAt.Equal(t0) {
		t.Fatal("sibling list timestamp should not change")
	}
}

func TestReduceDoesNotMutatePriorSnapshot(t *testing.T) {
	s := sprint(t)
	before := s.Clone()

	next := mustReduce(t, s, MoveCard{CardID: "c1", FromListID: "A", ToListID: "C", DestIndex: 0}, t1)
	next = mustReduce(t, next, AddLabelToCard{CardID: "c2", Label: models.Label{ID: "red"}}, t1)
	_ = mustReduce(t, next, DeleteList{ListID: "B"}, t1)

	if diff := cmp.Diff(before, s); diff != "" {
		t.Fatalf("prior snapshot mutated (-before +after):\n%s", diff)
	}
}

func TestSelectBoard(t *testing.T) {
	s := sprint(t)
	s = mustReduce(t, s, CreateBoard{ID: "b2", Title: "Second"}, t0)
	s = mustReduce(t, s, SelectBoard{BoardID: "b1"}, t1)
	if cur, ok := s.Current(); !ok || cur.ID != "b1" {
		t.Fatalf("expected b1 current, got %+v", cur)
	}
	if _, changed := Reduce(s, SelectBoard{BoardID: "ghost"}, t1); changed {
		t.Fatal("selecting an unknown board should be a no-op")
	}
	s = mustReduce(t, s, SelectBoard{}, t1)
	if _, ok := s.Current(); ok {
		t.Fatal("expected no current board")
	}
}

func TestContiguityUnderRandomCommands(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := sprint(t)
	next := 0
	for i := 0; i < 500; i++ {
		b := s.Boards[0]
		var cmd Command
		switch rng.Intn(6) {
		case 0:
			next++
			cmd = CreateCard{ListID: b.Lists[rng.Intn(len(b.Lists))].ID, ID: fmt.Sprintf("n%d", next), Title: "x"}
		case 1:
			next++
			cmd = CreateList{BoardID: b.ID, ID: fmt.Sprintf("L%d", next), Title: "list"}
		case 2:
			cmd = MoveList{BoardID: b.ID, FromIndex: rng.Intn(6) - 1, ToIndex: rng.Intn(6) - 1}
		case 3, 4:
			src := b.Lists[rng.Intn(len(b.Lists))]
			dst := b.Lists[rng.Intn(len(b.Lists))]
			if len(src.Cards) == 0 {
				continue
			}
			cmd = MoveCard{CardID: src.Cards[rng.Intn(len(src.Cards))].ID, FromListID: src.ID, ToListID: dst.ID, DestIndex: rng.Intn(8) - 1}
		case 5:
			l := b.Lists[rng.Intn(len(b.Lists))]
			if len(l.Cards) == 0 || len(b.Lists) < 3 {
				continue
			}
			cmd = DeleteCard{CardID: l.Cards[rng.Intn(len(l.Cards))].ID}
		}
		s, _ = Reduce(s, cmd, t1)
		assertContiguous(t, s)
	}
}

func TestPrepareFillsMissingIDs(t *testing.T) {
	n := 0
	gen := func() string { n++; return fmt.Sprintf("id-%d", n) }

	cb := Prepare(CreateBoard{Title: "x"}, "owner", gen, t1).(CreateBoard)
	if cb.ID != "id-1" || cb.OwnerID != "owner" {
		t.Fatalf("unexpected board command: %+v", cb)
	}
	kept := Prepare(CreateList{ID: "mine", Title: "x"}, "owner", gen, t1).(CreateList)
	if kept.ID != "mine" {
		t.Fatalf("caller id overwritten: %+v", kept)
	}
	ac := Prepare(AddComment{CardID: "c", Comment: models.Comment{Text: "hi"}}, "owner", gen, t1).(AddComment)
	if ac.Comment.ID != "id-2" || !ac.Comment.CreatedAt.Equal(t1) {
		t.Fatalf("unexpected comment command: %+v", ac)
	}
}

func TestBoardIDResolution(t *testing.T) {
	s := sprint(t)
	tests := []struct {
		cmd  Command
		want string
	}{
		{UpdateBoard{BoardID: "b1"}, "b1"},
		{CreateList{BoardID: "b1"}, "b1"},
		{DeleteList{ListID: "B"}, "b1"},
		{CreateCard{ListID: "C"}, "b1"},
		{MoveCard{FromListID: "A"}, "b1"},
		{ToggleCardCompletion{CardID: "c4"}, "b1"},
		{SetCardCover{CardID: "ghost"}, ""},
	}
	for _, tt := range tests {
		if got := BoardID(s, tt.cmd); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.cmd.Name(), got, tt.want)
		}
	}
}
