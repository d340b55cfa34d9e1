package ordering

import (
	"reflect"
	"testing"
)

type item struct {
	id  string
	pos int
}

func (i item) Key() string             { return i.id }
func (i item) Pos() int                { return i.pos }
func (i item) WithPosition(p int) item { i.pos = p; return i }

func seq(ids ...string) []item {
	out := make([]item, len(ids))
	for i, id := range ids {
		out[i] = item{id: id, pos: i}
	}
	return out
}

func ids(s []item) []string {
	out := make([]string, len(s))
	for i, it := range s {
		out[i] = it.id
	}
	return out
}

func assertOrder(t *testing.T, got []item, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected order %v, got %v", want, ids(got))
	}
	if !Contiguous(got) {
		t.Fatalf("positions not contiguous: %+v", got)
	}
}

func TestInsertAtClamps(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"front", 0, []string{"x", "a", "b"}},
		{"middle", 1, []string{"a", "x", "b"}},
		{"end", 2, []string{"a", "b", "x"}},
		{"negative", -5, []string{"x", "a", "b"}},
		{"past end", 99, []string{"a", "b", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertOrder(t, InsertAt(seq("a", "b"), tt.index, item{id: "x", pos: 42}), tt.want...)
		})
	}
}

func TestInsertAtDoesNotModifyInput(t *testing.T) {
	in := seq("a", "b", "c")
	_ = InsertAt(in[:1], 1, item{id: "x"})
	assertOrder(t, in, "a", "b", "c")
}

func TestRemove(t *testing.T) {
	assertOrder(t, RemoveAt(seq("a", "b", "c"), 1), "a", "c")
	assertOrder(t, RemoveAt(seq("a", "b"), 5), "a", "b")
	assertOrder(t, RemoveAt(seq("a", "b"), -1), "a", "b")

	out, ok := RemoveByID(seq("a", "b", "c"), "a")
	if !ok {
		t.Fatal("expected a to be removed")
	}
	assertOrder(t, out, "b", "c")

	out, ok = RemoveByID(seq("a", "b"), "zzz")
	if ok {
		t.Fatal("expected absent id to report false")
	}
	assertOrder(t, out, "a", "b")
}

func TestRemoveRenumbersGaps(t *testing.T) {
	in := []item{{"a", 0}, {"b", 3}, {"c", 7}}
	out, _ := RemoveByID(in, "a")
	assertOrder(t, out, "b", "c")
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"last to first", 2, 0, []string{"c", "a", "b"}},
		{"first to last", 0, 2, []string{"b", "c", "a"}},
		{"same index", 1, 1, []string{"a", "b", "c"}},
		{"clamped from", 9, 0, []string{"c", "a", "b"}},
		{"clamped to", 0, 9, []string{"b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertOrder(t, Move(seq("a", "b", "c"), tt.from, tt.to), tt.want...)
		})
	}
	assertOrder(t, Move(seq(), 0, 1))
}

func TestMoveBetweenLists(t *testing.T) {
	src, dst, ok := MoveBetween(seq("c1", "c2", "c3"), seq("c4"), "c2", 0)
	if !ok {
		t.Fatal("expected move to succeed")
	}
	assertOrder(t, src, "c1", "c3")
	assertOrder(t, dst, "c2", "c4")
}

func TestMoveBetweenMissingID(t *testing.T) {
	src, dst, ok := MoveBetween(seq("a"), seq("b"), "zzz", 0)
	if ok {
		t.Fatal("expected missing id to fail")
	}
	assertOrder(t, src, "a")
	assertOrder(t, dst, "b")
}

func TestMoveBetweenSameSequence(t *testing.T) {
	s := seq("a", "b", "c")
	src, dst, ok := MoveBetween(s, s, "a", 2)
	if !ok {
		t.Fatal("expected move to succeed")
	}
	assertOrder(t, src, "b", "c", "a")
	assertOrder(t, dst, "b", "c", "a")
	assertOrder(t, s, "a", "b", "c")
}

func TestMoveBetweenClampsDestination(t *testing.T) {
	_, dst, _ := MoveBetween(seq("a"), seq("b", "c"), "a", 50)
	assertOrder(t, dst, "b", "c", "a")
}

func TestContiguous(t *testing.T) {
	if !Contiguous([]item{}) {
		t.Error("empty sequence is contiguous")
	}
	if Contiguous([]item{{"a", 0}, {"b", 2}}) {
		t.Error("gap should not be contiguous")
	}
	if Contiguous([]item{{"a", 1}, {"b", 0}}) {
		t.Error("out-of-order positions should not be contiguous")
	}
}
