package models

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func sampleBoard() Board {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return Board{
		ID:    "b1",
		Title: "Sprint 1",
		Lists: []List{
			{ID: "l1", BoardID: "b1", Title: "Todo", Cards: []Card{
				{ID: "c1", ListID: "l1", Title: "one", Completed: true, DueDate: &due,
					Labels: []Label{{ID: "red"}}, CoverColor: strPtr("#fff")},
				{ID: "c2", ListID: "l1", Title: "two", Position: 1},
			}},
			{ID: "l2", BoardID: "b1", Title: "Done", Position: 1},
		},
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	b := sampleBoard()
	c := b.Clone()

	c.Lists[0].Title = "changed"
	c.Lists[0].Cards[0].Labels[0].ID = "blue"
	*c.Lists[0].Cards[0].CoverColor = "#000"
	*c.Lists[0].Cards[0].DueDate = time.Time{}

	if b.Lists[0].Title != "Todo" {
		t.Errorf("list title leaked into original: %s", b.Lists[0].Title)
	}
	if b.Lists[0].Cards[0].Labels[0].ID != "red" {
		t.Errorf("label leaked into original")
	}
	if *b.Lists[0].Cards[0].CoverColor != "#fff" {
		t.Errorf("cover leaked into original")
	}
	if b.Lists[0].Cards[0].DueDate.IsZero() {
		t.Errorf("due date leaked into original")
	}
}

func TestStats(t *testing.T) {
	b := sampleBoard()
	s := b.Stats()
	if s.Lists != 2 || s.Cards != 2 || s.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestIndexes(t *testing.T) {
	b := sampleBoard()
	if i := b.ListIndex("l2"); i != 1 {
		t.Errorf("expected list index 1, got %d", i)
	}
	if i := b.ListIndex("missing"); i != -1 {
		t.Errorf("expected -1, got %d", i)
	}
	li, ci := b.CardIndex("c2")
	if li != 0 || ci != 1 {
		t.Errorf("expected (0,1), got (%d,%d)", li, ci)
	}
	if li, ci := b.CardIndex("nope"); li != -1 || ci != -1 {
		t.Errorf("expected (-1,-1), got (%d,%d)", li, ci)
	}
}

func TestCardUpdateApply(t *testing.T) {
	c := Card{ID: "c1", Title: "old"}
	done := true

	out, changed := CardUpdate{Title: strPtr("  new  "), Completed: &done, Checklist: &Checklist{Completed: 1, Total: 3}}.Apply(c)
	if !changed {
		t.Fatal("expected change")
	}
	if out.Title != "new" || !out.Completed || out.Checklist.Total != 3 {
		t.Fatalf("unexpected card: %+v", out)
	}
	if c.Title != "old" {
		t.Fatal("input card was modified")
	}

	if _, changed := (CardUpdate{Title: strPtr("new")}).Apply(out); changed {
		t.Fatal("same title should not count as a change")
	}
}

func TestUpdateValid(t *testing.T) {
	if (BoardUpdate{Title: strPtr("   ")}).Valid() {
		t.Error("blank board title should be invalid")
	}
	if !(ListUpdate{}).Valid() {
		t.Error("empty list update should be valid")
	}
	if (CardUpdate{Checklist: &Checklist{Completed: 4, Total: 2}}).Valid() {
		t.Error("checklist with more completed than total should be invalid")
	}
}

func TestSameHelpers(t *testing.T) {
	a := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.In(time.FixedZone("x", 3600))
	if !SameInstant(&a, &b) {
		t.Error("same instant in different zones should compare equal")
	}
	if SameInstant(&a, nil) {
		t.Error("nil vs set should differ")
	}
	if !SameString(nil, nil) || SameString(strPtr("a"), strPtr("b")) {
		t.Error("SameString mismatch")
	}
}
