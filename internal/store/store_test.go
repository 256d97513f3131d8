package store

import (
	"errors"
	"testing"
)

func TestPageLifecycle(t *testing.T) {
	s := New(0)

	if _, ok := s.Page("Home"); ok {
		t.Fatalf("expected missing page before put")
	}

	s.Put("Home", "hello")
	content, ok := s.Page("Home")
	if !ok || content != "hello" {
		t.Fatalf("expected hello, got %q ok=%v", content, ok)
	}

	s.Put("Home", "changed")
	content, _ = s.Page("Home")
	if content != "changed" {
		t.Fatalf("expected overwrite, got %q", content)
	}

	if !s.Delete("Home") {
		t.Fatalf("expected delete to report success")
	}
	if _, ok := s.Page("Home"); ok {
		t.Fatalf("expected page gone after delete")
	}
	if s.Delete("Home") {
		t.Fatalf("expected second delete to report failure")
	}
}

func TestEnsureCreatesEmptyPage(t *testing.T) {
	s := New(0)

	if content := s.Ensure("Fresh"); content != "" {
		t.Fatalf("expected empty content, got %q", content)
	}
	if _, ok := s.Page("Fresh"); !ok {
		t.Fatalf("expected page to exist after ensure")
	}
	if revs := s.Revisions("Fresh"); len(revs) != 0 {
		t.Fatalf("expected no revisions from ensure, got %d", len(revs))
	}

	s.Put("Fresh", "body")
	if content := s.Ensure("Fresh"); content != "body" {
		t.Fatalf("expected existing content, got %q", content)
	}
}

func TestNamesKeepInsertionOrder(t *testing.T) {
	s := New(0)
	s.Put("Zeta", "")
	s.Ensure("Alpha")
	s.Put("Mid", "")

	names := s.Names()
	want := []string{"Zeta", "Alpha", "Mid"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, names)
		}
	}

	s.Delete("Alpha")
	names = s.Names()
	if len(names) != 2 || names[0] != "Zeta" || names[1] != "Mid" {
		t.Fatalf("expected [Zeta Mid] after delete, got %v", names)
	}
}

func TestCommentIDsIncreaseAcrossPages(t *testing.T) {
	s := New(0)
	s.Put("A", "")
	s.Put("B", "")

	c1, err := s.AddComment("A", "ann", "first")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	c2, _ := s.AddComment("B", "bob", "second")
	c3, _ := s.AddComment("A", "ann", "third")

	if c1.ID != 1 || c2.ID != 2 || c3.ID != 3 {
		t.Fatalf("expected ids 1,2,3 got %d,%d,%d", c1.ID, c2.ID, c3.ID)
	}

	comments := s.Comments("A")
	if len(comments) != 2 || comments[0].ID != 1 || comments[1].ID != 3 {
		t.Fatalf("expected oldest-first [1 3] on A, got %v", comments)
	}
}

func TestCommentOnMissingPageLeavesStoreUntouched(t *testing.T) {
	s := New(0)

	_, err := s.AddComment("Nope", "ann", "hi")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}

	s.Put("Real", "")
	c, err := s.AddComment("Real", "ann", "hi")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.ID != 1 {
		t.Fatalf("expected failed add to not burn an id, got %d", c.ID)
	}
}

func TestCommentContentEscaped(t *testing.T) {
	s := New(0)
	s.Put("P", "")

	c, err := s.AddComment("P", "<script>", "a & b <i>")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.Author != "&lt;script&gt;" {
		t.Fatalf("expected escaped author, got %q", c.Author)
	}
	if c.Text != "a &amp; b &lt;i&gt;" {
		t.Fatalf("expected escaped text, got %q", c.Text)
	}
}

func TestDeleteCascadesComments(t *testing.T) {
	s := New(0)
	s.Put("P", "body")
	s.AddComment("P", "ann", "one")

	s.Delete("P")
	if got := s.Comments("P"); len(got) != 0 {
		t.Fatalf("expected comments gone with page, got %v", got)
	}

	s.Put("P", "again")
	if got := s.Comments("P"); len(got) != 0 {
		t.Fatalf("expected recreated page to start without comments, got %v", got)
	}
}

func TestRevisionsNewestFirstAndCapped(t *testing.T) {
	s := New(2)
	s.Put("P", "v1")
	s.Put("P", "v2")
	s.Put("P", "v3")

	revs := s.Revisions("P")
	if len(revs) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(revs))
	}
	if revs[0].Content != "v3" || revs[1].Content != "v2" {
		t.Fatalf("expected newest first [v3 v2], got [%s %s]", revs[0].Content, revs[1].Content)
	}

	got, ok := s.Revision("P", revs[1].ID)
	if !ok || got.Content != "v2" {
		t.Fatalf("expected lookup by id to return v2, got %q ok=%v", got.Content, ok)
	}
	if _, ok := s.Revision("P", "missing"); ok {
		t.Fatalf("expected unknown id to miss")
	}
}

func TestRevisionIDsAreUnique(t *testing.T) {
	s := New(0)
	s.Put("P", "a")
	s.Put("P", "b")

	revs := s.Revisions("P")
	if len(revs) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(revs))
	}
	if revs[0].ID == revs[1].ID || revs[0].ID == "" {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", revs[0].ID, revs[1].ID)
	}
}
