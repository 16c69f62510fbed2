package notes

import (
	"strings"
	"testing"
)

func seedNotes(t *testing.T, s *Store, files map[string]string) {
	t.Helper()
	for ref, body := range files {
		sec, name, err := SplitRef(ref)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.CreateSection(sec); err != nil {
			t.Fatal(err)
		}
		if err := s.WriteNote(sec, name, body); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSearchSingleHit(t *testing.T) {
	s := setupTestStore(t)
	seedNotes(t, s, map[string]string{
		"work/meeting.txt": "Agenda\nDiscuss the quarterly budget\n",
		"work/todo.txt":    "buy milk",
		"home/recipes.txt": "flour, sugar, eggs",
	})

	hits, err := s.Search("quarterly")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Ref() != "work/meeting.txt" {
		t.Errorf("expected 'work/meeting.txt', got '%s'", hits[0].Ref())
	}
	if hits[0].Line != 2 {
		t.Errorf("expected line 2, got %d", hits[0].Line)
	}
	if !strings.Contains(hits[0].Snippet, "quarterly") {
		t.Errorf("expected snippet to contain query, got %q", hits[0].Snippet)
	}
}

func TestSearchMultipleHitsOrdered(t *testing.T) {
	s := setupTestStore(t)
	seedNotes(t, s, map[string]string{
		"b/two.txt": "shared term",
		"a/one.txt": "shared term",
		"a/zzz.txt": "nothing here",
	})

	hits, err := s.Search("shared")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Ref() != "a/one.txt" || hits[1].Ref() != "b/two.txt" {
		t.Errorf("unexpected order: %s, %s", hits[0].Ref(), hits[1].Ref())
	}
}

func TestSearchIsCaseSensitive(t *testing.T) {
	s := setupTestStore(t)
	seedNotes(t, s, map[string]string{"a/n.txt": "Hello"})

	hits, _ := s.Search("hello")
	if len(hits) != 0 {
		t.Errorf("expected no hits for different case, got %d", len(hits))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	s := setupTestStore(t)
	seedNotes(t, s, map[string]string{"a/n.txt": "anything"})

	for _, q := range []string{"", "   "} {
		hits, err := s.Search(q)
		if err != nil {
			t.Fatal(err)
		}
		if hits != nil {
			t.Errorf("expected nil hits for %q, got %v", q, hits)
		}
	}
}

func TestSearchTrimsQuery(t *testing.T) {
	s := setupTestStore(t)
	seedNotes(t, s, map[string]string{"a/n.txt": "the word foo\nends a line"})

	hits, err := s.Search("foo ")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Line != 1 {
		t.Errorf("expected line 1, got %d", hits[0].Line)
	}
}

func TestSearchAcrossLineBreak(t *testing.T) {
	s := setupTestStore(t)
	seedNotes(t, s, map[string]string{"a/n.txt": "first line\nsecond line"})

	hits, err := s.Search("line\nsecond")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Line != 1 {
		t.Errorf("expected line 1, got %d", hits[0].Line)
	}
}

func TestSnippetTruncates(t *testing.T) {
	text := strings.Repeat("a", 100) + "needle" + strings.Repeat("b", 100)
	got := snippet(text, 100, len("needle"))

	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis on both sides, got %q", got)
	}
	if !strings.Contains(got, "needle") {
		t.Errorf("expected needle in snippet, got %q", got)
	}
}
