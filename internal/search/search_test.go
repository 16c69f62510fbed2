package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/notedx/notedx/internal/cohere"
	"github.com/notedx/notedx/internal/db"
)

type fixedEmbedder struct {
	vec []float32
	err error
}

func (f fixedEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vec, f.err
}

type reverseReranker struct {
	docs []string
}

func (r *reverseReranker) Rerank(_ context.Context, _ string, documents []string, topN int) ([]cohere.Ranked, error) {
	r.docs = documents
	var out []cohere.Ranked
	for i := len(documents) - 1; i >= 0 && len(out) < topN; i-- {
		out = append(out, cohere.Ranked{Index: i, Score: float64(i)})
	}
	return out, nil
}

func seedDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	noteID, _ := database.UpsertNote("ideas/cats.txt", "ideas", "cats.txt", 1, 1)
	ids, _ := database.ReplaceChunks(noteID, []db.Chunk{
		{Content: "cats are great", StartLine: 1, EndLine: 1},
		{Content: "taxes are due", StartLine: 3, EndLine: 3},
	})

	for i, v := range [][]float32{{1, 0, 0, 0}, {0, 0, 0, 1}} {
		b, err := sqlite_vec.SerializeFloat32(v)
		if err != nil {
			t.Fatal(err)
		}
		if err := database.InsertEmbedding(ids[i], b); err != nil {
			t.Fatal(err)
		}
	}
	return database
}

func TestSearchVectorOrder(t *testing.T) {
	s := New(seedDB(t), fixedEmbedder{vec: []float32{1, 0, 0, 0}}, nil)

	results, err := s.Search(context.Background(), "cats")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "cats are great" || results[0].Rank != 1 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[0].Ref != "ideas/cats.txt" {
		t.Errorf("expected ref ideas/cats.txt, got %q", results[0].Ref)
	}
	if results[0].Score <= results[1].Score {
		t.Error("expected closer chunk to score higher")
	}
}

func TestSearchReranked(t *testing.T) {
	rr := &reverseReranker{}
	s := New(seedDB(t), fixedEmbedder{vec: []float32{1, 0, 0, 0}}, rr)

	results, err := s.Search(context.Background(), "cats")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(rr.docs) != 2 {
		t.Fatalf("expected reranker to see 2 candidates, got %d", len(rr.docs))
	}
	if results[0].Content != "taxes are due" {
		t.Errorf("expected rerank order to win, got %q", results[0].Content)
	}
}

func TestSearchEmbedError(t *testing.T) {
	s := New(seedDB(t), fixedEmbedder{err: errors.New("boom")}, nil)
	if _, err := s.Search(context.Background(), "cats"); err == nil {
		t.Error("expected error")
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := Preview("abcdefghij", 8); got != "abcde..." {
		t.Errorf("expected 'abcde...', got %q", got)
	}
}
