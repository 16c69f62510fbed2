// Package indexer keeps the semantic index in sync with the notes tree:
// notes are split into paragraph chunks, embedded, and stored in sqlite-vec.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/notedx/notedx/internal/db"
	"github.com/notedx/notedx/internal/notes"
)

const (
	targetChunkChars = 800
	maxChunkChars    = 2000
	batchSize        = 96
)

// Embedder turns chunk texts into vectors, one per text.
type Embedder interface {
	EmbedNotes(ctx context.Context, texts []string) ([][]float32, error)
}

type Indexer struct {
	db       *db.DB
	embedder Embedder
	store    *notes.Store
	logger   *slog.Logger
	now      func() time.Time
}

type Chunk struct {
	Content   string
	StartLine int
	EndLine   int
}

type pendingChunk struct {
	chunkID int64
	content string
}

type Progress struct {
	Current int
	Total   int
	Ref     string
	Message string
}

type ProgressFunc func(Progress)

func New(database *db.DB, embedder Embedder, store *notes.Store) *Indexer {
	return &Indexer{
		db:       database,
		embedder: embedder,
		store:    store,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

func (idx *Indexer) WithLogger(l *slog.Logger) *Indexer {
	idx.logger = l
	return idx
}

func (idx *Indexer) Root() string {
	return idx.store.Root()
}

// Index brings the index up to date with the notes tree. Notes whose file is
// newer than the indexed copy are re-embedded; notes that disappeared are
// dropped. fullReindex re-embeds everything.
func (idx *Indexer) Index(ctx context.Context, fullReindex bool, progress ProgressFunc) error {
	report := func(p Progress) {
		if progress != nil {
			progress(p)
		}
	}

	current, err := idx.store.AllNotes()
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	indexed, err := idx.db.AllNotes()
	if err != nil {
		return fmt.Errorf("failed to list indexed notes: %w", err)
	}

	indexedByRef := make(map[string]db.Note, len(indexed))
	for _, n := range indexed {
		indexedByRef[n.Ref] = n
	}

	seen := make(map[string]bool, len(current))
	for _, n := range current {
		seen[n.Ref()] = true
	}

	for _, n := range indexed {
		if seen[n.Ref] {
			continue
		}
		report(Progress{Ref: n.Ref, Message: fmt.Sprintf("Removing deleted: %s", n.Ref)})
		if err := idx.db.DeleteNote(n.Ref); err != nil {
			return fmt.Errorf("failed to delete %s: %w", n.Ref, err)
		}
	}

	var stale []notes.Note
	for i, n := range current {
		report(Progress{Current: i + 1, Total: len(current), Ref: n.Ref(), Message: "Checking notes..."})

		prev, ok := indexedByRef[n.Ref()]
		if fullReindex || !ok || n.ModTime.Unix() > prev.ModifiedAt {
			stale = append(stale, n)
		}
	}

	if len(stale) == 0 {
		report(Progress{Message: "Index is up to date"})
		return nil
	}

	var pending []pendingChunk
	for i, n := range stale {
		report(Progress{Current: i + 1, Total: len(stale), Ref: n.Ref(), Message: fmt.Sprintf("Parsing %s", n.Ref())})

		p, err := idx.parseNote(n)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", n.Ref(), err)
		}
		pending = append(pending, p...)
	}

	if len(pending) == 0 {
		report(Progress{Message: "No chunks to embed"})
		return nil
	}

	return idx.embedPending(ctx, pending, func(batchNum, totalBatches, batchLen int) {
		report(Progress{
			Current: batchNum,
			Total:   totalBatches,
			Message: fmt.Sprintf("Embedding batch %d/%d (%d chunks)", batchNum, totalBatches, batchLen),
		})
	})
}

// IndexNote re-embeds a single note, typically right after it was saved.
func (idx *Indexer) IndexNote(ctx context.Context, section, name string) error {
	n, err := idx.store.StatNote(section, name)
	if err != nil {
		return err
	}

	pending, err := idx.parseNote(n)
	if err != nil {
		return err
	}
	return idx.embedPending(ctx, pending, nil)
}

func (idx *Indexer) RemoveNote(section, name string) error {
	return idx.db.DeleteNote(section + "/" + notes.NoteFileName(name))
}

func (idx *Indexer) RemoveSection(section string) error {
	return idx.db.DeleteSection(section)
}

// parseNote stores the note's chunks and returns them for embedding.
func (idx *Indexer) parseNote(n notes.Note) ([]pendingChunk, error) {
	body, err := idx.store.ReadNote(n.Section, n.Name)
	if err != nil {
		return nil, err
	}

	noteID, err := idx.db.UpsertNote(n.Ref(), n.Section, n.Name, n.ModTime.Unix(), idx.now().Unix())
	if err != nil {
		return nil, err
	}

	chunks := chunkNote(body)
	rows := make([]db.Chunk, len(chunks))
	for i, c := range chunks {
		rows[i] = db.Chunk{Content: c.Content, StartLine: c.StartLine, EndLine: c.EndLine}
	}

	ids, err := idx.db.ReplaceChunks(noteID, rows)
	if err != nil {
		return nil, err
	}

	pending := make([]pendingChunk, len(ids))
	for i, id := range ids {
		// The note name leads each chunk so short notes still carry context.
		pending[i] = pendingChunk{chunkID: id, content: n.Ref() + "\n" + chunks[i].Content}
	}
	return pending, nil
}

type batchProgressFunc func(batchNum, totalBatches, batchLen int)

func (idx *Indexer) embedPending(ctx context.Context, pending []pendingChunk, onBatch batchProgressFunc) error {
	if len(pending) == 0 {
		return nil
	}

	totalBatches := (len(pending) + batchSize - 1) / batchSize
	for i := 0; i < len(pending); i += batchSize {
		batch := pending[i:min(i+batchSize, len(pending))]
		batchNum := (i / batchSize) + 1

		if onBatch != nil {
			onBatch(batchNum, totalBatches, len(batch))
		}

		texts := make([]string, len(batch))
		for j, p := range batch {
			texts[j] = p.content
		}

		vectors, err := idx.embedder.EmbedNotes(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings for batch %d: %w", batchNum, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("batch %d: got %d embeddings for %d chunks", batchNum, len(vectors), len(batch))
		}

		for j, p := range batch {
			embBytes, err := sqlite_vec.SerializeFloat32(vectors[j])
			if err != nil {
				return fmt.Errorf("failed to serialize embedding: %w", err)
			}
			if err := idx.db.InsertEmbedding(p.chunkID, embBytes); err != nil {
				return fmt.Errorf("failed to insert embedding: %w", err)
			}
		}
	}

	idx.logger.Debug("Embedded chunks", "chunks", len(pending), "batches", totalBatches)
	return nil
}

// chunkNote groups consecutive paragraphs until a chunk reaches the target
// size. Paragraph breaks are blank lines. A run of text without breaks is cut
// at maxChunkChars on a line boundary.
func chunkNote(content string) []Chunk {
	lines := strings.Split(content, "\n")

	var chunks []Chunk
	var buf strings.Builder
	start, last := 0, 0

	flush := func() {
		text := strings.TrimSpace(buf.String())
		if text != "" {
			chunks = append(chunks, Chunk{Content: text, StartLine: start, EndLine: last})
		}
		buf.Reset()
		start = 0
	}

	for i, line := range lines {
		lineNo := i + 1

		if strings.TrimSpace(line) == "" {
			if buf.Len() >= targetChunkChars {
				flush()
			} else if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			continue
		}

		if buf.Len() > 0 && buf.Len()+len(line) > maxChunkChars {
			flush()
		}
		if start == 0 {
			start = lineNo
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		last = lineNo
	}

	flush()
	return chunks
}
