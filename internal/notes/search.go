package notes

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const snippetRadius = 30

type SearchHit struct {
	Note    Note
	Line    int
	Snippet string
}

func (h SearchHit) Ref() string { return h.Note.Ref() }

// Search scans every note of every section for query. There is no index:
// each call reads the full contents of every file. An empty query matches
// nothing.
func (s *Store) Search(query string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	notes, err := s.AllNotes()
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for _, n := range notes {
		hit, ok, err := scanNote(n, query)
		if err != nil {
			return nil, err
		}
		if ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func scanNote(n Note, query string) (SearchHit, bool, error) {
	b, err := os.ReadFile(n.Path)
	if err != nil {
		return SearchHit{}, false, fmt.Errorf("read note %q: %w", n.Path, err)
	}
	content := string(b)
	if !strings.Contains(content, query) {
		return SearchHit{}, false, nil
	}

	hit := SearchHit{Note: n}

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if idx := strings.Index(text, query); idx >= 0 {
			hit.Line = line
			hit.Snippet = snippet(text, idx, len(query))
			return hit, true, nil
		}
	}

	// query spans a line break
	idx := strings.Index(content, query)
	hit.Line = strings.Count(content[:idx], "\n") + 1
	hit.Snippet = snippet(strings.ReplaceAll(content, "\n", " "), idx, len(query))
	return hit, true, nil
}

func snippet(text string, idx, n int) string {
	start := max(0, idx-snippetRadius)
	end := min(len(text), idx+n+snippetRadius)

	// keep cuts on rune boundaries
	for start > 0 && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}

	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
