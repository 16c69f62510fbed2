package tui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		width     int
		maxLines  int
		wantLines int
		wantLast  string
	}{
		{"fits on one line", "pack the tent", 80, 2, 1, "pack the tent"},
		{"collapses whitespace and newlines", "first\n\nsecond   third", 80, 2, 1, "first second third"},
		{"empty", "   ", 80, 2, 0, ""},
		{"wraps on spaces", "alpha beta gamma delta epsilon", 12, 5, 3, "epsilon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := wrapText(tt.text, tt.width, tt.maxLines)
			if len(lines) != tt.wantLines {
				t.Fatalf("expected %d lines, got %d: %q", tt.wantLines, len(lines), lines)
			}
			if tt.wantLines > 0 && lines[len(lines)-1] != tt.wantLast {
				t.Errorf("expected last line %q, got %q", tt.wantLast, lines[len(lines)-1])
			}
			for i, l := range lines {
				if len(l) > tt.width {
					t.Errorf("line %d exceeds width %d: %q", i, tt.width, l)
				}
			}
		})
	}
}

func TestWrapTextEllipsisWhenClipped(t *testing.T) {
	lines := wrapText(strings.Repeat("note ", 60), 30, 2)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[1], "...") {
		t.Errorf("expected clipped text to end with ellipsis, got %q", lines[1])
	}
}

func TestWrapTextKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("ملاحظاتك", 10)
	for _, l := range wrapText(text, 21, 3) {
		if !utf8.ValidString(l) {
			t.Errorf("line split a rune: %q", l)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short\nnote", 20); got != "short note" {
		t.Errorf("expected newline folded, got %q", got)
	}

	got := truncate("éééééééééé", 9)
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "...") {
		t.Errorf("expected valid truncated string, got %q", got)
	}
	if len(got) > 9 {
		t.Errorf("expected at most 9 bytes, got %d", len(got))
	}
}

func TestExportPath(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"report":      "report.pdf",
		"report.pdf":  "report.pdf",
		"REPORT.PDF":  "REPORT.PDF",
		"notes.v2":    "notes.v2.pdf",
		"dir/out.txt": "dir/out.txt.pdf",
	}
	for in, want := range tests {
		if got := exportPath(in); got != want {
			t.Errorf("exportPath(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{0, 0, 0},
		{5, 3, 2},
		{-1, 3, 0},
		{1, 3, 1},
	}
	for _, tt := range tests {
		if got := clamp(tt.i, tt.n); got != tt.want {
			t.Errorf("clamp(%d, %d): expected %d, got %d", tt.i, tt.n, tt.want, got)
		}
	}
}
