package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordedRun struct {
	path  string
	files int
	err   error
}

type fakeLedger struct {
	mu   sync.Mutex
	runs []recordedRun
}

func (l *fakeLedger) RecordBackup(path string, files int, _ int64, _ time.Time, runErr error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, recordedRun{path: path, files: files, err: runErr})
	return nil
}

func (l *fakeLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.runs)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)
	return func() time.Time { return t }
}

func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"work/todo.txt":    "ship it",
		"work/meeting.txt": "agenda",
		"home/list.txt":    "milk",
		"password.txt":     "pw",
	}
	for rel, body := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestRunOnceCopiesTree(t *testing.T) {
	root := seedTree(t)
	ledger := &fakeLedger{}
	s := New(root, time.Hour, withClock(fixedClock()), WithLedger(ledger), WithLogger(quietLogger()))

	snap, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if snap.Name != "backup_20240305_143000" {
		t.Errorf("unexpected snapshot name %q", snap.Name)
	}
	if snap.Files != 4 {
		t.Errorf("expected 4 files, got %d", snap.Files)
	}

	b, err := os.ReadFile(filepath.Join(snap.Path, "work", "todo.txt"))
	if err != nil {
		t.Fatalf("expected note copied: %v", err)
	}
	if string(b) != "ship it" {
		t.Errorf("copied content = %q", string(b))
	}

	if ledger.count() != 1 || ledger.runs[0].err != nil {
		t.Errorf("expected one successful ledger entry, got %+v", ledger.runs)
	}
}

func TestRunOnceDoesNotNest(t *testing.T) {
	root := seedTree(t)
	s := New(root, time.Hour, withClock(fixedClock()), WithLogger(quietLogger()))

	first, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if second.Name != first.Name+"_1" {
		t.Errorf("expected same-second suffix, got %q after %q", second.Name, first.Name)
	}

	err = filepath.Walk(second.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != second.Path && info.IsDir() && strings.HasPrefix(info.Name(), "backup_") {
			t.Errorf("nested snapshot found at %s", path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRetention(t *testing.T) {
	root := seedTree(t)
	s := New(root, time.Hour, withClock(fixedClock()), WithKeep(2), WithLogger(quietLogger()))

	for i := 0; i < 4; i++ {
		if _, err := s.RunOnce(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	snaps, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots kept, got %d", len(snaps))
	}
	if snaps[0].Name != "backup_20240305_143000_3" || snaps[1].Name != "backup_20240305_143000_2" {
		t.Errorf("expected newest kept, got %s, %s", snaps[0].Name, snaps[1].Name)
	}
}

func TestUnboundedByDefault(t *testing.T) {
	root := seedTree(t)
	s := New(root, time.Hour, withClock(fixedClock()), WithLogger(quietLogger()))

	for i := 0; i < 3; i++ {
		if _, err := s.RunOnce(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	snaps, _ := s.List()
	if len(snaps) != 3 {
		t.Errorf("expected all 3 snapshots kept, got %d", len(snaps))
	}
}

func TestRunOnceCancelled(t *testing.T) {
	root := seedTree(t)
	s := New(root, time.Hour, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.RunOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	snaps, _ := s.List()
	if len(snaps) != 0 {
		t.Errorf("expected no snapshot after cancel, got %d", len(snaps))
	}
}

func TestStartStop(t *testing.T) {
	root := seedTree(t)
	ledger := &fakeLedger{}
	s := New(root, 10*time.Millisecond, withClock(fixedClock()), WithLedger(ledger), WithLogger(quietLogger()))

	s.Start(context.Background())
	s.Start(context.Background())
	if !s.Running() {
		t.Fatal("expected scheduler running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for ledger.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ledger.count() < 2 {
		t.Fatalf("expected at least 2 runs, got %d", ledger.count())
	}

	s.Stop()
	if s.Running() {
		t.Error("expected scheduler stopped")
	}

	after := ledger.count()
	time.Sleep(50 * time.Millisecond)
	if ledger.count() != after {
		t.Errorf("runs continued after Stop: %d -> %d", after, ledger.count())
	}

	s.Stop()
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		wantSeq int
		wantOK  bool
	}{
		{"backup_20240305_143000", 0, true},
		{"backup_20240305_143000_12", 12, true},
		{"backup_2024", 0, false},
		{"backup_20240305_143000x", 0, false},
		{"backup_notatime_000000", 0, false},
	}

	for _, tt := range tests {
		_, seq, ok := parseName(tt.name)
		if ok != tt.wantOK || seq != tt.wantSeq {
			t.Errorf("parseName(%q) = %d, %v; want %d, %v", tt.name, seq, ok, tt.wantSeq, tt.wantOK)
		}
	}
}
