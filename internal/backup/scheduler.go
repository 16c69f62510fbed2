// Package backup periodically copies the notes tree into timestamped
// snapshot directories under the notes root.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const DefaultInterval = 60 * time.Minute

// Ledger records finished backup runs. runErr is nil on success.
type Ledger interface {
	RecordBackup(path string, files int, bytes int64, taken time.Time, runErr error) error
}

type Scheduler struct {
	root     string
	interval time.Duration
	keep     int
	ledger   Ledger
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Scheduler)

// WithKeep bounds retention to the n newest snapshots. Zero keeps all.
func WithKeep(n int) Option {
	return func(s *Scheduler) { s.keep = n }
}

func WithLedger(l Ledger) Option {
	return func(s *Scheduler) { s.ledger = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

func withClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(root string, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		root:     root,
		interval: interval,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start takes one snapshot immediately and then one per interval until Stop
// is called or ctx is cancelled. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
}

// Stop cancels the loop and waits for an in-flight snapshot to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

// failures inside the loop are only logged
func (s *Scheduler) runLogged(ctx context.Context) {
	snap, err := s.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Backup failed", "root", s.root, "error", err)
		}
		return
	}
	s.logger.Info("Backup complete", "path", snap.Path, "files", snap.Files, "bytes", snap.Bytes)
}

// RunOnce copies the whole notes tree into a new backup_<timestamp> directory.
func (s *Scheduler) RunOnce(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	taken := s.now()
	name := nextName(s.root, taken)
	dst := filepath.Join(s.root, name)

	files, bytes, err := snapshotTree(ctx, s.root, dst)
	s.record(dst, files, bytes, taken, err)
	if err != nil {
		_ = os.RemoveAll(dst)
		return Snapshot{}, err
	}

	if err := s.prune(); err != nil {
		s.logger.Warn("Backup retention failed", "error", err)
	}

	return Snapshot{
		Name:  name,
		Path:  dst,
		Taken: taken,
		Files: files,
		Bytes: bytes,
	}, nil
}

// List returns existing snapshots, newest first.
func (s *Scheduler) List() ([]Snapshot, error) {
	return listSnapshots(s.root)
}

func (s *Scheduler) prune() error {
	if s.keep <= 0 {
		return nil
	}

	snaps, err := listSnapshots(s.root)
	if err != nil {
		return err
	}
	if len(snaps) <= s.keep {
		return nil
	}

	for _, snap := range snaps[s.keep:] {
		if err := os.RemoveAll(snap.Path); err != nil {
			return fmt.Errorf("remove snapshot %q: %w", snap.Name, err)
		}
		s.logger.Debug("Pruned backup", "path", snap.Path)
	}
	return nil
}

func (s *Scheduler) record(path string, files int, bytes int64, taken time.Time, runErr error) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.RecordBackup(path, files, bytes, taken, runErr); err != nil {
		s.logger.Warn("Failed to record backup", "path", path, "error", err)
	}
}
