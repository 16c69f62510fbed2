package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/notedx/notedx/internal/notes"
)

const (
	debounceDelay = 2 * time.Second
	pollInterval  = 500 * time.Millisecond
)

// Watcher reindexes notes shortly after they change on disk. Writes to the
// same note are coalesced until it has been quiet for the debounce delay.
type Watcher struct {
	indexer   *Indexer
	watcher   *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex
	stop      chan struct{}
	stopOnce  sync.Once
	debounce  time.Duration
	onMessage func(string)
}

func NewWatcher(indexer *Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		indexer:  indexer,
		watcher:  fsw,
		pending:  make(map[string]time.Time),
		stop:     make(chan struct{}),
		debounce: debounceDelay,
	}, nil
}

func (w *Watcher) SetMessageHandler(fn func(string)) {
	w.onMessage = fn
}

// Start watches the notes root and every section until ctx is done or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	root := w.indexer.Root()
	if err := w.watcher.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() && !skipDir(e.Name()) {
			if err := w.watcher.Add(filepath.Join(root, e.Name())); err != nil {
				return fmt.Errorf("watch section %s: %w", e.Name(), err)
			}
		}
	}

	go w.processEvents(ctx)
	go w.processPending(ctx)

	w.message(fmt.Sprintf("Watching %s for changes...", root))

	select {
	case <-ctx.Done():
	case <-w.stop:
	}
	return nil
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.watcher.Close() //nolint:errcheck
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.message(fmt.Sprintf("Watch error: %v", err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	root := w.indexer.Root()

	if filepath.Dir(event.Name) == filepath.Clean(root) {
		w.handleRootEvent(event)
		return
	}

	section, name, ok := noteRef(root, event.Name)
	if !ok {
		return
	}
	ref := section + "/" + name

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.pending[ref] = time.Now()
		w.message(fmt.Sprintf("Detected change: %s", ref))

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, ref)
		if err := w.indexer.RemoveNote(section, name); err == nil {
			w.message(fmt.Sprintf("Removed from index: %s", ref))
		}
	}
}

// handleRootEvent tracks sections appearing and disappearing. Files at the
// root, such as the credential, are ignored.
func (w *Watcher) handleRootEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if skipDir(base) || notes.IsNoteFile(base) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if err := w.watcher.Add(event.Name); err != nil {
			w.message(fmt.Sprintf("Watch error: %v", err))
			return
		}
		w.message(fmt.Sprintf("Watching section: %s", base))

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := w.indexer.RemoveSection(base); err == nil {
			w.message(fmt.Sprintf("Removed section from index: %s", base))
		}
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.indexPending(ctx)
		}
	}
}

func (w *Watcher) indexPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var due []string
	for ref, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			due = append(due, ref)
		}
	}
	for _, ref := range due {
		delete(w.pending, ref)
	}
	w.mu.Unlock()

	for _, ref := range due {
		section, name, _ := notes.SplitRef(ref)
		w.message(fmt.Sprintf("Indexing: %s", ref))
		if err := w.indexer.IndexNote(ctx, section, name); err != nil {
			w.message(fmt.Sprintf("Error indexing %s: %v", ref, err))
		} else {
			w.message(fmt.Sprintf("Indexed: %s", ref))
		}
	}
}

func (w *Watcher) message(msg string) {
	if w.onMessage != nil {
		w.onMessage(msg)
		return
	}
	w.indexer.logger.Info(msg)
}
