package tui

import (
	"github.com/notedx/notedx/internal/backup"
	"github.com/notedx/notedx/internal/osint"
	"github.com/notedx/notedx/internal/search"
)

type SetupSubmitMsg struct {
	NotesDir     string
	CohereAPIKey string
}

type SetupErrorMsg struct {
	Error string
}

// exportDoneMsg reports a finished PDF export.
type exportDoneMsg struct {
	path string
	err  error
}

// indexDoneMsg reports a background reindex of a saved note.
type indexDoneMsg struct {
	ref string
	err error
}

type backupDoneMsg struct {
	snap backup.Snapshot
	err  error
}

type askResultsMsg struct {
	query   string
	results []search.Result
	err     error
}

type lookupDoneMsg struct {
	result osint.Result
	err    error
}

type reportSavedMsg struct {
	path string
	err  error
}

// WatchMsg carries a watcher notice into the notes view.
type WatchMsg string
