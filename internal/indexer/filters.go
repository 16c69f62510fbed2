package indexer

import (
	"path/filepath"
	"strings"

	"github.com/notedx/notedx/internal/notes"
)

// skipDir reports whether a directory under the notes root stays unwatched.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || notes.IsBackupDir(name)
}

// noteRef maps an event path to its "section/note.txt" ref. Only files that
// sit directly inside a section qualify.
func noteRef(root, path string) (section, name string, ok bool) {
	if !notes.IsNoteFile(filepath.Base(path)) {
		return "", "", false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", "", false
	}

	section, name, err = notes.SplitRef(rel)
	if err != nil || skipDir(section) {
		return "", "", false
	}
	return section, name, true
}
