package notes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	NoteExt        = ".txt"
	BackupPrefix   = "backup_"
	CredentialFile = "password.txt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidName  = errors.New("invalid name")
	ErrReservedName = errors.New("reserved name")
)

type Note struct {
	Section string
	Name    string
	Path    string
	ModTime time.Time
}

// Ref returns the "section/note.txt" form used in search results.
func (n Note) Ref() string {
	return n.Section + "/" + n.Name
}

// Store keeps sections as directories under Root and notes as .txt files in
// them. It holds no locks; concurrent writers to one note race.
type Store struct {
	root string
}

// Open returns a Store rooted at root, creating the directory if needed.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("create notes root %q: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) CreateSection(name string) error {
	if err := validateSection(name); err != nil {
		return err
	}
	path := s.sectionPath(name)
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("create section %q: %w", name, err)
	}
	return nil
}

func (s *Store) DeleteSection(name string) error {
	if err := validateSection(name); err != nil {
		return err
	}
	path := s.sectionPath(name)
	if _, err := os.Stat(path); err != nil {
		return notFound("section", name, err)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete section %q: %w", name, err)
	}
	return nil
}

func (s *Store) ListSections() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read notes root %q: %w", s.root, err)
	}

	var sections []string
	for _, e := range entries {
		if !e.IsDir() || isHidden(e.Name()) || IsBackupDir(e.Name()) {
			continue
		}
		sections = append(sections, e.Name())
	}
	sort.Strings(sections)
	return sections, nil
}

func (s *Store) SectionExists(name string) bool {
	if validateSection(name) != nil {
		return false
	}
	info, err := os.Stat(s.sectionPath(name))
	return err == nil && info.IsDir()
}

// CreateNote creates an empty note, truncating an existing one of the same name.
func (s *Store) CreateNote(section, name string) (Note, error) {
	path, err := s.notePath(section, name)
	if err != nil {
		return Note{}, err
	}
	if !s.SectionExists(section) {
		return Note{}, fmt.Errorf("section %q: %w", section, ErrNotFound)
	}

	if err := os.WriteFile(path, nil, filePerm); err != nil {
		return Note{}, fmt.Errorf("create note %q: %w", path, err)
	}
	return s.stat(section, path)
}

func (s *Store) DeleteNote(section, name string) error {
	path, err := s.notePath(section, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return notFound("note", section+"/"+NoteFileName(name), err)
	}
	return nil
}

func (s *Store) ReadNote(section, name string) (string, error) {
	path, err := s.notePath(section, name)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", notFound("note", section+"/"+NoteFileName(name), err)
	}
	return string(b), nil
}

// WriteNote replaces the note's content wholesale.
func (s *Store) WriteNote(section, name, body string) error {
	path, err := s.notePath(section, name)
	if err != nil {
		return err
	}
	if !s.SectionExists(section) {
		return fmt.Errorf("section %q: %w", section, ErrNotFound)
	}
	if err := os.WriteFile(path, []byte(body), filePerm); err != nil {
		return fmt.Errorf("write note %q: %w", path, err)
	}
	return nil
}

func (s *Store) ListNotes(section string) ([]Note, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	dir := s.sectionPath(section)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, notFound("section", section, err)
	}

	var notes []Note
	for _, e := range entries {
		if e.IsDir() || !IsNoteFile(e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("read file info %q: %w", e.Name(), err)
		}

		notes = append(notes, Note{
			Section: section,
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Name < notes[j].Name
	})
	return notes, nil
}

// AllNotes lists every note of every section, ordered by section then name.
func (s *Store) AllNotes() ([]Note, error) {
	sections, err := s.ListSections()
	if err != nil {
		return nil, err
	}

	var all []Note
	for _, sec := range sections {
		notes, err := s.ListNotes(sec)
		if err != nil {
			return nil, err
		}
		all = append(all, notes...)
	}
	return all, nil
}

func (s *Store) StatNote(section, name string) (Note, error) {
	path, err := s.notePath(section, name)
	if err != nil {
		return Note{}, err
	}
	n, err := s.stat(section, path)
	if err != nil {
		return Note{}, notFound("note", section+"/"+NoteFileName(name), err)
	}
	return n, nil
}

// RelPath converts an absolute path inside the store to "section/note.txt".
func (s *Store) RelPath(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// SplitRef splits "section/note.txt" into its parts.
func SplitRef(ref string) (section, name string, err error) {
	section, name, ok := strings.Cut(filepath.ToSlash(ref), "/")
	if !ok || section == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("note reference %q: %w", ref, ErrInvalidName)
	}
	return section, name, nil
}

// NoteFileName appends the .txt extension when it is missing.
func NoteFileName(name string) string {
	if strings.HasSuffix(name, NoteExt) {
		return name
	}
	return name + NoteExt
}

func IsNoteFile(name string) bool {
	return strings.HasSuffix(name, NoteExt) && !isHidden(name)
}

func IsBackupDir(name string) bool {
	return strings.HasPrefix(name, BackupPrefix)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func (s *Store) sectionPath(name string) string {
	return filepath.Join(s.root, name)
}

func (s *Store) notePath(section, name string) (string, error) {
	if err := validateSection(section); err != nil {
		return "", err
	}
	if err := validateName(strings.TrimSuffix(name, NoteExt)); err != nil {
		return "", err
	}
	return filepath.Join(s.sectionPath(section), NoteFileName(name)), nil
}

func (s *Store) stat(section, path string) (Note, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Note{}, fmt.Errorf("stat note %q: %w", path, err)
	}
	return Note{
		Section: section,
		Name:    filepath.Base(path),
		Path:    path,
		ModTime: info.ModTime(),
	}, nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

func validateSection(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if IsBackupDir(name) || isHidden(name) {
		return fmt.Errorf("section %q: %w", name, ErrReservedName)
	}
	return nil
}

func notFound(kind, name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
	}
	return fmt.Errorf("%s %q: %w", kind, name, err)
}
