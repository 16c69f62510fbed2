package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/notedx/notedx/internal/backup"
	"github.com/notedx/notedx/internal/gate"
	"github.com/notedx/notedx/internal/notes"
	"github.com/notedx/notedx/internal/pdf"
	"github.com/notedx/notedx/internal/search"
)

const (
	NoteReportHeading = "NOTEDX - ملاحظاتك"

	askTimeout = 30 * time.Second
)

// NoteIndexer keeps the semantic index in step with edits made in the UI.
type NoteIndexer interface {
	IndexNote(ctx context.Context, section, name string) error
	RemoveNote(section, name string) error
	RemoveSection(section string) error
}

type Asker interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

type BackupRunner interface {
	RunOnce(ctx context.Context) (backup.Snapshot, error)
}

// NotesDeps wires the notes UI. Indexer, Asker and Backups are optional.
type NotesDeps struct {
	Store     *notes.Store
	Gate      *gate.Gate
	Exporter  *pdf.Exporter
	Indexer   NoteIndexer
	Asker     Asker
	Backups   BackupRunner
	ExportDir string
	Logger    *slog.Logger
}

// NotesState is the selection and credential context shared by every
// handler.
type NotesState struct {
	Section    string
	Note       string
	Credential string
	// Entered is set once a password has been submitted, even an empty one.
	Entered bool
}

type view int

const (
	viewLocked view = iota
	viewSections
	viewNotes
	viewEditor
	viewResults
)

type prompt int

const (
	promptNone prompt = iota
	promptUnlock
	promptNewSection
	promptNewNote
	promptSearch
	promptAsk
	promptPassword
	promptExport
)

type confirm int

const (
	confirmNone confirm = iota
	confirmDeleteSection
	confirmDeleteNote
	confirmDiscard
)

// resultItem is one row of the results view, either a substring hit or a
// semantic match.
type resultItem struct {
	Ref     string
	Line    int
	Snippet string
	Score   float64
	Scored  bool
}

type NotesModel struct {
	deps  NotesDeps
	state NotesState

	view     view
	prevView view
	cursor   int
	sections []string
	notes    []notes.Note

	editor textarea.Model
	dirty  bool

	input  textinput.Model
	prompt prompt

	confirm     confirm
	pendingOpen string
	report      *pdf.Report

	results      []resultItem
	resultsTitle string

	status string
	err    string

	keys     KeyMap
	help     help.Model
	showHelp bool
	width    int
	height   int
}

func NewNotesModel(deps NotesDeps) NotesModel {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	ta := textarea.New()
	ta.Placeholder = "Write your note..."
	ta.ShowLineNumbers = true
	ta.Prompt = ""
	ta.CharLimit = 0

	in := textinput.New()
	in.Width = 50

	m := NotesModel{
		deps:   deps,
		view:   viewSections,
		editor: ta,
		input:  in,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
	m.refreshSections()
	return m
}

func (m NotesModel) State() NotesState {
	return m.state
}

func (m NotesModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m NotesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.fail("Export failed", msg.err)
		} else {
			m.notify("PDF saved: " + msg.path)
		}
		return m, nil

	case indexDoneMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("Failed to reindex note", "ref", msg.ref, "error", msg.err)
		}
		return m, nil

	case askResultsMsg:
		if msg.err != nil {
			m.fail("Ask failed", msg.err)
			return m, nil
		}
		m.showAskResults(msg.query, msg.results)
		return m, nil

	case backupDoneMsg:
		if msg.err != nil {
			m.fail("Backup failed", msg.err)
		} else {
			m.notify(fmt.Sprintf("Backup saved: %s (%d files)", msg.snap.Name, msg.snap.Files))
		}
		return m, nil

	case WatchMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.prompt != promptNone:
			return m.updatePrompt(msg)
		case m.confirm != confirmNone:
			return m.updateConfirm(msg)
		}
		switch m.view {
		case viewEditor:
			return m.updateEditor(msg)
		case viewResults:
			return m.updateResults(msg)
		case viewLocked:
			return m, nil
		default:
			return m.updateBrowse(msg)
		}
	}

	var cmd tea.Cmd
	switch {
	case m.prompt != promptNone:
		m.input, cmd = m.input.Update(msg)
	case m.view == viewEditor:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m NotesModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		if m.view == viewSections {
			if sec, ok := m.selectedSection(); ok {
				m.enterSection(sec)
			}
		} else if n, ok := m.selectedNote(); ok {
			return m.openNote(n.Section, n.Name)
		}

	case key.Matches(msg, m.keys.Back):
		if m.view == viewNotes {
			m.view = viewSections
			m.state.Note = ""
			m.refreshSections()
			m.cursor = indexOf(m.sections, m.state.Section)
		}

	case key.Matches(msg, m.keys.New):
		if m.view == viewSections {
			return m, m.openPrompt(promptNewSection)
		}
		return m, m.openPrompt(promptNewNote)

	case key.Matches(msg, m.keys.Delete):
		if m.view == viewSections {
			if sec, ok := m.selectedSection(); ok {
				m.state.Section = sec
				m.confirm = confirmDeleteSection
			}
		} else if n, ok := m.selectedNote(); ok {
			m.state.Note = n.Name
			m.confirm = confirmDeleteNote
		}

	case key.Matches(msg, m.keys.Export):
		return m.startExport()

	case key.Matches(msg, m.keys.Search):
		return m, m.openPrompt(promptSearch)

	case key.Matches(msg, m.keys.Ask):
		if m.deps.Asker == nil {
			m.fail("Semantic search is not configured", errors.New("run notedx -setup to add a Cohere API key"))
			return m, nil
		}
		return m, m.openPrompt(promptAsk)

	case key.Matches(msg, m.keys.Password):
		return m, m.openPrompt(promptPassword)

	case key.Matches(msg, m.keys.Backup):
		if m.deps.Backups == nil {
			return m, nil
		}
		m.notify("Backing up...")
		return m, backupCmd(m.deps.Backups)
	}

	return m, nil
}

func (m NotesModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		return m.saveNote()

	case msg.String() == "ctrl+f":
		return m, m.openPrompt(promptSearch)

	case msg.String() == "ctrl+e":
		m.report = pdf.NewReport(NoteReportHeading)
		m.report.Add(m.state.Note, strings.TrimSpace(m.editor.Value()))
		return m, m.openExportPrompt(m.state.Note)

	case msg.String() == "esc":
		if m.dirty {
			m.pendingOpen = ""
			m.confirm = confirmDiscard
			return m, nil
		}
		m.closeEditor()
		return m, nil
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if m.editor.Value() != before {
		m.dirty = true
	}
	return m, cmd
}

func (m NotesModel) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(m.results) {
			section, name, err := notes.SplitRef(m.results[m.cursor].Ref)
			if err != nil {
				m.fail("Cannot open result", err)
				return m, nil
			}
			return m.openNote(section, name)
		}

	case key.Matches(msg, m.keys.Back), msg.String() == "q":
		m.view = m.prevView
		m.cursor = 0
		if m.view == viewNotes {
			m.loadNotes()
		}
	}
	return m, nil
}

func (m NotesModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.prompt == promptUnlock {
			return m, tea.Quit
		}
		m.closePrompt()
		return m, nil

	case "enter":
		value := m.input.Value()
		kind := m.prompt
		if kind != promptUnlock {
			m.closePrompt()
		}
		return m.submitPrompt(kind, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m NotesModel) submitPrompt(kind prompt, value string) (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(value)

	switch kind {
	case promptUnlock:
		m.state.Credential = value
		m.state.Entered = true
		m.input.SetValue("")
		m.refreshSections()
		if m.view != viewLocked {
			m.closePrompt()
			m.notify("Unlocked")
		}

	case promptNewSection:
		if err := m.deps.Store.CreateSection(name); err != nil {
			m.fail("Cannot create section", err)
			return m, nil
		}
		m.refreshSections()
		m.cursor = indexOf(m.sections, name)
		m.notify("Section created: " + name)

	case promptNewNote:
		if m.state.Section == "" {
			m.fail("Choose a section first", nil)
			return m, nil
		}
		n, err := m.deps.Store.CreateNote(m.state.Section, name)
		if err != nil {
			m.fail("Cannot create note", err)
			return m, nil
		}
		m.loadNotes()
		m.cursor = noteIndex(m.notes, n.Name)
		m.notify("Note created: " + n.Name)

	case promptSearch:
		hits, err := m.deps.Store.Search(name)
		if err != nil {
			m.fail("Search failed", err)
			return m, nil
		}
		if len(hits) == 0 {
			m.notify("No results")
			return m, nil
		}
		m.showSearchHits(name, hits)

	case promptAsk:
		if name == "" {
			return m, nil
		}
		m.notify("Searching...")
		return m, askCmd(m.deps.Asker, name)

	case promptPassword:
		if err := m.deps.Gate.Set(value); err != nil {
			m.fail("Cannot set password", err)
			return m, nil
		}
		m.state.Credential = strings.TrimSpace(value)
		m.state.Entered = true
		m.notify("Password set")

	case promptExport:
		path := exportPath(name)
		if path == "" || m.report == nil {
			return m, nil
		}
		r := m.report
		m.report = nil
		m.notify("Exporting...")
		return m, exportCmd(m.deps.Exporter, path, r)
	}

	return m, nil
}

func (m NotesModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		kind := m.confirm
		m.confirm = confirmNone
		return m.runConfirmed(kind)
	case key.Matches(msg, m.keys.Deny):
		m.confirm = confirmNone
		m.pendingOpen = ""
	}
	return m, nil
}

func (m NotesModel) runConfirmed(kind confirm) (tea.Model, tea.Cmd) {
	switch kind {
	case confirmDeleteSection:
		sec := m.state.Section
		if err := m.deps.Store.DeleteSection(sec); err != nil {
			m.fail("Cannot delete section", err)
			return m, nil
		}
		if m.deps.Indexer != nil {
			if err := m.deps.Indexer.RemoveSection(sec); err != nil {
				m.deps.Logger.Warn("Failed to drop section from index", "section", sec, "error", err)
			}
		}
		m.state.Section = ""
		m.refreshSections()
		m.notify("Section deleted: " + sec)

	case confirmDeleteNote:
		sec, name := m.state.Section, m.state.Note
		if err := m.deps.Store.DeleteNote(sec, name); err != nil {
			m.fail("Cannot delete note", err)
			return m, nil
		}
		if m.deps.Indexer != nil {
			if err := m.deps.Indexer.RemoveNote(sec, name); err != nil {
				m.deps.Logger.Warn("Failed to drop note from index", "ref", sec+"/"+name, "error", err)
			}
		}
		m.state.Note = ""
		m.loadNotes()
		m.notify("Note deleted: " + name)

	case confirmDiscard:
		m.dirty = false
		if m.pendingOpen != "" {
			ref := m.pendingOpen
			m.pendingOpen = ""
			section, name, err := notes.SplitRef(ref)
			if err != nil {
				m.fail("Cannot open note", err)
				return m, nil
			}
			return m.openNote(section, name)
		}
		m.closeEditor()
		m.notify("Changes discarded")
	}
	return m, nil
}

func (m NotesModel) openNote(section, name string) (tea.Model, tea.Cmd) {
	if m.dirty {
		m.pendingOpen = section + "/" + notes.NoteFileName(name)
		m.confirm = confirmDiscard
		return m, nil
	}

	body, err := m.deps.Store.ReadNote(section, name)
	if err != nil {
		m.fail("Cannot open note", err)
		return m, nil
	}

	m.state.Section = section
	m.state.Note = notes.NoteFileName(name)
	m.editor.SetValue(body)
	m.editor.Focus()
	m.dirty = false
	m.view = viewEditor
	m.err = ""
	return m, textarea.Blink
}

func (m NotesModel) saveNote() (tea.Model, tea.Cmd) {
	sec, name := m.state.Section, m.state.Note
	if sec == "" || name == "" {
		m.fail("Choose a note first", nil)
		return m, nil
	}

	if err := m.deps.Store.WriteNote(sec, name, m.editor.Value()); err != nil {
		m.fail("Save failed", err)
		return m, nil
	}
	m.dirty = false
	m.notify("Note saved")

	if m.deps.Indexer == nil {
		return m, nil
	}
	return m, reindexCmd(m.deps.Indexer, sec, name)
}

func (m NotesModel) startExport() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewSections:
		sec, ok := m.selectedSection()
		if !ok {
			return m, nil
		}
		r, err := m.sectionReport(sec)
		if err != nil {
			m.fail("Export failed", err)
			return m, nil
		}
		m.report = r
		return m, m.openExportPrompt(sec)

	case viewNotes:
		n, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		body, err := m.deps.Store.ReadNote(n.Section, n.Name)
		if err != nil {
			m.fail("Export failed", err)
			return m, nil
		}
		m.report = pdf.NewReport(NoteReportHeading)
		m.report.Add(n.Name, strings.TrimSpace(body))
		return m, m.openExportPrompt(n.Name)
	}
	return m, nil
}

func (m NotesModel) sectionReport(section string) (*pdf.Report, error) {
	list, err := m.deps.Store.ListNotes(section)
	if err != nil {
		return nil, err
	}
	r := pdf.NewReport(NoteReportHeading)
	for _, n := range list {
		body, err := m.deps.Store.ReadNote(n.Section, n.Name)
		if err != nil {
			return nil, err
		}
		r.Add(n.Name, strings.TrimSpace(body))
	}
	return r, nil
}

func (m *NotesModel) openExportPrompt(name string) tea.Cmd {
	cmd := m.openPrompt(promptExport)
	base := strings.TrimSuffix(name, notes.NoteExt) + ".pdf"
	m.input.SetValue(filepath.Join(m.deps.ExportDir, base))
	m.input.CursorEnd()
	return cmd
}

func (m *NotesModel) openPrompt(kind prompt) tea.Cmd {
	m.prompt = kind
	m.err = ""
	m.input.Reset()
	m.input.EchoMode = textinput.EchoNormal
	m.input.Placeholder = ""

	switch kind {
	case promptUnlock, promptPassword:
		m.input.EchoMode = textinput.EchoPassword
		m.input.EchoCharacter = '•'
	case promptSearch:
		m.input.Placeholder = "text to find in every note"
	case promptAsk:
		m.input.Placeholder = "ask your notes a question"
	}
	return m.input.Focus()
}

func (m *NotesModel) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.Reset()
}

func (m *NotesModel) closeEditor() {
	m.editor.Blur()
	m.dirty = false
	m.view = viewNotes
	m.loadNotes()
	m.cursor = noteIndex(m.notes, m.state.Note)
}

// refreshSections is the guarded listing: the cached credential is checked
// again on every call, so a password set or changed on disk takes effect
// immediately.
func (m *NotesModel) refreshSections() {
	err := m.deps.Gate.Check(gate.PrompterFunc(func() (string, bool) {
		return m.state.Credential, m.state.Entered
	}))
	if err != nil {
		m.sections = nil
		m.view = viewLocked
		m.openPrompt(promptUnlock)
		switch {
		case !errors.Is(err, gate.ErrWrongPassword):
			m.fail("Cannot read password", err)
		case m.state.Entered:
			m.fail("Wrong password", nil)
		}
		return
	}

	secs, err := m.deps.Store.ListSections()
	if err != nil {
		m.fail("Cannot list sections", err)
		return
	}
	m.sections = secs
	if m.view == viewLocked {
		m.view = viewSections
	}
	m.cursor = clamp(m.cursor, len(m.sections))
}

func (m *NotesModel) enterSection(sec string) {
	m.state.Section = sec
	m.state.Note = ""
	m.view = viewNotes
	m.cursor = 0
	m.loadNotes()
}

func (m *NotesModel) loadNotes() {
	list, err := m.deps.Store.ListNotes(m.state.Section)
	if err != nil {
		m.notes = nil
		m.fail("Cannot list notes", err)
		return
	}
	m.notes = list
	m.cursor = clamp(m.cursor, len(m.notes))
}

func (m *NotesModel) showSearchHits(query string, hits []notes.SearchHit) {
	m.results = make([]resultItem, len(hits))
	for i, h := range hits {
		m.results[i] = resultItem{Ref: h.Ref(), Line: h.Line, Snippet: h.Snippet}
	}
	m.resultsTitle = fmt.Sprintf("Search results for %q", query)
	m.enterResults()
}

func (m *NotesModel) showAskResults(query string, results []search.Result) {
	if len(results) == 0 {
		m.notify("No results")
		return
	}
	m.results = make([]resultItem, len(results))
	for i, r := range results {
		m.results[i] = resultItem{Ref: r.Ref, Line: r.StartLine, Snippet: r.Content, Score: r.Score, Scored: true}
	}
	m.resultsTitle = fmt.Sprintf("Answers for %q", query)
	m.enterResults()
}

func (m *NotesModel) enterResults() {
	if m.view != viewResults {
		m.prevView = m.view
		if m.prevView == viewEditor && !m.dirty {
			m.prevView = viewNotes
		}
	}
	m.view = viewResults
	m.cursor = 0
	m.status = ""
}

func (m *NotesModel) notify(msg string) {
	m.status = msg
	m.err = ""
}

func (m *NotesModel) fail(msg string, err error) {
	m.status = ""
	if err != nil {
		m.err = msg + ": " + err.Error()
		m.deps.Logger.Error(msg, "error", err)
		return
	}
	m.err = msg
}

func (m *NotesModel) layout() {
	w := max(20, m.width-4)
	h := max(5, m.height-8)
	m.editor.SetWidth(w)
	m.editor.SetHeight(h)
	m.help.Width = m.width
}

func (m NotesModel) listLen() int {
	if m.view == viewSections {
		return len(m.sections)
	}
	return len(m.notes)
}

func (m NotesModel) selectedSection() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.sections) {
		return "", false
	}
	return m.sections[m.cursor], true
}

func (m NotesModel) selectedNote() (notes.Note, bool) {
	if m.cursor < 0 || m.cursor >= len(m.notes) {
		return notes.Note{}, false
	}
	return m.notes[m.cursor], true
}

func (m NotesModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("notedx") + " ")
	b.WriteString(dimStyle.Render(m.breadcrumb()) + "\n\n")

	switch m.view {
	case viewLocked:
		b.WriteString("This notebook is password protected.\n\n")
	case viewSections:
		b.WriteString(m.renderList("Sections", m.sections, "No sections yet, press n to create one"))
	case viewNotes:
		names := make([]string, len(m.notes))
		for i, n := range m.notes {
			names[i] = n.Name
		}
		b.WriteString(m.renderList("Notes", names, "No notes in this section, press n to create one"))
	case viewEditor:
		b.WriteString(m.editor.View() + "\n")
	case viewResults:
		b.WriteString(m.renderResults())
	}

	if m.prompt != promptNone {
		b.WriteString("\n" + activeStyle.Render(promptLabel(m.prompt)) + "\n")
		b.WriteString(inputBoxStyle.Render(m.input.View()) + "\n")
	}

	if m.confirm != confirmNone {
		b.WriteString("\n" + selectedStyle.Render(m.confirmQuestion()) + "\n")
	}

	if m.err != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + successStyle.Render(m.status) + "\n")
	}

	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

func (m NotesModel) breadcrumb() string {
	parts := []string{m.deps.Store.Root()}
	if m.view != viewSections && m.view != viewLocked && m.state.Section != "" {
		parts = append(parts, m.state.Section)
	}
	if m.view == viewEditor && m.state.Note != "" {
		note := m.state.Note
		if m.dirty {
			note += " *"
		}
		parts = append(parts, note)
	}
	return strings.Join(parts, " / ")
}

func (m NotesModel) renderList(title string, items []string, empty string) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(title) + "\n")
	if len(items) == 0 {
		b.WriteString(dimStyle.Render(empty) + "\n")
		return b.String()
	}
	for i, item := range items {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+item) + "\n")
		} else {
			b.WriteString("  " + item + "\n")
		}
	}
	return b.String()
}

func (m NotesModel) renderResults() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(m.resultsTitle) + "\n\n")

	for i, r := range m.results {
		var line strings.Builder
		if i == m.cursor {
			line.WriteString(selectedStyle.Render("> "))
		} else {
			line.WriteString("  ")
		}
		if r.Scored {
			line.WriteString(scoreStyle.Render(fmt.Sprintf("[%.2f]", r.Score)) + " ")
		}
		line.WriteString(pathStyle.Render(r.Ref))
		if r.Line > 0 {
			line.WriteString(dimStyle.Render(fmt.Sprintf(":%d", r.Line)))
		}
		b.WriteString(line.String() + "\n")

		for _, l := range wrapText(r.Snippet, 76, 2) {
			b.WriteString("    " + snippetStyle.Render(l) + "\n")
		}
	}
	return b.String()
}

func (m NotesModel) renderHelp() string {
	style := lipgloss.NewStyle().Padding(0, 1)
	switch {
	case m.confirm != confirmNone:
		return style.Render(m.help.View(confirmKeyMap{KeyMap: m.keys}))
	case m.prompt != promptNone:
		return helpStyle.Render("enter submit  esc cancel")
	case m.view == viewEditor:
		return style.Render(m.help.View(editKeyMap{KeyMap: m.keys})) + helpStyle.Render("  ctrl+e export")
	case m.view == viewResults:
		return helpStyle.Render("↑/↓ navigate  enter open note  esc back")
	}
	return style.Render(m.help.View(m.keys))
}

func (m NotesModel) confirmQuestion() string {
	switch m.confirm {
	case confirmDeleteSection:
		return fmt.Sprintf("Delete section %s and all of its notes? (y/n)", m.state.Section)
	case confirmDeleteNote:
		return fmt.Sprintf("Delete note %s? (y/n)", m.state.Note)
	case confirmDiscard:
		return "Discard unsaved changes? (y/n)"
	}
	return ""
}

func promptLabel(p prompt) string {
	switch p {
	case promptUnlock:
		return "Password:"
	case promptNewSection:
		return "New section name:"
	case promptNewNote:
		return "New note name:"
	case promptSearch:
		return "Search notes:"
	case promptAsk:
		return "Ask your notes:"
	case promptPassword:
		return "New password:"
	case promptExport:
		return "Save PDF as:"
	}
	return ""
}

func exportCmd(e *pdf.Exporter, path string, r *pdf.Report) tea.Cmd {
	return func() tea.Msg {
		return exportDoneMsg{path: path, err: e.WriteFile(path, r)}
	}
}

func reindexCmd(idx NoteIndexer, section, name string) tea.Cmd {
	return func() tea.Msg {
		err := idx.IndexNote(context.Background(), section, name)
		return indexDoneMsg{ref: section + "/" + notes.NoteFileName(name), err: err}
	}
}

func askCmd(a Asker, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		results, err := a.Search(ctx, query)
		return askResultsMsg{query: query, results: results, err: err}
	}
}

func backupCmd(b BackupRunner) tea.Cmd {
	return func() tea.Msg {
		snap, err := b.RunOnce(context.Background())
		return backupDoneMsg{snap: snap, err: err}
	}
}

// exportPath appends .pdf when the user left the extension off.
func exportPath(path string) string {
	if path == "" {
		return ""
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		path += ".pdf"
	}
	return path
}

func indexOf(items []string, want string) int {
	for i, s := range items {
		if s == want {
			return i
		}
	}
	return 0
}

func noteIndex(list []notes.Note, name string) int {
	for i, n := range list {
		if n.Name == name {
			return i
		}
	}
	return 0
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}

func wrapText(s string, width, maxLines int) []string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) == 0 {
		return nil
	}

	var lines []string
	for len(s) > 0 && len(lines) < maxLines {
		if len(s) <= width {
			lines = append(lines, s)
			s = ""
			break
		}

		// Break on the last space in the window, or hard-cut on a rune boundary.
		breakAt := strings.LastIndexByte(s[:width+1], ' ')
		if breakAt <= width/2 {
			breakAt = width
			for breakAt > 0 && s[breakAt]&0xC0 == 0x80 {
				breakAt--
			}
		}

		lines = append(lines, strings.TrimSpace(s[:breakAt]))
		s = strings.TrimSpace(s[breakAt:])
	}

	if len(s) > 0 && len(lines) == maxLines {
		lines[maxLines-1] = truncate(lines[maxLines-1]+" "+s, width)
	}

	return lines
}
