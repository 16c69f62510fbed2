package tui

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/notedx/notedx/internal/osint"
	"github.com/notedx/notedx/internal/pdf"
)

const osintTips = `Welcome to your AI OSINT Tool! Here's what you can do:
1. Search by username, email, or phone number.
2. Export your results to PDF.
3. Combine Dorks for deeper investigation.
4. Tip: Use country code selector for accurate phone lookups.
5. Need public IP info? Just type: my ip`

const (
	nothingToSave = "No data to save!"
	defaultRegion = 2
)

type OSINTDeps struct {
	Dispatcher *osint.Dispatcher
	Exporter   *pdf.Exporter
	OutDir     string
	Logger     *slog.Logger
}

type osintKeyMap struct {
	Search key.Binding
	Save   key.Binding
	Region key.Binding
	Scroll key.Binding
	Quit   key.Binding
}

func (k osintKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Region, k.Save, k.Scroll, k.Quit}
}

func (k osintKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultOSINTKeyMap() osintKeyMap {
	return osintKeyMap{
		Search: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save report"),
		),
		Region: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "country code"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("pgup", "pgdown"),
			key.WithHelp("pgup/pgdn", "scroll"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// OSINTModel is the single-window lookup screen. Only the most recent
// result is kept, and that is what gets saved.
type OSINTModel struct {
	deps OSINTDeps

	input  textinput.Model
	result viewport.Model
	region int
	last   *osint.Result
	busy   bool
	status string
	err    string
	keys   osintKeyMap
	help   help.Model
	width  int
	height int
}

func NewOSINTModel(deps OSINTDeps) OSINTModel {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = osint.NewDispatcher(osint.WithLogger(deps.Logger))
	}

	in := textinput.New()
	in.Placeholder = "Enter username/email/phone"
	in.Width = 50
	in.Focus()

	vp := viewport.New(70, 8)

	return OSINTModel{
		deps:   deps,
		input:  in,
		result: vp,
		region: regionIndex(deps.Dispatcher.Region()),
		keys:   defaultOSINTKeyMap(),
		help:   help.New(),
	}
}

// Region returns the calling-code selection used for phone lookups.
func (m OSINTModel) Region() osint.Region {
	return osint.Regions[m.region]
}

func (m OSINTModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m OSINTModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.result.Width = max(30, msg.Width-6)
		m.result.Height = max(4, msg.Height-20)
		m.help.Width = msg.Width
		return m, nil

	case lookupDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err.Error()
			m.status = ""
			return m, nil
		}
		res := msg.result
		m.last = &res
		m.result.SetContent(res.Text())
		m.result.GotoTop()
		m.status = ""
		m.err = ""
		return m, nil

	case reportSavedMsg:
		if msg.err != nil {
			m.err = "Save failed: " + msg.err.Error()
			m.status = ""
			m.deps.Logger.Error("Failed to save report", "path", msg.path, "error", msg.err)
			return m, nil
		}
		m.status = "Report saved as " + msg.path
		m.err = ""
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Search):
			return m.search()

		case key.Matches(msg, m.keys.Save):
			return m.save()

		case msg.String() == "tab":
			m.region = (m.region + 1) % len(osint.Regions)
			return m, nil

		case msg.String() == "shift+tab":
			m.region = (m.region + len(osint.Regions) - 1) % len(osint.Regions)
			return m, nil

		case key.Matches(msg, m.keys.Scroll):
			var cmd tea.Cmd
			m.result, cmd = m.result.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m OSINTModel) search() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		m.err = "Please enter a username, email or phone number."
		m.status = ""
		return m, nil
	}
	if m.busy {
		return m, nil
	}

	// A new search always replaces the previous report.
	m.last = nil
	m.result.SetContent("")
	m.busy = true
	m.err = ""
	m.status = "Searching..."

	d := m.deps.Dispatcher.ForRegion(m.Region().Code)
	return m, lookupCmd(d, input)
}

func (m OSINTModel) save() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if m.last == nil || input == "" {
		m.err = nothingToSave
		m.status = ""
		return m, nil
	}

	path := filepath.Join(m.deps.OutDir, osint.ReportFileName(input))
	return m, saveReportCmd(m.deps.Exporter, path, osint.NewReport(*m.last))
}

func (m OSINTModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("AI OSINT Search Tool") + "\n\n")

	b.WriteString(inputBoxStyle.Render(m.input.View()))
	b.WriteString("  " + dimStyle.Render("country ") + activeStyle.Render(m.Region().String()) + "\n\n")

	body := m.result.View()
	if m.last == nil && !m.busy {
		body = dimStyle.Render("Results appear here.")
	}
	b.WriteString(resultBoxStyle.Render(body) + "\n")

	if m.err != "" {
		b.WriteString(errorStyle.Render("Error: "+m.err) + "\n")
	} else if m.status != "" {
		b.WriteString(successStyle.Render(m.status) + "\n")
	}

	b.WriteString("\n" + tipsBoxStyle.Render(osintTips) + "\n")
	b.WriteString("\n" + lipgloss.NewStyle().Padding(0, 1).Render(m.help.View(m.keys)))
	return b.String()
}

func lookupCmd(d *osint.Dispatcher, input string) tea.Cmd {
	return func() tea.Msg {
		res, err := d.Lookup(context.Background(), input)
		return lookupDoneMsg{result: res, err: err}
	}
}

func saveReportCmd(e *pdf.Exporter, path string, r *pdf.Report) tea.Cmd {
	return func() tea.Msg {
		return reportSavedMsg{path: path, err: e.WriteFile(path, r)}
	}
}

func regionIndex(code string) int {
	for i, r := range osint.Regions {
		if strings.EqualFold(r.Code, code) {
			return i
		}
	}
	return defaultRegion
}
