package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	focusDir = iota
	focusKey
)

type SetupModel struct {
	dirInput    textinput.Model
	apiKeyInput textinput.Model
	focus       int
	error       string
	width       int
	height      int
}

// NewSetupModel pre-fills the form with the current settings.
func NewSetupModel(notesDir, apiKey string) SetupModel {
	dirInput := textinput.New()
	dirInput.Placeholder = "/path/to/your/notes"
	dirInput.Width = 60
	dirInput.SetValue(notesDir)
	dirInput.Focus()

	keyInput := textinput.New()
	keyInput.Placeholder = "Optional: paste a Cohere API key for semantic search"
	keyInput.Width = 60
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.EchoCharacter = '•'
	keyInput.SetValue(apiKey)

	return SetupModel{
		dirInput:    dirInput,
		apiKeyInput: keyInput,
		focus:       focusDir,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "down", "shift+tab", "up":
			m.toggleFocus()
			return m, nil

		case "enter":
			dir := strings.TrimSpace(m.dirInput.Value())
			apiKey := strings.TrimSpace(m.apiKeyInput.Value())

			if dir == "" {
				m.error = "Notes directory is required"
				return m, nil
			}

			return m, func() tea.Msg {
				return SetupSubmitMsg{
					NotesDir:     dir,
					CohereAPIKey: apiKey,
				}
			}
		}
		cmd = m.updateFocused(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case SetupErrorMsg:
		m.error = msg.Error

	default:
		cmd = m.updateFocused(msg)
	}

	return m, cmd
}

func (m *SetupModel) toggleFocus() {
	if m.focus == focusDir {
		m.focus = focusKey
		m.dirInput.Blur()
		m.apiKeyInput.Focus()
		return
	}
	m.focus = focusDir
	m.apiKeyInput.Blur()
	m.dirInput.Focus()
}

func (m *SetupModel) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == focusDir {
		m.dirInput, cmd = m.dirInput.Update(msg)
	} else {
		m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
	}
	return cmd
}

func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("notedx - Setup") + "\n\n")
	b.WriteString("Choose where your sections and notes live.\n")
	b.WriteString("Semantic search (ask) is optional and needs a Cohere API key from\n")
	b.WriteString(activeStyle.Render("https://dashboard.cohere.com/api-keys") + "\n\n")

	b.WriteString(fieldLabel("Notes Directory:", m.focus == focusDir) + "\n")
	b.WriteString(inputBoxStyle.Render(m.dirInput.View()) + "\n\n")

	b.WriteString(fieldLabel("Cohere API Key:", m.focus == focusKey) + "\n")
	b.WriteString(inputBoxStyle.Render(m.apiKeyInput.View()) + "\n")

	if m.error != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.error) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("tab switch field  enter save  esc quit"))

	return b.String()
}

func fieldLabel(label string, active bool) string {
	if active {
		return activeStyle.Render("> " + label)
	}
	return "  " + label
}
