package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/notedx/notedx/internal/cohere"
	"github.com/notedx/notedx/internal/config"
	"github.com/notedx/notedx/internal/tui"
)

const validateTimeout = 15 * time.Second

func runSetup(cfg *config.Config) error {
	program := tea.NewProgram(newSetupRunner(cfg))

	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	if runner, ok := finalModel.(setupRunner); ok && runner.done {
		cfg.NotesDir = runner.notesDir
		cfg.CohereAPIKey = runner.apiKey
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		return nil
	}

	return fmt.Errorf("setup cancelled")
}

type setupRunner struct {
	setupModel tui.SetupModel
	cfg        *config.Config
	notesDir   string
	apiKey     string
	done       bool
}

func newSetupRunner(cfg *config.Config) setupRunner {
	return setupRunner{
		setupModel: tui.NewSetupModel(cfg.NotesDir, cfg.CohereAPIKey),
		cfg:        cfg,
	}
}

func (m setupRunner) Init() tea.Cmd {
	return tea.Batch(m.setupModel.Init(), tea.EnableBracketedPaste)
}

func (m setupRunner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SetupSubmitMsg:
		if msg.CohereAPIKey != "" {
			client := cohere.New(cohere.Options{
				APIKey:      msg.CohereAPIKey,
				EmbedModel:  m.cfg.EmbedModel,
				RerankModel: m.cfg.RerankModel,
				EmbedDim:    m.cfg.EmbedDim,
			})
			ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
			err := client.Validate(ctx)
			cancel()
			if err != nil {
				return m.showError(err.Error())
			}
		}

		if err := os.MkdirAll(msg.NotesDir, 0o755); err != nil {
			return m.showError("Cannot create notes directory: " + err.Error())
		}

		m.notesDir = msg.NotesDir
		m.apiKey = msg.CohereAPIKey
		m.done = true
		return m, tea.Quit

	default:
		newModel, cmd := m.setupModel.Update(msg)
		if sm, ok := newModel.(tui.SetupModel); ok {
			m.setupModel = sm
		}
		return m, cmd
	}
}

func (m setupRunner) showError(text string) (tea.Model, tea.Cmd) {
	newModel, _ := m.setupModel.Update(tui.SetupErrorMsg{Error: text})
	if sm, ok := newModel.(tui.SetupModel); ok {
		m.setupModel = sm
	}
	return m, nil
}

func (m setupRunner) View() string {
	return m.setupModel.View()
}
