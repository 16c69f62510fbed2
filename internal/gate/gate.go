// Package gate guards section listing behind an optional plaintext password
// stored next to the notes.
package gate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/notedx/notedx/internal/notes"
)

var (
	ErrWrongPassword = errors.New("wrong password")
	ErrEmptyPassword = errors.New("password is empty")
)

// Prompter asks the user for the password. ok is false when the user
// cancelled the prompt.
type Prompter interface {
	PromptPassword() (attempt string, ok bool)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func() (string, bool)

func (f PrompterFunc) PromptPassword() (string, bool) { return f() }

// Gate compares attempts against <root>/password.txt. The file is re-read on
// every call so a password set from another process takes effect at once.
type Gate struct {
	path string
}

func New(root string) *Gate {
	return &Gate{path: filepath.Join(root, notes.CredentialFile)}
}

func (g *Gate) Path() string { return g.path }

func (g *Gate) Enabled() bool {
	_, err := os.Stat(g.path)
	return err == nil
}

// Verify returns nil when no credential is stored or when attempt matches it.
func (g *Gate) Verify(attempt string) error {
	stored, ok, err := g.stored()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if attempt != stored {
		return ErrWrongPassword
	}
	return nil
}

// Check is the guard run before any section listing. With no stored
// credential it never prompts.
func (g *Gate) Check(p Prompter) error {
	if !g.Enabled() {
		return nil
	}
	attempt, ok := p.PromptPassword()
	if !ok {
		return ErrWrongPassword
	}
	return g.Verify(attempt)
}

func (g *Gate) Set(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrEmptyPassword
	}
	if err := os.WriteFile(g.path, []byte(password), 0o600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

func (g *Gate) Clear() error {
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}

func (g *Gate) stored() (string, bool, error) {
	b, err := os.ReadFile(g.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read credential: %w", err)
	}
	return strings.TrimSpace(string(b)), true, nil
}
