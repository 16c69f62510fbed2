package gate

import (
	"errors"
	"os"
	"testing"
)

func answer(s string) Prompter {
	return PrompterFunc(func() (string, bool) { return s, true })
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		attempt Prompter
		wantErr error
	}{
		{"no credential never blocks", "", nil, nil},
		{"correct password", "s3cret", answer("s3cret"), nil},
		{"wrong password", "s3cret", answer("guess"), ErrWrongPassword},
		{"cancelled prompt", "s3cret", PrompterFunc(func() (string, bool) { return "", false }), ErrWrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(t.TempDir())
			if tt.stored != "" {
				if err := g.Set(tt.stored); err != nil {
					t.Fatal(err)
				}
			}

			p := tt.attempt
			if p == nil {
				p = PrompterFunc(func() (string, bool) {
					t.Error("prompter should not be called without a credential")
					return "", false
				})
			}

			if err := g.Check(p); !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyTrimsStoredValue(t *testing.T) {
	g := New(t.TempDir())
	if err := os.WriteFile(g.Path(), []byte("pw\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := g.Verify("pw"); err != nil {
		t.Errorf("expected stored newline to be ignored, got %v", err)
	}
	if err := g.Verify("pw\n"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("attempt is compared verbatim, got %v", err)
	}
}

func TestSetAndClear(t *testing.T) {
	g := New(t.TempDir())

	if g.Enabled() {
		t.Fatal("new gate should be disabled")
	}
	for _, pw := range []string{"", "   ", "\n\t"} {
		if err := g.Set(pw); !errors.Is(err, ErrEmptyPassword) {
			t.Errorf("Set(%q): expected ErrEmptyPassword, got %v", pw, err)
		}
	}
	if g.Enabled() {
		t.Fatal("blank password must not enable the gate")
	}
	if err := g.Set("pw"); err != nil {
		t.Fatal(err)
	}
	if !g.Enabled() {
		t.Error("expected gate enabled after Set")
	}

	b, _ := os.ReadFile(g.Path())
	if string(b) != "pw" {
		t.Errorf("credential stored as %q, want plaintext 'pw'", string(b))
	}

	if err := g.Clear(); err != nil {
		t.Fatal(err)
	}
	if g.Enabled() {
		t.Error("expected gate disabled after Clear")
	}
	if err := g.Clear(); err != nil {
		t.Errorf("second Clear should be a no-op, got %v", err)
	}
	if err := g.Verify("anything"); err != nil {
		t.Errorf("Verify without credential should pass, got %v", err)
	}
}

func TestCheckEmptyCredentialFile(t *testing.T) {
	g := New(t.TempDir())
	if err := os.WriteFile(g.Path(), []byte(" \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !g.Enabled() {
		t.Fatal("expected gate enabled while the file exists")
	}
	if err := g.Check(answer("")); err != nil {
		t.Errorf("empty attempt should match a blank file, got %v", err)
	}
	if err := g.Check(answer("pw")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
}
