package main

import "testing"

func TestOptionsInteractive(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want bool
	}{
		{"no flags", options{}, true},
		{"setup alone exits after the wizard", options{setup: true}, false},
		{"setup with a command", options{setup: true, listSections: true}, false},
		{"search", options{search: "foo"}, false},
		{"password only", options{password: "pw"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.interactive(); got != tt.want {
				t.Errorf("interactive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptionsHasCommand(t *testing.T) {
	if (options{setup: true}).hasCommand() {
		t.Error("expected -setup alone to carry no command")
	}
	if !(options{setup: true, index: true}).hasCommand() {
		t.Error("expected -index to count as a command")
	}
}
