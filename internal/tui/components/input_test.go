package components

import (
	"strings"
	"testing"
)

func TestInput_RequiredValidation(t *testing.T) {
	input := NewInput("File").SetRequired(true)

	if input.Validate() {
		t.Error("expected validation to fail for empty required field")
	}

	input.SetValue("immune.csv")
	if !input.Validate() {
		t.Error("expected validation to pass with value set")
	}

	input.SetValue("   ")
	if input.Validate() {
		t.Error("expected validation to fail for whitespace-only required field")
	}
}

func TestInput_HandleKey(t *testing.T) {
	tests := []struct {
		name  string
		start string
		keys  []string
		want  string
	}{
		{"type ascii", "", []string{"a", ".", "c", "s", "v"}, "a.csv"},
		{"type hangul", "", []string{"입", "소", "자"}, "입소자"},
		{"backspace hangul", "입소자", []string{"backspace"}, "입소"},
		{"insert mid", "ac", []string{"left", "b"}, "abc"},
		{"delete at cursor", "abc", []string{"home", "delete"}, "bc"},
		{"clear line", "data/x.csv", []string{"ctrl+u", "y"}, "y"},
		{"named keys ignored", "x", []string{"tab", "enter", "ctrl+s", "f5"}, "x"},
		{"space", "a", []string{" ", "b"}, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := NewInput("File").SetValue(tt.start)
			input.Focus(true)
			for _, k := range tt.keys {
				input.HandleKey(k)
			}
			if got := input.Value(); got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInput_HandleKey_NotFocused(t *testing.T) {
	input := NewInput("File")
	input.HandleKey("a")
	if input.Value() != "" {
		t.Errorf("unfocused input accepted a key: %q", input.Value())
	}
}

func TestInput_MaxLength(t *testing.T) {
	input := NewInput("File").SetMaxLength(2)
	input.Focus(true)
	for _, k := range []string{"a", "b", "c"} {
		input.HandleKey(k)
	}
	if input.Value() != "ab" {
		t.Errorf("expected value capped at 2 runes, got %q", input.Value())
	}
}

func TestInput_Render(t *testing.T) {
	input := NewInput("CSV file").SetPlaceholder("path/to/file.csv")
	out := input.Render()
	if !strings.Contains(out, "CSV file:") || !strings.Contains(out, "path/to/file.csv") {
		t.Errorf("expected label and placeholder, got %q", out)
	}

	input.Focus(true)
	input.SetValue("a.csv")
	if out := input.RenderWithLabelWidth(0); strings.Contains(out, "CSV file") || !strings.Contains(out, "a.csv_") {
		t.Errorf("expected bare value with cursor, got %q", out)
	}
}

func TestSelect_Toggle(t *testing.T) {
	s := NewSelect("Model", []string{"immune", "nutrition"})
	if s.Value() != "immune" {
		t.Fatalf("expected first option selected, got %q", s.Value())
	}

	s.Toggle()
	if s.Value() != "nutrition" {
		t.Errorf("expected nutrition, got %q", s.Value())
	}
	s.Toggle()
	if s.SelectedIndex() != 0 {
		t.Errorf("expected toggle to wrap, got %d", s.SelectedIndex())
	}

	s.SetSelected(5)
	if s.SelectedIndex() != 0 {
		t.Errorf("out of range SetSelected changed selection to %d", s.SelectedIndex())
	}
}

func TestSelect_HandleKey(t *testing.T) {
	s := NewSelect("Model", []string{"immune", "nutrition"})
	s.HandleKey("right")
	if s.SelectedIndex() != 0 {
		t.Error("unfocused select should ignore keys")
	}

	s.Focus(true)
	s.HandleKey("right")
	s.HandleKey("right")
	if s.Value() != "nutrition" {
		t.Errorf("expected nutrition, got %q", s.Value())
	}
	s.HandleKey("left")
	if s.Value() != "immune" {
		t.Errorf("expected immune, got %q", s.Value())
	}
}

func TestSelect_Render(t *testing.T) {
	s := NewSelect("Model", []string{"immune", "nutrition"})
	if out := s.Render(); !strings.Contains(out, "(immune)") {
		t.Errorf("expected unfocused selection in parens, got %q", out)
	}
	s.Focus(true)
	if out := s.RenderWithLabelWidth(0); !strings.Contains(out, "[immune]") || strings.Contains(out, "Model") {
		t.Errorf("expected focused selection without label, got %q", out)
	}
}
