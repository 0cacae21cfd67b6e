package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestGetBreakpoint(t *testing.T) {
	tests := []struct {
		width    int
		expected LayoutBreakpoint
	}{
		{40, BreakpointNarrow},
		{59, BreakpointNarrow},
		{60, BreakpointMedium},
		{99, BreakpointMedium},
		{100, BreakpointWide},
		{200, BreakpointWide},
	}

	for _, tt := range tests {
		if got := GetBreakpoint(tt.width); got != tt.expected {
			t.Errorf("GetBreakpoint(%d) = %d, want %d", tt.width, got, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxWidth int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hell…"},
		{"hi", 0, ""},
		// each syllable is two columns wide
		{"상세불명의 치매", 7, "상세불…"},
		{"김영희", 6, "김영희"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.input, tt.maxWidth); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.expected)
		}
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"hi", 5, "hi   "},
		{"hello!", 5, "hello!"},
		{"철분", 6, "철분  "},
	}

	for _, tt := range tests {
		if got := PadRight(tt.input, tt.width); got != tt.expected {
			t.Errorf("PadRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
		}
	}
}

func TestContentWidth(t *testing.T) {
	tests := []struct {
		termWidth, minWidth, maxWidth, expected int
	}{
		{80, 40, 120, 80},
		{30, 40, 120, 40},
		{200, 40, 120, 120},
		{80, 40, 0, 80},
	}

	for _, tt := range tests {
		if got := ContentWidth(tt.termWidth, tt.minWidth, tt.maxWidth); got != tt.expected {
			t.Errorf("ContentWidth(%d, %d, %d) = %d, want %d",
				tt.termWidth, tt.minWidth, tt.maxWidth, got, tt.expected)
		}
	}
}

func TestContentHeight(t *testing.T) {
	if got := ContentHeight(40, 6); got != 34 {
		t.Errorf("ContentHeight(40, 6) = %d, want 34", got)
	}
	if got := ContentHeight(5, 6); got != 5 {
		t.Errorf("ContentHeight(5, 6) = %d, want 5", got)
	}
}

func TestSideBySide(t *testing.T) {
	horizontal := SideBySide("AAA", "BBB", 80, 4)
	if strings.Contains(horizontal, "\n") || !strings.Contains(horizontal, "AAA    BBB") {
		t.Errorf("expected one line with a 4 column gap, got %q", horizontal)
	}

	vertical := SideBySide(strings.Repeat("A", 50), strings.Repeat("B", 50), 60, 4)
	if !strings.Contains(vertical, "\n\n") {
		t.Error("expected stacked layout when blocks do not fit")
	}
}

func TestPanel_TitleInBorder(t *testing.T) {
	theme := NewTheme("green_phosphor")
	out := theme.Panel("RISK", "critical 5", 30)

	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], "RISK") {
		t.Errorf("expected title in top border, got %q", lines[0])
	}
	if w := lipgloss.Width(lines[0]); w != lipgloss.Width(lines[1]) {
		t.Errorf("top border width %d differs from body width %d", w, lipgloss.Width(lines[1]))
	}
}

func TestProgressBar(t *testing.T) {
	theme := NewTheme("green_phosphor")

	half := theme.ProgressBar(48.7, 100, 22)
	if !strings.Contains(half, "█") || !strings.Contains(half, "░") {
		t.Errorf("expected a partly filled bar, got %q", half)
	}
	if strings.Contains(theme.ProgressBar(100, 100, 22), "░") {
		t.Error("full bar should not contain empty cells")
	}
	if strings.Contains(theme.ProgressBar(-5, 100, 22), "█") {
		t.Error("negative values should render an empty bar")
	}
}
