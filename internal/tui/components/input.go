package components

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	labelColor = lipgloss.Color("#00AA00")
	valueColor = lipgloss.Color("#00FF00")
	focusColor = lipgloss.Color("#66FF66")
	errColor   = lipgloss.Color("#FF4444")
	mutedColor = lipgloss.Color("#006600")
)

// Input is a single-line text input. The cursor moves by rune so file
// paths with Hangul edit correctly.
type Input struct {
	label       string
	value       []rune
	placeholder string
	width       int
	focused     bool
	cursorPos   int
	maxLength   int
	required    bool
	err         string
}

// NewInput creates a new input field.
func NewInput(label string) *Input {
	return &Input{
		label:     label,
		width:     20,
		maxLength: 255,
	}
}

// SetValue sets the input value.
func (i *Input) SetValue(v string) *Input {
	i.value = []rune(v)
	i.cursorPos = len(i.value)
	return i
}

// SetPlaceholder sets the placeholder text.
func (i *Input) SetPlaceholder(p string) *Input {
	i.placeholder = p
	return i
}

// SetWidth sets the input width.
func (i *Input) SetWidth(w int) *Input {
	i.width = w
	return i
}

// SetMaxLength sets the maximum input length in runes.
func (i *Input) SetMaxLength(m int) *Input {
	i.maxLength = m
	return i
}

// SetRequired marks the field as required.
func (i *Input) SetRequired(r bool) *Input {
	i.required = r
	return i
}

// SetError sets an error message.
func (i *Input) SetError(e string) *Input {
	i.err = e
	return i
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
	if i.cursorPos > len(i.value) {
		i.cursorPos = len(i.value)
	}
}

// IsFocused returns the focus state.
func (i *Input) IsFocused() bool {
	return i.focused
}

// Value returns the current value.
func (i *Input) Value() string {
	return string(i.value)
}

// HandleKey handles a key press. Named keys other than the editing keys
// are ignored; any single printable rune is inserted.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	switch key {
	case "backspace":
		if i.cursorPos > 0 {
			i.value = append(i.value[:i.cursorPos-1], i.value[i.cursorPos:]...)
			i.cursorPos--
		}
	case "delete":
		if i.cursorPos < len(i.value) {
			i.value = append(i.value[:i.cursorPos], i.value[i.cursorPos+1:]...)
		}
	case "left":
		if i.cursorPos > 0 {
			i.cursorPos--
		}
	case "right":
		if i.cursorPos < len(i.value) {
			i.cursorPos++
		}
	case "home", "ctrl+a":
		i.cursorPos = 0
	case "end", "ctrl+e":
		i.cursorPos = len(i.value)
	case "ctrl+u":
		i.value = i.value[:0]
		i.cursorPos = 0
	case "space":
		i.insert([]rune{' '})
	default:
		runes := []rune(key)
		if len(runes) == 1 && unicode.IsPrint(runes[0]) {
			i.insert(runes)
		}
	}
}

func (i *Input) insert(runes []rune) {
	if len(runes) == 0 || len(i.value)+len(runes) > i.maxLength {
		return
	}
	tail := append([]rune{}, i.value[i.cursorPos:]...)
	i.value = append(append(i.value[:i.cursorPos], runes...), tail...)
	i.cursorPos += len(runes)
}

// Validate validates the input.
func (i *Input) Validate() bool {
	if i.required && strings.TrimSpace(string(i.value)) == "" {
		i.err = "Required"
		return false
	}
	i.err = ""
	return true
}

// Render renders the input field with a 16 column label.
func (i *Input) Render() string {
	return i.RenderWithLabelWidth(16)
}

// RenderWithLabelWidth renders the input; a zero labelWidth omits the label.
func (i *Input) RenderWithLabelWidth(labelWidth int) string {
	var display string
	switch {
	case len(i.value) == 0 && i.placeholder != "" && !i.focused:
		display = lipgloss.NewStyle().Foreground(mutedColor).Render(i.placeholder)
	case i.focused:
		before := string(i.value[:i.cursorPos])
		after := string(i.value[i.cursorPos:])
		display = lipgloss.NewStyle().Foreground(focusColor).Render(before + "_" + after)
	default:
		display = lipgloss.NewStyle().Foreground(valueColor).Render(string(i.value))
	}

	shown := runewidth.StringWidth(string(i.value))
	if i.focused {
		shown++
	}
	if shown < i.width {
		display += strings.Repeat(" ", i.width-shown)
	}

	result := display
	if labelWidth > 0 {
		label := i.label
		if i.required {
			label += "*"
		}
		result = lipgloss.NewStyle().Foreground(labelColor).Width(labelWidth).Render(label+":") + " " + display
	}

	if i.err != "" {
		result += " " + lipgloss.NewStyle().Foreground(errColor).Render(i.err)
	}
	return result
}

// Select is a horizontal option picker.
type Select struct {
	label    string
	options  []string
	selected int
	focused  bool
}

// NewSelect creates a new select input.
func NewSelect(label string, options []string) *Select {
	return &Select{
		label:   label,
		options: options,
	}
}

// SetSelected sets the selected index.
func (s *Select) SetSelected(idx int) *Select {
	if idx >= 0 && idx < len(s.options) {
		s.selected = idx
	}
	return s
}

// Focus sets the focus state.
func (s *Select) Focus(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state.
func (s *Select) IsFocused() bool {
	return s.focused
}

// Value returns the selected value.
func (s *Select) Value() string {
	if s.selected >= 0 && s.selected < len(s.options) {
		return s.options[s.selected]
	}
	return ""
}

// SelectedIndex returns the selected index.
func (s *Select) SelectedIndex() int {
	return s.selected
}

// Toggle advances to the next option, wrapping around.
func (s *Select) Toggle() {
	if len(s.options) > 0 {
		s.selected = (s.selected + 1) % len(s.options)
	}
}

// HandleKey handles a key press.
func (s *Select) HandleKey(key string) {
	if !s.focused {
		return
	}

	switch key {
	case "left", "h":
		if s.selected > 0 {
			s.selected--
		}
	case "right", "l":
		if s.selected < len(s.options)-1 {
			s.selected++
		}
	case " ", "space":
		s.Toggle()
	}
}

// Render renders the select with a 16 column label.
func (s *Select) Render() string {
	return s.RenderWithLabelWidth(16)
}

// RenderWithLabelWidth renders the select; a zero labelWidth omits the label.
func (s *Select) RenderWithLabelWidth(labelWidth int) string {
	optStyle := lipgloss.NewStyle().Foreground(labelColor)
	selStyle := lipgloss.NewStyle().Foreground(valueColor).Bold(true)

	var b strings.Builder
	if labelWidth > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(labelColor).Width(labelWidth).Render(s.label + ":"))
		b.WriteString(" ")
	}

	for i, opt := range s.options {
		if i > 0 {
			b.WriteString(" ")
		}
		switch {
		case i == s.selected && s.focused:
			b.WriteString(selStyle.Render("[" + opt + "]"))
		case i == s.selected:
			b.WriteString(selStyle.Render("(" + opt + ")"))
		default:
			b.WriteString(optStyle.Render(" " + opt + " "))
		}
	}
	return b.String()
}
