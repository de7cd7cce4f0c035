package document

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderTerminal renders the highlighted document for a terminal, painting
// each keyword match with its colour as background.
func RenderTerminal(text string, keywords []Keyword) string {
	if len(keywords) == 0 {
		return text
	}
	styles := make(map[string]lipgloss.Style)
	lines := Highlight(text, keywords)
	out := make([]string, len(lines))
	for i, line := range lines {
		var b strings.Builder
		for _, seg := range line {
			if !seg.Match {
				b.WriteString(seg.Text)
				continue
			}
			st, ok := styles[seg.Color]
			if !ok {
				st = lipgloss.NewStyle().
					Background(lipgloss.Color(seg.Color)).
					Foreground(lipgloss.Color("#ffffff")).
					Bold(true)
				styles[seg.Color] = st
			}
			b.WriteString(st.Render(seg.Text))
		}
		out[i] = b.String()
	}
	return strings.Join(out, "\n")
}
