package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matches(lines [][]Segment) []string {
	var out []string
	for _, line := range lines {
		for _, seg := range line {
			if seg.Match {
				out = append(out, seg.Text)
			}
		}
	}
	return out
}

func joinLine(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestHighlightLongestFirst(t *testing.T) {
	kws := []Keyword{{Word: "AI", Color: "#f00"}, {Word: "AI Act", Color: "#00f"}}
	lines := Highlight("The AI Act applies", kws)

	require.Len(t, lines, 1)
	assert.Equal(t, []Segment{
		{Text: "The "},
		{Text: "AI Act", Match: true, Color: "#00f"},
		{Text: " applies"},
	}, lines[0])
}

func TestHighlightCaseInsensitivePreservesOriginalText(t *testing.T) {
	lines := Highlight("ai, Ai and AI", []Keyword{{Word: "AI", Color: "#f00"}})
	assert.Equal(t, []string{"ai", "Ai", "AI"}, matches(lines))
	assert.Equal(t, "ai, Ai and AI", joinLine(lines[0]))
}

func TestHighlightIsLineScoped(t *testing.T) {
	text := "EU AI\nAct text\n\nAI Act again"
	lines := Highlight(text, []Keyword{{Word: "AI Act", Color: "#00f"}})

	require.Len(t, lines, 4)
	assert.Equal(t, []string{"AI Act"}, matches(lines))
	assert.Equal(t, []Segment{{Text: ""}}, lines[2])
	for i, line := range strings.Split(text, "\n") {
		assert.Equal(t, line, joinLine(lines[i]))
	}
}

func TestHighlightTreatsKeywordsLiterally(t *testing.T) {
	lines := Highlight("ISO 13485:2016 (QMSR) and ISO 13485x2016", []Keyword{
		{Word: "13485:2016", Color: "#0f0"},
		{Word: "(QMSR)", Color: "#f00"},
	})
	assert.Equal(t, []string{"13485:2016", "(QMSR)"}, matches(lines))
}

func TestHighlightSkipsEmptyWords(t *testing.T) {
	lines := Highlight("abc", []Keyword{{Word: "", Color: "#000"}})
	assert.Equal(t, [][]Segment{{{Text: "abc"}}}, lines)
}

func TestRenderHTMLEmptyKeywordsIsIdentity(t *testing.T) {
	text := "Line <one>\nLine & two"
	assert.Equal(t, text, RenderHTML(text, nil))
	assert.Equal(t, text, RenderHTML(text, []Keyword{}))
	assert.Equal(t, text, RenderTerminal(text, nil))
}

func TestRenderHTML(t *testing.T) {
	out := RenderHTML("MDR <b>\nnext", []Keyword{{Word: "MDR", Color: "#2563eb"}})

	assert.True(t, strings.HasPrefix(out, `<div class="whitespace-pre-wrap"><p class="mb-2">`))
	assert.Contains(t, out, `<span style="background-color:#2563eb;color:#fff;padding:0 4px;border-radius:4px">MDR</span>`)
	assert.Contains(t, out, "&lt;b&gt;")
	assert.Equal(t, 2, strings.Count(out, "<p "))
}

func TestRenderHTMLEscapesColor(t *testing.T) {
	out := RenderHTML("MDR", []Keyword{{Word: "MDR", Color: `red" onmouseover="x`}})
	assert.NotContains(t, out, `" onmouseover="`)
}

func TestRenderTerminalKeepsText(t *testing.T) {
	out := RenderTerminal("the AI Act", []Keyword{{Word: "AI Act", Color: "#0000ff"}})
	assert.Contains(t, out, "AI Act")
	assert.True(t, strings.HasPrefix(out, "the "))
}

func TestHighlightHTMLEscapesWithoutKeywords(t *testing.T) {
	text := "<img src=x onerror=alert(1)>\nsafe"
	out := HighlightHTML(text, nil)

	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;img src=x onerror=alert(1)&gt;")
	assert.Equal(t, `<div class="whitespace-pre-wrap"><p class="mb-2">&lt;img src=x onerror=alert(1)&gt;</p><p class="mb-2">safe</p></div>`, out)
	assert.Equal(t, text, RenderHTML(text, nil))
}
