package document

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Keyword is a word to tag in the document and the colour to tag it with.
type Keyword struct {
	Word  string `json:"word"`
	Color string `json:"color"`
}

// Segment is a run of text within one line. Match segments carry the colour of
// the keyword they matched.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
	Color string `json:"color,omitempty"`
}

type matcher struct {
	re    *regexp.Regexp
	color string
}

// sortedMatchers orders keywords longest first so a short keyword never splits
// a longer one that contains it. Empty words are skipped.
func sortedMatchers(keywords []Keyword) []matcher {
	kws := make([]Keyword, 0, len(keywords))
	for _, kw := range keywords {
		if kw.Word != "" {
			kws = append(kws, kw)
		}
	}
	sort.SliceStable(kws, func(i, j int) bool {
		return utf8.RuneCountInString(kws[i].Word) > utf8.RuneCountInString(kws[j].Word)
	})
	out := make([]matcher, len(kws))
	for i, kw := range kws {
		out[i] = matcher{
			re:    regexp.MustCompile("(?i)" + regexp.QuoteMeta(kw.Word)),
			color: kw.Color,
		}
	}
	return out
}

// Highlight splits text into lines and tags every case-insensitive occurrence
// of each keyword. Matching never crosses a newline and text already tagged by
// a longer keyword is not searched again.
func Highlight(text string, keywords []Keyword) [][]Segment {
	ms := sortedMatchers(keywords)
	lines := strings.Split(text, "\n")
	out := make([][]Segment, len(lines))
	for i, line := range lines {
		segs := []Segment{{Text: line}}
		for _, m := range ms {
			segs = m.apply(segs)
		}
		out[i] = segs
	}
	return out
}

func (m matcher) apply(segs []Segment) []Segment {
	var out []Segment
	for _, seg := range segs {
		if seg.Match {
			out = append(out, seg)
			continue
		}
		last := 0
		for _, loc := range m.re.FindAllStringIndex(seg.Text, -1) {
			if loc[0] > last {
				out = append(out, Segment{Text: seg.Text[last:loc[0]]})
			}
			out = append(out, Segment{Text: seg.Text[loc[0]:loc[1]], Match: true, Color: m.color})
			last = loc[1]
		}
		if last < len(seg.Text) || last == 0 {
			out = append(out, Segment{Text: seg.Text[last:]})
		}
	}
	return out
}

// RenderHTML returns the highlighted document as HTML, one paragraph per line.
// With no keywords the text is returned unchanged.
func RenderHTML(text string, keywords []Keyword) string {
	if len(keywords) == 0 {
		return text
	}
	return HighlightHTML(text, keywords)
}

// HighlightHTML always produces escaped markup, even with no keywords, so its
// output is safe to embed as HTML.
func HighlightHTML(text string, keywords []Keyword) string {
	var b strings.Builder
	b.WriteString(`<div class="whitespace-pre-wrap">`)
	for _, line := range Highlight(text, keywords) {
		b.WriteString(`<p class="mb-2">`)
		for _, seg := range line {
			if !seg.Match {
				b.WriteString(html.EscapeString(seg.Text))
				continue
			}
			fmt.Fprintf(&b, `<span style="background-color:%s;color:#fff;padding:0 4px;border-radius:4px">%s</span>`,
				html.EscapeString(seg.Color), html.EscapeString(seg.Text))
		}
		b.WriteString("</p>")
	}
	b.WriteString("</div>")
	return b.String()
}
