package generator

import "errors"

// Magic is a predefined prompt template applied to the current document.
type Magic string

const (
	MagicKeywords  Magic = "keywords"
	MagicSummarize Magic = "summarize"
	MagicSentiment Magic = "sentiment"
	MagicSimplify  Magic = "simplify"
	MagicQuiz      Magic = "quiz"
	MagicTranslate Magic = "translate"
	MagicTitle     Magic = "title"
)

var ErrUnknownMagic = errors.New("unknown magic")

// magicInstructions holds the template of every text magic. MagicKeywords has
// no template: it goes to keyword extraction instead.
var magicInstructions = map[Magic]string{
	MagicSummarize: "Summarize the following article into 3 key bullet points focusing on 2026 impact.",
	MagicSentiment: "Analyze the sentiment of this regulatory outlook. Is it optimistic, pessimistic, or neutral? Explain why.",
	MagicSimplify:  "Explain this article to a 5-year-old.",
	MagicQuiz:      "Create a 3-question multiple choice quiz based on this article.",
	MagicTranslate: "Translate the Executive Summary to Traditional Chinese.",
	MagicTitle:     "Generate 5 catchy alternative titles for this article.",
}

var magicOrder = []Magic{
	MagicKeywords, MagicSummarize, MagicSentiment, MagicSimplify, MagicQuiz, MagicTranslate, MagicTitle,
}

// Magics lists the registry in menu order.
func Magics() []Magic {
	out := make([]Magic, len(magicOrder))
	copy(out, magicOrder)
	return out
}

// ParseMagic reports whether s names a registered magic.
func ParseMagic(s string) (Magic, bool) {
	m := Magic(s)
	if m == MagicKeywords {
		return m, true
	}
	_, ok := magicInstructions[m]
	return m, ok
}

// Instruction returns the template of a text magic.
func (m Magic) Instruction() (string, bool) {
	s, ok := magicInstructions[m]
	return s, ok
}
