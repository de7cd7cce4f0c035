package dashboard

import (
	"regexp"
	"strings"

	"github.com/sourcegraph/conc"

	"medtech_outlook_agent/document"
)

var (
	partRe    = regexp.MustCompile(`^Part \d+:`)
	sectionRe = regexp.MustCompile(`^\d+\.\s`)
	tableRe   = regexp.MustCompile(`^Table \d+:`)
)

// DocStats is the outline summary of the current document.
type DocStats struct {
	Words    int      `json:"words"`
	Lines    int      `json:"lines"`
	Parts    []string `json:"parts"`
	Sections int      `json:"sections"`
	Tables   int      `json:"tables"`
}

// Stats counts words and lines and collects the "Part N:" headings.
func Stats(text string) DocStats {
	st := DocStats{Words: document.WordCount(text), Parts: []string{}}
	if text == "" {
		return st
	}
	lines := strings.Split(text, "\n")
	st.Lines = len(lines)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case partRe.MatchString(line):
			st.Parts = append(st.Parts, line)
		case tableRe.MatchString(line):
			st.Tables++
		case sectionRe.MatchString(line):
			st.Sections++
		}
	}
	return st
}

// Dashboard is every panel the UI draws, in one payload.
type Dashboard struct {
	Stats     DocStats        `json:"stats"`
	Deadlines []Deadline      `json:"deadlines"`
	RiskMix   []Share         `json:"risk_mix"`
	Talent    []TalentPoint   `json:"talent"`
	Cyber     []CyberScore    `json:"cyber"`
	Adoption  []AdoptionPoint `json:"adoption"`
	Network   Network         `json:"network"`
	Palette   []string        `json:"palette"`
}

func Build(text string, width, height float64) Dashboard {
	d := Dashboard{
		Deadlines: deadlines(),
		RiskMix:   riskMix(),
		Talent:    talentGap(),
		Cyber:     cyberReadiness(),
		Adoption:  adoptionTrend(),
		Palette:   append([]string(nil), Palette...),
	}

	var wg conc.WaitGroup
	wg.Go(func() { d.Stats = Stats(text) })
	wg.Go(func() { d.Network = LayoutNetwork(width, height) })
	wg.Wait()
	return d
}
