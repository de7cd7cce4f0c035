package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medtech_outlook_agent/dashboard"
	"medtech_outlook_agent/document"
	"medtech_outlook_agent/generator"
)

type cliOptions struct {
	magic       string
	chat        string
	improve     bool
	instruction string
	highlight   bool
	dashboard   bool
	out         string
}

func (o cliOptions) validate() error {
	n := 0
	for _, set := range []bool{o.magic != "", o.chat != "", o.improve, o.highlight, o.dashboard} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return errors.New("one of --serve, --magic, --chat, --improve, --highlight or --dashboard is required")
	case n > 1:
		return errors.New("--magic, --chat, --improve, --highlight and --dashboard are mutually exclusive")
	case o.out != "" && !o.improve:
		return errors.New("--out only applies to --improve")
	}
	return nil
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563eb"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8884d8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
)

// renderMarkdown falls back to the raw text if glamour cannot render it.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// runCLI performs the single action selected in opts against doc.
func runCLI(ctx context.Context, opts cliOptions, doc *document.Document, agent *generator.Agent, model generator.Model, w io.Writer, logger zerolog.Logger) error {
	sess := generator.NewSession(uuid.NewString(), doc, agent, logger)
	sess.SetModel(model)
	log := logger.With().Str("component", "cli").Logger()

	switch {
	case opts.magic != "":
		log.Debug().Str("magic", opts.magic).Str("model", string(model)).Msg("running magic")
		out, err := sess.RunMagic(ctx, opts.magic)
		if err != nil {
			return err
		}
		if out.Magic == generator.MagicKeywords {
			printKeywords(w, out.Keywords)
			return nil
		}
		if !out.Result.OK() {
			fmt.Fprintln(w, errorStyle.Render(out.Result.Display()))
			return errors.New("magic failed")
		}
		fmt.Fprint(w, renderMarkdown(out.Result.Text))
		return nil

	case opts.chat != "":
		printed := 0
		turn, err := sess.Chat(ctx, opts.chat, func(text string) {
			fmt.Fprint(w, text[printed:])
			printed = len(text)
		})
		fmt.Fprintln(w)
		if err != nil {
			fmt.Fprintln(w, errorStyle.Render(turn.Text))
			return err
		}
		return nil

	case opts.improve:
		out, err := sess.Improve(ctx, opts.instruction)
		if err != nil {
			return err
		}
		if !out.Result.OK() {
			fmt.Fprintln(w, errorStyle.Render(out.Result.Display()))
			return errors.New("improve failed")
		}
		if opts.out != "" {
			if err := doc.WriteFile(opts.out); err != nil {
				return err
			}
			log.Info().Str("path", opts.out).Int("words", doc.WordCount()).Msg("improved document written")
			return nil
		}
		fmt.Fprint(w, renderMarkdown(out.Document))
		return nil

	case opts.highlight:
		if _, err := sess.RunMagic(ctx, string(generator.MagicKeywords)); err != nil {
			return err
		}
		kws := sess.Keywords()
		fmt.Fprintln(w, document.RenderTerminal(doc.Text(), kws))
		printKeywords(w, kws)
		return nil

	case opts.dashboard:
		printDashboard(w, dashboard.Build(doc.Text(), dashboard.DefaultNetworkWidth, dashboard.DefaultNetworkHeight))
		return nil
	}
	return opts.validate()
}

func printKeywords(w io.Writer, kws []document.Keyword) {
	if len(kws) == 0 {
		fmt.Fprintln(w, "no keywords found")
		return
	}
	fmt.Fprintln(w, headingStyle.Render("Keywords"))
	for _, k := range kws {
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(k.Color)).Render("  ")
		fmt.Fprintf(w, "%s %s\n", swatch, k.Word)
	}
}

func printDashboard(w io.Writer, d dashboard.Dashboard) {
	fmt.Fprintln(w, headingStyle.Render("Document"))
	fmt.Fprintf(w, "%d words, %d lines, %d sections, %d tables\n", d.Stats.Words, d.Stats.Lines, d.Stats.Sections, d.Stats.Tables)
	for _, p := range d.Stats.Parts {
		fmt.Fprintf(w, "  %s\n", p)
	}

	fmt.Fprintln(w, headingStyle.Render("Compliance impact"))
	for _, dl := range d.Deadlines {
		fmt.Fprintf(w, "  %-14s %s %d (%s)\n", dl.Name, barStyle.Render(strings.Repeat("█", dl.Value/5)), dl.Value, dl.Date)
	}

	fmt.Fprintln(w, headingStyle.Render("Risk mix"))
	for _, s := range d.RiskMix {
		fmt.Fprintf(w, "  %-14s %d%%\n", s.Name, s.Value)
	}

	fmt.Fprintln(w, headingStyle.Render("Talent gap"))
	for _, p := range d.Talent {
		fmt.Fprintf(w, "  %-4s supply %5d  demand %5d\n", p.Month, p.Supply, p.Demand)
	}

	fmt.Fprintln(w, headingStyle.Render("Cyber readiness"))
	for _, c := range d.Cyber {
		fmt.Fprintf(w, "  %-16s %3d/%d\n", c.Subject, c.Score, c.FullMark)
	}

	fmt.Fprintln(w, headingStyle.Render("AI adoption vs regulation"))
	for _, a := range d.Adoption {
		fmt.Fprintf(w, "  %s  adoption %2d  regulation %2d\n", a.Year, a.Adoption, a.Regulation)
	}

	fmt.Fprintln(w, headingStyle.Render("Regulatory network"))
	for _, n := range d.Network.Nodes {
		fmt.Fprintf(w, "  %-20s (%.0f, %.0f)\n", n.ID, n.X, n.Y)
	}
}
