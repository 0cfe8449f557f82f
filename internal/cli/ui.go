package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/QuorumGo/internal/personas"
	"github.com/dyike/QuorumGo/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Background(lipgloss.Color("#1F2937")).
		Padding(0, 1).
		MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2).
		Width(80)

	debatePanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F59E0B")).
		Padding(1, 2).
		Width(80)

	// Direction styles
	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	downStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	neutralStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Bold(true)

	personaStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#8B5CF6")).
		Bold(true)

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6"))

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

// DisplayWelcomeBanner shows the welcome banner
func DisplayWelcomeBanner() {
	banner := `
 ██████╗ ██╗   ██╗ ██████╗ ██████╗ ██╗   ██╗███╗   ███╗ ██████╗  ██████╗
██╔═══██╗██║   ██║██╔═══██╗██╔══██╗██║   ██║████╗ ████║██╔════╝ ██╔═══██╗
██║   ██║██║   ██║██║   ██║██████╔╝██║   ██║██╔████╔██║██║  ███╗██║   ██║
██║▄▄ ██║██║   ██║██║   ██║██╔══██╗██║   ██║██║╚██╔╝██║██║   ██║██║   ██║
╚██████╔╝╚██████╔╝╚██████╔╝██║  ██║╚██████╔╝██║ ╚═╝ ██║╚██████╔╝╚██████╔╝
 ╚══▀▀═╝  ╚═════╝  ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝ ╚═════╝  ╚═════╝
`

	welcomeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true).
		Align(lipgloss.Center).
		Width(80)

	taglineStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6")).
		Italic(true).
		Align(lipgloss.Center).
		Width(80).
		MarginBottom(1)

	fmt.Print(welcomeStyle.Render(banner))
	fmt.Println()
	fmt.Println(taglineStyle.Render("Three analyst personas. One graded consensus."))
}

// RenderAnalysis prints the tier-specific analysis payload
func RenderAnalysis(resp *models.AnalysisResponse) {
	switch {
	case resp.Single != nil:
		renderSingle(resp.Single)
	case resp.Comparison != nil:
		renderComparison(resp.Comparison)
	case resp.CrossValidation != nil:
		renderConsensus(resp.CrossValidation, resp.Analyses)
	}

	if resp.EstimatedCost > 0 {
		fmt.Println(infoStyle.Render(fmt.Sprintf("Estimated backend cost: $%.4f", resp.EstimatedCost)))
	}
}

func renderSingle(res *models.SingleResult) {
	var content strings.Builder

	a := res.Analysis
	content.WriteString(fmt.Sprintf("%s  %s  score %d/5\n\n",
		personaStyle.Render(displayName(a.Persona)),
		renderDirection(a.Direction),
		a.Opinion.Score,
	))
	content.WriteString(a.Opinion.Rationale + "\n")
	writeTarget(&content, a.Opinion.Target)
	writeList(&content, "Risks", a.Opinion.Risks)
	writeList(&content, "Sources", a.Opinion.Sources)

	fmt.Println(titleStyle.Render("SINGLE-PERSONA VIEW"))
	fmt.Println(panelStyle.Render(content.String()))
}

func renderComparison(cmp *models.ComparisonResult) {
	var content strings.Builder

	for _, a := range []models.IndependentAnalysis{cmp.First, cmp.Second} {
		content.WriteString(fmt.Sprintf("%s  %s  score %d/5\n",
			personaStyle.Render(displayName(a.Persona)),
			renderDirection(a.Direction),
			a.Opinion.Score,
		))
		content.WriteString("  " + a.Opinion.Rationale + "\n")
		writeTarget(&content, a.Opinion.Target)
		content.WriteString("\n")
	}

	if cmp.DirectionMatch {
		content.WriteString(successStyle.Render("The two personas agree on direction.") + "\n")
	} else {
		content.WriteString(errorStyle.Render("The two personas disagree on direction.") + "\n")
	}
	if cmp.PriceDifferencePct > 0 {
		content.WriteString(fmt.Sprintf("Price target difference: %.1f%%\n", cmp.PriceDifferencePct))
	}

	fmt.Println(titleStyle.Render("TWO-PERSONA COMPARISON"))
	fmt.Println(panelStyle.Render(content.String()))
}

func renderConsensus(res *models.ConsensusResult, analyses []models.IndependentAnalysis) {
	var content strings.Builder

	content.WriteString(fmt.Sprintf("Grade: %s   Confidence: %d/100\n", renderGrade(res.Grade), res.Confidence))
	content.WriteString(fmt.Sprintf("Majority: %s  (UP %d / DOWN %d / NEUTRAL %d)\n",
		renderDirection(res.MajorityDirection),
		res.Votes[models.DirectionUp],
		res.Votes[models.DirectionDown],
		res.Votes[models.DirectionNeutral],
	))
	if res.ConsensusPrice > 0 {
		content.WriteString(fmt.Sprintf("Consensus price: %.2f  (spread %.1f%%)\n", res.ConsensusPrice, res.PriceSpreadPct))
	}
	content.WriteString("\n" + res.Summary + "\n")
	content.WriteString(res.Recommendation + "\n")

	if len(res.SharedReasons) > 0 {
		content.WriteString("\nShared reasoning:\n")
		for _, r := range res.SharedReasons {
			content.WriteString(fmt.Sprintf("  • %s  (%s)\n", r.Text, strings.Join(r.Personas, ", ")))
		}
	}
	if len(res.Conflicts) > 0 {
		content.WriteString("\nPoints of conflict:\n")
		for _, c := range res.Conflicts {
			content.WriteString(fmt.Sprintf("  ▸ %s\n", c.Topic))
			for _, v := range c.Views {
				content.WriteString(fmt.Sprintf("      %s: %s\n", displayName(v.Persona), v.View))
			}
		}
	}

	fmt.Println(titleStyle.Render("CROSS-VALIDATED CONSENSUS"))
	fmt.Println(panelStyle.Render(content.String()))

	var details strings.Builder
	for _, a := range analyses {
		details.WriteString(fmt.Sprintf("%s  %s  score %d/5\n",
			personaStyle.Render(displayName(a.Persona)),
			renderDirection(a.Direction),
			a.Opinion.Score,
		))
		details.WriteString("  " + a.Opinion.Rationale + "\n")
		writeTarget(&details, a.Opinion.Target)
		details.WriteString("\n")
	}
	fmt.Println(panelStyle.Render(strings.TrimRight(details.String(), "\n")))
}

// RenderDebateRound prints one round's transcript entries
func RenderDebateRound(round int, msgs []models.DebateMessage) {
	var content strings.Builder

	content.WriteString(fmt.Sprintf("Round %d\n\n", round))
	for _, m := range msgs {
		content.WriteString(fmt.Sprintf("%s  %s  score %d/5\n",
			personaStyle.Render(displayName(m.Persona)),
			renderDirection(models.DirectionFromScore(m.Score)),
			m.Score,
		))
		content.WriteString("  " + m.Text + "\n")
		writeTarget(&content, m.Target)
		content.WriteString("\n")
	}

	fmt.Println(debatePanelStyle.Render(strings.TrimRight(content.String(), "\n")))
}

// DisplayError shows an error message
func DisplayError(err error) {
	fmt.Println(errorStyle.Render("Error: " + err.Error()))
}

// DisplayInfo shows an info message
func DisplayInfo(message string) {
	fmt.Println(infoStyle.Render(message))
}

// DisplaySuccess shows a success message
func DisplaySuccess(message string) {
	fmt.Println(successStyle.Render(message))
}

// Helper functions

func displayName(personaID string) string {
	if p, err := personas.Get(personaID); err == nil {
		return p.DisplayName
	}
	return personaID
}

func renderDirection(d models.Direction) string {
	switch d {
	case models.DirectionUp:
		return upStyle.Render("▲ UP")
	case models.DirectionDown:
		return downStyle.Render("▼ DOWN")
	default:
		return neutralStyle.Render("■ NEUTRAL")
	}
}

func renderGrade(g models.ConsensusGrade) string {
	switch g {
	case models.GradeStrong:
		return upStyle.Render(string(g))
	case models.GradeConflict:
		return errorStyle.Render(string(g))
	default:
		return neutralStyle.Render(string(g))
	}
}

func writeTarget(b *strings.Builder, t *models.PriceTarget) {
	if t == nil {
		return
	}
	if t.Date != "" {
		b.WriteString(fmt.Sprintf("  Target: %.2f by %s\n", t.Price, t.Date))
	} else {
		b.WriteString(fmt.Sprintf("  Target: %.2f\n", t.Price))
	}
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + label + ":\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}
