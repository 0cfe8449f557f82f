package personas

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/models"
)

// PhaseFor picks the prompt template for a round. Round 1 opens, the final
// round closes, everything in between reacts.
func PhaseFor(actx models.AnalysisContext) string {
	switch {
	case actx.Round <= 1:
		return consts.PhaseOpening
	case actx.FinalRound:
		return consts.PhaseClosing
	default:
		return consts.PhaseReacting
	}
}

// BuildMessages assembles the system and user messages for one persona call.
// The user prompt carries the full transcript and every persona's latest
// target, so a later persona in the same round sees earlier replies.
func BuildMessages(p Persona, actx models.AnalysisContext) ([]*schema.Message, error) {
	system, err := p.SystemPrompt()
	if err != nil {
		return nil, err
	}

	phase := PhaseFor(actx)
	user, err := LoadPromptWithContext(phase, map[string]string{
		"Symbol":          actx.Symbol,
		"Name":            displayName(actx),
		"SectorLine":      sectorLine(actx),
		"Round":           strconv.Itoa(actx.Round),
		"CurrentPrice":    formatPrice(actx.CurrentPrice),
		"Transcript":      RenderTranscript(actx.Transcript),
		"TargetTable":     renderTargets(actx.LatestTargets),
		"PriorTargetLine": priorTargetLine(p, actx),
	})
	if err != nil {
		return nil, err
	}

	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}, nil
}

func displayName(actx models.AnalysisContext) string {
	if actx.Name != "" {
		return actx.Name
	}
	return actx.Symbol
}

func sectorLine(actx models.AnalysisContext) string {
	if actx.Sector == "" {
		return ""
	}
	return ", sector: " + actx.Sector
}

func priorTargetLine(p Persona, actx models.AnalysisContext) string {
	t, ok := actx.PriorTarget(p.ID)
	if !ok {
		return ""
	}
	line := fmt.Sprintf("Your previous target was %s", formatPrice(t.Price))
	if t.Date != "" {
		line += " by " + t.Date
	}
	return line + ". You may keep it, revise it, or withdraw it; you do not need to produce a fresh number.\n"
}

// RenderTranscript formats the accumulated debate messages for inclusion in
// a prompt. Personas are named so replies can reference them directly.
func RenderTranscript(messages []models.DebateMessage) string {
	if len(messages) == 0 {
		return "(no prior statements)"
	}
	var b strings.Builder
	for _, m := range messages {
		name := m.Persona
		if p, err := Get(m.Persona); err == nil {
			name = p.DisplayName
		}
		fmt.Fprintf(&b, "[round %d] %s: %s", m.Round, name, strings.TrimSpace(m.Text))
		if m.Target != nil {
			fmt.Fprintf(&b, " (target %s", formatPrice(m.Target.Price))
			if m.Target.Date != "" {
				fmt.Fprintf(&b, " by %s", m.Target.Date)
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTargets(targets map[string]models.PriceTarget) string {
	if len(targets) == 0 {
		return "(none stated yet)"
	}
	var b strings.Builder
	for _, id := range consts.PersonaOrder {
		t, ok := targets[id]
		if !ok {
			continue
		}
		name := id
		if p, err := Get(id); err == nil {
			name = p.DisplayName
		}
		fmt.Fprintf(&b, "- %s: %s", name, formatPrice(t.Price))
		if t.Date != "" {
			fmt.Fprintf(&b, " by %s", t.Date)
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "(none stated yet)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
