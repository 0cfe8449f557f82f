package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dyike/QuorumGo/models"
)

// buildMarkdownReport renders an analysis response as a markdown report
// for the results directory.
func buildMarkdownReport(symbol, tier string, resp *models.AnalysisResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis Report: %s\n\n", symbol)
	fmt.Fprintf(&b, "- Date: %s\n", time.Now().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- Tier: %s\n", tier)
	fmt.Fprintf(&b, "- Pipeline: %s\n", resp.AnalysisType)
	if resp.EstimatedCost > 0 {
		fmt.Fprintf(&b, "- Estimated cost: $%.4f\n", resp.EstimatedCost)
	}
	b.WriteString("\n")

	if res := resp.CrossValidation; res != nil {
		fmt.Fprintf(&b, "## Consensus: %s (confidence %d/100)\n\n", res.Grade, res.Confidence)
		fmt.Fprintf(&b, "Majority direction: **%s** (UP %d / DOWN %d / NEUTRAL %d)\n\n",
			res.MajorityDirection,
			res.Votes[models.DirectionUp],
			res.Votes[models.DirectionDown],
			res.Votes[models.DirectionNeutral],
		)
		if res.ConsensusPrice > 0 {
			fmt.Fprintf(&b, "Consensus price: %.2f (spread %.1f%%)\n\n", res.ConsensusPrice, res.PriceSpreadPct)
		}
		b.WriteString(res.Summary + "\n\n")
		b.WriteString(res.Recommendation + "\n\n")

		if len(res.SharedReasons) > 0 {
			b.WriteString("### Shared reasoning\n\n")
			for _, r := range res.SharedReasons {
				fmt.Fprintf(&b, "- %s _(%s)_\n", r.Text, strings.Join(r.Personas, ", "))
			}
			b.WriteString("\n")
		}
		if len(res.Conflicts) > 0 {
			b.WriteString("### Points of conflict\n\n")
			for _, c := range res.Conflicts {
				fmt.Fprintf(&b, "- **%s**\n", c.Topic)
				for _, v := range c.Views {
					fmt.Fprintf(&b, "  - %s: %s\n", displayName(v.Persona), v.View)
				}
			}
			b.WriteString("\n")
		}
	}

	if cmp := resp.Comparison; cmp != nil {
		b.WriteString("## Two-persona comparison\n\n")
		if cmp.DirectionMatch {
			b.WriteString("The two personas agree on direction.\n")
		} else {
			b.WriteString("The two personas disagree on direction.\n")
		}
		if cmp.PriceDifferencePct > 0 {
			fmt.Fprintf(&b, "Price target difference: %.1f%%\n", cmp.PriceDifferencePct)
		}
		b.WriteString("\n")
	}

	if len(resp.Analyses) > 0 {
		b.WriteString("## Persona opinions\n\n")
		for _, a := range resp.Analyses {
			fmt.Fprintf(&b, "### %s: %s (score %d/5)\n\n", displayName(a.Persona), a.Direction, a.Opinion.Score)
			b.WriteString(a.Opinion.Rationale + "\n\n")
			if t := a.Opinion.Target; t != nil {
				if t.Date != "" {
					fmt.Fprintf(&b, "Target: %.2f by %s\n\n", t.Price, t.Date)
				} else {
					fmt.Fprintf(&b, "Target: %.2f\n\n", t.Price)
				}
			}
			if len(a.Opinion.Risks) > 0 {
				b.WriteString("Risks:\n")
				for _, r := range a.Opinion.Risks {
					fmt.Fprintf(&b, "- %s\n", r)
				}
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}
