package consensus

import (
	"strings"

	"github.com/dyike/QuorumGo/models"
)

// Reason-sentence extraction and matching. Personas phrase the same argument
// differently, so "shared" is decided by keyword overlap rather than string
// equality. The threshold is a tuning knob, not a precise contract.
const (
	minReasonRunes      = 20
	maxReasonRunes      = 160
	minKeywordRunes     = 4
	similarityThreshold = 0.5
)

var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "will": true,
	"have": true, "been": true, "their": true, "there": true, "would": true,
	"could": true, "should": true, "about": true, "which": true, "because": true,
	"into": true, "over": true, "than": true, "them": true, "they": true,
	"when": true, "more": true, "most": true, "very": true, "also": true,
	"while": true, "where": true, "these": true, "those": true, "still": true,
}

type candidate struct {
	persona  string
	text     string
	keywords map[string]bool
	used     bool
}

// matchReasons extracts candidate reason-sentences per persona and groups
// sufficiently similar ones across personas. Candidates appearing in two or
// more personas' sets become shared reasons; the rest surface as unique.
func matchReasons(analyses []models.IndependentAnalysis) ([]models.SharedReason, []models.UniqueReason) {
	var cands []*candidate
	for _, a := range analyses {
		for _, sentence := range splitSentences(a.Opinion.Rationale) {
			keys := keywords(sentence)
			if len(keys) == 0 {
				continue
			}
			cands = append(cands, &candidate{persona: a.Persona, text: sentence, keywords: keys})
		}
	}

	shared := []models.SharedReason{}
	for i, c := range cands {
		if c.used {
			continue
		}
		group := []*candidate{c}
		personas := map[string]bool{c.persona: true}
		for _, other := range cands[i+1:] {
			if other.used || other.persona == c.persona {
				continue
			}
			if jaccard(c.keywords, other.keywords) >= similarityThreshold {
				group = append(group, other)
				personas[other.persona] = true
			}
		}
		if len(personas) < 2 {
			continue
		}
		for _, g := range group {
			g.used = true
		}
		shared = append(shared, models.SharedReason{
			Text:     c.text,
			Personas: orderedKeys(personas, analyses),
		})
	}

	unique := []models.UniqueReason{}
	for _, c := range cands {
		if !c.used {
			unique = append(unique, models.UniqueReason{Persona: c.persona, Text: c.text})
		}
	}
	return shared, unique
}

// splitSentences segments a rationale into short candidate sentences,
// excluding fragments and run-on paragraphs via a length band.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		b.Reset()
		n := len([]rune(s))
		if n >= minReasonRunes && n <= maxReasonRunes {
			out = append(out, s)
		}
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?', '\n', ';':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

func keywords(sentence string) map[string]bool {
	keys := map[string]bool{}
	for _, word := range strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len([]rune(word)) < minKeywordRunes || stopwords[word] {
			continue
		}
		keys[word] = true
	}
	return keys
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// orderedKeys returns the matched personas in input-analysis order so the
// result is stable for identical input.
func orderedKeys(set map[string]bool, analyses []models.IndependentAnalysis) []string {
	var out []string
	seen := map[string]bool{}
	for _, a := range analyses {
		if set[a.Persona] && !seen[a.Persona] {
			out = append(out, a.Persona)
			seen[a.Persona] = true
		}
	}
	return out
}
