// Package normalize turns a backend's free-form reply into a
// StructuredOpinion with defensive field coercion.
package normalize

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/dyike/QuorumGo/models"
)

// ErrNoPayload means the raw text contained no parseable JSON object at all.
// This is distinct from a payload with missing or malformed fields, which
// degrades per field and never errors.
var ErrNoPayload = errors.New("no parseable payload in model reply")

const defaultScore = 3

// Parse extracts the structured payload from raw model output. Models often
// wrap the JSON in prose or markdown fences; Parse locates the outermost
// balanced brace pair and parses only that substring.
func Parse(raw string) (models.StructuredOpinion, error) {
	payload, ok := extractPayload(raw)
	if !ok {
		return models.StructuredOpinion{}, ErrNoPayload
	}

	op := models.StructuredOpinion{
		Rationale: asString(payload["rationale"]),
		Score:     models.ClampScore(asScore(payload["score"])),
		Risks:     asStringSlice(payload["risks"]),
		Sources:   asStringSlice(payload["sources"]),
	}

	if price, ok := asPrice(payload["target_price"]); ok {
		op.Target = &models.PriceTarget{
			Price: price,
			Date:  asString(payload["target_date"]),
		}
		op.PriceRationale = asString(payload["price_rationale"])
	}

	return op, nil
}

// extractPayload scans for balanced top-level brace pairs, skipping braces
// inside JSON strings, and returns the first candidate that unmarshals.
func extractPayload(raw string) (map[string]any, bool) {
	for start := 0; start < len(raw); {
		open := strings.IndexByte(raw[start:], '{')
		if open < 0 {
			return nil, false
		}
		open += start

		end, ok := matchBrace(raw, open)
		if !ok {
			return nil, false
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(raw[open:end+1]), &payload); err == nil {
			return payload, true
		}
		start = open + 1
	}
	return nil, false
}

func matchBrace(s string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asScore(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return defaultScore
}

func asStringSlice(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// asPrice accepts only a positive number; everything else means the persona
// stated no usable target, which stays nil rather than becoming zero.
func asPrice(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return n, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && f > 0 {
			return f, true
		}
	}
	return 0, false
}
