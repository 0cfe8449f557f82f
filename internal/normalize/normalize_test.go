package normalize

import (
	"errors"
	"testing"
)

func TestParsePlainPayload(t *testing.T) {
	raw := `{"score": 5, "rationale": "Strong momentum.", "risks": ["valuation"], "sources": ["10-K"], "target_price": 90000, "target_date": "6 months", "price_rationale": "25x forward earnings"}`

	op, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if op.Score != 5 {
		t.Fatalf("score = %d, want 5", op.Score)
	}
	if op.Target == nil || op.Target.Price != 90000 || op.Target.Date != "6 months" {
		t.Fatalf("target = %+v, want 90000 / 6 months", op.Target)
	}
	if len(op.Risks) != 1 || op.Risks[0] != "valuation" {
		t.Fatalf("risks = %v", op.Risks)
	}
	if op.PriceRationale != "25x forward earnings" {
		t.Fatalf("price rationale = %q", op.PriceRationale)
	}
}

func TestParseToleratesSurroundingProse(t *testing.T) {
	raw := "Sure! Here is my analysis:\n```json\n" +
		`{"score": 2, "rationale": "Macro headwinds, brace yourself {literally}.", "risks": []}` +
		"\n```\nLet me know if you need more."

	op, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if op.Score != 2 {
		t.Fatalf("score = %d, want 2", op.Score)
	}
	if op.Target != nil {
		t.Fatalf("expected no target, got %+v", op.Target)
	}
}

func TestParseBracesInsideStrings(t *testing.T) {
	raw := `{"score": 4, "rationale": "pattern {a:{b}} holds", "risks": ["none"]}`
	op, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if op.Rationale != "pattern {a:{b}} holds" {
		t.Fatalf("rationale = %q", op.Rationale)
	}
}

func TestParseNoPayload(t *testing.T) {
	if _, err := Parse("I cannot answer that in the requested format."); !errors.Is(err, ErrNoPayload) {
		t.Fatalf("expected ErrNoPayload, got %v", err)
	}
	if _, err := Parse(""); !errors.Is(err, ErrNoPayload) {
		t.Fatalf("expected ErrNoPayload for empty input, got %v", err)
	}
	if _, err := Parse("{unclosed"); !errors.Is(err, ErrNoPayload) {
		t.Fatalf("expected ErrNoPayload for unbalanced braces, got %v", err)
	}
}

func TestMalformedFieldsDegradeToDefaults(t *testing.T) {
	raw := `{"score": "not-a-number", "rationale": 42, "risks": "oops", "sources": [1, "filing"], "target_price": "free", "target_date": "soon"}`

	op, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse should not fail on malformed fields: %v", err)
	}
	if op.Score != 3 {
		t.Fatalf("malformed score should default to 3, got %d", op.Score)
	}
	if op.Rationale != "" {
		t.Fatalf("non-string rationale should degrade to empty, got %q", op.Rationale)
	}
	if len(op.Risks) != 0 {
		t.Fatalf("malformed risks should degrade to empty slice, got %v", op.Risks)
	}
	if len(op.Sources) != 1 || op.Sources[0] != "filing" {
		t.Fatalf("sources should keep string entries only, got %v", op.Sources)
	}
	if op.Target != nil {
		t.Fatalf("unparseable price must leave target absent, got %+v", op.Target)
	}
}

func TestScoreClamping(t *testing.T) {
	for raw, want := range map[string]int{
		`{"score": 0}`:  1,
		`{"score": -3}`: 1,
		`{"score": 9}`:  5,
		`{"score": 3}`:  3,
	} {
		op, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%s): %v", raw, err)
		}
		if op.Score != want {
			t.Fatalf("Parse(%s) score = %d, want %d", raw, op.Score, want)
		}
	}
}

func TestZeroAndNegativePricesAreAbsent(t *testing.T) {
	for _, raw := range []string{
		`{"score": 3, "target_price": 0}`,
		`{"score": 3, "target_price": -50}`,
	} {
		op, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%s): %v", raw, err)
		}
		if op.Target != nil {
			t.Fatalf("non-positive price must not become a target: %s", raw)
		}
	}
}

func TestStringNumericFieldsCoerce(t *testing.T) {
	op, err := Parse(`{"score": "4", "target_price": "85000.5"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if op.Score != 4 {
		t.Fatalf("score = %d, want 4", op.Score)
	}
	if op.Target == nil || op.Target.Price != 85000.5 {
		t.Fatalf("target = %+v, want 85000.5", op.Target)
	}
}
