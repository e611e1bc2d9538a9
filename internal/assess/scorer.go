package assess

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// leadingDigits extracts the numeric prefix of an answer such as
// "4 - Agree" or "4-Agree". Answers without a numeric prefix score 0.
var leadingDigits = regexp.MustCompile(`^(\d+)`)

// ParseAnswer returns the leading integer of an answer string, or 0 and false
// when the answer has no numeric prefix. Whitespace is trimmed first.
func ParseAnswer(answer string) (int, bool) {
	m := leadingDigits.FindString(strings.TrimSpace(answer))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Only possible on overflow of an absurdly long digit run.
		return 0, false
	}
	return n, true
}

// SumScore sums the leading integers of every answer value. Answers that do
// not parse contribute nothing — malformed input is silently excluded rather
// than raised as an error, and an empty answer set scores 0.
//
// No clamp is applied here: for the 6-question benchmark the result is
// naturally bounded to 6–30 when every answer parses. Bounds enforcement
// belongs to the tier table, whose lookup is total over all integers.
func SumScore(answers map[string]string) int {
	total := 0
	for _, v := range answers {
		n, ok := ParseAnswer(v)
		if !ok {
			continue
		}
		total += n
	}
	return total
}

// ScoreAndTier is the one-call entry point the completion handler and worker
// use: score the answers with the variant's scorer and classify against its
// tier table. Keyword-bag variants composite their dimension scores; the
// sum-based variants sum leading digits.
func ScoreAndTier(v Variant, answers map[string]string) (score int, tier string) {
	if dims := DimensionsFor(v); dims != nil {
		score = Composite(ScoreDimensions(dims, answers))
	} else {
		score = SumScore(answers)
	}
	return score, TableFor(v).Tier(score)
}

// ─── KEYWORD-BAG DIMENSION SCORING ───────────────────────────────────────────

// KeywordRule adds Delta to a dimension score when Keyword appears
// (case-insensitively) anywhere in the concatenated free-text answers.
// Deltas may be negative.
type KeywordRule struct {
	Keyword string
	Delta   int
}

// Dimension is a keyword-bag heuristic scorer: a fixed base plus the deltas
// of every matching rule, clamped to [0,100] as the final step. Rules are
// additive, so match order never affects the result.
type Dimension struct {
	Name  string
	Base  int
	Rules []KeywordRule
}

// Score evaluates the dimension against an answer set. The concatenation is
// rebuilt deterministically (keys sorted) although the additive rules make
// the result order-insensitive anyway. An empty answer set returns Base.
func (d Dimension) Score(answers map[string]string) int {
	text := concatAnswers(answers)
	score := d.Base
	for _, r := range d.Rules {
		if strings.Contains(text, strings.ToLower(r.Keyword)) {
			score += r.Delta
		}
	}
	return clamp100(score)
}

// ScoreDimensions evaluates every dimension in one pass and returns
// name → score. Used by the readiness and literacy variants, which report a
// per-dimension breakdown alongside the headline composite.
func ScoreDimensions(dims []Dimension, answers map[string]string) map[string]int {
	out := make(map[string]int, len(dims))
	for _, d := range dims {
		out[d.Name] = d.Score(answers)
	}
	return out
}

// Composite averages a dimension score map to a single 0–100 value, rounded
// to nearest. Returns 0 for an empty map.
func Composite(scores map[string]int) int {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return int(float64(total)/float64(len(scores)) + 0.5)
}

func concatAnswers(answers map[string]string) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(strings.ToLower(answers[k]))
		sb.WriteString(" ")
	}
	return sb.String()
}

// clamp100 constrains a composite to [0, 100]. Applied last, after all
// keyword deltas have accumulated.
func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
