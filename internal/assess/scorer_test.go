package assess_test

import (
	"fmt"
	"testing"

	"github.com/archwell/leadlens-backend/internal/assess"
)

// ─── ParseAnswer ─────────────────────────────────────────────────────────────

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		answer string
		want   int
		wantOK bool
	}{
		{"5 - Strongly Agree", 5, true},
		{"5-Strongly Agree", 5, true},
		{"  3 - Neutral  ", 3, true},
		{"12+ months", 12, true},
		{"Strongly Agree", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"- 4", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			got, ok := assess.ParseAnswer(tt.answer)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseAnswer(%q) = (%d, %v), want (%d, %v)", tt.answer, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// ─── SumScore ────────────────────────────────────────────────────────────────

func benchmarkAnswers(value string) map[string]string {
	answers := make(map[string]string, 6)
	for i := 1; i <= 6; i++ {
		answers[fmt.Sprintf("q%d", i)] = value
	}
	return answers
}

func TestSumScore_AllFives(t *testing.T) {
	score := assess.SumScore(benchmarkAnswers("5 - Strongly Agree"))
	if score != 30 {
		t.Errorf("got %d, want 30", score)
	}
}

func TestSumScore_AllOnes(t *testing.T) {
	score := assess.SumScore(benchmarkAnswers("1 - Strongly Disagree"))
	if score != 6 {
		t.Errorf("got %d, want 6", score)
	}
}

func TestSumScore_MalformedAnswersContributeZero(t *testing.T) {
	answers := map[string]string{
		"q1": "5 - Strongly Agree",
		"q2": "not a number",
		"q3": "",
	}
	if got := assess.SumScore(answers); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}

func TestSumScore_EmptySetIsZero(t *testing.T) {
	if got := assess.SumScore(nil); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestSumScore_BenchmarkRange(t *testing.T) {
	// Every fully-answered benchmark set with values 1–5 lands in [6, 30].
	for v := 1; v <= 5; v++ {
		score := assess.SumScore(benchmarkAnswers(fmt.Sprintf("%d - Label", v)))
		if score < 6 || score > 30 {
			t.Errorf("value %d: score %d outside [6,30]", v, score)
		}
	}
}

// ─── Tier lookup ─────────────────────────────────────────────────────────────

func TestBenchmark30_BoundaryExactTiers(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{6, "AI-Emerging Leader"},
		{12, "AI-Emerging Leader"},
		{13, "AI-Aware Leader"},
		{18, "AI-Aware Leader"},
		{19, "AI-Confident Leader"},
		{24, "AI-Confident Leader"},
		{25, "AI-Orchestrator"},
		{30, "AI-Orchestrator"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("score=%d", tt.score), func(t *testing.T) {
			if got := assess.Benchmark30.Tier(tt.score); got != tt.want {
				t.Errorf("Tier(%d) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

func TestTier_MonotonicNonDecreasing(t *testing.T) {
	rank := map[string]int{
		"AI-Emerging Leader":  1,
		"AI-Aware Leader":     2,
		"AI-Confident Leader": 3,
		"AI-Orchestrator":     4,
	}
	prev := 0
	for score := 0; score <= 40; score++ {
		r := rank[assess.Benchmark30.Tier(score)]
		if r < prev {
			t.Fatalf("tier rank decreased at score %d", score)
		}
		prev = r
	}
}

func TestTierTables_Validate(t *testing.T) {
	for _, table := range []assess.TierTable{
		assess.Benchmark30,
		assess.Readiness100,
		assess.Literacy100,
		assess.Qualification100,
	} {
		if err := table.Validate(); err != nil {
			t.Errorf("%s: %v", table.Variant, err)
		}
	}
}

func TestTierTables_HundredPointCutoffs(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "Foundational"},
		{39, "Foundational"},
		{40, "Developing"},
		{60, "Scaling"},
		{80, "Transformation-Ready"},
		{100, "Transformation-Ready"},
	}
	for _, tt := range tests {
		if got := assess.Readiness100.Tier(tt.score); got != tt.want {
			t.Errorf("Readiness100.Tier(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestScoreAndTier_EndToEnd(t *testing.T) {
	score, tier := assess.ScoreAndTier(assess.VariantBenchmark, benchmarkAnswers("5 - Strongly Agree"))
	if score != 30 || tier != "AI-Orchestrator" {
		t.Errorf("got (%d, %q), want (30, AI-Orchestrator)", score, tier)
	}

	score, tier = assess.ScoreAndTier(assess.VariantBenchmark, benchmarkAnswers("1 - Strongly Disagree"))
	if score != 6 || tier != "AI-Emerging Leader" {
		t.Errorf("got (%d, %q), want (6, AI-Emerging Leader)", score, tier)
	}
}

func TestScoreAndTier_KeywordVariantsUseDimensions(t *testing.T) {
	// Free-text answers carry no leading digits; these variants must score
	// via their dimension composites, not the digit summer.
	readiness := map[string]string{
		"r1": "Our roadmap and strategy are reviewed by the board",
		"r2": "We run cloud automation with an API layer",
	}
	// business 50, technical 35+8+8+8=59, organizational 40,
	// strategic 30+12+10+6=58 → composite round(207/4)=52.
	score, tier := assess.ScoreAndTier(assess.VariantReadiness, readiness)
	if score != 52 || tier != "Developing" {
		t.Errorf("readiness: got (%d, %q), want (52, Developing)", score, tier)
	}

	literacy := map[string]string{
		"l1": "I use ChatGPT daily in my workflow",
		"l2": "Aware of bias and privacy, pushing for governance",
	}
	// fundamentals 40, practical 35+12+8+6=61, ethical 45+10+10+8=73,
	// strategic 30 → composite round(204/4)=51.
	score, tier = assess.ScoreAndTier(assess.VariantLiteracy, literacy)
	if score != 51 || tier != "Explorer" {
		t.Errorf("literacy: got (%d, %q), want (51, Explorer)", score, tier)
	}
}

func TestScoreAndTier_KeywordVariantsEmptyAnswersScoreBase(t *testing.T) {
	// Empty input lands on the base composite, never 0.
	score, tier := assess.ScoreAndTier(assess.VariantReadiness, nil)
	if score != 39 || tier != "Foundational" {
		t.Errorf("readiness: got (%d, %q), want (39, Foundational)", score, tier)
	}

	score, tier = assess.ScoreAndTier(assess.VariantLiteracy, map[string]string{})
	if score != 38 || tier != "Novice" {
		t.Errorf("literacy: got (%d, %q), want (38, Novice)", score, tier)
	}
}

// ─── Keyword-bag dimensions ──────────────────────────────────────────────────

func TestDimension_EmptyAnswersReturnBase(t *testing.T) {
	for _, d := range assess.ReadinessDimensions {
		if got := d.Score(nil); got != d.Base {
			t.Errorf("%s: empty answers scored %d, want base %d", d.Name, got, d.Base)
		}
	}
}

func TestDimension_KeywordMatchIsCaseInsensitive(t *testing.T) {
	d := assess.Dimension{
		Name: "test",
		Base: 50,
		Rules: []assess.KeywordRule{
			{Keyword: "roadmap", Delta: 12},
		},
	}
	answers := map[string]string{"q1": "We have a ROADMAP for next year"}
	if got := d.Score(answers); got != 62 {
		t.Errorf("got %d, want 62", got)
	}
}

func TestDimension_NegativeDeltaAndFloor(t *testing.T) {
	d := assess.Dimension{
		Name: "test",
		Base: 10,
		Rules: []assess.KeywordRule{
			{Keyword: "no plan", Delta: -12},
			{Keyword: "not sure", Delta: -8},
		},
	}
	answers := map[string]string{"q1": "no plan, not sure about anything"}
	if got := d.Score(answers); got != 0 {
		t.Errorf("got %d, want 0 (clamped)", got)
	}
}

func TestDimension_AllPositiveKeywordsClampTo100(t *testing.T) {
	// An answer set matching every positive keyword must not exceed 100.
	for _, d := range append(append([]assess.Dimension{}, assess.ReadinessDimensions...), assess.LiteracyDimensions...) {
		var text string
		for _, r := range d.Rules {
			text += r.Keyword + " "
		}
		answers := map[string]string{"q1": text}
		got := d.Score(answers)
		if got < 0 || got > 100 {
			t.Errorf("%s: score %d outside [0,100]", d.Name, got)
		}
	}
}

func TestDimension_Idempotent(t *testing.T) {
	answers := map[string]string{
		"q1": "Our data strategy includes a roadmap and team training",
		"q2": "We run weekly experiments with prompt engineering",
	}
	for _, d := range assess.ReadinessDimensions {
		first := d.Score(answers)
		second := d.Score(answers)
		if first != second {
			t.Errorf("%s: scores differ across calls: %d vs %d", d.Name, first, second)
		}
	}
}

func TestComposite(t *testing.T) {
	scores := map[string]int{"a": 50, "b": 61}
	if got := assess.Composite(scores); got != 56 { // 55.5 rounds up
		t.Errorf("got %d, want 56", got)
	}
	if got := assess.Composite(nil); got != 0 {
		t.Errorf("empty: got %d, want 0", got)
	}
}

// ─── Disqualification ────────────────────────────────────────────────────────

func TestDisqualified(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"Senior Student Researcher", true},
		{"student", true},
		{"Currently Unemployed", true},
		{"VP of Engineering", false},
		{"Chief Executive Officer", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := assess.Disqualified(tt.role); got != tt.want {
				t.Errorf("Disqualified(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}
