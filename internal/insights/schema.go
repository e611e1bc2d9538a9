package insights

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// insightsSchema is the required-fields contract for generated insights.
// Providers are prompted to match it, but models drift; anything that fails
// validation is discarded in favour of the deterministic fallback rather
// than reaching the renderer half-formed.
const insightsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["growth_readiness", "leadership_stage", "key_focus", "roadmap_initiatives"],
  "properties": {
    "growth_readiness": {"type": "string", "minLength": 1},
    "leadership_stage": {"type": "string", "minLength": 1},
    "key_focus":        {"type": "string", "minLength": 1},
    "roadmap_initiatives": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "description", "timeframe"],
        "properties": {
          "title":       {"type": "string", "minLength": 1},
          "description": {"type": "string", "minLength": 1},
          "timeframe":   {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var compiledInsightsSchema = mustCompileSchema(insightsSchema)

func mustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("insights: invalid embedded schema: %v", err))
	}
	return schema
}

// ValidateInsights checks a generated Insights value against the schema.
// Returns a single error summarising every violated field.
func ValidateInsights(in Insights) error {
	result, err := compiledInsightsSchema.Validate(gojsonschema.NewGoLoader(in))
	if err != nil {
		return fmt.Errorf("insights: schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("insights: response failed schema validation: %s", strings.Join(msgs, "; "))
}

// ValidatePortfolioInsights applies the portfolio contract: at least one
// non-empty observation.
func ValidatePortfolioInsights(observations []string) error {
	if len(observations) == 0 {
		return fmt.Errorf("insights: portfolio response contained no observations")
	}
	for i, o := range observations {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("insights: portfolio observation %d is empty", i)
		}
	}
	return nil
}
