package enrich

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchema is the contract the provider's answer must satisfy
// before it is attached to a run. Unknown extra fields are tolerated;
// missing or mistyped required fields are not.
const responseSchema = `{
  "type": "object",
  "required": ["insights", "impacts", "summaries"],
  "properties": {
    "insights": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["change_id", "semantic_label", "risk_direction", "explanation", "confidence", "citations_to_facts"],
        "properties": {
          "change_id": {"type": "string"},
          "semantic_label": {"type": "string"},
          "risk_direction": {"type": "string"},
          "explanation": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "citations_to_facts": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "impacts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["trigger_change_id", "impacted_clause_id", "impact_summary", "why_linked", "confidence"],
        "properties": {
          "trigger_change_id": {"type": "string"},
          "impacted_clause_id": {"type": "string"},
          "impact_summary": {"type": "string"},
          "why_linked": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "summaries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "bullets", "backing_change_ids"],
        "properties": {
          "type": {"type": "string", "enum": ["executive", "negotiation", "economics", "definitions"]},
          "bullets": {"type": "array", "items": {"type": "string"}},
          "backing_change_ids": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var compiledSchema *gojsonschema.Schema

func init() {
	var err error
	compiledSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		panic(fmt.Sprintf("enrich: compile response schema: %v", err))
	}
}

// ValidateResponse checks a JSON document against the response schema.
func ValidateResponse(doc string) error {
	result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("validate enrichment: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("enrichment response rejected: %s", strings.Join(msgs, "; "))
}
