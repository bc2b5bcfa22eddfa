package inference

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/clausewise/backend/internal/models"
)

// ErrInvalidResult wraps schema violations in engine output.
var ErrInvalidResult = errors.New("invalid analysis result")

// Result is the shape every engine must return.
type Result struct {
	Summary     string              `json:"summary"`
	RiskScore   float64             `json:"risk_score"`
	RiskClauses []models.RiskClause `json:"risk_clauses"`
}

// resultSchema is the contract between the worker and any Engine
// implementation. Enforced before results touch a job.
const resultSchema = `{
	"type": "object",
	"required": ["summary", "risk_score", "risk_clauses"],
	"additionalProperties": false,
	"properties": {
		"summary": {"type": "string", "minLength": 1},
		"risk_score": {"type": "number", "minimum": 0, "maximum": 1},
		"risk_clauses": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["clause_text", "risk_level"],
				"additionalProperties": false,
				"properties": {
					"clause_text": {"type": "string", "minLength": 1},
					"risk_level": {"enum": ["LOW", "MEDIUM", "HIGH"]},
					"explanation": {"type": "string"}
				}
			}
		}
	}
}`

// ResultValidator checks raw engine output against the result schema.
type ResultValidator struct {
	schema *jsonschema.Schema
}

func NewResultValidator() (*ResultValidator, error) {
	sch, err := jsonschema.CompileString("https://clausewise.dev/schemas/analysis-result", resultSchema)
	if err != nil {
		return nil, fmt.Errorf("compile result schema: %w", err)
	}
	return &ResultValidator{schema: sch}, nil
}

// Parse validates raw output and decodes it into a Result.
func (v *ResultValidator) Parse(raw json.RawMessage) (*Result, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: not JSON: %v", ErrInvalidResult, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	return &res, nil
}
