package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clausewise/backend/internal/models"
)

// Engine produces a raw analysis result for a running job. Implementations
// are external collaborators; the worker validates their output against
// ResultSchema before applying it.
type Engine interface {
	Analyze(ctx context.Context, doc *models.Document, mdl *models.Model, depth string) (json.RawMessage, error)
}

// riskTerms maps lowercase keywords to the level they flag. Covers the EN/RU
// contract vocabulary the service targets.
var riskTerms = map[string]string{
	"penalty":       models.RiskHigh,
	"liquidated":    models.RiskHigh,
	"indemnif":      models.RiskHigh,
	"unlimited":     models.RiskHigh,
	"штраф":         models.RiskHigh,
	"неустойка":     models.RiskHigh,
	"termination":   models.RiskMedium,
	"terminate":     models.RiskMedium,
	"liability":     models.RiskMedium,
	"расторжение":   models.RiskMedium,
	"ответственность": models.RiskMedium,
	"renewal":       models.RiskLow,
	"notice":        models.RiskLow,
	"уведомление":   models.RiskLow,
}

var levelWeight = map[string]float64{
	models.RiskLow:    0.1,
	models.RiskMedium: 0.25,
	models.RiskHigh:   0.5,
}

// HeuristicEngine is the shipped keyword-based analyzer. It stands in for a
// real language model behind the same Engine boundary.
type HeuristicEngine struct{}

func NewHeuristicEngine() *HeuristicEngine { return &HeuristicEngine{} }

func (e *HeuristicEngine) Analyze(_ context.Context, doc *models.Document, mdl *models.Model, depth string) (json.RawMessage, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("document %s has no extracted text", doc.ID)
	}

	sentences := splitSentences(doc.Text)
	clauses := []models.RiskClause{} // marshals as [] when nothing is flagged
	score := 0.0
	for _, s := range sentences {
		level, term := classify(s)
		if level == "" {
			continue
		}
		clauses = append(clauses, models.RiskClause{
			ClauseText:  s,
			RiskLevel:   level,
			Explanation: fmt.Sprintf("matched term %q", term),
		})
		score += levelWeight[level]
	}
	if score > 1 {
		score = 1
	}

	result := Result{
		Summary:     summarize(mdl.Name, sentences, depth),
		RiskScore:   score,
		RiskClauses: clauses,
	}
	return json.Marshal(result)
}

// classify returns the highest risk level any term assigns to the sentence.
func classify(sentence string) (level, term string) {
	lower := strings.ToLower(sentence)
	best := 0.0
	for t, l := range riskTerms {
		if strings.Contains(lower, t) && levelWeight[l] > best {
			best = levelWeight[l]
			level, term = l, t
		}
	}
	return level, term
}

func summarize(modelName string, sentences []string, depth string) string {
	switch depth {
	case models.DepthBrief:
		return fmt.Sprintf("[%s] %s", modelName, firstN(sentences, 1))
	case models.DepthDetailed:
		return fmt.Sprintf("[%s] %s", modelName, firstN(sentences, 5))
	default: // BULLET
		n := len(sentences)
		if n > 3 {
			n = 3
		}
		var b strings.Builder
		fmt.Fprintf(&b, "[%s]\n", modelName)
		for _, s := range sentences[:n] {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		return strings.TrimRight(b.String(), "\n")
	}
}

func firstN(sentences []string, n int) string {
	if len(sentences) < n {
		n = len(sentences)
	}
	return strings.Join(sentences[:n], " ")
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	out := raw[:0]
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
