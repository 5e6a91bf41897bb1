package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

const (
	analysisContextLimit = 12000

	analysisSystemPrompt = "You are a legal AI assistant specializing in contract analysis. " +
		"Always return STRICT valid JSON with the exact schema requested."

	analysisPromptTemplate = `Analyze the following contract and provide a comprehensive analysis in JSON format.

Contract Text:
%s

Return exactly this JSON structure:
{
  "summary": "Brief 3-4 bullet point summary (use - bullets separated by newlines)",
  "key_clauses": [
    {
      "type": "Payment Terms",
      "content": "extracted clause text",
      "importance": "high|medium|low"
    }
  ],
  "risks": [
    {
      "risk_type": "Financial Risk",
      "description": "description of the risk",
      "severity": "high|medium|low",
      "clause_reference": "relevant clause"
    }
  ],
  "risk_score": 0
}

Notes:
- Focus on payment terms, deadlines, termination, liability/indemnity, IP, confidentiality, dispute resolution, force majeure.
- risk_score is 0-100 (0 very safe, 100 very risky).`
)

// KeyClause is a notable clause extracted from the contract.
type KeyClause struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	Importance string `json:"importance"`
}

// Risk is a potential problem the analysis flagged.
type Risk struct {
	RiskType        string `json:"risk_type"`
	Description     string `json:"description"`
	Severity        string `json:"severity"`
	ClauseReference string `json:"clause_reference"`
}

// Analysis is the structured result of a contract analysis.
type Analysis struct {
	Summary    string      `json:"summary"`
	KeyClauses []KeyClause `json:"key_clauses"`
	Risks      []Risk      `json:"risks"`
	RiskScore  int         `json:"risk_score"`
}

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// extractJSON unmarshals a model response into v, unwrapping an optional
// fenced code block first.
func extractJSON(text string, v any) error {
	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		text = match[1]
	}
	return json.Unmarshal([]byte(text), v)
}

// AnalyzeContract runs the structured analysis prompt over the contract
// text. An unparseable model response degrades to a placeholder analysis
// rather than an error, so one malformed completion does not fail the
// whole upload.
func (c *Client) AnalyzeContract(ctx context.Context, contractText string) (*Analysis, error) {
	prompt := fmt.Sprintf(analysisPromptTemplate, truncate(contractText, analysisContextLimit))

	content, err := c.complete(ctx, analysisSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai analysis failed: %w", err)
	}

	var analysis Analysis
	if err := extractJSON(content, &analysis); err != nil {
		c.logger.Warn("analysis response was not valid JSON")
		return fallbackAnalysis(), nil
	}
	if analysis.KeyClauses == nil {
		analysis.KeyClauses = []KeyClause{}
	}
	if analysis.Risks == nil {
		analysis.Risks = []Risk{}
	}
	return &analysis, nil
}

func fallbackAnalysis() *Analysis {
	return &Analysis{
		Summary:    "Contract analysis completed, but formatting error occurred.",
		KeyClauses: []KeyClause{},
		Risks: []Risk{{
			RiskType:        "Analysis Error",
			Description:     "Could not parse AI response",
			Severity:        "low",
			ClauseReference: "N/A",
		}},
		RiskScore: 50,
	}
}
