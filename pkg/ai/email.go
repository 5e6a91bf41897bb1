package ai

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const emailContextLimit = 4000

// toneInstructions maps a requested tone to the drafting instruction.
// Unknown tones fall back to professional.
var toneInstructions = map[string]string{
	"professional":  "Use a professional, respectful tone.",
	"assertive":     "Use a confident, assertive tone while remaining respectful.",
	"collaborative": "Use a collaborative, partnership-focused tone.",
	"friendly":      "Use a friendly and warm but still professional tone.",
	"concise":       "Be concise and to-the-point while remaining polite.",
}

// Email is a drafted negotiation email.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tone    string `json:"tone"`
}

// GenerateNegotiationEmail drafts a negotiation email for the contract.
// Provider errors degrade to a generic draft so the endpoint always has
// something to return.
func (c *Client) GenerateNegotiationEmail(ctx context.Context, contractText, tone string, issues []string) *Email {
	if tone == "" {
		tone = "professional"
	}

	instruction, ok := toneInstructions[tone]
	if !ok {
		instruction = toneInstructions["professional"]
	}

	issuesText := ""
	if len(issues) > 0 {
		issuesText = fmt.Sprintf("Specific issues to address: %s\n", strings.Join(issues, ", "))
	}

	prompt := fmt.Sprintf(`Based on this contract, draft a negotiation email.

Contract excerpt:
%s

%sTone: %s

Return JSON with keys subject and body only.`,
		truncate(contractText, emailContextLimit), issuesText, instruction)

	content, err := c.complete(ctx, "", prompt)
	if err != nil {
		c.logger.Warn("email generation failed, returning fallback draft")
		return fallbackEmail(tone, err)
	}

	var email Email
	if err := extractJSON(content, &email); err != nil {
		return fallbackEmail(tone, err)
	}
	email.Tone = tone
	return &email
}

func fallbackEmail(tone string, err error) *Email {
	title := cases.Title(language.English).String(tone)
	return &Email{
		Subject: fmt.Sprintf("Contract Review and Discussion - %s Approach", title),
		Body:    fmt.Sprintf("I've reviewed the contract and would like to discuss some key points. Error in AI generation: %v", err),
		Tone:    tone,
	}
}
