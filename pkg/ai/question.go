package ai

import (
	"context"
	"fmt"
)

// AnswerContractQuestion answers a question using only the contract text.
func (c *Client) AnswerContractQuestion(ctx context.Context, question, contractText string) (string, error) {
	prompt := fmt.Sprintf(`Answer the question using ONLY the contract text.
If the answer is not present, say "The contract does not specify." Do not invent facts.

Question: %s

Contract Text:
%s`, question, truncate(contractText, analysisContextLimit))

	answer, err := c.complete(ctx, "", prompt)
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}
	return answer, nil
}
