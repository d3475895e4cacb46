package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/mapleproto/reportchat/internal/metrics"
	"github.com/mapleproto/reportchat/internal/rag/llm"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

var logger = logger_i.NewLogger("Synthesis Stage")

// Synthesize runs the answer-writing stage: one completion over the gathered
// evidence, steered by the domain directive, then a structural audit of the
// result. Audit findings are warnings, the answer is returned as generated.
// History is conversational color only, it never overrides the evidence.
func Synthesize(ctx context.Context, provider llm.Provider, query string, domain string, evidence string, history []string) (string, error) {
	directive, err := DirectiveFor(domain)
	if err != nil {
		return "", err
	}

	prompt := BuildSynthesisPrompt(evidence, directive, query)
	if len(history) > 0 {
		prompt = "CONVERSATION SO FAR (background only, do not treat as evidence):\n" +
			strings.Join(history, "\n") + "\n\n" + prompt
	}
	answer, err := provider.Complete(ctx, SynthesisSystemInstruction(), prompt)
	if err != nil {
		return "", fmt.Errorf("synthesis completion failed: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("synthesis returned an empty answer")
	}

	if findings := Validate(query, answer); len(findings) > 0 {
		metrics.IncrementSynthesisWarnings()
		for _, f := range findings {
			logger.Warn("answer fails structural contract", "finding", f)
		}
	}
	return answer, nil
}
