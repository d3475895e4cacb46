package agent

import (
	"context"
	"encoding/json"
	"strings"
)

// Tool is a typed capability: a named operation taking exactly one required
// string argument and returning a string. The harness owns the call budget -
// a tool is consumed after its first use, so a second invocation is
// structurally impossible no matter what the generated text asks for.
type Tool struct {
	Name string
	Run  func(ctx context.Context, query string) (string, error)
}

type toolInput struct {
	Query string `json:"query"`
}

// parseToolCall scans model output for an Action/Action Input pair targeting
// the given tool. The Action Input must be a JSON object with a single
// "query" string; anything malformed counts as no tool use (single attempt,
// no retries).
func parseToolCall(output string, toolName string) (string, bool) {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		action, ok := strings.CutPrefix(strings.TrimSpace(line), "Action:")
		if !ok || strings.TrimSpace(action) != toolName {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			input, ok := strings.CutPrefix(strings.TrimSpace(lines[j]), "Action Input:")
			if !ok {
				continue
			}
			var parsed toolInput
			if err := json.Unmarshal([]byte(strings.TrimSpace(input)), &parsed); err != nil {
				return "", false
			}
			if parsed.Query == "" {
				return "", false
			}
			return parsed.Query, true
		}
		return "", false
	}
	return "", false
}

// extractFinalAnswer pulls the text after a "Final Answer:" marker, or falls
// back to the whole output with scaffolding lines stripped.
func extractFinalAnswer(output string) string {
	if idx := strings.Index(output, "Final Answer:"); idx != -1 {
		return strings.TrimSpace(output[idx+len("Final Answer:"):])
	}

	var kept []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Thought:") ||
			strings.HasPrefix(trimmed, "Action:") ||
			strings.HasPrefix(trimmed, "Action Input:") ||
			strings.HasPrefix(trimmed, "Observation:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
