package llm

import "context"

// Provider is the completion service boundary. It takes a fully assembled
// instruction/context pair and returns generated text; everything inside the
// model is opaque to this codebase.
type Provider interface {
	Complete(ctx context.Context, systemInstruction string, prompt string) (string, error)
}
