package domain

import "context"

// Completer is the LLM collaborator boundary: one prompt in, free text
// out. Implementations return ErrUpstream-wrapped errors when the call
// itself fails; callers own validation of whatever text comes back.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
