package llm

import "context"

// GenerationRequest is one conversational turn handed to a Generator.
// History excludes the current user message.
type GenerationRequest struct {
	Mode    string
	History []Message
	Content string
}

type GenerationResult struct {
	Metadata map[string]interface{}
}

// Generator produces an answer as a sequence of fragments. onFragment is
// called sequentially; a Generator must stop and return the error when
// onFragment fails.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest, onFragment func(fragment string) error) (*GenerationResult, error)
}
