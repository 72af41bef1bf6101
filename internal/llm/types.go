package llm

import "context"

// Generator is the external text-generation collaborator: it turns a prompt
// into a reply and condenses long passages into short summaries.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
}
