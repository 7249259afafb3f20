package discovery

import "context"

// ItemsRequest is a provider-agnostic request for structured content: a
// natural-language instruction, the system-level framing, and the number of
// items the instruction asks for.
type ItemsRequest struct {
	Instruction string
	System      string
	Count       int
}

// ContentProvider is the thin interface an AI backend adapter implements.
// GenerateItems must constrain the backend to the content-item array schema
// and parse the response; a parse failure is a provider error. Chat sends the
// prior turns plus the new message and returns unstructured text.
type ContentProvider interface {
	Name() string
	GenerateItems(ctx context.Context, req ItemsRequest) ([]ContentItem, error)
	Chat(ctx context.Context, system string, history []ChatTurn, message string) (string, error)
}
