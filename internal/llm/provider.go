package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one prompt to a model vendor and returns what came back.
type Provider interface {
	// Generate runs req. When req.Schema is set the vendor's structured
	// output mode is requested, but the content is returned untouched:
	// whether it parses and conforms is for the caller to decide.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, after friendly-name resolution.
	ModelID() string
}

// Request is a single-turn or multi-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema constrains the reply through the vendor's native mechanism.
	Schema *Schema

	MaxTokens int

	// Temperature is sent only when positive.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a JSON Schema plus the name vendors and the compile cache key
// it by, e.g. "lesson_ai_content_bilingual".
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a vendor reply.
type Response struct {
	// Content is the model's text. With a Schema it is meant to be a JSON
	// document; nothing guarantees it is one.
	Content json.RawMessage

	Usage Usage

	// Model is the model that served the call, which may be a dated
	// snapshot of ModelID.
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Usage counts tokens for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
