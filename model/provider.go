package model

import (
	"context"
)

// Provider abstracts the hosted model implementations (Gemini, OpenAI,
// OpenRouter, Anthropic, Ollama) using linae's provider-agnostic types.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations can import model, and model can use the
// Provider interface without importing the provider package.
type Provider interface {
	// Generate sends one assembled request and returns the raw reply.
	Generate(ctx context.Context, req Request) (Reply, error)

	// ListModels returns available models for this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the currently selected model name used for API calls.
	GetModel() string

	// GetDisplayName returns the model name formatted for UI display.
	GetDisplayName() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// ContentRole is the speaker of one request content.
type ContentRole string

const (
	ContentUser  ContentRole = "user"
	ContentModel ContentRole = "model"
)

// Part is one piece of a content: text, or inline bytes tagged with a media type.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// IsInline reports whether the part carries binary data.
func (p Part) IsInline() bool {
	return len(p.Data) > 0
}

// Content is one ordered turn of the outbound request.
type Content struct {
	Role  ContentRole
	Parts []Part
}

// Request is the outbound payload handed to a Provider.
type Request struct {
	SystemInstruction string
	Contents          []Content
	Temperature       float32
	EnableRetrieval   bool
}

// Reply is the raw model answer plus any citations found in response metadata.
type Reply struct {
	Text      string
	Citations []Citation
}

// ModelInfo describes one selectable model.
type ModelInfo struct {
	Name         string // Display name (stripped for OpenRouter)
	Provider     string // Provider ID: "gemini", "openai", "openrouter", "anthropic", "ollama"
	InternalName string // Full API name (e.g., "meta-llama/llama-3.2-90b" for OpenRouter)
	Size         int64
}
