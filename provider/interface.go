// Package provider adapts hosted model APIs to linae's provider-agnostic
// request and reply types.
//
// Every adapter implements model.Provider. The session never talks to an
// adapter directly: it goes through the Gateway, which applies the request
// timeout, maps transport failures to the disconnected record and runs the
// reply through the normalizer.
//
// # Supported Providers
//
//   - Gemini (default) via google.golang.org/genai, with Google Search
//     grounding when retrieval is enabled
//   - OpenAI via openai-go
//   - OpenRouter via openai-go against the OpenRouter base URL, with
//     retrieval through the ":online" model suffix
//   - Anthropic via anthropic-sdk-go
//   - Ollama via the local ollama client (no API key)
//
// # Type Conversions
//
// Each adapter owns the mapping from model.Request to its SDK's message
// shapes. Shared helpers live in conversions.go.
//
// # Usage
//
//	cfg := provider.Config{
//	    Type:   provider.ProviderTypeGemini,
//	    Model:  "gemini-2.5-flash",
//	    APIKey: key,
//	}
//	p, err := provider.NewProvider(ctx, cfg)
//	if err != nil {
//	    // handle error
//	}
//	reply, err := p.Generate(ctx, req)
package provider

// Note: The Provider interface is defined in the model package
// (model/provider.go) to avoid import cycles. This package implements model.Provider.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeGemini     ProviderType = "gemini"
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // Unused for Ollama
}
