package provider

import (
	"context"
	"fmt"
	"strings"

	"linae/model"
	"linae/ollama"
)

// OllamaProvider wraps ollama.Client to implement the Provider interface.
//
// Ollama runs locally and needs no API key. It has no retrieval tool, so
// EnableRetrieval is ignored and replies never carry citations.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: The Ollama server URL (e.g., "http://localhost:11434").
//     If empty, defaults to "http://localhost:11434".
//   - model: The model name to use. If empty, defaults to a vision model
//     so image attachments work out of the box.
//
// Returns an error if the baseURL is invalid.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{
		client: client,
	}, nil
}

// Generate implements Provider.Generate.
//
// A request carrying images fails when the selected model is not known
// to accept them, rather than silently answering without the picture.
func (p *OllamaProvider) Generate(ctx context.Context, req model.Request) (model.Reply, error) {
	messages := ConvertToOllamaMessages(req)
	for _, m := range messages {
		if len(m.Images) > 0 && !p.client.SupportsImages() {
			return model.Reply{}, fmt.Errorf("Ollama model %q does not accept images", p.client.GetModel())
		}
	}

	text, err := p.client.Chat(ctx, messages, req.Temperature)
	if err != nil {
		return model.Reply{}, fmt.Errorf("Ollama request failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return model.Reply{}, fmt.Errorf("Ollama: %w", ErrEmptyReply)
	}
	return model.Reply{Text: text}, nil
}

// ListModels implements Provider.ListModels.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	infos, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.ModelInfo, len(infos))
	for i, m := range infos {
		result[i] = model.ModelInfo{
			Name:         m.Name,
			InternalName: m.Name, // Ollama uses same name for display and API
			Size:         m.Size,
			Provider:     "ollama",
		}
	}
	return result, nil
}

// GetModel implements Provider.GetModel.
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// GetDisplayName implements Provider.GetDisplayName.
//
// For Ollama, the display name is the same as the model name (no vendor prefix).
func (p *OllamaProvider) GetDisplayName() string {
	return p.client.GetModel()
}

// SetModel implements Provider.SetModel.
func (p *OllamaProvider) SetModel(model string) {
	p.client.SetModel(model)
}

// Ping implements Provider.Ping.
//
// Checks if the Ollama server is reachable by listing local models.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
