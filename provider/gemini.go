package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"linae/model"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface using the Google GenAI SDK
// against the Gemini API backend.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	baseURL string
}

// NewGeminiProvider creates a new Gemini provider instance.
//
// Parameters:
//   - baseURL: optional API endpoint override (empty uses the SDK default)
//   - apiKey: Gemini API key (required)
//   - model: initial model to use (default: "gemini-2.5-flash")
//
// Returns an error if the API key is missing or the client cannot be created.
func NewGeminiProvider(ctx context.Context, baseURL, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Generate implements Provider.Generate. When retrieval is enabled the
// Google Search tool is attached and grounding chunks come back as citations.
func (p *GeminiProvider) Generate(ctx context.Context, req model.Request) (model.Reply, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, ConvertToGeminiContents(req), geminiConfig(req))
	if err != nil {
		return model.Reply{}, fmt.Errorf("Gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return model.Reply{}, fmt.Errorf("Gemini returned no candidates: %w", ErrEmptyReply)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return model.Reply{}, fmt.Errorf("Gemini candidate finished with %q: %w", resp.Candidates[0].FinishReason, ErrEmptyReply)
	}

	return model.Reply{
		Text:      text,
		Citations: geminiCitations(resp),
	}, nil
}

// geminiConfig builds the per-call generation settings.
func geminiConfig(req model.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.EnableRetrieval {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else {
		// JSON mode cannot be combined with the search tool.
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// geminiCitations collects web grounding chunks from the first candidate.
func geminiCitations(resp *genai.GenerateContentResponse) []model.Citation {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var out []model.Citation
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out = append(out, model.Citation{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return dedupeCitations(out)
}

// ListModels implements Provider.ListModels. Only models that support
// generateContent are returned.
func (p *GeminiProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := p.client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to list Gemini models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Items))
	for _, m := range page.Items {
		if !supportsGenerate(m.SupportedActions) {
			continue
		}
		name := strings.TrimPrefix(m.Name, "models/")
		result = append(result, model.ModelInfo{
			Name:         name,
			InternalName: name,
			Provider:     "gemini",
		})
	}

	return result, nil
}

func supportsGenerate(actions []string) bool {
	if len(actions) == 0 {
		return true
	}
	for _, a := range actions {
		if a == "generateContent" {
			return true
		}
	}
	return false
}

// GetModel implements Provider.GetModel.
func (p *GeminiProvider) GetModel() string {
	return p.model
}

// GetDisplayName implements Provider.GetDisplayName.
func (p *GeminiProvider) GetDisplayName() string {
	return p.model
}

// SetModel implements Provider.SetModel.
func (p *GeminiProvider) SetModel(model string) {
	p.model = model
}

// Ping implements Provider.Ping by listing a single model.
func (p *GeminiProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	if err != nil {
		return fmt.Errorf("Gemini ping failed: %w", err)
	}
	return nil
}
