package provider_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"linae/model"
	"linae/provider"
	"linae/provider/testutil"
)

// ExampleNewProvider demonstrates creating an Ollama provider using the factory.
func ExampleNewProvider() {
	p, err := provider.NewProvider(context.Background(), provider.Config{
		Type:    provider.ProviderTypeOllama,
		BaseURL: "http://localhost:11434",
		Model:   "llava",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Provider created: %T\n", p)
	// Output: Provider created: *provider.OllamaProvider
}

// ExampleNewOllamaProvider demonstrates creating an Ollama provider directly.
func ExampleNewOllamaProvider() {
	p, err := provider.NewOllamaProvider("http://localhost:11434", "llava")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Current model: %s\n", p.GetModel())

	p.SetModel("llama3.2-vision:latest")
	fmt.Printf("New model: %s\n", p.GetModel())

	// Output:
	// Current model: llava
	// New model: llama3.2-vision:latest
}

// ExampleGateway_Resolve shows a reply wrapped in a code fence coming back
// as a structured result.
func ExampleGateway_Resolve() {
	mock := testutil.NewMockProvider("mock")
	mock.GenerateFunc = func(ctx context.Context, req model.Request) (model.Reply, error) {
		return model.Reply{Text: testutil.FencedReply}, nil
	}

	gw := provider.NewStaticGateway(mock, 5*time.Second, nil)
	res, err := gw.Resolve(context.Background(), testutil.TextRequest("Hello"))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.ResonanceScore, res.Intervention)
	fmt.Println(res.FinalResponse)
	// Output:
	// 91 false
	// Here is the considered answer.
}

// ExampleConfig demonstrates different provider configurations.
func ExampleConfig() {
	geminiCfg := provider.Config{
		Type:   provider.ProviderTypeGemini,
		Model:  "gemini-2.5-flash",
		APIKey: "AIza...", // From GEMINI_API_KEY
	}

	ollamaCfg := provider.Config{
		Type:    provider.ProviderTypeOllama,
		BaseURL: "http://localhost:11434",
		Model:   "llava",
		// APIKey is not used for Ollama
	}

	anthropicCfg := provider.Config{
		Type:   provider.ProviderTypeAnthropic,
		Model:  "claude-sonnet-4-5-20250929",
		APIKey: "sk-ant-...",
	}

	fmt.Printf("Gemini: %s\n", geminiCfg.Type)
	fmt.Printf("Ollama: %s\n", ollamaCfg.Type)
	fmt.Printf("Anthropic: %s\n", anthropicCfg.Type)

	// Output:
	// Gemini: gemini
	// Ollama: ollama
	// Anthropic: anthropic
}
