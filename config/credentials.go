package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned when the configured provider needs a
// credential and none is present in the environment.
var ErrMissingAPIKey = errors.New("API key not found in environment")

// apiKeyEnv lists, per provider ID, the variables checked in order.
var apiKeyEnv = map[string][]string{
	"gemini":     {"GEMINI_API_KEY", "LINAE_API_KEY"},
	"google":     {"GEMINI_API_KEY", "LINAE_API_KEY"},
	"openai":     {"OPENAI_API_KEY", "LINAE_API_KEY"},
	"openrouter": {"OPENROUTER_API_KEY", "LINAE_API_KEY"},
	"anthropic":  {"ANTHROPIC_API_KEY", "LINAE_API_KEY"},
}

// LoadEnvFile loads .env from the working directory if one exists.
// Variables already set in the process environment win.
func LoadEnvFile() error {
	if !FileExists(".env") {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// RequiresAPIKey reports whether providerID authenticates with a key.
func RequiresAPIKey(providerID string) bool {
	_, ok := apiKeyEnv[providerID]
	return ok
}

// APIKeyEnvVars returns the variables consulted for providerID.
func APIKeyEnvVars(providerID string) []string {
	return apiKeyEnv[providerID]
}

// APIKey returns the credential for providerID. Providers that need none
// (ollama) return an empty key and no error.
func APIKey(providerID string) (string, error) {
	vars, ok := apiKeyEnv[providerID]
	if !ok {
		return "", nil
	}
	for _, name := range vars {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, vars[0])
}
