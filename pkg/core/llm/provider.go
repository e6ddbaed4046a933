// Package llm holds the text-generation backends used for the narrative
// commentary. Every backend satisfies Provider.
package llm

import (
	"context"
	"errors"
	"os"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// Option keys understood by the providers.
const (
	OptModel       = "model"
	OptAPIKey      = "api_key"
	OptTemperature = "temperature"
	OptMaxTokens   = "max_tokens"
)

var (
	ErrNoAPIKey      = errors.New("llm: API key not configured")
	ErrEmptyResponse = errors.New("llm: empty response")
)

func optString(options map[string]interface{}, key string) string {
	if val, ok := options[key].(string); ok {
		return val
	}
	return ""
}

func optFloat(options map[string]interface{}, key string, def float64) float64 {
	switch v := options[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

func optInt(options map[string]interface{}, key string, def int) int {
	switch v := options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// resolveAPIKey prefers an explicit option, then the first non-empty env var.
func resolveAPIKey(options map[string]interface{}, envVars ...string) string {
	if key := optString(options, OptAPIKey); key != "" {
		return key
	}
	for _, name := range envVars {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
