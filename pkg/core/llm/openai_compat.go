package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// ChatCompletionsProvider talks to any endpoint speaking the OpenAI
// /chat/completions dialect. OpenAI, DeepSeek, Kimi (Moonshot) and Doubao
// (Volcengine Ark) all do.
type ChatCompletionsProvider struct {
	Name         string
	BaseURL      string   // without the /chat/completions suffix
	APIKeyEnv    []string // checked in order
	DefaultModel string
	Client       *http.Client
}

var _ Provider = (*ChatCompletionsProvider)(nil)

func NewOpenAIProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		Name:         "openai",
		BaseURL:      "https://api.openai.com/v1",
		APIKeyEnv:    []string{"OPENAI_API_KEY"},
		DefaultModel: "gpt-4o-mini",
	}
}

func NewDeepSeekProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		Name:         "deepseek",
		BaseURL:      "https://api.deepseek.com",
		APIKeyEnv:    []string{"DEEPSEEK_API_KEY"},
		DefaultModel: "deepseek-chat",
	}
}

func NewKimiProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		Name:         "kimi",
		BaseURL:      "https://api.moonshot.cn/v1",
		APIKeyEnv:    []string{"MOONSHOT_API_KEY", "KIMI_API_KEY"},
		DefaultModel: "moonshot-v1-8k",
	}
}

func NewDoubaoProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		Name:         "doubao",
		BaseURL:      "https://ark.cn-beijing.volces.com/api/v3",
		APIKeyEnv:    []string{"ARK_API_KEY", "DOUBAO_API_KEY"},
		DefaultModel: "doubao-1-5-pro-32k-250115",
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (p *ChatCompletionsProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := resolveAPIKey(options, p.APIKeyEnv...)
	if apiKey == "" {
		return "", fmt.Errorf("%s: %w (set %s)", p.Name, ErrNoAPIKey, strings.Join(p.APIKeyEnv, " or "))
	}

	model := p.DefaultModel
	if val := optString(options, OptModel); val != "" {
		model = val
	}

	reqBody := chatRequest{
		Model:       model,
		Temperature: optFloat(options, OptTemperature, 0.7),
		MaxTokens:   optInt(options, OptMaxTokens, 2048),
	}
	if systemPrompt != "" {
		reqBody.Messages = append(reqBody.Messages, ChatMessage{Role: "system", Content: systemPrompt})
	}
	reqBody.Messages = append(reqBody.Messages, ChatMessage{Role: "user", Content: prompt})

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", p.Name, err)
	}

	url := strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", p.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	slog.Debug("chat completion request", "component", "llm", "provider", p.Name, "model", model)
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: api call: %w", p.Name, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", p.Name, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: api returned status %d: %s", p.Name, res.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%s: unmarshal response: %w", p.Name, err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("%s: api error: %s", p.Name, response.Error.Message)
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: %w", p.Name, ErrEmptyResponse)
	}

	return response.Choices[0].Message.Content, nil
}

func (p *ChatCompletionsProvider) AdaptInstructions(raw string) string {
	return raw
}
