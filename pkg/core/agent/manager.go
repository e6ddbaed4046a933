package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"

	"finmodel/pkg/core/llm"
)

// Agent types routed through the manager.
const (
	AgentNarrative = "narrative"
)

var ErrUnknownProvider = errors.New("agent: unknown provider")

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string  `yaml:"provider"` // Optional override
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Description string  `yaml:"description"`
}

// LoadConfig reads a models.yaml routing file. A missing file yields the
// zero Config so the caller can fall back to defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

// NewManager wires every known provider. Unset ActiveProvider defaults to openai.
func NewManager(config Config) *Manager {
	if config.ActiveProvider == "" {
		config.ActiveProvider = "openai"
	}
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"openai":        llm.NewOpenAIProvider(),
			"deepseek":      llm.NewDeepSeekProvider(),
			"kimi":          llm.NewKimiProvider(),
			"doubao":        llm.NewDoubaoProvider(),
			"qwen":          &llm.QwenProvider{},
			"gemini":        &llm.GeminiProvider{},
			"gemini_legacy": &llm.GeminiLegacyProvider{},
		},
	}
}

// Register adds or replaces a provider under name.
func (m *Manager) Register(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

// GetProvider resolves the provider for an agent type: agent override first,
// then the global active provider.
func (m *Manager) GetProvider(agentType string) (llm.Provider, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p, agentConfig.Provider, nil
		}
		slog.Warn("agent provider override not found, using active provider",
			"component", "agent", "agent", agentType, "provider", agentConfig.Provider)
	}

	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p, m.config.ActiveProvider, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnknownProvider, m.config.ActiveProvider)
}

// ExecutePrompt handles instruction adaptation before sending to the model
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string) (string, error) {
	provider, name, err := m.GetProvider(agentType)
	if err != nil {
		return "", err
	}

	options := map[string]interface{}{}
	m.mu.RLock()
	if ac, ok := m.config.Agents[agentType]; ok {
		if ac.Model != "" {
			options[llm.OptModel] = ac.Model
		}
		if ac.Temperature != 0 {
			options[llm.OptTemperature] = ac.Temperature
		}
		if ac.MaxTokens != 0 {
			options[llm.OptMaxTokens] = ac.MaxTokens
		}
	}
	m.mu.RUnlock()

	slog.Debug("execute prompt", "component", "agent", "agent", agentType, "provider", name)

	adaptedSystemPrompt := provider.AdaptInstructions(rawSystemPrompt)
	return provider.GenerateResponse(ctx, rawPrompt, adaptedSystemPrompt, options)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, newProvider)
	}
	m.config.ActiveProvider = newProvider
	slog.Info("global provider switched", "component", "agent", "provider", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Available lists registered provider names, sorted.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
