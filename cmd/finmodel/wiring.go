package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finmodel/pkg/core/agent"
	"finmodel/pkg/core/config"
	"finmodel/pkg/core/narrative"
	"finmodel/pkg/core/pipeline"
	"finmodel/pkg/core/prompt"
	"finmodel/pkg/core/session"
	"finmodel/pkg/core/store"
)

// newOrchestrator builds the pipeline with the configured horizon cap.
func newOrchestrator(cfg *config.Config, narrator pipeline.NarrativeGenerator) *pipeline.Orchestrator {
	orch := pipeline.NewOrchestrator(narrator)
	orch.SetMaxHorizon(cfg.Limits.MaxHorizon)
	return orch
}

func buildAgentManager(cfg *config.Config) *agent.Manager {
	agentCfg, err := agent.LoadConfig(cfg.LLM.ModelsFile)
	if err != nil {
		slog.Warn("model routing not loaded, using defaults", "component", "agent", "error", err)
	}
	return agent.NewManager(agentCfg)
}

// buildNarrator returns nil when the narrative is disabled so the pipeline
// skips the step entirely.
func buildNarrator(cfg *config.Config, mgr *agent.Manager) pipeline.NarrativeGenerator {
	if cfg.LLM.Disabled {
		return nil
	}

	registry := prompt.Get()
	if err := prompt.LoadFromDirectory(registry, cfg.Prompts.Dir); err != nil {
		slog.Warn("prompt library not loaded, using built-in prompts", "component", "prompt", "error", err)
	}

	return &narrative.Generator{
		Executor: mgr,
		Prompts:  registry,
		Timeout:  cfg.LLM.Timeout(),
	}
}

// buildSessionStore picks the session backend. The returned func releases it.
func buildSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return session.NewMemoryStore(), func() {}, nil
	case "postgres":
		pool, err := store.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := store.NewPGSessionStore(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func writeWorkbook(dir string, out *pipeline.Outcome) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, out.Filename)
	if err := os.WriteFile(path, out.Workbook, 0o644); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}
	slog.Info("workbook written", "component", "report", "run_id", out.RunID, "path", path)
	return path, nil
}

func logServe(addr string) {
	slog.Info("api listening", "component", "api", "addr", addr,
		"routes", []string{
			"POST /api/projection",
			"POST /api/projection/report",
			"GET  /api/config",
			"POST /api/config/switch",
		})
}
