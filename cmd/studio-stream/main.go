package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ronnysplore/studio/pkg/ai"
	_ "github.com/ronnysplore/studio/pkg/ai/providers"
	"github.com/ronnysplore/studio/pkg/config"
	"github.com/ronnysplore/studio/pkg/conversation"
	"github.com/ronnysplore/studio/pkg/logging"
	"github.com/ronnysplore/studio/pkg/runner"
	"github.com/ronnysplore/studio/pkg/version"
)

func main() {
	if err := run(context.Background(), config.GetConfigPath()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, opts ...runner.Option) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", configPath, err)
	}

	if _, err := logging.Init(cfg); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	slog.Debug("startup", "version", version.Summary(), "config_path", configPath, "backend", cfg.Backend)

	req := ai.ChatRequest{
		Model:        cfg.Model,
		Conversation: conversation.DemoConversation(),
		Config:       conversation.DemoGenerationConfig(),
	}
	return runner.New(cfg, opts...).Run(ctx, req)
}
