package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/ronnysplore/studio/pkg/ai/providers"
	"github.com/ronnysplore/studio/pkg/config"
	"github.com/ronnysplore/studio/pkg/logging"
	"github.com/ronnysplore/studio/pkg/palette"
	"github.com/ronnysplore/studio/pkg/runner"
	"github.com/ronnysplore/studio/pkg/version"
)

var errUsage = errors.New("usage: palette <image-file | data-uri>")

func main() {
	if err := run(context.Background(), os.Args[1:], config.GetConfigPath(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, configPath string, out io.Writer, opts ...runner.Option) error {
	if len(args) != 1 {
		return errUsage
	}

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

	mimeType, image, err := palette.LoadImage(args[0])
	if err != nil {
		return err
	}
	slog.Debug("palette_request", "version", version.Summary(), "mime_type", mimeType, "bytes", len(image))

	req, err := palette.NewRequest(cfg.Model, mimeType, image)
	if err != nil {
		return err
	}
	analysis, err := palette.Analyze(ctx, runner.New(cfg, opts...), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}
