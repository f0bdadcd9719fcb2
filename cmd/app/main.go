package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/halvard/dagaz/internal"
	"github.com/halvard/dagaz/internal/attachment"
	"github.com/halvard/dagaz/internal/db"
	"github.com/halvard/dagaz/internal/journal"
	"github.com/halvard/dagaz/internal/mcpserver"
	"github.com/halvard/dagaz/internal/storage"
	pkgconfig "github.com/halvard/dagaz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// No config file is fine for local use; defaults apply.
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	database, err := db.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer database.Close()

	// MCP logs go to stderr; stdout carries the protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	attachments := attachment.NewService(database, store, cfg.Uploads.MaxBytes, logger)
	journalSvc := journal.NewService(database, attachments, logger, nil)

	return mcpserver.New(journalSvc, attachments, cfg.Auth.Owner).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "dagaz",
		Usage:  "Personal journaling server with structured Markdown entries and image attachments",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tool interface over stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
