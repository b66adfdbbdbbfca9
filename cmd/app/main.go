package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/daymark/internal"
	"github.com/starford/daymark/internal/engine"
	"github.com/starford/daymark/internal/journal"
	"github.com/starford/daymark/internal/mcpserver"
	"github.com/starford/daymark/internal/storage"
	pkgconfig "github.com/starford/daymark/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// buildEngine wires storage, journal, and the stamp engine for one-shot
// commands that run without the HTTP server and watcher.
func buildEngine(cfg *internal.Config) (*engine.Service, storage.Provider, *journal.DB, error) {
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := journal.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init journal: %w", err)
	}
	eng := engine.NewService(store, db, cfg.Stamp.PolicyOptions(), cfg.Stamp.IndentWidth)
	return eng, store, db, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runStamp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, _, db, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("all") {
		stamped, skipped, err := eng.Sweep(ctx, func(path string, err error) {
			fmt.Fprintf(os.Stderr, "skipped %s: %v\n", path, err)
		})
		if err != nil {
			return err
		}
		fmt.Printf("stamped %d documents, skipped %d\n", stamped, skipped)
		return nil
	}

	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: daymark stamp <path> (or --all)")
	}

	res, err := eng.AddToday(ctx, path)
	if err != nil {
		return err
	}
	if res.Written {
		fmt.Printf("stamped %s with %s\n", res.Path, res.DayTag)
	} else {
		fmt.Printf("%s already carries %s\n", res.Path, res.DayTag)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, store, db, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return mcpserver.New(eng, store, db).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "daymark",
		Usage:  "Frontmatter stamping service: creation/modification timestamps and date-visited tags for Markdown vaults",
		Action: run,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:      "stamp",
				Usage:     "Stamp today's date-visited tag into one note, or backfill the whole vault",
				ArgsUsage: "<path>",
				Action:    runStamp,
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Sweep the vault and stamp every note missing creation metadata",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP stamping tools over stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
