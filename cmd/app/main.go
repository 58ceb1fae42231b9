package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/postconf/internal"
	"github.com/starford/postconf/internal/index"
	pkgconfig "github.com/starford/postconf/pkg/config"
)

var version = "dev"

// postFlags seed the initial post. They override the config file's defaults.
func postFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "title",
			Aliases: []string{"t"},
			Usage:   "Post title",
			Sources: cli.EnvVars("POSTCONF_TITLE"),
		},
		&cli.StringFlag{
			Name:    "date",
			Aliases: []string{"d"},
			Usage:   "Publication date as YYYY-MM-DD (default: today)",
			Sources: cli.EnvVars("POSTCONF_DATE"),
		},
		&cli.StringSliceFlag{
			Name:    "categories",
			Aliases: []string{"c"},
			Usage:   "Comma-separated categories",
			Sources: cli.EnvVars("POSTCONF_CATEGORIES"),
		},
		&cli.StringSliceFlag{
			Name:    "tags",
			Usage:   "Comma-separated tags",
			Sources: cli.EnvVars("POSTCONF_TAGS"),
		},
		outputDirFlag(),
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "Path to config file (optional)",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func outputDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output-dir",
		Aliases: []string{"o"},
		Usage:   "Directory posts are saved into (default: current directory)",
		Sources: cli.EnvVars("POSTCONF_OUTPUT_DIR"),
	}
}

// splitList trims list items and drops empty ones, so "a, b,," is [a b].
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// loadConfig layers the config file's defaults, then POSTCONF_* env vars,
// then flags. cli resolves env against flags; a set value replaces the file's.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("title") {
		cfg.Defaults.Title = cmd.String("title")
	}
	if cmd.IsSet("date") {
		cfg.Defaults.Date = cmd.String("date")
	}
	if cmd.IsSet("categories") {
		cfg.Defaults.Categories = splitList(cmd.StringSlice("categories"))
	}
	if cmd.IsSet("tags") {
		cfg.Defaults.Tags = splitList(cmd.StringSlice("tags"))
	}
	if cmd.IsSet("output-dir") {
		cfg.Output.Dir = cmd.String("output-dir")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func runNew(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunNew(ctx, opts...); err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	filter := index.ListFilter{
		Limit:    int(cmd.Int("limit")),
		Tag:      cmd.String("tag"),
		Category: cmd.String("category"),
	}
	return internal.RunList(ctx, filter, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "postconf",
		Usage:   "Prepare blog post metadata and save it as Markdown with YAML front matter",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "new",
				Usage:  "Save one post from flags and config defaults, then exit",
				Flags:  postFlags(),
				Action: runNew,
			},
			{
				Name:   "serve",
				Usage:  "Edit a post over HTTP with live events and an index of saved posts",
				Flags:  postFlags(),
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Edit a post through MCP tools on stdin/stdout",
				Flags:  postFlags(),
				Action: runMCP,
			},
			{
				Name:  "list",
				Usage: "List saved posts, newest first",
				Flags: []cli.Flag{
					outputDirFlag(),
					&cli.StringFlag{Name: "tag", Usage: "Only posts with this tag"},
					&cli.StringFlag{Name: "category", Usage: "Only posts in this category"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of posts", Value: 50},
				},
				Action: runList,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
