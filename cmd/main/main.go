package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	jsonOutput bool
}

// app is the per-invocation state of a command: its configuration, logger
// and output stream.
type app struct {
	config *Config
	logger *slog.Logger
	out    io.Writer
	json   bool
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "hillwatch",
		Short:         "Tweet analytics and Markov chain tweet generator for News from the Hill",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = Version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "path to the JSON or YAML config file")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		usersCmd(opts),
		tweetsCmd(opts),
		wordcloudCmd(opts),
		generateCmd(opts),
		importCmd(opts),
		exportCmd(opts),
		statsCmd(opts),
		versionCmd(opts),
	)
	return root
}

func defaultConfigPath() string {
	if path := os.Getenv("HILLWATCH_CONFIG"); path != "" {
		return path
	}
	return "./config.json"
}

// newApp loads the configuration and sets up logging for a command.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	bootLogger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelInfo}))

	config, err := LoadConfig(opts.configPath, bootLogger)
	if err != nil {
		return nil, err
	}

	logger := newLogger(config.LogLevel, cmd.ErrOrStderr())
	logger.Debug("Configuration loaded", "path", opts.configPath)

	return &app{
		config: config,
		logger: logger,
		out:    cmd.OutOrStdout(),
		json:   opts.jsonOutput,
	}, nil
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// render writes payload as indented JSON when --json is set, and calls text
// otherwise.
func (a *app) render(payload any, text func(w io.Writer) error) error {
	if a.json {
		encoder := json.NewEncoder(a.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}
	return text(a.out)
}
