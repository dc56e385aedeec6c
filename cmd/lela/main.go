package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joestump/lela/internal/config"
	"github.com/joestump/lela/internal/console"
	"github.com/joestump/lela/internal/prompt"
	"github.com/joestump/lela/internal/session"
)

// exit is swapped out by tests that drive the signal path.
var exit = os.Exit

func main() {
	rootCmd := newRootCmd(viper.New(), session.Options{})
	if err := rootCmd.Execute(); err != nil {
		console.New(os.Stdout, os.Stderr, config.Preamble, 0).Error(err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper, opts session.Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lela",
		Short:         "A small conversational shell that remembers you",
		Version:       config.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Unknown flags are ignored rather than rejected.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loadDotEnv(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, opts)
		},
	}

	f := rootCmd.Flags()
	f.StringP("db", "d", config.DefaultDatabaseURI, "database URI")
	f.String("history", config.DefaultHistoryFile, "prompt history file")
	f.Duration("typing-delay", config.DefaultTypingDelay, "pause after each line lela says")
	f.Duration("poll-interval", config.DefaultPollInterval, "sleep between session loop iterations")
	f.Int64("seed", 0, "random seed for dialogue phrasing (0 picks one from the clock)")
	f.BoolP("verbose", "v", false, "enable debug logging")
	f.String("config", "", "optional config file (toml, yaml or json)")

	// Viper keys use underscores so they match the env var suffix after
	// stripping the LELA_ prefix.
	bindFlag := func(viperKey, flagName string) {
		_ = v.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("db", "db")
	bindFlag("history", "history")
	bindFlag("typing_delay", "typing-delay")
	bindFlag("poll_interval", "poll-interval")
	bindFlag("seed", "seed")
	bindFlag("verbose", "verbose")

	config.SetDefaults(v)
	v.SetEnvPrefix("LELA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return rootCmd
}

// loadDotEnv exports a .env from the working directory before viper reads
// the environment. Variables already set win. A missing file is normal.
func loadDotEnv(cmd *cobra.Command) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s> WARN: .env: %v\n", config.Preamble, err)
	}
}

func run(cmd *cobra.Command, v *viper.Viper, opts session.Options) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	logger.Debug("lela starting",
		zap.String("version", config.Version),
		zap.String("db", cfg.DB.URI),
		zap.String("history", cfg.HistoryFile))

	if opts.In == nil {
		in, err := prompt.Open(console.Prompt(cfg.Preamble), cfg.HistoryFile, session.Commands())
		if err != nil {
			return err
		}
		opts.In = in
	}
	if opts.Out == nil {
		opts.Out = cmd.OutOrStdout()
	}
	if opts.Err == nil {
		opts.Err = cmd.ErrOrStderr()
	}
	opts.Logger = logger

	s := session.New(cfg, opts)
	defer s.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	release := context.AfterFunc(ctx, func() { shutdown(s, logger) })
	defer release()

	return s.Run(ctx)
}

// shutdown runs when the process is interrupted. The session is usually
// parked in a blocking read that never sees the context, so it is closed
// (database first, then the reader) and the process exits here.
func shutdown(s *session.Session, logger *zap.Logger) {
	logger.Debug("interrupted, shutting down")
	if err := s.Close(); err != nil {
		logger.Warn("close session", zap.Error(err))
	}
	_ = logger.Sync()
	exit(0)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}
