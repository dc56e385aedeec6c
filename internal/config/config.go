package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const (
	// DefaultDatabaseURI is used when neither --db nor LELA_DB is given.
	DefaultDatabaseURI = "file:lela.db?cache=shared"
	// DefaultHistoryFile holds prompt history between sessions.
	DefaultHistoryFile = ".lela_history"
	// Preamble prefixes every console line and the input prompt.
	Preamble = "lela"

	DefaultTypingDelay  = 80 * time.Millisecond
	DefaultPollInterval = 5 * time.Millisecond
)

// OpenFlags mirrors the SQLite open flags used for the profile store.
type OpenFlags struct {
	Create    bool
	ReadWrite bool
}

// Mode returns the SQLite URI "mode" parameter for the flags.
func (f OpenFlags) Mode() string {
	switch {
	case f.ReadWrite && f.Create:
		return "rwc"
	case f.ReadWrite:
		return "rw"
	default:
		return "ro"
	}
}

// Database holds the store configuration.
type Database struct {
	URI   string
	Flags OpenFlags
}

// Config holds all runtime configuration for lela. It is built once by Load
// and never mutated afterwards.
type Config struct {
	DB           Database
	HistoryFile  string
	Preamble     string
	TypingDelay  time.Duration
	PollInterval time.Duration
	Seed         int64
	Verbose      bool
}

// SetDefaults registers lela's defaults with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db", DefaultDatabaseURI)
	v.SetDefault("history", DefaultHistoryFile)
	v.SetDefault("typing_delay", DefaultTypingDelay)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("seed", int64(0))
	v.SetDefault("verbose", false)
}

// Load reads configuration from viper, which merges flag values, env vars,
// an optional config file and defaults (set up by the cobra command in
// cmd/lela).
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DB: Database{
			URI:   strings.TrimSpace(v.GetString("db")),
			Flags: OpenFlags{Create: true, ReadWrite: true},
		},
		HistoryFile:  v.GetString("history"),
		Preamble:     Preamble,
		TypingDelay:  v.GetDuration("typing_delay"),
		PollInterval: v.GetDuration("poll_interval"),
		Seed:         v.GetInt64("seed"),
		Verbose:      v.GetBool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that required fields are set.
func (c Config) Validate() error {
	if c.DB.URI == "" {
		return errors.New("database uri not set")
	}
	if c.TypingDelay < 0 {
		return fmt.Errorf("typing delay must be >= 0, got %s", c.TypingDelay)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must be >= 0, got %s", c.PollInterval)
	}
	return nil
}
