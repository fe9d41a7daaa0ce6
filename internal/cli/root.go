// Package cli wires the studentpress command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"studentpress/internal/config"
	"studentpress/internal/moderation"
	"studentpress/internal/storage"
)

// Version is set at build time with -ldflags "-X studentpress/internal/cli.Version=...".
var Version = "dev"

// app carries state shared by subcommands once the root pre-run has loaded it.
type app struct {
	cfgFile  string
	dbPath   string
	logLevel string
	rules    string

	cfg *config.Config
	log *slog.Logger
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "studentpress",
		Short: "Comment moderation and draft housekeeping for the student press",
		Long: `studentpress gates reader comments through a rule-based moderation engine
and removes drafts whose content has already been submitted for review.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (DATABASE_PATH, LOG_LEVEL, RECONCILE_*, ...)
  3. .env.local, then .env in the working directory
  4. Config file (--config)
  5. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	pf.StringVar(&a.dbPath, "db", "", "path to sqlite database (overrides DATABASE_PATH)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pf.StringVar(&a.rules, "rules", "", "moderation rules YAML (overrides MODERATION_RULES)")

	root.AddCommand(
		newReconcileCmd(a),
		newModerateCmd(a),
		newAuditCmd(a),
		newCommentCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	config.LoadDotEnv("")

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DatabasePath = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("rules") {
		cfg.ModerationRules = a.rules
	}

	a.cfg = cfg
	a.log = newLogger(cfg.LogLevel)
	return nil
}

func (a *app) openStore() (*storage.SQLite, error) {
	if dir := filepath.Dir(a.cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	store, err := storage.NewSQLite(a.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.cfg.DatabasePath, err)
	}
	return store, nil
}

func (a *app) engine() (*moderation.Engine, error) {
	rules := moderation.DefaultRules()
	if a.cfg.ModerationRules != "" {
		var err error
		rules, err = moderation.LoadRules(a.cfg.ModerationRules)
		if err != nil {
			return nil, err
		}
	}
	return moderation.New(rules)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "studentpress %s\n", Version)
		},
	}
}
