package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"studentpress/internal/config"
	"studentpress/internal/storage"
	"studentpress/migrations"
)

var errUsage = errors.New("usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

// run parses args and applies one migration command. The database path
// defaults to the configured DATABASE_PATH.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	config.LoadDotEnv("")

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgFile := fs.String("config", "", "config file (YAML)")
	dbPath := fs.String("db", "", "path to sqlite database (overrides DATABASE_PATH)")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		usage(stderr)
		return errUsage
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	p, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}
	return migrations.Command(ctx, p, fs.Arg(0), stdout)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: migrate [-config file] [-db path] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range migrations.Commands {
		fmt.Fprintf(w, "  %-10s  %s\n", c.Name, c.Help)
	}
}
