// Package migrations embeds the schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pressly/goose/v3"
)

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS

// NewProvider returns a goose provider over the embedded migrations. A
// provider carries no package-level state, so several databases can be
// migrated at once.
func NewProvider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, FS)
	if err != nil {
		return nil, fmt.Errorf("new migration provider: %w", err)
	}
	return p, nil
}

// Run applies all pending migrations to db.
func Run(ctx context.Context, db *sql.DB) error {
	p, err := NewProvider(db)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Commands lists the names accepted by Command, in help order.
var Commands = []struct{ Name, Help string }{
	{"up", "Migrate to the latest version"},
	{"up-one", "Migrate one version up"},
	{"down", "Roll back one version"},
	{"redo", "Roll back and re-apply the latest version"},
	{"status", "Show migration status"},
	{"version", "Show current version"},
	{"reset", "Roll back all migrations"},
}

// ErrUnknownCommand is returned by Command for a name not in Commands.
var ErrUnknownCommand = errors.New("unknown command")

// Command runs the named migration command against p and writes what it
// did to out.
func Command(ctx context.Context, p *goose.Provider, name string, out io.Writer) error {
	var (
		results []*goose.MigrationResult
		err     error
	)
	switch name {
	case "up":
		results, err = p.Up(ctx)
	case "up-one":
		results, err = one(p.UpByOne(ctx))
	case "down":
		results, err = one(p.Down(ctx))
	case "redo":
		results, err = redo(ctx, p)
	case "reset":
		results, err = p.DownTo(ctx, 0)
	case "status":
		return printStatus(ctx, p, out)
	case "version":
		v, err := p.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		fmt.Fprintf(out, "version %d\n", v)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	for _, r := range results {
		fmt.Fprintf(out, "%-4s %05d %s (%s)\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration.Round(time.Millisecond))
	}
	if errors.Is(err, goose.ErrNoNextVersion) {
		fmt.Fprintln(out, "nothing to do")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "nothing to do")
	}
	return nil
}

func one(r *goose.MigrationResult, err error) ([]*goose.MigrationResult, error) {
	if r == nil {
		return nil, err
	}
	return []*goose.MigrationResult{r}, err
}

func redo(ctx context.Context, p *goose.Provider) ([]*goose.MigrationResult, error) {
	down, err := p.Down(ctx)
	if err != nil {
		return nil, err
	}
	up, err := p.UpByOne(ctx)
	if err != nil {
		return []*goose.MigrationResult{down}, err
	}
	return []*goose.MigrationResult{down, up}, nil
}

func printStatus(ctx context.Context, p *goose.Provider, out io.Writer) error {
	statuses, err := p.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED\tFILE")
	for _, s := range statuses {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%05d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	return tw.Flush()
}
