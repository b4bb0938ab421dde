package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"catalog_bot/migrations"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command> [version]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  up          Apply all pending migrations")
	fmt.Fprintln(os.Stderr, "  up-one      Apply the next pending migration")
	fmt.Fprintln(os.Stderr, "  down        Roll back the latest migration")
	fmt.Fprintln(os.Stderr, "  down-to N   Roll back to version N (0 drops the catalog schema)")
	fmt.Fprintln(os.Stderr, "  status      List migrations and when they were applied")
	fmt.Fprintln(os.Stderr, "  version     Print the current schema version")
}

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/catalog.db"), "path to sqlite database")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	p, err := migrations.NewProvider(db)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	cmd := args[0]
	switch cmd {
	case "up":
		var res []*goose.MigrationResult
		res, err = p.Up(ctx)
		printResults(res)
	case "up-one":
		var r *goose.MigrationResult
		r, err = p.UpByOne(ctx)
		printResults([]*goose.MigrationResult{r})
	case "down":
		var r *goose.MigrationResult
		r, err = p.Down(ctx)
		printResults([]*goose.MigrationResult{r})
	case "down-to":
		if len(args) < 2 {
			log.Fatal("down-to: version is required")
		}
		version, perr := strconv.ParseInt(args[1], 10, 64)
		if perr != nil || version < 0 {
			log.Fatalf("down-to: invalid version %q", args[1])
		}
		var res []*goose.MigrationResult
		res, err = p.DownTo(ctx, version)
		printResults(res)
	case "status":
		err = printStatus(ctx, p)
	case "version":
		var v int64
		v, err = p.GetDBVersion(ctx)
		if err == nil {
			fmt.Printf("version %d\n", v)
		}
	default:
		usage()
		log.Fatalf("unknown command: %s", cmd)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func printResults(res []*goose.MigrationResult) {
	if len(res) == 0 {
		fmt.Println("nothing to do")
		return
	}
	for _, r := range res {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Printf("%-4s %05d %s (%s)\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration.Round(time.Millisecond))
	}
}

func printStatus(ctx context.Context, p *goose.Provider) error {
	statuses, err := p.Status(ctx)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		applied := "pending"
		if s.State == goose.StateApplied {
			applied = s.AppliedAt.Local().Format(time.DateTime)
		}
		fmt.Printf("%05d %-30s %s\n", s.Source.Version, s.Source.Path, applied)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
