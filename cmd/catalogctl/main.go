package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"catalog_bot/internal/catalog"
	"catalog_bot/internal/console"
	"catalog_bot/internal/fetcher"
	"catalog_bot/internal/filter"
	"catalog_bot/internal/scheduler"
	"catalog_bot/internal/storage"
	"catalog_bot/internal/view"
)

var dbPath string

func main() {
	defaultDB := os.Getenv("DATABASE_PATH")
	if defaultDB == "" {
		defaultDB = "./data/catalog.db"
	}

	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Manage and browse the item catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "database path")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(importFeedCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(browseCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStore() (*storage.SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return storage.NewSQLite(dbPath)
}

func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()

	cat, _, err := scheduler.LoadStored(ctx, s)
	return cat, err
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored catalog with a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			cat, err := scheduler.ImportFile(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items in %d categories from %s\n",
				cat.Len(), len(cat.Categories())-1, args[0])
			return nil
		},
	}
}

func importFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-feed <url>",
		Short: "Replace the stored catalog with the entries of an RSS or Atom feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			cat, err := scheduler.ImportFeed(cmd.Context(), s, fetcher.New(http.DefaultClient), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items in %d categories from %s\n",
				cat.Len(), len(cat.Categories())-1, args[0])
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the stored catalog as a catalog file (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				data, err := catalog.Encode(cat)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := catalog.WriteFile(args[0], cat); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d items to %s\n", cat.Len(), args[0])
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	var category, query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			if !cat.HasCategory(category) {
				return fmt.Errorf("%w: %q", view.ErrUnknownCategory, category)
			}

			items := filter.Apply(cat.Items(), category, query)
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No items match.")
				return nil
			}
			console.WriteTable(out, items)
			fmt.Fprintf(out, "\n%d of %d items\n", len(items), cat.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "All", "only items in this category")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only items matching this text")
	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with their item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cat.Categories() {
				n := len(filter.Apply(cat.Items(), c, ""))
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %d\n", c, n)
			}
			return nil
		},
	}
}

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			return runBrowser(cmd.OutOrStdout(), cat)
		},
	}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".catalogctl_history")
}

func runBrowser(out io.Writer, cat *catalog.Catalog) error {
	sess := console.New(view.New(cat, nil), out)

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(sess.Complete)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if path := historyFile(); path != "" {
			if f, err := os.Create(path); err == nil { //nolint:gosec // path under the user's home
				_, _ = line.WriteHistory(f)
				_ = f.Close()
			}
		}
	}()

	fmt.Fprintf(out, "%d items in %d categories. Type 'help' for commands.\n", cat.Len(), len(cat.Categories())-1)

	for {
		input, err := line.Prompt(sess.Prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if sess.Exec(input) {
			return nil
		}
	}
}
