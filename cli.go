package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// cliOptions holds the global flags values.
type cliOptions struct {
	configFile string
	envFile    string
}

func (o *cliOptions) load() (*Config, error) {
	return LoadAndInitConfigs(o.configFile, o.envFile, GitCommit, GitTag, BuildTime)
}

// NewRootCommand builds the command line interface. Without
// subcommand the api server is started.
func NewRootCommand() *cobra.Command {
	opts := &cliOptions{}
	rootCmd := &cobra.Command{
		Use:   "book-catalog",
		Short: "Book catalog api server and tools",
		Long: `Book catalog serves a paginated and searchable catalog of books over http
and generates book descriptions with an OpenAI compatible provider.

Examples:
  # Start the api server
  book-catalog serve --config ./config.yml

  # Load books from a yaml file, removing existing ones first
  book-catalog seed --file ./books.yml --reset

  # Generate a description
  book-catalog describe "Dune by Frank Herbert"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "./config.yml", "configuration file path")
	rootCmd.PersistentFlags().StringVarP(&opts.envFile, "env", "e", "./config.env", "optional environment file path")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newSeedCommand(opts),
		newGetCommand(opts),
		newDescribeCommand(opts),
		newVersionCommand(),
	)
	return rootCmd
}

func newServeCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the api server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *cliOptions) error {
	config, err := opts.load()
	if err != nil {
		return err
	}
	app, err := NewApp(config)
	if err != nil {
		return fmt.Errorf("application failed to initialized: %w", err)
	}
	if err = app.Run(); err != nil {
		return fmt.Errorf("application exited. check logs for more details: %w", err)
	}
	return nil
}

func newSeedCommand(opts *cliOptions) *cobra.Command {
	var file string
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load books from a yaml file into the configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.load()
			if err != nil {
				return err
			}
			books, err := readSeedFile(file)
			if err != nil {
				return err
			}
			logger, closeLogs, err := SetupAppLogger(config, NewClock(config.IsProduction))
			if err != nil {
				return err
			}
			defer closeLogs()

			ctx := cmd.Context()
			store, err := NewCatalogStore(ctx, config, logger, NewIDsHandler())
			if err != nil {
				return err
			}
			defer store.Close()

			if reset {
				eraser, ok := store.Storage.(BookEraser)
				if !ok {
					return fmt.Errorf("storage driver %q does not support reset", config.Storage.Driver)
				}
				if err = eraser.DeleteAll(ctx); err != nil {
					return fmt.Errorf("failed to reset storage: %w", err)
				}
			}

			service := NewBookService(logger, &config.Catalog, store.Storage, store.Queue)
			return seedBooks(ctx, cmd.OutOrStdout(), service, books)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "yaml file containing the list of books")
	cmd.Flags().BoolVar(&reset, "reset", false, "remove all existing books first")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readSeedFile decodes the yaml list of books.
func readSeedFile(path string) ([]BookRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	var books []BookRequest
	if err = yaml.NewDecoder(f).Decode(&books); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return books, nil
}

// seedBooks creates each book and reports the outcome. Books already
// present are skipped, any other failure stops the seeding.
func seedBooks(ctx context.Context, out io.Writer, service BookServiceProvider, books []BookRequest) error {
	var created, skipped int
	for _, req := range books {
		book, err := service.Create(ctx, req.Normalize())
		switch {
		case err == nil:
			created++
			fmt.Fprintf(out, "created %s %q\n", book.ID, book.Title)
		case errors.Is(err, ErrConflict):
			skipped++
			fmt.Fprintf(out, "skipped %q: already exists\n", req.Title)
		default:
			return fmt.Errorf("failed to seed %q: %w", req.Title, err)
		}
	}
	fmt.Fprintf(out, "%d created, %d skipped\n", created, skipped)
	return nil
}

func newGetCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print a stored book as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := NewCatalogStore(ctx, config, zap.NewNop(), NewIDsHandler())
			if err != nil {
				return err
			}
			defer store.Close()

			book, err := NewBookService(zap.NewNop(), &config.Catalog, store.Storage, nil).Get(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(book)
		},
	}
}

func newDescribeCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe TEXT",
		Short: "Generate a book description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.load()
			if err != nil {
				return err
			}
			logger := zap.NewNop()
			service := NewDescriptionService(logger, &config.Generator, NewOpenAIGenerator(&config.Generator))
			description, err := service.GenerateDescription(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), description)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build details",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tag: %s\ncommit: %s\nbuilt: %s\n", GitTag, GitCommit, BuildTime)
		},
	}
}
