package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graphdiff/application/ports"
	"graphdiff/application/services"
	"graphdiff/domain/core/aggregates"
	"graphdiff/infrastructure/config"
	"graphdiff/infrastructure/di"
	"graphdiff/infrastructure/sources/neo4j"
)

// Version is the CLI version
var Version = "0.3.0"

type globalOptions struct {
	configFile string
	backend    string
	verbose    bool
	compact    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "graphdiff",
		Short:        "Compare, merge and track the evolution of graph snapshots",
		Version:      Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
	root.PersistentFlags().StringVar(&opts.backend, "store", "", "override the comparison store backend")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().BoolVar(&opts.compact, "compact", false, "print JSON without indentation")

	root.AddCommand(
		newCompareCmd(opts),
		newMergeCmd(opts),
		newEvolveCmd(opts),
		newShowCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newImportNeo4jCmd(opts),
	)
	return root
}

func newCompareCmd(opts *globalOptions) *cobra.Command {
	var name1, name2 string
	var save bool

	cmd := &cobra.Command{
		Use:   "compare <graph1.json> <graph2.json>",
		Short: "Diff two snapshots",
		Long: `Diff two snapshots and print the comparison result.

Use "-" to read one of the snapshots from stdin. With --save the result is
written to the configured store and its comparisonId is printed with it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshots, err := readSnapshots(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			return withService(cmd, opts, func(ctx context.Context, c *di.Container) error {
				outcome, err := c.Service.Compare(ctx, services.CompareRequest{
					Graph1: snapshots[0],
					Graph2: snapshots[1],
					Name1:  name1,
					Name2:  name2,
					Save:   save,
				})
				if err != nil {
					return err
				}
				for _, warning := range outcome.Warnings {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warning)
				}
				return printJSON(cmd.OutOrStdout(), outcome, opts.compact)
			})
		},
	}

	cmd.Flags().StringVar(&name1, "name1", "", "display name of the first snapshot")
	cmd.Flags().StringVar(&name2, "name2", "", "display name of the second snapshot")
	cmd.Flags().BoolVar(&save, "save", false, "persist the comparison")
	return cmd
}

func newMergeCmd(opts *globalOptions) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "merge <graph1.json> <graph2.json>",
		Short: "Merge two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshots, err := readSnapshots(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			return withService(cmd, opts, func(ctx context.Context, c *di.Container) error {
				result, err := c.Service.Merge(ctx, snapshots[0], snapshots[1], strategy)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result, opts.compact)
			})
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "union", "union, intersection, preferFirst or preferSecond")
	return cmd
}

func newEvolveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "evolve <v1.json> <v2.json> [more.json...]",
		Short: "Report the changes between consecutive snapshot versions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshots, err := readSnapshots(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			return withService(cmd, opts, func(ctx context.Context, c *di.Container) error {
				report, err := c.Service.TrackEvolution(ctx, snapshots)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report, opts.compact)
			})
		},
	}
}

func newShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <comparison-id>",
		Short: "Print a stored comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, c *di.Container) error {
				result, err := c.Service.GetComparison(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result, opts.compact)
			})
		},
	}
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored comparisons, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, c *di.Container) error {
				result, err := c.Service.ListComparisons(ctx, page, pageSize)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, s := range result.Items {
					fmt.Fprintf(out, "%s  %s  %s -> %s  similarity=%.4f changes=%d\n",
						s.ComparisonID, s.CreatedAt, s.Name1, s.Name2, s.SimilarityScore, s.TotalChanges)
				}
				fmt.Fprintf(out, "page %d, %d of %d comparisons\n", result.Page, len(result.Items), result.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "comparisons per page")
	return cmd
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comparison-id>",
		Short: "Delete a stored comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, c *di.Container) error {
				if err := c.Service.DeleteComparison(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			})
		},
	}
}

func newImportNeo4jCmd(opts *globalOptions) *cobra.Command {
	var labels []string
	var limit int
	var outFile string

	cmd := &cobra.Command{
		Use:   "import-neo4j",
		Short: "Export a Neo4j graph as a snapshot file",
		Long: `Read nodes and relationships from the Neo4j server configured by
NEO4J_URI and write them as a snapshot usable by compare, merge and evolve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Neo4j.URI == "" {
				return fmt.Errorf("NEO4J_URI is not configured")
			}

			logger, err := di.ProvideLogger(cfg, di.ProvideLogLevel(cfg))
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			source, err := neo4j.NewSnapshotSource(ctx, neo4j.Config{
				URI:      cfg.Neo4j.URI,
				Username: cfg.Neo4j.Username,
				Password: cfg.Neo4j.Password,
				Database: cfg.Neo4j.Database,
			}, logger)
			if err != nil {
				return err
			}
			defer source.Close(ctx)

			snapshot, err := loadFrom(ctx, source, ports.SnapshotQuery{Labels: labels, Limit: limit})
			if err != nil {
				return err
			}

			if outFile == "" || outFile == "-" {
				return printJSON(cmd.OutOrStdout(), snapshot, opts.compact)
			}

			f, err := os.Create(outFile)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := printJSON(f, snapshot, opts.compact); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d nodes and %d links to %s\n", snapshot.NodeCount(), snapshot.LinkCount(), outFile)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&labels, "labels", nil, "only import nodes with these labels")
	cmd.Flags().IntVar(&limit, "limit", neo4j.DefaultLimit, "maximum nodes and relationships to read")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	return cmd
}

func loadFrom(ctx context.Context, source ports.SnapshotSource, query ports.SnapshotQuery) (aggregates.Snapshot, error) {
	return source.LoadSnapshot(ctx, query)
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	loader := config.NewLoader()
	if opts.configFile != "" {
		loader = loader.WithConfigFile(opts.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if opts.backend != "" {
		cfg.Store.Backend = opts.backend
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	} else if cfg.IsDevelopment() && cfg.LogLevel == "info" {
		// Keep stdout readable for piping
		cfg.LogLevel = "warn"
	}
	// No long-running exporters for one-shot commands
	cfg.Features.EnableCloudWatch = false
	cfg.Features.EnableTracing = false

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withService(cmd *cobra.Command, opts *globalOptions, run func(ctx context.Context, c *di.Container) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := run(ctx, container); err != nil {
		container.Logger.Debug("Command failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}
	return nil
}

func readSnapshots(stdin io.Reader, paths []string) ([]aggregates.Snapshot, error) {
	snapshots := make([]aggregates.Snapshot, len(paths))
	usedStdin := false

	for i, path := range paths {
		var data []byte
		var err error
		if path == "-" {
			if usedStdin {
				return nil, fmt.Errorf("stdin can only be read once")
			}
			usedStdin = true
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("%s is empty", path)
		}
		snapshots[i], err = aggregates.DecodeSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return snapshots, nil
}

func printJSON(w io.Writer, v interface{}, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
