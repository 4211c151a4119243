package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ftsearch"
	"github.com/kailas-cloud/ftsearch/internal/config"
	"github.com/kailas-cloud/ftsearch/internal/dataset"
	logpkg "github.com/kailas-cloud/ftsearch/internal/logger"
	"github.com/kailas-cloud/ftsearch/internal/version"
)

type globalOptions struct {
	schemaPath string
	dataPath   string
	pinsPath   string
	language   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:   "ftquery",
		Short: "Query a JSON-lines or parquet dataset with the ftsearch engine",
		Long: `ftquery builds an in-memory ftsearch engine from a schema file and a
dataset, then runs one query and prints the result envelope as JSON.

Examples:
  ftquery search matrix --schema movies.yaml --data movies.jsonl
  ftquery search --schema movies.yaml --data movies.jsonl \
    --where '{"must":[{"key":"genre","match":"scifi"}]}' --sort year:desc
`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.schemaPath, "schema", "", "YAML file with the schema fields")
	root.PersistentFlags().StringVar(&g.dataPath, "data", "", "Dataset file (.jsonl or .parquet)")
	root.PersistentFlags().StringVar(&g.pinsPath, "pins", "", "YAML file with pin rules")
	root.PersistentFlags().StringVar(&g.language, "language", "", "Default tokenizer language")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(newSearchCmd(g))
	root.AddCommand(newLanguagesCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported tokenizer languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, l := range ftsearch.SupportedLanguages() {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ftquery %s\n", version.Get())
		},
	}
}

type pinsFile struct {
	Rules []ftsearch.PinRule `yaml:"rules"`
}

// openEngine builds a memory engine from the global options and loads
// the dataset and pin rules into it.
func openEngine(ctx context.Context, g *globalOptions) (*ftsearch.Engine, error) {
	logger, err := logpkg.NewLogger("cli", g.logLevel)
	if err != nil {
		return nil, err
	}

	fields, err := readSchema(g.schemaPath)
	if err != nil {
		return nil, err
	}
	opts := []ftsearch.Option{ftsearch.WithMemory(), ftsearch.WithLogger(logger)}
	if g.language != "" {
		opts = append(opts, ftsearch.WithLanguage(g.language))
	}
	engine, err := ftsearch.New(fields, opts...)
	if err != nil {
		return nil, err
	}

	if g.dataPath != "" {
		start := time.Now()
		n, err := dataset.Load(ctx, g.dataPath, dataset.DefaultBatchSize,
			func(ctx context.Context, docs []map[string]any) error {
				batch := make([]ftsearch.Document, len(docs))
				for i, d := range docs {
					batch[i] = d
				}
				_, err := engine.InsertMultiple(ctx, batch)
				return err
			})
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("load %s: %w", g.dataPath, err)
		}
		logger.Info("Dataset loaded", zap.Int("documents", n), zap.Duration("took", time.Since(start)))
	}

	if g.pinsPath != "" {
		if err := loadPins(ctx, engine, g.pinsPath); err != nil {
			engine.Close()
			return nil, err
		}
	}
	return engine, nil
}

func readSchema(path string) ([]ftsearch.Field, error) {
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var sc config.SchemaConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if _, err := sc.Parse(); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	fields := make([]ftsearch.Field, len(sc.Fields))
	for i, f := range sc.Fields {
		fields[i] = ftsearch.Field{Name: f.Name, Type: ftsearch.FieldType(f.Type)}
	}
	return fields, nil
}

func loadPins(ctx context.Context, engine *ftsearch.Engine, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read pins: %w", err)
	}
	var pf pinsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("parse pins: %w", err)
	}
	for _, r := range pf.Rules {
		if err := engine.PutPinRule(ctx, r); err != nil {
			return fmt.Errorf("pin rule %q: %w", r.ID, err)
		}
	}
	return nil
}
