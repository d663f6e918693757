package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alchemorsel/ingredients/internal/application/normalize"
	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/infrastructure/config"
	"github.com/alchemorsel/ingredients/internal/infrastructure/referencedata"
	"github.com/alchemorsel/ingredients/internal/ports/inbound"
	"github.com/alchemorsel/ingredients/pkg/logger"
)

// options holds the global flags shared by every sub-command
type options struct {
	configFile      string
	unitsFile       string
	densitiesFile   string
	replaceDefaults bool
	workers         int
	logLevel        string
	pretty          bool
}

// runtime is what the sub-commands need once flags are parsed
type runtime struct {
	normalizer *ingredient.Normalizer
	workers    int
	logger     *zap.Logger
	pretty     bool
}

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	opts := &options{}
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:           "normalize",
		Short:         "Normalize ingredient lines into grams",
		Long:          "Parses free-text ingredient lines into quantity, unit and name and expresses them in grams. Output is JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, opts)

	rootCmd.AddCommand(
		linesCommand(rt),
		htmlCommand(rt),
		convertCommand(rt),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(cmd, opts, rt)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if rt.logger != nil {
			_ = rt.logger.Sync()
		}
	}

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, opts *options) {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", os.Getenv("INGREDIENTS_CONFIG_FILE"), "Path to the configuration file")
	flags.StringVar(&opts.unitsFile, "units", "", "YAML or JSON file with additional units")
	flags.StringVar(&opts.densitiesFile, "densities", "", "YAML or JSON file with additional densities")
	flags.BoolVar(&opts.replaceDefaults, "replace-defaults", false, "Use only the reference files, not the built-in tables")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Number of parallel workers for batches")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	flags.BoolVarP(&opts.pretty, "pretty", "p", false, "Indent JSON output")
}

// initialize builds the service from the configuration file, with flags
// taking precedence
func initialize(cmd *cobra.Command, opts *options, rt *runtime) error {
	cfg := config.Default()
	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	src := referencedata.Source{
		UnitsFile:       cfg.Reference.UnitsFile,
		DensitiesFile:   cfg.Reference.DensitiesFile,
		ReplaceDefaults: cfg.Reference.ReplaceDefaults,
	}
	if opts.unitsFile != "" {
		src.UnitsFile = opts.unitsFile
	}
	if opts.densitiesFile != "" {
		src.DensitiesFile = opts.densitiesFile
	}
	if cmd.Flags().Changed("replace-defaults") {
		src.ReplaceDefaults = opts.replaceDefaults
	}
	workers := cfg.Normalize.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}

	log, err := logger.New(logger.Config{
		Level:       opts.logLevel,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	units, densities, err := referencedata.Load(src)
	if err != nil {
		return err
	}
	normalizer, err := ingredient.NewNormalizer(ingredient.WithUnitTable(units), ingredient.WithDensityTable(densities))
	if err != nil {
		return err
	}

	rt.normalizer = normalizer
	rt.workers = workers
	rt.logger = log
	rt.pretty = opts.pretty
	return nil
}

// write encodes v as JSON on w
func (rt *runtime) write(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if rt.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// service returns a normalization service accepting batches of n lines.
// Input files carry no request cap, so the limit follows the input.
func (rt *runtime) service(n int) (inbound.NormalizeService, error) {
	return normalize.NewService(rt.normalizer, nil, nil, rt.logger, normalize.Options{
		Workers:       rt.workers,
		MaxBatchLines: n,
	})
}

// openInput returns the named file, or stdin when no file is given
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}
