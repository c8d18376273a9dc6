package main

import (
	"fmt"

	"accidentes/internal/config"
	"accidentes/internal/logger"
	"accidentes/internal/pipeline"
	"accidentes/internal/writer"
	"accidentes/pkg/metadata"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	url        string
	file       string
	output     string
	xlsx       string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "worker",
		Short:         "Clean the Monterrey traffic accident table",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to YAML config file")
	flags.StringVar(&opts.url, "url", "", "source table URL (overrides config)")
	flags.StringVar(&opts.file, "file", "", "local source table (overrides --url)")
	flags.StringVar(&opts.output, "output", "", "canonical CSV path (overrides config)")
	flags.StringVar(&opts.xlsx, "xlsx", "", "also write a spreadsheet copy to this path")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "text or json")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newVerifyCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "worker version %s\n", version)
		},
	})

	return root
}

// loadConfig applies command-line overrides on top of file and env config.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.url != "" {
		cfg.Source.URL = o.url
		cfg.Source.File = ""
	}

	if o.file != "" {
		cfg.Source.File = o.file
	}

	if o.output != "" {
		cfg.Output.Path = o.output
	}

	if o.xlsx != "" {
		cfg.Output.XLSXPath = o.xlsx
	}

	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, clean and write the canonical table",
		Long: `Downloads the source table, cleans it, derives the analysis features and
replaces the canonical CSV.

Example:
  worker run --config configs/worker.yaml
  worker run --file data/raw.csv --output csv/accidentes_viales_mty.csv --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			log := logger.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			log.Info("🚀 Starting accident cleaning run", "config", cfg.String())

			result, err := pipeline.Run(cmd.Context(), cfg, log, pipeline.Options{DryRun: dryRun})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), renderSummary(result))

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run every stage but write nothing")

	return cmd
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the canonical table against its manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			m, err := metadata.Verify(cfg.Output.Path, cfg.ManifestPath())
			if err != nil {
				return fmt.Errorf("verify %s: %w", cfg.Output.Path, err)
			}

			file, err := writer.ReadCanonical(cfg.Output.Path)
			if err != nil {
				return err
			}

			if len(file.Rows) != m.Rows {
				return fmt.Errorf("verify %s: manifest lists %d rows, file has %d", cfg.Output.Path, m.Rows, len(file.Rows))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s: %d rows, run %s, hash %s\n", cfg.Output.Path, m.Rows, m.RunID, m.Hash)

			return nil
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config <path>",
		Short: "Write the effective configuration to a YAML file",
		Long: `Resolves defaults, the --config file, the environment and the flags, and
writes the result. Handy for pinning a run's settings next to its output.

Example:
  worker config --output out/accidentes.csv configs/pinned.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if err := cfg.SaveConfig(args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote configuration to %s\n", args[0])

			return nil
		},
	}
}
