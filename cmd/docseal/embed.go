package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docseal/docseal/internal/config"
	"github.com/docseal/docseal/internal/database"
	"github.com/docseal/docseal/internal/log"
	"github.com/docseal/docseal/internal/pipeline"
	"github.com/docseal/docseal/internal/report"
)

// NewEmbedCmd creates the embed command.
func NewEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed [document]",
		Short: "Embed an invisible watermark in a DOCX or PDF document",
		Long: `Embed hides a payload in the images of a DOCX or PDF document.

The payload is rendered as a QR symbol and written into the least
significant bit of the blue channel of every image the document carries.
Pixels change by at most one intensity level, so the watermark is
invisible to the eye.

Examples:
  # Watermark a DOCX document
  docseal embed -p "customer-7731" report.docx

  # Choose the output path explicitly
  docseal embed -p "customer-7731" -o sealed.docx report.docx

  # Watermark a PDF, rasterizing whole pages instead of extracting images
  docseal embed -p "customer-7731" --mode page-render contract.pdf

  # Skip the CRC32 integrity envelope (raw payload text)
  docseal embed -p "customer-7731" --no-integrity report.docx

  # Apply a named profile from the .docseal config file
  docseal embed -p "customer-7731" -P archival report.docx`,
		Args: cobra.ExactArgs(1),
		RunE: runEmbedCmd,
	}

	// Payload flags
	cmd.Flags().StringP("payload", "p", "",
		"Payload text to embed (required)")
	cmd.Flags().Bool("no-integrity", false,
		"Embed the raw payload without a CRC32 integrity envelope")

	// Watermark geometry flags
	cmd.Flags().IntP("module-size", "s", config.DefaultModuleSize,
		"QR module edge length in pixels")
	cmd.Flags().IntP("dpi", "d", config.DefaultDPI,
		"Rasterization density for page-render mode and PDF reconstruction")
	cmd.Flags().String("mode", "real-images",
		"PDF extraction strategy: real-images or page-render")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of images watermarked in parallel")

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Output path for the watermarked document (default: <input>.marked.<ext>)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docseal in current or home directory)")
	cmd.Flags().StringP("profile", "P", "",
		"Named profile from the configuration file")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runEmbedCmd executes the embed command.
func runEmbedCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildEmbedConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.Payload == "" {
		return config.ErrNoPayload
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runEmbed(ctx, cfg, logger)
}

// buildEmbedConfig creates a Config from cobra command flags.
func buildEmbedConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Input = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.Payload, err = cmd.Flags().GetString("payload")
	if err != nil {
		return nil, err
	}

	noIntegrity, err := cmd.Flags().GetBool("no-integrity")
	if err != nil {
		return nil, err
	}
	cfg.AddIntegrity = !noIntegrity

	cfg.ModuleSize, err = cmd.Flags().GetInt("module-size")
	if err != nil {
		return nil, err
	}

	cfg.DPI, err = cmd.Flags().GetInt("dpi")
	if err != nil {
		return nil, err
	}

	modeName, err := cmd.Flags().GetString("mode")
	if err != nil {
		return nil, err
	}
	cfg.Mode, err = config.ParseMode(modeName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, modeName)
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.Output, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	if err := loadReportFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := loadProfiles(cmd, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyProfile()

	// Always record runs using the XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// loadReportFlags reads the report format flags shared by embed and extract.
func loadReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	return err
}

// loadProfiles reads the configuration file into cfg.Profiles.
// If the user explicitly specified a config file path, error if not found.
// If no path specified, silently use an empty config if no file is found.
func loadProfiles(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg.Profile, err = cmd.Flags().GetString("profile")
	if err != nil {
		return err
	}

	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Profiles, err = config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Profiles = &config.File{
			Profiles: make(map[string]config.Profile),
		}
	}

	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger with payload sanitization.
// Watermark payloads must never reach the logs in clear text.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// runEmbed executes the embed operation.
func runEmbed(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	data, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to read input document: %w", err)
	}

	db, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithModuleSize(cfg.ModuleSize),
		pipeline.WithDPI(cfg.DPI),
		pipeline.WithMode(cfg.Mode),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithIntegrity(cfg.AddIntegrity),
		pipeline.WithHistory(db),
	)

	fmt.Printf("Embedding watermark in %s...\n", cfg.Input)

	result, err := p.Embed(ctx, data, cfg.Payload)
	if err != nil {
		return fmt.Errorf("embed failed: %w", err)
	}

	outputPath := cfg.Output
	if outputPath == "" {
		outputPath = deriveOutputPath(cfg.Input)
	}
	if err := os.WriteFile(outputPath, result.Container, 0600); err != nil {
		return fmt.Errorf("failed to write watermarked document: %w", err)
	}

	fmt.Printf("Watermarked document written to %s\n\n", outputPath)

	writer, closer, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer closer()

	if _, err := writer.WriteEmbed(result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// deriveOutputPath inserts ".marked" before the input's extension
// ("report.docx" -> "report.marked.docx").
func deriveOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".marked" + ext
}

// openHistory opens the run-history database when saving is enabled.
// Returns nil (no history) when saving is disabled.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	logger.Info("history database opened", "dir", cfg.DBDir)
	return db, nil
}

// newReportWriter selects the report writer for the configured format and
// destination. The returned closer must be called after writing.
func newReportWriter(cfg *config.Config) (report.Writer, func() error, error) {
	output := os.Stdout
	closer := func() error { return nil }

	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		// Reports name the recovered payloads, so keep them owner-readable
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create report file: %w", err)
		}
		output = f
		closer = f.Close
	}

	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
		), closer, nil
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), closer, nil
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)), closer, nil
	}
}
