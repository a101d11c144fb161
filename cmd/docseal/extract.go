package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docseal/docseal/internal/config"
	"github.com/docseal/docseal/internal/model"
	"github.com/docseal/docseal/internal/pipeline"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [document]",
		Short: "Recover watermarks from a DOCX or PDF document",
		Long: `Extract recovers hidden payloads from the images of a DOCX or PDF document.

Every image is scanned for a watermark in the least significant bit of
its blue channel. Recovered payloads are verified against their CRC32
integrity envelope, so a tampered watermark is reported as such.

Examples:
  # Recover watermarks from a document
  docseal extract report.marked.docx

  # Scan whole-page renders of a PDF instead of its image streams
  docseal extract --mode page-render contract.pdf

  # Save the recovered QR rasters as PNG files
  docseal extract --mark-dir ./marks report.marked.docx

  # Output JSON report
  docseal extract --json report.marked.docx`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	// Extraction flags
	cmd.Flags().IntP("dpi", "d", config.DefaultDPI,
		"Rasterization density for page-render mode")
	cmd.Flags().String("mode", "real-images",
		"PDF extraction strategy: real-images or page-render")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of images scanned in parallel")
	cmd.Flags().String("mark-dir", "",
		"Directory to save recovered QR rasters as PNG files")

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

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, markDir, err := buildExtractConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runExtract(ctx, cfg, markDir, logger)
}

// buildExtractConfig creates a Config from cobra command flags.
// The mark directory is returned separately; it is an output destination,
// not a processing parameter.
func buildExtractConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.NewConfig()
	cfg.Input = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.DPI, err = cmd.Flags().GetInt("dpi")
	if err != nil {
		return nil, "", err
	}

	modeName, err := cmd.Flags().GetString("mode")
	if err != nil {
		return nil, "", err
	}
	cfg.Mode, err = config.ParseMode(modeName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", err, modeName)
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, "", err
	}

	markDir, err := cmd.Flags().GetString("mark-dir")
	if err != nil {
		return nil, "", err
	}

	if err := loadReportFlags(cmd, cfg); err != nil {
		return nil, "", err
	}
	if err := loadProfiles(cmd, cfg); err != nil {
		return nil, "", err
	}
	cfg.ApplyProfile()

	// Always record runs using the XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, markDir, nil
}

// runExtract executes the extract operation.
func runExtract(ctx context.Context, cfg *config.Config, markDir string, logger *slog.Logger) error {
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
		pipeline.WithDPI(cfg.DPI),
		pipeline.WithMode(cfg.Mode),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithHistory(db),
	)

	fmt.Printf("Scanning %s for watermarks...\n\n", cfg.Input)

	result, err := p.Extract(ctx, data)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	if markDir != "" {
		if err := saveMarks(markDir, result.Marks); err != nil {
			return err
		}
		fmt.Printf("Recovered rasters written to %s\n\n", markDir)
	}

	writer, closer, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer closer()

	if _, err := writer.WriteExtract(result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// saveMarks writes the recovered QR rasters as PNG files, one per mark.
func saveMarks(dir string, marks []model.RecoveredMark) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create mark directory: %w", err)
	}

	for i := range marks {
		mark := &marks[i]
		if len(mark.RasterPNG) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("mark_%03d.png", mark.Index))
		if err := os.WriteFile(path, mark.RasterPNG, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
