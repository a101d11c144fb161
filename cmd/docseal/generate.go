package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docseal/docseal/internal/config"
	"github.com/docseal/docseal/internal/pipeline"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [payload]",
		Short: "Render a watermark payload as a standalone QR image",
		Long: `Generate renders a payload as the QR image that embed would hide in a
document. The result can be inspected, archived, or embedded elsewhere.

The payload is wrapped in a CRC32 integrity envelope unless --no-integrity
is given, matching what embed produces.

Examples:
  # Render a payload to watermark.png
  docseal generate "customer-7731"

  # Choose the output path and module size
  docseal generate -o mark.png -s 20 "customer-7731"`,
		Args: cobra.ExactArgs(1),
		RunE: runGenerateCmd,
	}

	cmd.Flags().StringP("output", "o", "watermark.png",
		"Output path for the rendered PNG")
	cmd.Flags().IntP("module-size", "s", config.DefaultModuleSize,
		"QR module edge length in pixels")
	cmd.Flags().Bool("no-integrity", false,
		"Encode the raw payload without a CRC32 integrity envelope")

	return cmd
}

// runGenerateCmd executes the generate command.
func runGenerateCmd(cmd *cobra.Command, args []string) error {
	payload := args[0]
	if payload == "" {
		return config.ErrNoPayload
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	moduleSize, err := cmd.Flags().GetInt("module-size")
	if err != nil {
		return err
	}
	if moduleSize <= 0 {
		return config.ErrInvalidModuleSize
	}

	noIntegrity, err := cmd.Flags().GetBool("no-integrity")
	if err != nil {
		return err
	}

	p := pipeline.New(
		pipeline.WithLogger(setupLogger(getVerboseFlag(cmd))),
		pipeline.WithModuleSize(moduleSize),
		pipeline.WithIntegrity(!noIntegrity),
	)

	png, err := p.GenerateWatermark(payload)
	if err != nil {
		return fmt.Errorf("failed to render watermark: %w", err)
	}

	if err := os.WriteFile(outputPath, png, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watermark written to %s\n", outputPath)
	return nil
}
