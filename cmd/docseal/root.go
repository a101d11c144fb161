// Package main provides the entry point for the docseal CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docseal.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docseal",
		Short: "Invisible watermarking for DOCX and PDF documents",
		Long: `docseal embeds invisible watermarks in the images of DOCX and PDF documents.

The payload is encoded as a QR symbol and hidden in the least significant
bits of the blue channel of every image the document carries. The visual
change is imperceptible, and the payload survives a round trip through the
document container.

Payloads are wrapped in a CRC32 envelope by default, so extraction can tell
an intact watermark from a tampered one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewEmbedCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
