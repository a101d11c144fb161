package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docseal/docseal/internal/model"
	"github.com/docseal/docseal/internal/pipeline"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [payload-text]",
		Short: "Verify a recovered payload against its integrity envelope",
		Long: `Verify checks a recovered payload text against its embedded CRC32
integrity envelope and reports whether the payload is intact.

Payloads that are not JSON envelopes are reported as legacy format.
That is a valid state, not a failure: payloads embedded without an
envelope decode this way.

Examples:
  # Verify a payload recovered by extract
  docseal verify '{"data":"customer-7731","crc32":907060870}'

  # Verify payload text stored in a file
  docseal verify -f recovered.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runVerifyCmd,
	}

	cmd.Flags().StringP("file", "f", "",
		"Read the payload text from a file instead of the argument")

	return cmd
}

// runVerifyCmd executes the verify command.
func runVerifyCmd(cmd *cobra.Command, args []string) error {
	text, err := verifyInput(cmd, args)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.WithLogger(setupLogger(getVerboseFlag(cmd))))
	rec := p.VerifyIntegrity(text)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Format:   %s\n", rec.Format)
	fmt.Fprintf(out, "Payload:  %s\n", rec.Data)
	if rec.Timestamp != nil {
		fmt.Fprintf(out, "Embedded: %s\n", time.Unix(*rec.Timestamp, 0).UTC().Format(time.RFC3339))
	}

	switch {
	case rec.Format == model.FormatLegacy:
		fmt.Fprintln(out, "Checksum: n/a (legacy payload carries no envelope)")
	case rec.DataValid:
		fmt.Fprintln(out, "Checksum: valid")
	default:
		fmt.Fprintln(out, "Checksum: INVALID (payload was modified after embedding)")
		return fmt.Errorf("integrity check failed")
	}
	return nil
}

// verifyInput resolves the payload text from the file flag or the argument.
func verifyInput(cmd *cobra.Command, args []string) (string, error) {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return "", err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read payload file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	if len(args) == 0 {
		return "", fmt.Errorf("no payload specified: pass the text as an argument or use --file")
	}
	return args[0], nil
}
