package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/docseal/docseal/internal/config"
	"github.com/docseal/docseal/internal/database"
	"github.com/docseal/docseal/internal/model"
)

// defaultHistoryLimit bounds the listing so a long-lived database does not
// flood the terminal.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded embed and extract runs",
		Long: `History lists the runs recorded in the local database.

Every embed and extract run is recorded with the input document's
SHA3-256 fingerprint, so a document can be matched to the run that
watermarked it even after renaming.

Examples:
  # List recent runs
  docseal history

  # Show per-image details of one run
  docseal history 3f2a1b0c-...

  # Find the runs that processed a given document
  docseal history --fingerprint 4f53cda18c2baa0c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list")
	cmd.Flags().String("fingerprint", "",
		"List runs whose input document has this SHA3-256 fingerprint")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	fingerprint, err := cmd.Flags().GetString("fingerprint")
	if err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		return showRun(ctx, out, db, args[0])
	}
	if fingerprint != "" {
		runs, err := db.GetRunsByFingerprint(ctx, fingerprint)
		if err != nil {
			return fmt.Errorf("failed to query runs: %w", err)
		}
		return printRuns(out, runs)
	}

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return printRuns(out, runs)
}

// showRun prints one run with its per-image outcomes.
func showRun(ctx context.Context, out io.Writer, db *database.HistoryDB, runID string) error {
	rec, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to query run: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no run recorded with ID %s", runID)
	}

	fmt.Fprintf(out, "Run ID:      %s\n", rec.RunID)
	fmt.Fprintf(out, "Operation:   %s\n", rec.Operation)
	fmt.Fprintf(out, "Container:   %s\n", rec.Kind)
	fmt.Fprintf(out, "Fingerprint: %s\n", rec.Fingerprint)
	fmt.Fprintf(out, "Images:      %d of %d succeeded\n", rec.ImagesSucceeded, rec.ImagesTotal)
	if rec.Operation == "embed" {
		fmt.Fprintf(out, "Mean PSNR:   %.2f dB\n", rec.MeanPSNR)
	}
	fmt.Fprintf(out, "Recorded:    %s\n\n", rec.CreatedAt.Format(time.RFC3339))

	images, err := db.GetRunImages(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to query run images: %w", err)
	}
	return printImages(out, images)
}

// printRuns renders a run listing as an aligned table.
func printRuns(out io.Writer, runs []model.RunRecord) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tOPERATION\tCONTAINER\tIMAGES\tMEAN PSNR\tRECORDED")
	for i := range runs {
		rec := &runs[i]
		psnr := "-"
		if rec.Operation == "embed" {
			psnr = fmt.Sprintf("%.2f dB", rec.MeanPSNR)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			rec.RunID,
			rec.Operation,
			rec.Kind,
			rec.ImagesSucceeded,
			rec.ImagesTotal,
			psnr,
			rec.CreatedAt.Format(time.RFC3339),
		)
	}
	return tw.Flush()
}

// printImages renders per-image outcomes as an aligned table.
func printImages(out io.Writer, images []model.ImageOutcome) error {
	if len(images) == 0 {
		fmt.Fprintln(out, "No per-image records.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tDIMENSIONS\tPSNR\tSTATUS")
	for i := range images {
		img := &images[i]
		psnr, status := "-", "ok"
		if img.Fidelity != nil {
			psnr = fmt.Sprintf("%.2f dB", img.Fidelity.PSNR)
		}
		if !img.Succeeded() {
			status = img.ErrorTag
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\t%s\n",
			img.SourceID, img.Width, img.Height, psnr, status)
	}
	return tw.Flush()
}
