package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/domains/itemimport/service"
	"inventory-backend/pkg/container"

	"github.com/spf13/cobra"
)

type importOptions struct {
	dryRun     bool
	strict     bool
	batchSize  int
	maxErrors  int
	required   []string
	jsonOutput bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV/XLSX catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate and report without saving anything")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Skip rows with unparseable numbers instead of using 0")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Rows per committed window (default from IMPORT_BATCH_SIZE)")
	cmd.Flags().IntVar(&opts.maxErrors, "max-errors", -1, "Max row messages kept in the report, 0 = unlimited")
	cmd.Flags().StringSliceVar(&opts.required, "required", nil, "Extra required fields (barcode and name are always required)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the full report as JSON")

	return cmd
}

func runImport(cmd *cobra.Command, path string, opts importOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer f.Close()

	c, err := container.NewCLIContainer()
	if err != nil {
		return err
	}
	defer c.Cleanup()

	options := mergeOptions(c.ImportDefaults, opts)

	report, runErr := c.ImportService.ImportFile(cmd.Context(), service.ImportInput{
		FileName: filepath.Base(path),
		Content:  f,
		DryRun:   opts.dryRun,
		Options:  &options,
	})

	if report != nil {
		if err := printReport(cmd.OutOrStdout(), report, opts.jsonOutput); err != nil {
			return err
		}
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, model.ErrImportInProgress):
		return withCode(exitBusy, runErr)
	case errors.Is(runErr, model.ErrUnsupportedFile), errors.Is(runErr, model.ErrLegacyExcel), errors.Is(runErr, model.ErrFileTooLarge):
		return withCode(exitUsage, runErr)
	default:
		return withCode(exitFailure, runErr)
	}
}

// mergeOptions: flag > env defaults
func mergeOptions(base model.Options, opts importOptions) model.Options {
	o := base
	if opts.batchSize > 0 {
		o.BatchSize = opts.batchSize
	}
	if opts.maxErrors >= 0 {
		o.MaxErrorsRecorded = opts.maxErrors
	}
	if len(opts.required) > 0 {
		o.RequiredFields = append(append([]string{}, o.RequiredFields...), opts.required...)
	}
	if opts.strict {
		o.StrictNumbers = true
	}
	return o
}

func printReport(w io.Writer, r *model.ImportReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintln(w, r.Message)
	fmt.Fprintf(w, "  lines: %d processed / %d total, success rate %.2f%%\n", r.ProcessedLines, r.TotalLines, r.SuccessRate)
	fmt.Fprintf(w, "  imported %d, updated %d, skipped %d, errored %d\n", r.ImportedCount, r.UpdatedCount, r.SkippedCount, r.ErroredCount)
	if r.CategoriesCreated > 0 {
		fmt.Fprintf(w, "  categories created: %d\n", r.CategoriesCreated)
	}
	for _, m := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", m.Message)
	}
	if r.ErrorsTruncated {
		fmt.Fprintf(w, "  ... %d more messages not shown\n", r.ErrorCount-len(r.Errors))
	}
	for _, n := range r.Notes {
		fmt.Fprintf(w, "  note: %s\n", n.Message)
	}
	return nil
}
