package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
	"github.com/iota-uz/vault-import/modules/vault/services"
)

type validateOptions struct {
	limit int
	xlsx  string
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report contract references with no matching master row",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.CreateSchema(ctx); err != nil {
				return withCode(exitDB, err)
			}
			limit := opts.limit
			if limit < 0 {
				limit = a.conf.Import.OrphanSampleLimit
			}
			report, err := services.NewIntegrityValidator(a.store, limit).Validate(ctx)
			if err != nil {
				return withCode(exitDB, err)
			}
			if opts.xlsx != "" {
				if err := writeOrphanWorkbook(opts.xlsx, report); err != nil {
					return withCode(exitDB, err)
				}
			}

			total := 0
			counts := make(map[string]int, len(report.Counts))
			for kind, n := range report.Counts {
				counts[string(kind)] = n
				total += n
			}
			if err := writeJSONLine(cmd.OutOrStdout(), map[string]any{
				"orphans":        counts,
				"total":          total,
				"orphan_samples": report.Samples,
			}); err != nil {
				return err
			}
			if total > 0 {
				return withCode(exitValidation, fmt.Errorf("%d orphaned references found", total))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", -1, "Maximum number of sample rows (default: IMPORT_ORPHAN_SAMPLE_LIMIT)")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Also write the report to this .xlsx file")
	return cmd
}

const (
	summarySheet = "Summary"
	samplesSheet = "Samples"
)

func writeOrphanWorkbook(path string, report services.IntegrityReport) error {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return fmt.Errorf("--xlsx must end in .xlsx: %s", path)
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Kind", "Orphans"}); err != nil {
		return err
	}
	for i, kind := range reference.Kinds {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{string(kind), report.Counts[kind]}); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(samplesSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(samplesSheet, "A1", &[]any{"Kind", "Contract", "Referenced ID", "Source"}); err != nil {
		return err
	}
	for i, o := range report.Samples {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(samplesSheet, cell, &[]any{string(o.Kind), o.ContractExternalID, o.ExternalID, o.Source}); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
