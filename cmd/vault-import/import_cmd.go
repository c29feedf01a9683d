package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
	"github.com/iota-uz/vault-import/modules/vault/services"
)

type importOptions struct {
	input         string
	onExisting    string
	managerRule   string
	detectManager bool
	progress      bool
}

func newImportCmd(companyOnly bool) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import persons, contracts, departments and reference data from a vault document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, companyOnly)
		},
	}
	if companyOnly {
		cmd.Use = "import-company"
		cmd.Short = "Import departments and reference data only"
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Path to the vault JSON document (required)")
	cmd.Flags().StringVar(&opts.onExisting, "on-existing", "abort", "What to do when the store holds data: abort|backup|overwrite")
	if !companyOnly {
		cmd.Flags().StringVar(&opts.managerRule, "manager-rule", "", "Rule used to record primary managers: contract|department (default: stored preference)")
		cmd.Flags().BoolVar(&opts.detectManager, "detect-manager", false, "Detect the primary manager rule after loading")
	}
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "Print progress lines to stderr")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func parseDecision(v string) (services.Decision, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "abort":
		return services.Abort, nil
	case "backup":
		return services.OverwriteWithBackup, nil
	case "overwrite":
		return services.OverwriteWithoutBackup, nil
	default:
		return "", fmt.Errorf("unsupported --on-existing: %s", v)
	}
}

func runImport(cmd *cobra.Command, opts importOptions, companyOnly bool) error {
	if strings.TrimSpace(opts.input) == "" {
		return withCode(exitUsage, fmt.Errorf("--input is required"))
	}
	decision, err := parseDecision(opts.onExisting)
	if err != nil {
		return withCode(exitUsage, err)
	}
	rule, err := manager.ParseRule(opts.managerRule)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("invalid --manager-rule: %w", err))
	}

	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	req := services.ImportRequest{
		DocumentPath:      opts.input,
		ManagerRuleHint:   rule,
		Decide:            services.Decide(decision),
		DetectManagerRule: opts.detectManager,
	}
	if opts.progress {
		stderr := cmd.ErrOrStderr()
		req.Observer = func(p services.Progress) {
			fmt.Fprintf(stderr, "[%3d%%] %s\n", p.Percent, p.Phase)
		}
	}

	var res services.ImportResult
	if companyOnly {
		res = a.svc.ImportCompanyOnly(ctx, req)
	} else {
		res = a.svc.Import(ctx, req)
	}
	if err := writeJSONLine(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Success {
		return withCode(codeFor(res.ErrorCode), fmt.Errorf("%s", res.ErrorMessage))
	}
	return nil
}
