package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/vault-import/modules/vault/infrastructure/persistence"
)

func newSchemaCmd() *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the bootstrap DDL for a database driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver == "" {
				conf, err := loadConfig()
				if err != nil {
					return withCode(exitUsage, fmt.Errorf("load configuration: %w", err))
				}
				defer conf.Unload()
				driver = conf.Database.Driver
			}
			dialect, err := persistence.DialectFor(strings.ToLower(driver))
			if err != nil {
				return withCode(exitUsage, err)
			}
			out := cmd.OutOrStdout()
			for _, stmt := range persistence.Schema(dialect) {
				if _, err := fmt.Fprintf(out, "%s;\n\n", stmt); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "postgres|sqlite (default: DB_DRIVER)")
	return cmd
}
