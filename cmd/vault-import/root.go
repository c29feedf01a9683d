package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iota-uz/vault-import/pkg/configuration"
)

// loadConfig is replaced in tests.
var loadConfig = func() (*configuration.Configuration, error) {
	return configuration.Load(".env", ".env.local")
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vault-import",
		Short:         "Import vault export documents into the relational store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newImportCmd(false))
	cmd.AddCommand(newImportCmd(true))
	cmd.AddCommand(newHasDataCmd())
	cmd.AddCommand(newDetectManagerCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newSchemaCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
