package main

import (
	"github.com/spf13/cobra"
)

var debug bool

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Operator tooling for the site renderer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newValidateCommand())
	root.AddCommand(newRenderCommand())
	root.AddCommand(newThemesCommand())
	root.AddCommand(newMigrateCommand())
	return root
}
