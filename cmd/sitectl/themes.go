package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/theme"
	"github.com/spf13/cobra"
)

func newThemesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the built-in themes and the component types each renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := theme.NewRegistry()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Theme", "Default", "Components"})

			for _, id := range registry.Names() {
				set, _ := registry.Get(id)
				isDefault := ""
				if id == theme.Classic {
					isDefault = "yes"
				}
				t.AppendRow(table.Row{id, isDefault, strings.Join(set.Types(), ", ")})
			}

			t.Render()
			return nil
		},
	}
}
