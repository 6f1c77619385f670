package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"birdstamp/internal/template"
)

func newTemplatesCommand() *cobra.Command {
	var optionsFlag bool

	cmd := &cobra.Command{
		Use:         "templates",
		Short:       "List built-in templates",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if optionsFlag {
				_, err := out.Write(template.GUIOptions())
				return err
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Name", "Mode", "Fields"})
			for _, name := range template.ListBuiltins() {
				tpl, err := template.Load(name, template.Options{})
				if err != nil {
					return err
				}
				tw.AppendRow(table.Row{name, string(tpl.Mode), fmt.Sprint(tpl.Fields)})
			}
			fmt.Fprintln(out, tw.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&optionsFlag, "options", false, "Print the GUI editor option groups as JSON")
	return cmd
}
