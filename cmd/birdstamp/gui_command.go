package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// guiBinary is the external template editor. The CLI only delegates;
// templates round-trip through the shared schema.
const guiBinary = "birdstamp-editor"

func newGUICommand(ctx *commandContext) *cobra.Command {
	var fileFlag string

	cmd := &cobra.Command{
		Use:   "gui",
		Short: "Open the external template editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			path, err := exec.LookPath(guiBinary)
			if err != nil {
				return fmt.Errorf("%s is not installed or not on PATH", guiBinary)
			}

			editorArgs := []string{}
			if fileFlag != "" {
				if _, err := os.Stat(fileFlag); err != nil {
					return fmt.Errorf("template file: %w", err)
				}
				editorArgs = append(editorArgs, "--file", fileFlag)
			}

			editor := exec.CommandContext(cmd.Context(), path, editorArgs...)
			editor.Stdout = cmd.OutOrStdout()
			editor.Stderr = cmd.ErrOrStderr()
			return editor.Run()
		},
	}

	cmd.Flags().StringVar(&fileFlag, "file", "", "Template file to open in the editor")
	return cmd
}
