package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"birdstamp/internal/metadata"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var birdFlag string

	cmd := &cobra.Command{
		Use:   "tag <path>",
		Short: "Write the bird name into the file's ImageDescription tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if birdFlag == "" {
				return fmt.Errorf("tag requires --bird")
			}
			source := args[0]
			if _, err := os.Stat(source); err != nil {
				return fmt.Errorf("source: %w", err)
			}
			if !metadata.Detect(cfg.ExifTool.Binary) {
				return fmt.Errorf("tag writing requires exiftool on PATH")
			}

			session, err := metadata.StartSession(cmd.Context(), metadata.SessionOptions{
				Binary:          cfg.ExifTool.Binary,
				StartTimeout:    time.Duration(cfg.ExifTool.StartTimeout) * time.Second,
				ShutdownTimeout: time.Duration(cfg.ExifTool.ShutdownTimeout) * time.Second,
				Logger:          ctx.ensureLogger(),
			})
			if err != nil {
				return err
			}
			defer func() { _ = session.Close(cmd.Context()) }()

			if err := session.WriteDescription(cmd.Context(), source, birdFlag); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tagged %s with %q\n", source, birdFlag)
			return nil
		},
	}

	cmd.Flags().StringVar(&birdFlag, "bird", "", "Bird name to write")
	return cmd
}
