package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"birdstamp/internal/metadata"
	"birdstamp/internal/naming"
	"birdstamp/internal/report"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var rawFlag bool

	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show the metadata a render would use for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()
			source := args[0]

			extractor, err := metadata.NewExtractor(metadata.ExtractorOptions{
				Mode:            cfg.ExifTool.Mode,
				Binary:          cfg.ExifTool.Binary,
				StartTimeout:    time.Duration(cfg.ExifTool.StartTimeout) * time.Second,
				ShutdownTimeout: time.Duration(cfg.ExifTool.ShutdownTimeout) * time.Second,
				Logger:          logger,
			})
			if err != nil {
				return err
			}
			defer func() { _ = extractor.Close(cmd.Context()) }()

			rec, err := extractor.Extract(cmd.Context(), source)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rawFlag {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(rec.Tags)
			}

			meta := metadata.Normalize(source, rec, cfg.Render.TimeFormat)

			reportName := ""
			if cfg.Report.Enabled {
				if db, err := report.OpenNearest(source); err == nil && db != nil {
					defer db.Close()
					if row, err := db.Lookup(cmd.Context(), source); err == nil && row != nil {
						reportName = row.Species()
					}
				}
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Field", "Value"})
			rows := []struct {
				field string
				value string
			}{
				{"source", source},
				{"provenance", string(rec.Provenance)},
				{"bird (metadata)", meta.Bird},
				{"bird (report)", reportName},
				{"bird (filename stem)", meta.Stem},
				{"capture", meta.CaptureText},
				{"location", meta.Location},
				{"gps", meta.GPSText},
				{"camera", meta.Camera},
				{"lens", meta.Lens},
				{"settings", metadata.FormatSettings(meta, cfg.Render.ShowEqFocal)},
			}
			for _, row := range rows {
				value := row.value
				if value == "" {
					value = "-"
				}
				tw.AppendRow(table.Row{row.field, value})
			}
			fmt.Fprintln(out, tw.Render())

			if naming.TemplateNeedsMetadata(cfg.Render.NameTemplate) {
				fmt.Fprintf(out, "name template %q resolves after metadata extraction\n", cfg.Render.NameTemplate)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rawFlag, "raw", false, "Print raw tags as JSON")
	return cmd
}
