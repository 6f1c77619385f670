package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"birdstamp/internal/batch"
	"birdstamp/internal/template"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		recursive    bool
		outDir       string
		templateFlag string
		themeFlag    string
		birdFlag     string
		nameFlag     string
		modeFlag     string
		jobsFlag     int
		noSkip       bool
	)

	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render banner images for a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			if templateFlag != "" {
				cfg.Render.Template = templateFlag
			}
			if themeFlag != "" {
				cfg.Render.Theme = themeFlag
			}
			if modeFlag != "" {
				cfg.Render.Mode = modeFlag
			}
			if nameFlag != "" {
				cfg.Render.NameTemplate = nameFlag
			}
			if jobsFlag > 0 {
				cfg.Render.Jobs = jobsFlag
			}
			if outDir == "" {
				outDir = cfg.Paths.OutputDir
			}

			tpl, err := template.Load(cfg.Render.Template, template.Options{
				Theme:           cfg.Render.Theme,
				MinBannerHeight: cfg.Render.BannerHeight,
				Mode:            cfg.Render.Mode,
				FontPath:        cfg.Render.FontPath,
			})
			if err != nil {
				return err
			}

			opts := batch.Options{
				Config:       cfg,
				Template:     tpl,
				OutputDir:    outDir,
				Recursive:    recursive,
				Override:     birdFlag,
				SkipExisting: cfg.Render.SkipExisting && !noSkip,
				Logger:       logger,
			}

			var bar *progressbar.ProgressBar
			if isatty.IsTerminal(os.Stderr.Fd()) {
				opts.Progress = func(done, total int) {
					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetWriter(os.Stderr),
							progressbar.OptionSetDescription("rendering"),
							progressbar.OptionClearOnFinish(),
						)
					}
					_ = bar.Set(done)
				}
			}

			orch, err := batch.New(opts)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := orch.Run(runCtx, args[0])
			if err != nil {
				return err
			}
			if bar != nil {
				_ = bar.Finish()
			}

			printSummary(cmd.OutOrStdout(), summary)
			if !summary.Ok() {
				return fmt.Errorf("%d of %d files failed", summary.Failed, len(summary.Jobs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Recurse into subdirectories")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")
	cmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Template name or file path")
	cmd.Flags().StringVar(&themeFlag, "theme", "", "Color theme (light, gray, dark)")
	cmd.Flags().StringVar(&birdFlag, "bird", "", "Bird name override for the whole run")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Output name pattern, e.g. {stem}__banner.{ext}")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Output mode (keep, fit, square, vertical)")
	cmd.Flags().IntVar(&jobsFlag, "jobs", 0, "Parallel worker count")
	cmd.Flags().BoolVar(&noSkip, "no-skip-existing", false, "Re-render files whose destination exists")

	return cmd
}
