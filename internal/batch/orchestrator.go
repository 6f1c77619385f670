package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"birdstamp/internal/config"
	"birdstamp/internal/layout"
	"birdstamp/internal/logging"
	"birdstamp/internal/metadata"
	"birdstamp/internal/naming"
	"birdstamp/internal/render"
	"birdstamp/internal/report"
	"birdstamp/internal/template"
)

const lockFileName = ".birdstamp.lock"

// Options configure one batch run. Config-level problems (bad template,
// unwritable output directory, a second live run) abort before any file
// is touched.
type Options struct {
	Config    *config.Config
	Template  *template.Template
	OutputDir string
	Recursive bool
	// Override is the run-wide --bird value.
	Override string
	// SkipExisting short-circuits jobs whose destination already exists.
	SkipExisting bool
	Logger       *slog.Logger
	// Progress, when set, is called after every finished job.
	Progress func(done, total int)
	// Extractor replaces the configured exiftool extractor (tests).
	Extractor metadata.Extractor
}

// Orchestrator drives discovered files through the render pipeline.
type Orchestrator struct {
	opts     Options
	logger   *slog.Logger
	resolver *naming.Resolver
	fonts    *layout.Source
}

// New validates run-level inputs and builds an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("batch requires config")
	}
	if opts.Template == nil {
		return nil, fmt.Errorf("batch requires a template")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = opts.Config.Paths.OutputDir
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	// The config show list narrows the template's visible fields; the
	// caller's template is left untouched.
	tpl := *opts.Template
	tpl.Fields = visibleFields(tpl.Fields, opts.Config.Render.Show)
	opts.Template = &tpl

	regex, err := regexp.Compile(opts.Config.Naming.BirdRegex)
	if err != nil {
		return nil, fmt.Errorf("naming.bird_regex: %w", err)
	}
	var table *naming.Table
	if path := opts.Config.Naming.SpeciesTable; path != "" {
		table, err = naming.LoadTable(path)
		if err != nil {
			return nil, err
		}
	}
	fonts, err := layout.LoadSource(opts.Config.Render.FontPath)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		opts:     opts,
		logger:   opts.Logger.With(logging.FieldComponent, "batch"),
		resolver: naming.NewResolver(opts.Config.Naming.BirdFrom, regex, table),
		fonts:    fonts,
	}, nil
}

// Run renders every supported file under root and returns the summary.
// Per-file failures are recorded, never propagated; the returned error
// covers run-level problems only.
func (o *Orchestrator) Run(ctx context.Context, root string) (*Summary, error) {
	files, err := Discover(root, o.opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}

	if err := os.MkdirAll(o.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(o.opts.OutputDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another run is already writing to %s", o.opts.OutputDir)
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()
	logger.Info("batch started", "root", root, "files", len(files), logging.FieldDest, o.opts.OutputDir)

	extractor, err := o.buildExtractor()
	if err != nil {
		return nil, err
	}
	// The stay-open process must never outlive the run, abort included.
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := extractor.Close(closeCtx); err != nil {
			logger.Warn("extractor shutdown", "error", err)
		}
	}()

	var reportDB *report.DB
	if o.opts.Config.Report.Enabled {
		reportDB, err = o.openReport(root)
		if err != nil {
			logger.Warn("report db unavailable", "error", err)
		}
		if reportDB != nil {
			defer reportDB.Close()
			logger.Info("report db found", "path", reportDB.Path())
		}
	}

	jobs := make([]Job, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workerCount())
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			select {
			case <-gctx.Done():
				jobs[i] = Job{Source: file, Outcome: OutcomeFailed, Reason: "canceled"}
			default:
				jobs[i] = o.processFile(gctx, file, extractor, reportDB)
			}
			if o.opts.Progress != nil {
				o.opts.Progress(int(done.Add(1)), len(files))
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{RunID: runID}
	for _, job := range jobs {
		summary.add(job)
	}
	summary.Elapsed = time.Since(started)
	logger.Info("batch finished",
		"rendered", summary.Rendered,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}

func (o *Orchestrator) buildExtractor() (metadata.Extractor, error) {
	if o.opts.Extractor != nil {
		return o.opts.Extractor, nil
	}
	cfg := o.opts.Config.ExifTool
	return metadata.NewExtractor(metadata.ExtractorOptions{
		Mode:            cfg.Mode,
		Binary:          cfg.Binary,
		StartTimeout:    time.Duration(cfg.StartTimeout) * time.Second,
		ShutdownTimeout: time.Duration(cfg.ShutdownTimeout) * time.Second,
		Logger:          o.opts.Logger,
	})
}

func (o *Orchestrator) openReport(root string) (*report.DB, error) {
	if path := o.opts.Config.Report.Path; path != "" {
		return report.Open(path)
	}
	return report.OpenNearest(root)
}

func (o *Orchestrator) workerCount() int {
	jobs := o.opts.Config.Render.Jobs
	if jobs < 1 {
		jobs = 1
	}
	return jobs
}

// processFile runs the whole pipeline for one file. Every failure is
// contained in the returned Job.
func (o *Orchestrator) processFile(ctx context.Context, source string, extractor metadata.Extractor, reportDB *report.DB) Job {
	started := time.Now()
	job := Job{Source: source}
	fail := func(reason string) Job {
		job.Outcome = OutcomeFailed
		job.Reason = reason
		job.Elapsed = time.Since(started)
		o.logger.Warn("job failed", logging.FieldSource, source, "reason", reason)
		return job
	}

	nameTemplate := o.opts.Config.Render.NameTemplate
	ext := o.outputExtension(source)

	// A stem-only name template allows the skip check to run before any
	// metadata round trip.
	if !naming.TemplateNeedsMetadata(nameTemplate) {
		dest, err := o.destination(nameTemplate, source, naming.OutputTokens{Stem: stemOf(source)}, ext)
		if err != nil {
			return fail(err.Error())
		}
		job.Dest = dest
		if skipped, j := o.skipExisting(job, started); skipped {
			return j
		}
	}

	rec, err := extractor.Extract(ctx, source)
	if err != nil {
		if ctx.Err() != nil {
			return fail("canceled")
		}
		// Extraction never fails the file for missing metadata; an error
		// here means the file itself is unreadable.
		return fail(fmt.Sprintf("metadata: %v", err))
	}
	meta := metadata.Normalize(source, rec, o.opts.Config.Render.TimeFormat)

	reportName := ""
	if reportDB != nil {
		if row, err := reportDB.Lookup(ctx, source); err != nil {
			o.logger.Warn("report lookup failed", logging.FieldSource, source, "error", err)
		} else if row != nil {
			reportName = row.Species()
		}
	}

	name := o.resolver.Resolve(naming.Inputs{
		Override:     o.opts.Override,
		MetadataName: meta.Bird,
		ReportName:   reportName,
		Stem:         meta.Stem,
	})
	if !name.Resolved() && o.opts.Template.RequiresBird() {
		return fail("bird name required by template but unresolved")
	}

	if job.Dest == "" {
		dest, err := o.destination(nameTemplate, source, naming.OutputTokens{
			Stem:        meta.Stem,
			CaptureTime: meta.CaptureTime,
			Camera:      meta.Camera,
			Lens:        meta.Lens,
			Bird:        name.Name,
			Location:    meta.Location,
		}, ext)
		if err != nil {
			return fail(err.Error())
		}
		job.Dest = dest
		if skipped, j := o.skipExisting(job, started); skipped {
			return j
		}
	}

	src, err := render.Decode(source)
	if err != nil {
		return fail(err.Error())
	}
	src = render.TransformSource(src, render.TransformOptions{
		Mode:        o.opts.Template.Mode,
		FrameStyle:  render.FrameStyle(o.opts.Config.Render.FrameStyle),
		MaxLongEdge: o.opts.Config.Render.MaxLongEdge,
		Fill:        o.opts.Template.Palette.Background,
	})

	faces, err := o.fonts.NewFaceSet(
		o.opts.Template.Fonts.Title,
		o.opts.Template.Fonts.Body,
		o.opts.Template.Fonts.Small)
	if err != nil {
		return fail(err.Error())
	}
	engine := layout.NewEngine(o.opts.Template, faces, o.opts.Config.Render.ShowEqFocal)

	bounds := src.Bounds()
	plan, err := engine.Plan(meta, name, bounds.Dx(), bounds.Dy())
	if err != nil {
		return fail(err.Error())
	}
	final, err := render.Composite(plan, src, faces)
	if err != nil {
		return fail(err.Error())
	}
	if err := render.Encode(final, job.Dest, o.opts.Config.Render.Quality); err != nil {
		return fail(err.Error())
	}

	job.Outcome = OutcomeRendered
	job.Elapsed = time.Since(started)
	o.logger.Info("job rendered",
		logging.FieldSource, source,
		logging.FieldDest, job.Dest,
		logging.FieldProvenance, string(rec.Provenance),
		"bird", name.Name,
		"bird_source", string(name.Source),
		"elapsed", job.Elapsed.Round(time.Millisecond))
	return job
}

func (o *Orchestrator) skipExisting(job Job, started time.Time) (bool, Job) {
	if !o.opts.SkipExisting {
		return false, job
	}
	if _, err := os.Stat(job.Dest); err != nil {
		return false, job
	}
	job.Outcome = OutcomeSkipped
	job.Reason = "destination exists"
	job.Elapsed = time.Since(started)
	o.logger.Debug("job skipped", logging.FieldSource, job.Source, logging.FieldDest, job.Dest)
	return true, job
}

func (o *Orchestrator) destination(nameTemplate, source string, tokens naming.OutputTokens, ext string) (string, error) {
	name, err := naming.BuildOutputName(nameTemplate, tokens, ext)
	if err != nil {
		return "", err
	}
	return filepath.Join(o.opts.OutputDir, name), nil
}

// outputExtension picks the destination extension: the configured output
// format, or jpg for sources whose own format cannot be encoded.
func (o *Orchestrator) outputExtension(source string) string {
	if format := o.opts.Config.Render.OutputFormat; format != "" && format != "source" {
		if format == "jpeg" {
			return "jpg"
		}
		return format
	}
	ext := strings.ToLower(filepath.Ext(source))
	if render.StandardExtensions[ext] {
		return ext[1:]
	}
	return "jpg"
}

// visibleFields keeps the template's field order, dropping entries absent
// from the configured show list. An empty list hides nothing.
func visibleFields(fields, show []string) []string {
	if len(show) == 0 {
		return fields
	}
	allowed := make(map[string]bool, len(show))
	for _, field := range show {
		allowed[field] = true
	}
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if allowed[field] {
			kept = append(kept, field)
		}
	}
	return kept
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
