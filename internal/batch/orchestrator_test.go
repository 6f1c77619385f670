package batch

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"

	"birdstamp/internal/config"
	"birdstamp/internal/metadata"
	"birdstamp/internal/render"
	"birdstamp/internal/template"
)

// fakeExtractor serves canned records and tracks lifecycle, guarding the
// channel the way the real session does.
type fakeExtractor struct {
	mu       sync.Mutex
	records  map[string]map[string]string
	extracts atomic.Int64
	inFlight atomic.Int64
	closes   atomic.Int64
	maxSeen  atomic.Int64
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (*metadata.Record, error) {
	if current := f.inFlight.Add(1); current > f.maxSeen.Load() {
		f.maxSeen.Store(current)
	}
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracts.Add(1)
	tags, ok := f.records[filepath.Base(path)]
	if !ok {
		return metadata.EmptyRecord(path), nil
	}
	return metadata.NewRecord(path, metadata.ProvenanceExifTool, tags), nil
}

func (f *fakeExtractor) Close(context.Context) error {
	f.closes.Add(1)
	return nil
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 90, G: 110, B: 70, A: 255})
	if err := render.Encode(img, path, 90); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(t *testing.T, outDir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = outDir
	cfg.Render.Jobs = 4
	cfg.Report.Enabled = false
	return &cfg
}

func testOrchestrator(t *testing.T, cfg *config.Config, extractor metadata.Extractor) *Orchestrator {
	t.Helper()
	tpl, err := template.Load("default", template.Options{})
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	orch, err := New(Options{
		Config:       cfg,
		Template:     tpl,
		OutputDir:    cfg.Paths.OutputDir,
		SkipExisting: cfg.Render.SkipExisting,
		Extractor:    extractor,
	})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	return orch
}

func TestRunRendersBatch(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeJPEG(t, filepath.Join(inDir, "one.jpg"), 640, 480)
	writeJPEG(t, filepath.Join(inDir, "two.jpg"), 640, 480)
	if err := os.WriteFile(filepath.Join(inDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write txt: %v", err)
	}

	extractor := &fakeExtractor{records: map[string]map[string]string{
		"one.jpg": {"ImageDescription": "灰喜鹊", "Model": "ILCE-1"},
	}}
	orch := testOrchestrator(t, testConfig(t, outDir), extractor)

	summary, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Rendered != 2 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if !summary.Ok() {
		t.Fatal("summary not ok")
	}
	if extractor.closes.Load() != 1 {
		t.Fatalf("extractor closed %d times", extractor.closes.Load())
	}
	for _, name := range []string{"one__banner.jpg", "two__banner.jpg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}
}

func TestRunKeepModeGrowsByBand(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeJPEG(t, filepath.Join(inDir, "bird.jpg"), 800, 600)

	extractor := &fakeExtractor{records: map[string]map[string]string{
		"bird.jpg": {"ImageDescription": "灰喜鹊"},
	}}
	orch := testOrchestrator(t, testConfig(t, outDir), extractor)

	summary, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Rendered != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	out, err := imaging.Open(filepath.Join(outDir, "bird__banner.jpg"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	bounds := out.Bounds()
	if bounds.Dx() != 800 {
		t.Fatalf("output width = %d", bounds.Dx())
	}
	if bounds.Dy() < 600+160 {
		t.Fatalf("output height = %d, band not appended", bounds.Dy())
	}
}

func TestRunSkipExistingSecondRun(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeJPEG(t, filepath.Join(inDir, "a.jpg"), 320, 240)
	writeJPEG(t, filepath.Join(inDir, "b.jpg"), 320, 240)

	extractor := &fakeExtractor{}
	orch := testOrchestrator(t, testConfig(t, outDir), extractor)

	first, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Rendered != 2 {
		t.Fatalf("first = %+v", first)
	}
	extractsAfterFirst := extractor.extracts.Load()

	second, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Skipped != 2 || second.Rendered != 0 {
		t.Fatalf("second = %+v", second)
	}
	// Skipped jobs never re-incur a metadata round trip.
	if extractor.extracts.Load() != extractsAfterFirst {
		t.Fatalf("extracts grew from %d to %d on a fully skipped run",
			extractsAfterFirst, extractor.extracts.Load())
	}
}

func TestRunPerFileIsolation(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeJPEG(t, filepath.Join(inDir, "good.jpg"), 320, 240)
	if err := os.WriteFile(filepath.Join(inDir, "corrupt.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}

	orch := testOrchestrator(t, testConfig(t, outDir), &fakeExtractor{})
	summary, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Rendered != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Ok() {
		t.Fatal("summary with failure reports ok")
	}
	var failed Job
	for _, job := range summary.Jobs {
		if job.Outcome == OutcomeFailed {
			failed = job
		}
	}
	if filepath.Base(failed.Source) != "corrupt.jpg" || failed.Reason == "" {
		t.Fatalf("failed job = %+v", failed)
	}
}

func TestRunBlankMetadataRenders(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeJPEG(t, filepath.Join(inDir, "IMG_0001.jpg"), 320, 240)

	orch := testOrchestrator(t, testConfig(t, outDir), &fakeExtractor{})
	summary, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Rendered != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunRequiredBirdFailsFile(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeJPEG(t, filepath.Join(inDir, "IMG_0002.jpg"), 320, 240)

	cfg := testConfig(t, outDir)
	tpl, err := template.Load("default", template.Options{})
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	tpl.Required = []string{"bird"}

	orch, err := New(Options{
		Config:       cfg,
		Template:     tpl,
		OutputDir:    outDir,
		SkipExisting: true,
		Extractor:    &fakeExtractor{},
	})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	summary, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunOverrideWinsEverywhere(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeJPEG(t, filepath.Join(inDir, "tagged.jpg"), 320, 240)

	cfg := testConfig(t, outDir)
	cfg.Render.NameTemplate = "{bird}_{stem}.{ext}"
	tpl, err := template.Load("default", template.Options{})
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	extractor := &fakeExtractor{records: map[string]map[string]string{
		"tagged.jpg": {"ImageDescription": "喜鹊"},
	}}
	orch, err := New(Options{
		Config:    cfg,
		Template:  tpl,
		OutputDir: outDir,
		Override:  "灰喜鹊",
		Extractor: extractor,
	})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	summary, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Rendered != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(outDir, "灰喜鹊_tagged.jpg")); err != nil {
		t.Fatalf("override not reflected in output name: %v", err)
	}
}

func TestShowListNarrowsTemplateFields(t *testing.T) {
	outDir := t.TempDir()
	cfg := testConfig(t, outDir)
	cfg.Render.Show = []string{"bird", "time"}

	tpl, err := template.Load("default", template.Options{})
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	original := len(tpl.Fields)

	orch, err := New(Options{
		Config:    cfg,
		Template:  tpl,
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	effective := orch.opts.Template
	for _, field := range []string{"camera", "lens", "settings", "location", "gps"} {
		if effective.Shows(field) {
			t.Fatalf("field %q visible despite show list %v", field, cfg.Render.Show)
		}
	}
	if !effective.Shows("bird") || !effective.Shows("time") {
		t.Fatalf("listed fields missing from effective template: %v", effective.Fields)
	}
	if len(tpl.Fields) != original {
		t.Fatalf("caller template mutated: %v", tpl.Fields)
	}
}

func TestRunSourceOutputFormatKeepsExtension(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	img := imaging.New(320, 240, color.NRGBA{R: 90, G: 110, B: 70, A: 255})
	if err := render.Encode(img, filepath.Join(inDir, "heron.png"), 90); err != nil {
		t.Fatalf("write png: %v", err)
	}

	cfg := testConfig(t, outDir)
	cfg.Render.OutputFormat = "source"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	orch := testOrchestrator(t, cfg, &fakeExtractor{})

	summary, err := orch.Run(context.Background(), inDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Rendered != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(outDir, "heron__banner.png")); err != nil {
		t.Fatalf("expected png destination: %v", err)
	}
}

func TestRunLockRejectsSecondRun(t *testing.T) {
	outDir := t.TempDir()
	inDir := t.TempDir()
	writeJPEG(t, filepath.Join(inDir, "a.jpg"), 64, 64)

	cfg := testConfig(t, outDir)
	tpl, err := template.Load("default", template.Options{})
	if err != nil {
		t.Fatalf("template: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	blocking := &blockingExtractor{started: started, release: release}
	orch, err := New(Options{Config: cfg, Template: tpl, OutputDir: outDir, Extractor: blocking})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, runErr := orch.Run(context.Background(), inDir)
		done <- runErr
	}()
	<-started

	other, err := New(Options{Config: cfg, Template: tpl, OutputDir: outDir, Extractor: &fakeExtractor{}})
	if err != nil {
		t.Fatalf("second orchestrator: %v", err)
	}
	if _, err := other.Run(context.Background(), inDir); err == nil {
		t.Fatal("second concurrent run acquired the lock")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingExtractor) Extract(_ context.Context, path string) (*metadata.Record, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return metadata.EmptyRecord(path), nil
}

func (b *blockingExtractor) Close(context.Context) error { return nil }

func TestDiscoverSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "b.jpg"), 16, 16)
	writeJPEG(t, filepath.Join(dir, "a.jpg"), 16, 16)
	if err := os.WriteFile(filepath.Join(dir, "c.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeJPEG(t, filepath.Join(sub, "deep.jpg"), 16, 16)

	flat, err := Discover(dir, false)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(flat) != 2 || filepath.Base(flat[0]) != "a.jpg" || filepath.Base(flat[1]) != "b.jpg" {
		t.Fatalf("flat = %v", flat)
	}

	deep, err := Discover(dir, true)
	if err != nil {
		t.Fatalf("discover recursive: %v", err)
	}
	if len(deep) != 3 {
		t.Fatalf("deep = %v", deep)
	}

	single, err := Discover(filepath.Join(dir, "a.jpg"), false)
	if err != nil {
		t.Fatalf("discover file: %v", err)
	}
	if len(single) != 1 {
		t.Fatalf("single = %v", single)
	}

	missing, err := Discover(filepath.Join(dir, "absent"), false)
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing = %v, %v", missing, err)
	}
}
