package layout

import (
	"image"
	"reflect"
	"strings"
	"testing"
	"time"

	"birdstamp/internal/metadata"
	"birdstamp/internal/naming"
	"birdstamp/internal/template"
)

func testTemplate(t *testing.T, opts template.Options) *template.Template {
	t.Helper()
	tpl, err := template.Load("default", opts)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	return tpl
}

func testEngine(t *testing.T, tpl *template.Template) *Engine {
	t.Helper()
	source, err := LoadSource("")
	if err != nil {
		t.Fatalf("load font: %v", err)
	}
	faces, err := source.NewFaceSet(tpl.Fonts.Title, tpl.Fonts.Body, tpl.Fonts.Small)
	if err != nil {
		t.Fatalf("faces: %v", err)
	}
	return NewEngine(tpl, faces, false)
}

func sampleMetadata() metadata.Normalized {
	rec := metadata.NewRecord("heron_001.jpg", metadata.ProvenanceExifTool, map[string]string{
		"DateTimeOriginal": "2026:05:03 06:41:22",
		"Make":             "SONY",
		"Model":            "ILCE-1",
		"LensModel":        "FE 200-600mm F5.6-6.3 G OSS",
		"FNumber":          "6.3",
		"ExposureTime":     "1/2000",
		"ISO":              "1600",
		"FocalLength":      "600",
		"City":             "Shenzhen",
		"Country":          "China",
	})
	return metadata.Normalize("heron_001.jpg", rec, "")
}

func resolvedName(name string) naming.Resolution {
	if name == "" {
		return naming.Resolution{Source: naming.SourceUnresolved}
	}
	return naming.Resolution{Name: name, Source: naming.SourceMetadata}
}

func TestPlanKeepModeAppendsBand(t *testing.T) {
	engine := testEngine(t, testTemplate(t, template.Options{}))
	plan, err := engine.Plan(sampleMetadata(), resolvedName("苍鹭"), 1200, 800)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.CanvasW != 1200 {
		t.Fatalf("canvas width = %d", plan.CanvasW)
	}
	if plan.CanvasH <= 800 {
		t.Fatalf("canvas height = %d, band not appended", plan.CanvasH)
	}
	band := plan.CanvasH - 800
	if band < 160 {
		t.Fatalf("band = %d, below template minimum", band)
	}
	if plan.BandRect.Min.Y != 800 || plan.BandRect.Max.Y != plan.CanvasH {
		t.Fatalf("band rect = %v", plan.BandRect)
	}
	if len(plan.Texts) == 0 {
		t.Fatal("no text runs")
	}
	if plan.Texts[0].Text != "苍鹭" || plan.Texts[0].Role != RoleTitle {
		t.Fatalf("first run = %+v", plan.Texts[0])
	}
	if len(plan.Dividers) != 1 {
		t.Fatalf("dividers = %d", len(plan.Dividers))
	}
}

func TestPlanDeterministic(t *testing.T) {
	engine := testEngine(t, testTemplate(t, template.Options{}))
	meta := sampleMetadata()

	first, err := engine.Plan(meta, resolvedName("苍鹭"), 1200, 800)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	second, err := engine.Plan(meta, resolvedName("苍鹭"), 1200, 800)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs produced different plans")
	}
}

func TestPlanCompactsEmptyFields(t *testing.T) {
	engine := testEngine(t, testTemplate(t, template.Options{}))
	meta := sampleMetadata()

	full, err := engine.Plan(meta, resolvedName("苍鹭"), 1200, 800)
	if err != nil {
		t.Fatalf("plan full: %v", err)
	}
	empty, err := engine.Plan(metadata.Normalized{Stem: "x"}, resolvedName(""), 1200, 800)
	if err != nil {
		t.Fatalf("plan empty: %v", err)
	}
	if len(empty.Texts) != 0 {
		t.Fatalf("empty metadata produced %d text runs", len(empty.Texts))
	}
	if empty.BandRect.Dy() > full.BandRect.Dy() {
		t.Fatalf("empty band %d taller than full band %d", empty.BandRect.Dy(), full.BandRect.Dy())
	}
	// The floor still applies.
	if empty.BandRect.Dy() < 160 {
		t.Fatalf("empty band = %d, below minimum", empty.BandRect.Dy())
	}
}

func TestPlanUnresolvedNameRendersWithoutTitle(t *testing.T) {
	engine := testEngine(t, testTemplate(t, template.Options{}))
	plan, err := engine.Plan(sampleMetadata(), resolvedName(""), 1200, 800)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, run := range plan.Texts {
		if run.Role == RoleTitle {
			t.Fatalf("unexpected title run %q", run.Text)
		}
	}
}

func TestPlanFitModeLetterboxes(t *testing.T) {
	engine := testEngine(t, testTemplate(t, template.Options{Mode: "fit"}))
	plan, err := engine.Plan(sampleMetadata(), resolvedName("苍鹭"), 800, 1200)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	ratio := float64(plan.CanvasW) / float64(plan.CanvasH)
	if ratio < 1.49 || ratio > 1.51 {
		t.Fatalf("canvas ratio = %.3f, want 3:2", ratio)
	}
	if !plan.ImageRect.In(image.Rect(0, 0, plan.CanvasW, plan.CanvasH)) {
		t.Fatalf("image rect %v escapes canvas %dx%d", plan.ImageRect, plan.CanvasW, plan.CanvasH)
	}
	if plan.ImageRect.Max.Y > plan.BandRect.Min.Y {
		t.Fatalf("image rect %v intrudes into band %v", plan.ImageRect, plan.BandRect)
	}
	// Portrait source on a landscape canvas pillarboxes.
	if plan.ImageRect.Min.X == 0 {
		t.Fatalf("image rect %v not centered", plan.ImageRect)
	}
}

func TestPlanTitleIsSingleLine(t *testing.T) {
	engine := testEngine(t, testTemplate(t, template.Options{}))
	long := "Extraordinarily Long Hypothetical Species Name That Cannot Fit"
	plan, err := engine.Plan(metadata.Normalized{Stem: "x"}, resolvedName(long), 600, 400)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	titles := 0
	for _, run := range plan.Texts {
		if run.Role == RoleTitle {
			titles++
		}
	}
	if titles != 1 {
		t.Fatalf("title runs = %d", titles)
	}
}

func TestWrapBreaksOnSpacesOnly(t *testing.T) {
	engine := testEngine(t, testTemplate(t, template.Options{}))
	tokens := []string{"FE", "200-600mm", "F5.6-6.3", "G", "OSS"}
	text := strings.Join(tokens, " ")

	lines := engine.wrapText(RoleBody, text, 220, 2)
	if len(lines) < 2 {
		t.Fatalf("text did not wrap: %v", lines)
	}
	// Every line must be a run of whole tokens, never a mid-token cut.
	// The last line may end with an ellipsis.
	for _, l := range lines {
		l = strings.TrimSuffix(l, "...")
		for _, word := range strings.Fields(l) {
			known := false
			for _, token := range tokens {
				if word == token || strings.HasPrefix(token, word) && strings.HasSuffix(l, word) {
					known = true
					break
				}
			}
			if !known {
				t.Fatalf("line %q carries fragment %q", l, word)
			}
		}
	}
}

func TestSettingsLineUsesEqFocalFlag(t *testing.T) {
	tpl := testTemplate(t, template.Options{})
	source, err := LoadSource("")
	if err != nil {
		t.Fatalf("load font: %v", err)
	}
	faces, err := source.NewFaceSet(tpl.Fonts.Title, tpl.Fonts.Body, tpl.Fonts.Small)
	if err != nil {
		t.Fatalf("faces: %v", err)
	}
	engine := NewEngine(tpl, faces, true)

	rec := metadata.NewRecord("x.jpg", metadata.ProvenanceExifTool, map[string]string{
		"FNumber":                 "4",
		"FocalLength":             "600",
		"FocalLengthIn35mmFormat": "900",
	})
	meta := metadata.Normalize("x.jpg", rec, "")
	plan, err := engine.Plan(meta, resolvedName(""), 2400, 1600)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	found := false
	for _, run := range plan.Texts {
		if strings.Contains(run.Text, "900mm eq") {
			found = true
		}
	}
	if !found {
		t.Fatal("equivalent focal length missing from settings run")
	}
}

func TestFaceSetSizes(t *testing.T) {
	source, err := LoadSource("")
	if err != nil {
		t.Fatalf("load font: %v", err)
	}
	faces, err := source.NewFaceSet(72, 40, 28)
	if err != nil {
		t.Fatalf("faces: %v", err)
	}
	title := faces.Face(RoleTitle).Metrics().Height.Ceil()
	small := faces.Face(RoleSmall).Metrics().Height.Ceil()
	if title <= small {
		t.Fatalf("title height %d not larger than small height %d", title, small)
	}
}

func TestPlanElapsedIndependence(t *testing.T) {
	// Plans must not depend on wall-clock state: a capture time is data,
	// not a clock read.
	engine := testEngine(t, testTemplate(t, template.Options{}))
	meta := sampleMetadata()
	meta.CaptureTime = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	meta.CaptureText = "2001-01-01 00:00"

	first, err := engine.Plan(meta, resolvedName("苍鹭"), 1200, 800)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := engine.Plan(meta, resolvedName("苍鹭"), 1200, 800)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("plan changed across wall-clock time")
	}
}
