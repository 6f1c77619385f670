package metadata

import (
	"testing"
	"time"
)

func TestNormalizeSettingsLine(t *testing.T) {
	rec := NewRecord("photo.jpg", ProvenanceExifTool, map[string]string{
		"FNumber":                 "4",
		"ExposureTime":            "0.0005",
		"ISO":                     "800",
		"FocalLength":             "600",
		"FocalLengthIn35mmFormat": "900",
	})

	n := Normalize("photo.jpg", rec, "")
	if n.SettingsText != "f/4  1/2000s  ISO800  600mm" {
		t.Fatalf("settings = %q", n.SettingsText)
	}
	if got := FormatSettings(n, true); got != "f/4  1/2000s  ISO800  600mm (900mm eq)" {
		t.Fatalf("settings with eq focal = %q", got)
	}
}

func TestNormalizeFractionalExposure(t *testing.T) {
	rec := NewRecord("photo.jpg", ProvenanceExifTool, map[string]string{
		"ExposureTime": "1/250",
	})
	n := Normalize("photo.jpg", rec, "")
	if n.ShutterSeconds != 1.0/250.0 {
		t.Fatalf("shutter = %v", n.ShutterSeconds)
	}
	if n.SettingsText != "1/250s" {
		t.Fatalf("settings = %q", n.SettingsText)
	}
}

func TestNormalizeLongExposure(t *testing.T) {
	rec := NewRecord("photo.jpg", ProvenanceExifTool, map[string]string{
		"ExposureTime": "2.5",
	})
	n := Normalize("photo.jpg", rec, "")
	if n.SettingsText != "2.5s" {
		t.Fatalf("settings = %q", n.SettingsText)
	}
}

func TestNormalizeCameraMergesMakeAndModel(t *testing.T) {
	cases := []struct {
		name  string
		make  string
		model string
		want  string
	}{
		{"model repeats make", "NIKON CORPORATION", "NIKON Z 8", "NIKON Z 8"},
		{"distinct make and model", "SONY", "ILCE-1", "SONY ILCE-1"},
		{"model only", "", "X-T5", "X-T5"},
		{"make only", "Canon", "", "Canon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := NewRecord("photo.jpg", ProvenanceExifTool, map[string]string{
				"Make":  tc.make,
				"Model": tc.model,
			})
			n := Normalize("photo.jpg", rec, "")
			if n.Camera != tc.want {
				t.Fatalf("camera = %q, want %q", n.Camera, tc.want)
			}
		})
	}
}

func TestNormalizeLocationDedupes(t *testing.T) {
	rec := NewRecord("photo.jpg", ProvenanceExifTool, map[string]string{
		"City":    "Beijing",
		"State":   "Beijing",
		"Country": "China",
	})
	n := Normalize("photo.jpg", rec, "")
	if n.Location != "Beijing, China" {
		t.Fatalf("location = %q", n.Location)
	}
}

func TestNormalizeGPSFallbackLocation(t *testing.T) {
	rec := NewRecord("photo.jpg", ProvenanceExifTool, map[string]string{
		"GPSLatitude":  "39.916668",
		"GPSLongitude": "116.383331",
	})
	n := Normalize("photo.jpg", rec, "")
	if n.GPSText != "39.91667, 116.38333" {
		t.Fatalf("gps = %q", n.GPSText)
	}
	if n.Location != n.GPSText {
		t.Fatalf("location = %q, want gps fallback", n.Location)
	}
}

func TestNormalizeCaptureTime(t *testing.T) {
	rec := NewRecord("photo.jpg", ProvenanceExifTool, map[string]string{
		"DateTimeOriginal": "2026:05:03 06:41:22",
	})
	n := Normalize("photo.jpg", rec, "2006-01-02 15:04")
	want := time.Date(2026, 5, 3, 6, 41, 22, 0, time.UTC)
	if !n.CaptureTime.Equal(want) {
		t.Fatalf("capture time = %v", n.CaptureTime)
	}
	if n.CaptureText != "2026-05-03 06:41" {
		t.Fatalf("capture text = %q", n.CaptureText)
	}
}

func TestNormalizeSubsecondTimestamp(t *testing.T) {
	got := parseDateTime("2026:05:03 06:41:22.123")
	want := time.Date(2026, 5, 3, 6, 41, 22, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("parsed = %v", got)
	}
}

func TestNormalizeEmptyRecord(t *testing.T) {
	n := Normalize("/nonexistent/IMG_0001.jpg", EmptyRecord("/nonexistent/IMG_0001.jpg"), "")
	if n.Stem != "IMG_0001" {
		t.Fatalf("stem = %q", n.Stem)
	}
	if n.SettingsText != "" || n.Camera != "" || n.Location != "" {
		t.Fatalf("expected blank fields, got %+v", n)
	}
}

func TestRecordLookupIsCaseInsensitive(t *testing.T) {
	rec := NewRecord("photo.jpg", ProvenanceExifTool, map[string]string{
		"EXIF:FNumber": "2.8",
	})
	if got := rec.Get("fnumber"); got != "2.8" {
		t.Fatalf("lookup = %q", got)
	}
	if got := rec.Get("Missing", "FNumber"); got != "2.8" {
		t.Fatalf("candidate chain = %q", got)
	}
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	if got := cleanText("  NIKON\t Z 8\x00 "); got != "NIKON Z 8" {
		t.Fatalf("cleaned = %q", got)
	}
}
