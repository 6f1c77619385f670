package metadata

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Normalized is the banner-facing view of a Record: every field already
// cleaned, merged, and formatted for display.
type Normalized struct {
	Stem        string
	Bird        string
	CaptureTime time.Time
	CaptureText string
	Location    string
	GPSText     string
	Camera      string
	Lens        string

	Aperture       float64
	ShutterSeconds float64
	ISO            int
	FocalMM        float64
	Focal35MM      float64

	SettingsText string
}

// Normalize builds the display view for one source file. A nil or empty
// record yields blank fields, never an error.
func Normalize(source string, rec *Record, timeFormat string) Normalized {
	if timeFormat == "" {
		timeFormat = "2006-01-02 15:04"
	}
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	n := Normalized{Stem: stem}

	captureRaw := rec.Get("DateTimeOriginal", "CreateDate", "DateTimeCreated", "DateCreated", "MediaCreateDate", "DateTime")
	n.CaptureTime = parseDateTime(captureRaw)
	if n.CaptureTime.IsZero() {
		if info, err := os.Stat(source); err == nil {
			n.CaptureTime = info.ModTime()
		}
	}
	if !n.CaptureTime.IsZero() {
		n.CaptureText = n.CaptureTime.Format(timeFormat)
	}

	lat, latOK := parseFloat(rec.Get("GPSLatitude", "Composite:GPSLatitude"))
	lon, lonOK := parseFloat(rec.Get("GPSLongitude", "Composite:GPSLongitude"))
	if latOK && lonOK {
		n.GPSText = fmt.Sprintf("%.5f, %.5f", lat, lon)
	}

	n.Location = dedupeJoin(
		cleanText(rec.Get("SubLocation", "Sub-location", "Location")),
		cleanText(rec.Get("City")),
		cleanText(rec.Get("State", "Province-State")),
		cleanText(rec.Get("Country", "Country-PrimaryLocationName")),
	)
	if n.Location == "" {
		n.Location = n.GPSText
	}

	maker := cleanText(rec.Get("Make"))
	model := cleanText(rec.Get("Model", "CameraModelName"))
	switch {
	case maker != "" && model != "" && strings.HasPrefix(strings.ToLower(model), strings.ToLower(maker)):
		n.Camera = model
	case maker != "" && model != "":
		n.Camera = maker + " " + model
	case model != "":
		n.Camera = model
	default:
		n.Camera = maker
	}

	n.Lens = cleanText(rec.Get("LensModel", "LensID", "Lens", "LensType", "XMP:Lens"))

	if v, ok := parseFloat(rec.Get("FNumber", "Aperture", "ApertureValue")); ok {
		n.Aperture = v
	}
	n.ShutterSeconds = parseExposureSeconds(rec.Get("ExposureTime", "ShutterSpeed", "ShutterSpeedValue"))
	if v, ok := parseFloat(rec.Get("ISO", "ISOSpeedRatings", "PhotographicSensitivity")); ok {
		n.ISO = int(math.Round(v))
	}
	if v, ok := parseFloat(rec.Get("FocalLength")); ok {
		n.FocalMM = v
	}
	if v, ok := parseFloat(rec.Get("FocalLengthIn35mmFormat", "FocalLengthIn35mmFilm", "FocalLength35efl")); ok {
		n.Focal35MM = v
	}

	n.Bird = cleanText(rec.Get("ImageDescription", "XPTitle", "Title", "ObjectName", "Headline", "Caption-Abstract", "Description"))

	n.SettingsText = FormatSettings(n, false)
	return n
}

// FormatSettings renders the camera-settings line: aperture, shutter, ISO,
// focal length, optionally with the 35mm-equivalent focal length.
func FormatSettings(n Normalized, showEqFocal bool) string {
	var parts []string
	if n.Aperture > 0 {
		parts = append(parts, fmt.Sprintf("f/%s", trimFloat(n.Aperture)))
	}
	if shutter := formatShutter(n.ShutterSeconds); shutter != "" {
		parts = append(parts, shutter)
	}
	if n.ISO > 0 {
		parts = append(parts, fmt.Sprintf("ISO%d", n.ISO))
	}
	if n.FocalMM > 0 {
		focal := trimFloat(n.FocalMM) + "mm"
		if showEqFocal && n.Focal35MM > 0 {
			focal = fmt.Sprintf("%s (%smm eq)", focal, trimFloat(n.Focal35MM))
		}
		parts = append(parts, focal)
	}
	return strings.Join(parts, "  ")
}

func formatShutter(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	if seconds < 1 {
		if den := math.Round(1 / seconds); den > 0 {
			return fmt.Sprintf("1/%ds", int(den))
		}
	}
	return trimFloat(seconds) + "s"
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func cleanText(value string) string {
	if value == "" {
		return ""
	}
	value = norm.NFC.String(value)
	value = strings.ReplaceAll(value, "\x00", " ")
	value = whitespaceRun.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func dedupeJoin(parts ...string) string {
	seen := make(map[string]bool, len(parts))
	ordered := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lowered := strings.ToLower(part)
		if seen[lowered] {
			continue
		}
		seen[lowered] = true
		ordered = append(ordered, part)
	}
	return strings.Join(ordered, ", ")
}

var numberPattern = regexp.MustCompile(`[-+]?\d+(\.\d+)?`)

func parseFloat(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v, true
	}
	match := numberPattern.FindString(value)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseExposureSeconds(value string) float64 {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return 0
	}
	value = strings.TrimSuffix(value, "sec")
	value = strings.TrimSuffix(value, "s")
	value = strings.TrimSpace(value)
	if left, right, ok := strings.Cut(value, "/"); ok {
		num, err1 := strconv.ParseFloat(strings.TrimSpace(left), 64)
		den, err2 := strconv.ParseFloat(strings.TrimSpace(right), 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0
		}
		if seconds := num / den; seconds > 0 {
			return seconds
		}
		return 0
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return seconds
}

var dateTimePatterns = []string{
	"2006:01:02 15:04:05Z07:00",
	"2006:01:02 15:04:05-07:00",
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseDateTime(value string) time.Time {
	value = cleanText(value)
	if value == "" {
		return time.Time{}
	}
	value = strings.Replace(value, "T", " ", 1)
	if idx := strings.Index(value, "."); idx >= 0 {
		// Strip subseconds; keep a trailing zone offset if present.
		rest := value[idx+1:]
		end := strings.IndexAny(rest, "+-Z ")
		if end >= 0 {
			value = value[:idx] + rest[end:]
		} else {
			value = value[:idx]
		}
	}
	for _, pattern := range dateTimePatterns {
		if t, err := time.Parse(pattern, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
