package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// SanitizeToken makes a metadata value safe for use inside a filename.
// Empty values are replaced with fallback.
func SanitizeToken(value, fallback string) string {
	text := strings.TrimSpace(value)
	if text == "" {
		text = fallback
	}
	text = invalidFilenameChars.ReplaceAllString(text, "_")
	text = whitespaceRun.ReplaceAllString(text, "_")
	text = strings.Trim(text, " ._")
	if text == "" {
		return fallback
	}
	return text
}

func sanitizeFilename(value, fallback string) string {
	text := strings.TrimSpace(invalidFilenameChars.ReplaceAllString(value, "_"))
	text = strings.Trim(text, " .")
	if text == "" {
		return fallback
	}
	return text
}

// OutputTokens are the values a name template can reference.
type OutputTokens struct {
	Stem        string
	CaptureTime time.Time
	Camera      string
	Lens        string
	Bird        string
	Location    string
}

var templateToken = regexp.MustCompile(`\{([a-z_]+)\}`)

// BuildOutputName renders a destination filename from a {token} template.
// Recognized tokens: stem, date, camera, lens, bird, location, ext. An
// unknown token is a configuration error, not a per-file one.
func BuildOutputName(nameTemplate string, tokens OutputTokens, extension string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	date := "unknown_date"
	if !tokens.CaptureTime.IsZero() {
		date = tokens.CaptureTime.Format("20060102_1504")
	}
	values := map[string]string{
		"stem":     SanitizeToken(tokens.Stem, "image"),
		"date":     SanitizeToken(date, "NA"),
		"camera":   SanitizeToken(tokens.Camera, "NA"),
		"lens":     SanitizeToken(tokens.Lens, "NA"),
		"bird":     SanitizeToken(tokens.Bird, "NA"),
		"location": SanitizeToken(tokens.Location, "NA"),
		"ext":      ext,
	}

	var unknown string
	rendered := templateToken.ReplaceAllStringFunc(nameTemplate, func(match string) string {
		key := strings.Trim(match, "{}")
		value, ok := values[key]
		if !ok {
			if unknown == "" {
				unknown = key
			}
			return match
		}
		return value
	})
	if unknown != "" {
		return "", fmt.Errorf("name template contains unknown key: %s", unknown)
	}

	fallback := fmt.Sprintf("%s__banner.%s", values["stem"], ext)
	rendered = sanitizeFilename(rendered, fallback)
	if filepath.Ext(rendered) == "" {
		rendered += "." + ext
	}
	return rendered, nil
}

// TemplateNeedsMetadata reports whether a name template references tokens
// only available after metadata extraction. Templates built purely from
// the stem allow the skip-existing check to run before any extraction.
func TemplateNeedsMetadata(nameTemplate string) bool {
	for _, match := range templateToken.FindAllStringSubmatch(nameTemplate, -1) {
		switch match[1] {
		case "stem", "ext":
		default:
			return true
		}
	}
	return false
}
