package template

import (
	"fmt"
)

// InvalidError reports a template validation failure with the offending key
// path, e.g. "fields[2]" or "fonts.title".
type InvalidError struct {
	Path   string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("template invalid at %s: %s", e.Path, e.Reason)
}

func invalid(path, format string, args ...any) error {
	return &InvalidError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

var fieldKeySet = func() map[string]bool {
	set := make(map[string]bool, len(FieldKeys))
	for _, key := range FieldKeys {
		set[key] = true
	}
	return set
}()

var anchorSet = func() map[string]bool {
	set := make(map[string]bool, len(Anchors))
	for _, anchor := range Anchors {
		set[anchor] = true
	}
	return set
}()

// Validate checks the template and populates the derived palette. It must be
// called before the template is handed to the layout engine.
func (t *Template) Validate() error {
	if _, err := ParseMode(string(t.Mode)); err != nil {
		return invalid("mode", "%v", err)
	}
	for i, field := range t.Fields {
		if !fieldKeySet[field] {
			return invalid(fmt.Sprintf("fields[%d]", i), "unknown field key %q", field)
		}
	}
	for i, field := range t.Required {
		if !fieldKeySet[field] {
			return invalid(fmt.Sprintf("fields_required[%d]", i), "unknown field key %q", field)
		}
	}
	if t.Fonts.Title <= 0 {
		return invalid("fonts.title", "font size must be positive (got %d)", t.Fonts.Title)
	}
	if t.Fonts.Body <= 0 {
		return invalid("fonts.body", "font size must be positive (got %d)", t.Fonts.Body)
	}
	if t.Fonts.Small <= 0 {
		return invalid("fonts.small", "font size must be positive (got %d)", t.Fonts.Small)
	}
	if t.Banner.LeftRatio < 0.3 || t.Banner.LeftRatio > 0.8 {
		return invalid("banner.left_ratio", "must be between 0.3 and 0.8 (got %g)", t.Banner.LeftRatio)
	}
	if t.Banner.PaddingX < 0 || t.Banner.PaddingY < 0 {
		return invalid("banner.padding_x", "padding must not be negative")
	}
	if t.Divider.Thickness < 0 {
		return invalid("divider.thickness", "must not be negative (got %d)", t.Divider.Thickness)
	}
	if t.Logo.Value != "" && !anchorSet[t.Logo.Anchor] {
		return invalid("logo.anchor", "unknown anchor %q", t.Logo.Anchor)
	}

	var err error
	if t.Palette.Background, err = ParseColor(t.Colors.Background); err != nil {
		return invalid("colors.background", "%v", err)
	}
	if t.Palette.Text, err = ParseColor(t.Colors.Text); err != nil {
		return invalid("colors.text", "%v", err)
	}
	if t.Palette.Muted, err = ParseColor(t.Colors.Muted); err != nil {
		return invalid("colors.muted", "%v", err)
	}
	if t.Palette.Divider, err = ParseColor(t.Colors.Divider); err != nil {
		return invalid("colors.divider", "%v", err)
	}
	return nil
}
