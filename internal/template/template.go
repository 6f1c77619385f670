package template

import (
	"fmt"
	"image/color"
	"strings"
)

// Mode selects the output canvas policy.
type Mode string

const (
	ModeKeep     Mode = "keep"
	ModeFit      Mode = "fit"
	ModeSquare   Mode = "square"
	ModeVertical Mode = "vertical"
)

// ParseMode converts a string into a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeKeep:
		return ModeKeep, nil
	case ModeFit:
		return ModeFit, nil
	case ModeSquare:
		return ModeSquare, nil
	case ModeVertical:
		return ModeVertical, nil
	}
	return "", fmt.Errorf("unknown output mode %q", value)
}

// FieldKeys is the closed set of metadata fields a template may show.
// "bird" is the literal name field resolved by the name priority chain.
var FieldKeys = []string{"bird", "time", "location", "gps", "camera", "lens", "settings"}

// Anchor names accepted for logo placement.
var Anchors = []string{"bottom-left", "bottom-right", "bottom-center", "top-left", "top-right"}

// Fonts holds the point sizes for the three text roles plus an optional font
// file override.
type Fonts struct {
	Title int    `yaml:"title" json:"title"`
	Body  int    `yaml:"body" json:"body"`
	Small int    `yaml:"small" json:"small"`
	Path  string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Colors holds the hex palette of the banner.
type Colors struct {
	Background string `yaml:"background" json:"background"`
	Text       string `yaml:"text" json:"text"`
	Muted      string `yaml:"muted" json:"muted"`
	Divider    string `yaml:"divider" json:"divider"`
}

// Divider configures the vertical rule between the banner columns.
type Divider struct {
	Enabled   bool `yaml:"enabled" json:"enabled"`
	Thickness int  `yaml:"thickness" json:"thickness"` // 0 = scale with canvas width
}

// Logo configures the banner logo. Value naming a readable image file is
// composited as an image; any other non-empty value is drawn as footer text.
type Logo struct {
	Value     string `yaml:"value" json:"value"`
	Anchor    string `yaml:"anchor" json:"anchor"`
	MaxHeight int    `yaml:"max_height" json:"max_height"`
}

// Banner configures the band geometry.
type Banner struct {
	MinHeight int     `yaml:"min_height" json:"min_height"`
	LeftRatio float64 `yaml:"left_ratio" json:"left_ratio"`
	PaddingX  int     `yaml:"padding_x" json:"padding_x"`
	PaddingY  int     `yaml:"padding_y" json:"padding_y"`
	Overlay   bool    `yaml:"overlay" json:"overlay"` // square mode: draw band over the image
}

// Palette is the parsed form of Colors.
type Palette struct {
	Background color.NRGBA
	Text       color.NRGBA
	Muted      color.NRGBA
	Divider    color.NRGBA
}

// Template is a validated, immutable banner specification. It is owned
// exclusively by the render call that loaded it.
type Template struct {
	Name     string   `yaml:"name" json:"name"`
	Mode     Mode     `yaml:"mode" json:"mode"`
	Fields   []string `yaml:"fields" json:"fields"`
	Required []string `yaml:"fields_required,omitempty" json:"fields_required,omitempty"`
	Fonts    Fonts    `yaml:"fonts" json:"fonts"`
	Colors   Colors   `yaml:"colors" json:"colors"`
	Divider  Divider  `yaml:"divider" json:"divider"`
	Logo     Logo     `yaml:"logo" json:"logo"`
	Banner   Banner   `yaml:"banner" json:"banner"`

	// Palette is derived from Colors during Load and never serialized.
	Palette Palette `yaml:"-" json:"-"`
}

// Shows reports whether the template lists the given field key.
func (t *Template) Shows(key string) bool {
	for _, field := range t.Fields {
		if field == key {
			return true
		}
	}
	return false
}

// RequiresBird reports whether the template marks the name field mandatory.
func (t *Template) RequiresBird() bool {
	for _, field := range t.Required {
		if field == "bird" {
			return true
		}
	}
	return false
}

// ParseColor parses a #RGB or #RRGGBB hex value.
func ParseColor(value string) (color.NRGBA, error) {
	s := strings.TrimSpace(value)
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("malformed color %q", value)
	}
	s = s[1:]
	switch len(s) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i] = s[i]
			expanded[2*i+1] = s[i]
		}
		s = string(expanded)
	case 6:
	default:
		return color.NRGBA{}, fmt.Errorf("malformed color %q", value)
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexNibble(s[2*i])
		lo, ok2 := hexNibble(s[2*i+1])
		if !ok1 || !ok2 {
			return color.NRGBA{}, fmt.Errorf("malformed color %q", value)
		}
		rgb[i] = hi<<4 | lo
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xFF}, nil
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
