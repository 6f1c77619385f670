package template

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

//go:embed gui_options.json
var guiOptions []byte

// GUIOptions returns the embedded JSON resource enumerating the option groups
// the template editor exposes.
func GUIOptions() []byte {
	out := make([]byte, len(guiOptions))
	copy(out, guiOptions)
	return out
}

// Options adjust a template after loading.
type Options struct {
	// Theme overrides the palette: light, gray, or dark. Empty keeps the
	// template's own colors.
	Theme string
	// MinBannerHeight raises the template's minimum band height when positive.
	MinBannerHeight int
	// Mode overrides the template's output mode when non-empty.
	Mode string
	// FontPath overrides the template's font file when non-empty.
	FontPath string
}

// base returns the defaults a partial template document is merged over.
func base() Template {
	return Template{
		Name:   "custom",
		Mode:   ModeKeep,
		Fields: []string{"bird", "time", "location", "gps", "camera", "lens", "settings"},
		Fonts:  Fonts{Title: 72, Body: 40, Small: 28},
		Colors: Colors{
			Background: "#ECECEC",
			Text:       "#333333",
			Muted:      "#5A5A5A",
			Divider:    "#C8C8C8",
		},
		Divider: Divider{Enabled: true},
		Logo:    Logo{Anchor: "bottom-left"},
		Banner:  Banner{MinHeight: 160, LeftRatio: 0.58, PaddingX: 48, PaddingY: 24},
	}
}

// ListBuiltins returns the names of the embedded templates.
func ListBuiltins() []string {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") {
			names = append(names, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// Load resolves nameOrPath to a validated Template. A path to an existing
// file wins over a built-in of the same name; built-ins always succeed.
func Load(nameOrPath string, opts Options) (*Template, error) {
	nameOrPath = strings.TrimSpace(nameOrPath)
	if nameOrPath == "" {
		nameOrPath = "default"
	}

	var (
		raw []byte
		ext string
		err error
	)
	if info, statErr := os.Stat(nameOrPath); statErr == nil && !info.IsDir() {
		raw, err = os.ReadFile(nameOrPath)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		ext = strings.ToLower(filepath.Ext(nameOrPath))
	} else {
		raw, err = builtinFS.ReadFile("builtin/" + nameOrPath + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("template %q is neither a file nor a built-in (built-ins: %s)",
				nameOrPath, strings.Join(ListBuiltins(), ", "))
		}
		ext = ".yaml"
	}

	tpl := base()
	switch ext {
	case ".json":
		if err := json.Unmarshal(raw, &tpl); err != nil {
			return nil, &InvalidError{Path: nameOrPath, Reason: err.Error()}
		}
	default:
		if err := yaml.Unmarshal(raw, &tpl); err != nil {
			return nil, &InvalidError{Path: nameOrPath, Reason: err.Error()}
		}
	}

	if theme := strings.ToLower(strings.TrimSpace(opts.Theme)); theme != "" {
		override, ok := themes[theme]
		if !ok {
			return nil, &InvalidError{Path: "theme", Reason: fmt.Sprintf("unknown theme %q", theme)}
		}
		tpl.Colors = override
	}
	if opts.MinBannerHeight > 0 {
		tpl.Banner.MinHeight = opts.MinBannerHeight
	}
	if opts.Mode != "" {
		mode, err := ParseMode(opts.Mode)
		if err != nil {
			return nil, &InvalidError{Path: "mode", Reason: err.Error()}
		}
		tpl.Mode = mode
	}
	if opts.FontPath != "" {
		tpl.Fonts.Path = opts.FontPath
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}
