package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Render contains the knobs that shape a banner render.
type Render struct {
	Template     string   `toml:"template"`
	Theme        string   `toml:"theme"`
	Mode         string   `toml:"mode"`
	FrameStyle   string   `toml:"frame_style"`
	BannerHeight int      `toml:"banner_height"`
	MaxLongEdge  int      `toml:"max_long_edge"`
	Show         []string `toml:"show"`
	OutputFormat string   `toml:"output_format"`
	Quality      int      `toml:"quality"`
	NameTemplate string   `toml:"name_template"`
	TimeFormat   string   `toml:"time_format"`
	FontPath     string   `toml:"font_path"`
	SkipExisting bool     `toml:"skip_existing"`
	ShowEqFocal  bool     `toml:"show_eq_focal"`
	Jobs         int      `toml:"jobs"`
}

// Naming contains bird-name resolution configuration.
type Naming struct {
	BirdFrom     []string `toml:"bird_from"`
	BirdRegex    string   `toml:"bird_regex"`
	SpeciesTable string   `toml:"species_table"`
}

// ExifTool contains configuration for the stay-open metadata subprocess.
type ExifTool struct {
	Mode            string `toml:"mode"` // auto|on|off
	Binary          string `toml:"binary"`
	StartTimeout    int    `toml:"start_timeout"`
	ShutdownTimeout int    `toml:"shutdown_timeout"`
}

// Report contains configuration for the sibling-tool species report database.
type Report struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the renderer.
//
// Configuration sections by subsystem:
//   - Paths: default output and log directories
//   - Render: template selection, output mode, encoding, batch policy
//   - Naming: bird-name source priority and filename matching
//   - ExifTool: stay-open subprocess mode, binary, and timeouts
//   - Report: sibling-tool species report database lookup
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Render   Render   `toml:"render"`
	Naming   Naming   `toml:"naming"`
	ExifTool ExifTool `toml:"exiftool"`
	Report   Report   `toml:"report"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/birdstamp/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("birdstamp.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for a render run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes the embedded sample configuration to target.
func CreateSample(target string) error {
	return os.WriteFile(target, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
