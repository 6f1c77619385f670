package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	if err := c.normalizeNaming(); err != nil {
		return err
	}
	c.normalizeExifTool()
	if err := c.normalizeReport(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.Template = strings.TrimSpace(c.Render.Template)
	if c.Render.Template == "" {
		c.Render.Template = defaultTemplate
	}
	c.Render.Theme = strings.ToLower(strings.TrimSpace(c.Render.Theme))
	c.Render.Mode = strings.ToLower(strings.TrimSpace(c.Render.Mode))
	if c.Render.Mode == "" {
		c.Render.Mode = defaultMode
	}
	c.Render.FrameStyle = strings.ToLower(strings.TrimSpace(c.Render.FrameStyle))
	if c.Render.FrameStyle == "" {
		c.Render.FrameStyle = defaultFrameStyle
	}
	c.Render.OutputFormat = strings.ToLower(strings.TrimSpace(c.Render.OutputFormat))
	if c.Render.OutputFormat == "" {
		c.Render.OutputFormat = defaultOutputFormat
	}
	if c.Render.NameTemplate == "" {
		c.Render.NameTemplate = defaultNameTemplate
	}
	if c.Render.TimeFormat == "" {
		c.Render.TimeFormat = defaultTimeFormat
	}
	if len(c.Render.Show) == 0 {
		c.Render.Show = defaultShowFields()
	}
	for i, field := range c.Render.Show {
		c.Render.Show[i] = strings.ToLower(strings.TrimSpace(field))
	}
	if c.Render.Jobs <= 0 {
		c.Render.Jobs = defaultJobs()
	}
	if c.Render.Quality <= 0 {
		c.Render.Quality = defaultQuality
	}
}

func (c *Config) normalizeNaming() error {
	if len(c.Naming.BirdFrom) == 0 {
		c.Naming.BirdFrom = defaultBirdFrom()
	}
	for i, source := range c.Naming.BirdFrom {
		c.Naming.BirdFrom[i] = strings.ToLower(strings.TrimSpace(source))
	}
	if strings.TrimSpace(c.Naming.BirdRegex) == "" {
		c.Naming.BirdRegex = defaultBirdRegex
	}
	if strings.TrimSpace(c.Naming.SpeciesTable) != "" {
		expanded, err := expandPath(c.Naming.SpeciesTable)
		if err != nil {
			return fmt.Errorf("naming.species_table: %w", err)
		}
		c.Naming.SpeciesTable = expanded
	}
	return nil
}

func (c *Config) normalizeExifTool() {
	c.ExifTool.Mode = strings.ToLower(strings.TrimSpace(c.ExifTool.Mode))
	if c.ExifTool.Mode == "" {
		c.ExifTool.Mode = defaultExifToolMode
	}
	if strings.TrimSpace(c.ExifTool.Binary) == "" {
		c.ExifTool.Binary = defaultExifToolBinary
	}
	if value, ok := os.LookupEnv("BIRDSTAMP_EXIFTOOL"); ok && strings.TrimSpace(value) != "" {
		c.ExifTool.Binary = strings.TrimSpace(value)
	}
	if c.ExifTool.StartTimeout <= 0 {
		c.ExifTool.StartTimeout = defaultStartTimeout
	}
	if c.ExifTool.ShutdownTimeout <= 0 {
		c.ExifTool.ShutdownTimeout = defaultShutdownTimeout
	}
}

func (c *Config) normalizeReport() error {
	if strings.TrimSpace(c.Report.Path) != "" {
		expanded, err := expandPath(c.Report.Path)
		if err != nil {
			return fmt.Errorf("report.path: %w", err)
		}
		c.Report.Path = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
