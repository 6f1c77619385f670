package config

import (
	"errors"
	"fmt"
	"regexp"
)

var validBirdSources = map[string]bool{
	"arg":      true,
	"meta":     true,
	"report":   true,
	"filename": true,
}

var validShowFields = map[string]bool{
	"bird":     true,
	"time":     true,
	"location": true,
	"gps":      true,
	"camera":   true,
	"lens":     true,
	"settings": true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateExifTool(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.Mode {
	case "keep", "fit", "square", "vertical":
	default:
		return fmt.Errorf("render.mode must be one of keep, fit, square, vertical (got %q)", c.Render.Mode)
	}
	switch c.Render.FrameStyle {
	case "crop", "pad":
	default:
		return fmt.Errorf("render.frame_style must be crop or pad (got %q)", c.Render.FrameStyle)
	}
	switch c.Render.OutputFormat {
	case "jpeg", "jpg", "png", "tif", "tiff", "source":
	default:
		return fmt.Errorf("render.output_format must be jpeg, png, tif, or source (got %q)", c.Render.OutputFormat)
	}
	for _, field := range c.Render.Show {
		if !validShowFields[field] {
			return fmt.Errorf("render.show contains unknown field %q", field)
		}
	}
	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render.quality must be between 1 and 100 (got %d)", c.Render.Quality)
	}
	if c.Render.MaxLongEdge < 0 {
		return errors.New("render.max_long_edge must not be negative")
	}
	if c.Render.BannerHeight < 0 {
		return errors.New("render.banner_height must not be negative")
	}
	return nil
}

func (c *Config) validateNaming() error {
	for _, source := range c.Naming.BirdFrom {
		if !validBirdSources[source] {
			return fmt.Errorf("naming.bird_from contains unknown source %q", source)
		}
	}
	if _, err := regexp.Compile(c.Naming.BirdRegex); err != nil {
		return fmt.Errorf("naming.bird_regex: %w", err)
	}
	return nil
}

func (c *Config) validateExifTool() error {
	switch c.ExifTool.Mode {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("exiftool.mode must be auto, on, or off (got %q)", c.ExifTool.Mode)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
