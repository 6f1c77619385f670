package config

import "runtime"

const (
	defaultLogDir          = "~/.local/share/birdstamp/logs"
	defaultTemplate        = "default"
	defaultTheme           = "gray"
	defaultMode            = "keep"
	defaultFrameStyle      = "crop"
	defaultBannerHeight    = 160
	defaultMaxLongEdge     = 2048
	defaultOutputFormat    = "jpeg"
	defaultQuality         = 92
	defaultNameTemplate    = "{stem}__banner.{ext}"
	defaultTimeFormat      = "2006-01-02 15:04"
	defaultBirdRegex       = `^(?P<bird>[^_]+)_`
	defaultExifToolMode    = "auto"
	defaultExifToolBinary  = "exiftool"
	defaultStartTimeout    = 20
	defaultShutdownTimeout = 10
	defaultLogFormat       = "auto"
	defaultLogLevel        = "info"
)

func defaultShowFields() []string {
	return []string{"bird", "time", "location", "gps", "camera", "lens", "settings"}
}

func defaultBirdFrom() []string {
	return []string{"arg", "meta", "report", "filename"}
}

func defaultJobs() int {
	cpus := runtime.NumCPU()
	if cpus <= 2 {
		return 1
	}
	return cpus - 1
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Render: Render{
			Template:     defaultTemplate,
			Theme:        defaultTheme,
			Mode:         defaultMode,
			FrameStyle:   defaultFrameStyle,
			BannerHeight: defaultBannerHeight,
			MaxLongEdge:  defaultMaxLongEdge,
			Show:         defaultShowFields(),
			OutputFormat: defaultOutputFormat,
			Quality:      defaultQuality,
			NameTemplate: defaultNameTemplate,
			TimeFormat:   defaultTimeFormat,
			SkipExisting: true,
			ShowEqFocal:  true,
			Jobs:         defaultJobs(),
		},
		Naming: Naming{
			BirdFrom:  defaultBirdFrom(),
			BirdRegex: defaultBirdRegex,
		},
		ExifTool: ExifTool{
			Mode:            defaultExifToolMode,
			Binary:          defaultExifToolBinary,
			StartTimeout:    defaultStartTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Report: Report{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
