package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"birdstamp/internal/logging"
)

// Extractor produces a metadata record for a file. Implementations never
// fail the file outright for extraction problems; they return an empty
// record so rendering can continue with whatever is known.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Record, error)
	Close(ctx context.Context) error
}

// ExtractorOptions configure extractor construction.
type ExtractorOptions struct {
	// Mode is one of auto, on, off.
	Mode            string
	Binary          string
	StartTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// NewExtractor builds the extractor for the configured exiftool mode.
//
// Mode on requires the binary and fails construction when it is missing.
// Mode auto uses the binary when present and quietly degrades to embedded
// EXIF parsing otherwise. Mode off never launches a subprocess.
func NewExtractor(opts ExtractorOptions, sessionOpts ...SessionOption) (Extractor, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	logger := logging.WithSource(opts.Logger, "metadata")

	switch opts.Mode {
	case "off":
		return &embeddedExtractor{logger: logger}, nil
	case "on":
		if len(sessionOpts) == 0 && !Detect(opts.Binary) {
			return nil, fmt.Errorf("%w: exiftool not found (exiftool.mode is on)", ErrUnavailable)
		}
	case "auto", "":
		if len(sessionOpts) == 0 && !Detect(opts.Binary) {
			logger.Info("exiftool not found, using embedded metadata")
			return &embeddedExtractor{logger: logger}, nil
		}
	default:
		return nil, fmt.Errorf("unknown exiftool mode %q", opts.Mode)
	}

	return &sessionExtractor{
		opts:        opts,
		sessionOpts: sessionOpts,
		logger:      logger,
	}, nil
}

// sessionExtractor lazily starts one stay-open session shared by all jobs in
// a run. A failed start permanently degrades the run to embedded parsing so
// a broken binary costs one warning, not one error per file.
type sessionExtractor struct {
	opts        ExtractorOptions
	sessionOpts []SessionOption
	logger      *slog.Logger

	mu       sync.Mutex
	session  *Session
	degraded bool
}

func (e *sessionExtractor) Extract(ctx context.Context, path string) (*Record, error) {
	session, err := e.ensureSession(ctx)
	if err != nil {
		return extractEmbedded(path, e.logger)
	}
	rec, err := session.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		e.logger.Warn("exiftool extract failed, falling back",
			logging.FieldSource, path, "error", err)
		return extractEmbedded(path, e.logger)
	}
	return rec, nil
}

// Writer exposes the tag write-back channel when a live session exists.
func (e *sessionExtractor) Writer(ctx context.Context) (*Session, error) {
	return e.ensureSession(ctx)
}

func (e *sessionExtractor) ensureSession(ctx context.Context) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		return e.session, nil
	}
	if e.degraded {
		return nil, fmt.Errorf("%w: exiftool session unavailable", ErrProcess)
	}
	session, err := StartSession(ctx, SessionOptions{
		Binary:          e.opts.Binary,
		StartTimeout:    e.opts.StartTimeout,
		ShutdownTimeout: e.opts.ShutdownTimeout,
		Logger:          e.logger,
	}, e.sessionOpts...)
	if err != nil {
		e.degraded = true
		e.logger.Warn("exiftool session failed to start, using embedded metadata", "error", err)
		return nil, err
	}
	e.session = session
	return session, nil
}

func (e *sessionExtractor) Close(ctx context.Context) error {
	e.mu.Lock()
	session := e.session
	e.session = nil
	e.mu.Unlock()
	if session == nil {
		return nil
	}
	return session.Close(ctx)
}

// embeddedExtractor parses EXIF directly from the file bytes.
type embeddedExtractor struct {
	logger *slog.Logger
}

func (e *embeddedExtractor) Extract(_ context.Context, path string) (*Record, error) {
	return extractEmbedded(path, e.logger)
}

func (e *embeddedExtractor) Close(context.Context) error { return nil }
