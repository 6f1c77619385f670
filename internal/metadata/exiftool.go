package metadata

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"birdstamp/internal/logging"
)

// readySentinel terminates each response block of the stay-open protocol.
const readySentinel = "{ready}"

// Transport abstracts the stay-open request/response channel. The production
// implementation wraps an exiftool subprocess; tests inject fakes.
type Transport interface {
	// Send writes one request: argument lines followed by -execute.
	Send(lines []string) error
	// ReadUntilReady collects response lines up to the ready sentinel.
	ReadUntilReady(ctx context.Context) ([]string, error)
	// Shutdown closes the channel and reaps the process within timeout.
	Shutdown(timeout time.Duration) error
}

// SessionOptions configure the stay-open session.
type SessionOptions struct {
	Binary          string
	StartTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// SessionOption configures optional session behavior.
type SessionOption func(*Session)

// WithTransport injects a custom transport (primarily for tests).
func WithTransport(t Transport) SessionOption {
	return func(s *Session) {
		if t != nil {
			s.transport = t
		}
	}
}

// Session is a long-lived exiftool process speaking the stay-open protocol.
//
// The channel is single-duplex: exactly one outstanding request is permitted
// at a time, enforced by the session mutex. Interleaving two requests
// corrupts the response framing.
type Session struct {
	mu              sync.Mutex
	transport       Transport
	shutdownTimeout time.Duration
	logger          *slog.Logger
	closed          bool
	// broken marks a channel with an abandoned in-flight exchange; its
	// leftover lines would frame against the next request.
	broken bool
}

// Detect reports whether the exiftool binary is reachable on PATH.
func Detect(binary string) bool {
	if strings.TrimSpace(binary) == "" {
		binary = "exiftool"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// StartSession launches exiftool in stay-open mode and verifies it responds
// within the start timeout.
func StartSession(ctx context.Context, opts SessionOptions, sessionOpts ...SessionOption) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = 20 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	session := &Session{
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          opts.Logger,
	}
	for _, opt := range sessionOpts {
		opt(session)
	}

	if session.transport == nil {
		binary := strings.TrimSpace(opts.Binary)
		if binary == "" {
			binary = "exiftool"
		}
		transport, err := startProcessTransport(binary)
		if err != nil {
			return nil, fmt.Errorf("%w: start: %w", ErrProcess, err)
		}
		session.transport = transport
	}

	// Ping so a missing or broken binary fails here, not mid-batch.
	pingCtx, cancel := context.WithTimeout(ctx, opts.StartTimeout)
	defer cancel()
	if err := session.transport.Send([]string{"-ver"}); err != nil {
		_ = session.transport.Shutdown(opts.ShutdownTimeout)
		return nil, fmt.Errorf("%w: ping: %w", ErrProcess, err)
	}
	if _, err := session.transport.ReadUntilReady(pingCtx); err != nil {
		_ = session.transport.Shutdown(opts.ShutdownTimeout)
		return nil, fmt.Errorf("%w: ping: %w", ErrProcess, err)
	}

	return session, nil
}

// Extract requests metadata for one file. Callers may invoke it from multiple
// goroutines; exchanges are serialized on the channel.
func (s *Session) Extract(ctx context.Context, path string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: session closed", ErrProcess)
	}
	if s.broken {
		return nil, fmt.Errorf("%w: channel out of sync", ErrProcess)
	}

	request := []string{"-S", "-n", "-charset", "filename=utf8", path}
	if err := s.transport.Send(request); err != nil {
		s.broken = true
		return nil, fmt.Errorf("%w: send: %w", ErrProcess, err)
	}
	lines, err := s.transport.ReadUntilReady(ctx)
	if err != nil {
		s.broken = true
		return nil, fmt.Errorf("%w: read: %w", ErrProcess, err)
	}

	tags := make(map[string]string, len(lines))
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		tags[key] = value
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
	}
	return NewRecord(path, ProvenanceExifTool, tags), nil
}

// WriteDescription writes the species name into the file's ImageDescription
// tag. Non-ASCII values are staged through a UTF-8 intermediate file and
// referenced with exiftool's redirect argument so the value never crosses the
// channel in a platform-dependent encoding.
func (s *Session) WriteDescription(ctx context.Context, path, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session closed", ErrProcess)
	}
	if s.broken {
		return fmt.Errorf("%w: channel out of sync", ErrProcess)
	}

	staged, err := os.CreateTemp("", "birdstamp-desc-*.txt")
	if err != nil {
		return fmt.Errorf("stage description: %w", err)
	}
	stagedPath := staged.Name()
	defer os.Remove(stagedPath)
	if _, err := staged.WriteString(value); err != nil {
		staged.Close()
		return fmt.Errorf("stage description: %w", err)
	}
	if err := staged.Close(); err != nil {
		return fmt.Errorf("stage description: %w", err)
	}

	request := []string{
		"-charset", "filename=utf8",
		"-codedcharacterset=utf8",
		"-overwrite_original",
		"-ImageDescription<=" + stagedPath,
		path,
	}
	if err := s.transport.Send(request); err != nil {
		s.broken = true
		return fmt.Errorf("%w: send: %w", ErrProcess, err)
	}
	lines, err := s.transport.ReadUntilReady(ctx)
	if err != nil {
		s.broken = true
		return fmt.Errorf("%w: read: %w", ErrProcess, err)
	}
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "error") {
			return fmt.Errorf("%w: %s", ErrProcess, line)
		}
	}
	return nil
}

// Close shuts the stay-open channel down: flush and terminate command, then a
// bounded wait, then force-kill. A leaked process can hang a later run that
// opens a conflicting stay-open channel, so Close must run on every exit
// path.
func (s *Session) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.transport.Shutdown(s.shutdownTimeout); err != nil {
		s.logger.Warn("exiftool shutdown", "error", err)
		return err
	}
	return nil
}

// processTransport drives a real exiftool subprocess.
type processTransport struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
}

func startProcessTransport(binary string) (*processTransport, error) {
	cmd := exec.Command(binary, "-stay_open", "True", "-@", "-")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	t := &processTransport{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
	}
	go func() {
		defer close(t.lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			t.lines <- scanner.Text()
		}
	}()
	return t, nil
}

func (t *processTransport) Send(lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("-execute\n")
	_, err := io.WriteString(t.stdin, b.String())
	return err
}

func (t *processTransport) ReadUntilReady(ctx context.Context) ([]string, error) {
	var collected []string
	for {
		select {
		case line, ok := <-t.lines:
			if !ok {
				return collected, fmt.Errorf("exiftool output closed")
			}
			if strings.TrimSpace(line) == readySentinel {
				return collected, nil
			}
			collected = append(collected, line)
		case <-ctx.Done():
			return collected, ctx.Err()
		}
	}
}

func (t *processTransport) Shutdown(timeout time.Duration) error {
	_, writeErr := io.WriteString(t.stdin, "-stay_open\nFalse\n-execute\n")
	closeErr := t.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case err := <-done:
		if writeErr != nil {
			return writeErr
		}
		if closeErr != nil {
			return closeErr
		}
		return err
	case <-time.After(timeout):
		_ = t.cmd.Process.Kill()
		<-done
		return fmt.Errorf("exiftool did not exit within %s; killed", timeout)
	}
}
