package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"reflex/internal/domain"
	"reflex/internal/ports"
)

const (
	// MimeType is the container the capture stream is encoded in.
	MimeType = "audio/flac"

	defaultSampleRate = 44100
	startupWindow     = 250 * time.Millisecond
	stopGrace         = 1200 * time.Millisecond
)

// FFMPEGCapture records the microphone through ffmpeg, encoding FLAC to stdout.
type FFMPEGCapture struct {
	command string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	args := buildArgs(cfg)

	stdoutReader, stdoutWriter := io.Pipe()
	stderr := &lockedBuffer{}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderr
	cmd.WaitDelay = 2 * time.Second

	if err := cmd.Start(); err != nil {
		_ = stdoutWriter.Close()
		return nil, classifyStartError(err)
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = stdoutWriter.Close()
		waitErr <- err
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		_ = stdoutReader.Close()
		return nil, classifyEarlyExit(err, stderr.String())
	case <-time.After(startupWindow):
	}

	return &ffmpegSession{
		stdout:  stdoutReader,
		stderr:  stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

func buildArgs(cfg ports.AudioConfig) []string {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	device := cfg.InputDevice
	if cfg.EchoCancellation && cfg.EchoCancelSource != "" {
		device = cfg.EchoCancelSource
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", device,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
	}
	if cfg.NoiseSuppression {
		args = append(args, "-af", "afftdn")
	}
	return append(args, "-c:a", "flac", "-f", "flac", "-")
}

type ffmpegSession struct {
	stdout *io.PipeReader
	stderr *lockedBuffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *ffmpegSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *ffmpegSession) MimeType() string {
	return MimeType
}

// Close stops the recorder and unblocks any pending Read.
func (s *ffmpegSession) Close() error {
	err := s.Stop()
	_ = s.stdout.Close()
	return err
}

// Stop interrupts ffmpeg so it flushes the encoder, killing it after a grace
// period. The stream remains readable until io.EOF.
func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, s.stderr.String())
		}
	})

	return s.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}
	return err
}

// lockedBuffer collects stderr written by the exec copier goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(bytes.TrimSpace(b.buf.Bytes()))
}

func (b *lockedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

var _ ports.AudioCapture = (*FFMPEGCapture)(nil)

func classifyEarlyExit(err error, stderr string) error {
	if err == nil {
		return domain.NewError(domain.ErrorKindDeviceFailed, errors.New("ffmpeg exited before capture started"))
	}
	cause := fmt.Errorf("ffmpeg exited before capture started: %w", err)
	if stderr != "" {
		cause = fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, stderr)
	}
	return domain.NewError(Classify(stderr), cause)
}
