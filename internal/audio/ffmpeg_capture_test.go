package audio

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reflex/internal/domain"
	"reflex/internal/ports"
)

func TestFFMPEGCaptureStartReadAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\ntrap 'printf tail; exit 0' INT\nprintf 'hello'\nwhile true; do sleep 0.05; done\n")
	capture := NewFFMPEGCapture(script)

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.MimeType() != "audio/flac" {
		t.Fatalf("unexpected mime type: %q", session.MimeType())
	}

	collected := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(session)
		collected <- data
	}()

	time.Sleep(50 * time.Millisecond)
	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	select {
	case data := <-collected:
		if string(data) != "hellotail" {
			t.Fatalf("expected stream flushed on stop, got %q", string(data))
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("stream did not reach EOF after stop")
	}
}

func TestFFMPEGCaptureStartEarlyExitIsClassified(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.ErrorKind{
		"echo 'pa_simple_new failed: Access denied' 1>&2":                     domain.ErrorKindPermissionDenied,
		"echo 'default: No such entity' 1>&2":                                 domain.ErrorKindDeviceNotFound,
		"echo 'cannot open audio device hw:1 (Device or resource busy)' 1>&2": domain.ErrorKindDeviceBusy,
		"echo 'Unknown input format: pulse' 1>&2":                             domain.ErrorKindUnsupportedEnvironment,
		"echo 'boom' 1>&2":                                                    domain.ErrorKindDeviceFailed,
	}

	index := 0
	for body, want := range cases {
		index++
		script := writeScript(t, "fail"+string(rune('a'+index))+".sh", "#!/usr/bin/env bash\n"+body+"\nexit 1\n")
		capture := NewFFMPEGCapture(script)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, err := capture.Start(ctx, ports.AudioConfig{})
		cancel()

		if err == nil {
			t.Fatalf("%s: expected early exit error", body)
		}
		if !strings.Contains(err.Error(), "exited before capture started") {
			t.Fatalf("%s: unexpected error: %v", body, err)
		}
		if got := domain.KindOf(err, ""); got != want {
			t.Fatalf("%s: got kind %s want %s", body, got, want)
		}
	}
}

func TestFFMPEGCaptureMissingRecorder(t *testing.T) {
	t.Parallel()

	capture := NewFFMPEGCapture(filepath.Join(t.TempDir(), "no-such-ffmpeg"))
	_, err := capture.Start(context.Background(), ports.AudioConfig{})
	if got := domain.KindOf(err, ""); got != domain.ErrorKindUnsupportedEnvironment {
		t.Fatalf("expected unsupported environment, got %v", err)
	}
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	args := strings.Join(buildArgs(ports.AudioConfig{}), " ")
	for _, want := range []string{"-f pulse", "-i default", "-ac 1", "-ar 44100", "-c:a flac -f flac -"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
	if strings.Contains(args, "afftdn") {
		t.Fatalf("noise suppression should be off by default: %q", args)
	}

	args = strings.Join(buildArgs(ports.AudioConfig{
		SampleRate:       48000,
		InputFormat:      "alsa",
		InputDevice:      "hw:1",
		EchoCancellation: true,
		EchoCancelSource: "echo-cancel-source",
		NoiseSuppression: true,
	}), " ")
	for _, want := range []string{"-f alsa", "-i echo-cancel-source", "-ar 48000", "-af afftdn"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}

	args = strings.Join(buildArgs(ports.AudioConfig{InputDevice: "mic0", EchoCancellation: true}), " ")
	if !strings.Contains(args, "-i mic0") {
		t.Fatalf("expected plain device without an echo-cancel source: %q", args)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.ErrorKind{
		"Permission denied":                               domain.ErrorKindPermissionDenied,
		"Device or resource busy":                         domain.ErrorKindDeviceBusy,
		"hw:3: No such file or directory":                 domain.ErrorKindDeviceNotFound,
		"pa_context_connect() failed: Connection refused": domain.ErrorKindDeviceNotFound,
		"Unknown input format: 'avfoundation'":            domain.ErrorKindUnsupportedEnvironment,
		"":                                                domain.ErrorKindDeviceFailed,
	}
	for stderr, want := range cases {
		if got := Classify(stderr); got != want {
			t.Fatalf("classify %q: got %s want %s", stderr, got, want)
		}
	}
}

func TestNormalizeStopErr(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-c", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
	if got := normalizeStopErr(exec.ErrWaitDelay); got != nil {
		t.Fatalf("expected nil for wait delay, got %v", got)
	}
	boom := errors.New("boom")
	if got := normalizeStopErr(boom); !errors.Is(got, boom) {
		t.Fatalf("expected other errors to pass through, got %v", got)
	}
}

func TestLockedBufferTrims(t *testing.T) {
	t.Parallel()

	var b lockedBuffer
	_, _ = b.Write([]byte("  hi\n"))
	if got := b.String(); got != "hi" {
		t.Fatalf("unexpected trim result: %q", got)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
