package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"reflex/internal/domain"
)

// Recorder diagnostics grouped by the device error they indicate. Matching
// is case-insensitive on ffmpeg's stderr; the first group that matches wins.
var stderrSignatures = []struct {
	kind    domain.ErrorKind
	needles []string
}{
	{domain.ErrorKindPermissionDenied, []string{"permission denied", "access denied", "operation not permitted", "not authorized"}},
	{domain.ErrorKindDeviceBusy, []string{"device or resource busy", "resource temporarily unavailable", "device busy"}},
	{domain.ErrorKindUnsupportedEnvironment, []string{"unknown input format", "unrecognized option", "encoder not found", "protocol not found"}},
	{domain.ErrorKindDeviceNotFound, []string{"no such file or directory", "no such device", "no such entity", "no such source", "connection refused", "input/output error", "cannot open audio device"}},
}

// Classify maps recorder stderr to a device error kind.
func Classify(stderr string) domain.ErrorKind {
	lower := strings.ToLower(stderr)
	for _, signature := range stderrSignatures {
		for _, needle := range signature.needles {
			if strings.Contains(lower, needle) {
				return signature.kind
			}
		}
	}
	return domain.ErrorKindDeviceFailed
}

// classifyStartError handles failures to launch the recorder at all.
func classifyStartError(err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return domain.NewError(domain.ErrorKindUnsupportedEnvironment, fmt.Errorf("audio recorder is not installed: %w", err))
	case errors.Is(err, os.ErrPermission):
		return domain.NewError(domain.ErrorKindUnsupportedEnvironment, fmt.Errorf("audio recorder is not executable: %w", err))
	default:
		return domain.NewError(domain.ErrorKindDeviceFailed, fmt.Errorf("failed to start ffmpeg: %w", err))
	}
}
