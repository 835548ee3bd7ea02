package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"reflex/internal/domain"
	"reflex/internal/ports"
)

// activeRecording drains one capture session into memory.
type activeRecording struct {
	cancel context.CancelFunc
	audio  ports.AudioSession

	// buf and readErr are owned by pump until done is closed.
	buf     bytes.Buffer
	readErr error
	done    chan struct{}

	startedAt time.Time
}

func startRecording(cancel context.CancelFunc, audio ports.AudioSession, chunkSize int) *activeRecording {
	r := &activeRecording{
		cancel:    cancel,
		audio:     audio,
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	go r.pump(chunkSize)
	return r
}

func (r *activeRecording) pump(chunkSize int) {
	defer close(r.done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	chunk := make([]byte, chunkSize)
	for {
		n, err := r.audio.Read(chunk)
		if n > 0 {
			r.buf.Write(chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, os.ErrClosed) {
				r.readErr = fmt.Errorf("audio capture error: %w", err)
			}
			return
		}
	}
}

// finish releases the device and returns everything captured so far.
func (r *activeRecording) finish(drainTimeout time.Duration) (domain.Audio, error) {
	stopErr := r.audio.Stop()
	r.wait(drainTimeout)
	r.cancel()

	audio := domain.Audio{
		Data:     r.buf.Bytes(),
		MimeType: r.audio.MimeType(),
	}
	if stopErr != nil {
		stopErr = fmt.Errorf("failed to stop audio capture cleanly: %w", stopErr)
	}
	return audio, errors.Join(stopErr, r.readErr)
}

// discard releases the device and drops the captured audio.
func (r *activeRecording) discard(drainTimeout time.Duration) {
	r.cancel()
	_ = r.audio.Stop()
	r.wait(drainTimeout)
}

func (r *activeRecording) wait(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
	case <-timer.C:
		_ = r.audio.Close()
		<-r.done
	}
}
