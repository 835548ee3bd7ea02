package ports

import (
	"context"
	"io"

	"reflex/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate       int
	Channels         int
	InputFormat      string
	InputDevice      string
	EchoCancellation bool
	EchoCancelSource string
	NoiseSuppression bool
}

// AudioSession is a live capture session. Reads return the encoded stream;
// after Stop the stream drains to io.EOF.
type AudioSession interface {
	io.ReadCloser
	Stop() error
	MimeType() string
}

// AudioCapture creates microphone capture sessions. Start failures are
// *domain.Error values with a device error kind.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// Transcriber turns one finished recording into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio domain.Audio) (string, error)
}

// ThoughtStore is the remote or local record store holding thoughts.
type ThoughtStore interface {
	// List returns at most limit thoughts, most recent first.
	List(ctx context.Context, limit int) ([]domain.Thought, error)
	Insert(ctx context.Context, thought domain.NewThought) (domain.Thought, error)
	// Delete removes the thought; a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// RulesEngine transforms transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	StateChanged(state domain.CaptureState, reason domain.StateReason)
	DraftChanged(draft *domain.Draft)
	ThoughtsChanged(thoughts []domain.Thought)
	ErrorRaised(kind domain.ErrorKind, detail string)
}
