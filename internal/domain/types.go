package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxThoughts bounds every thought listing.
const MaxThoughts = 50

// CaptureState models the recording lifecycle.
type CaptureState string

const (
	CaptureStateIdle       CaptureState = "idle"
	CaptureStateRecording  CaptureState = "recording"
	CaptureStateProcessing CaptureState = "processing"
	CaptureStateDraftReady CaptureState = "draft_ready"
	CaptureStateSaving     CaptureState = "saving"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonMicCold             StateReason = "mic_cold"
	ReasonRecordingStarted    StateReason = "recording_started"
	ReasonDeviceFailed        StateReason = "device_failed"
	ReasonTranscribing        StateReason = "transcribing"
	ReasonDraftReady          StateReason = "draft_ready"
	ReasonNoTranscript        StateReason = "no_transcript"
	ReasonTranscriptionFailed StateReason = "transcription_failed"
	ReasonRecordingDiscarded  StateReason = "recording_discarded"
	ReasonDraftDiscarded      StateReason = "draft_discarded"
	ReasonSaving              StateReason = "saving"
	ReasonThoughtSaved        StateReason = "thought_saved"
	ReasonSaveFailed          StateReason = "save_failed"
)

// Mood is the optional annotation on a thought. The zero value means no mood.
type Mood string

const (
	MoodNone     Mood = ""
	MoodGood     Mood = "good"
	MoodNeutral  Mood = "neutral"
	MoodBad      Mood = "bad"
	MoodConfused Mood = "confused"
)

// Moods lists the selectable moods in display order.
var Moods = []Mood{MoodGood, MoodNeutral, MoodBad, MoodConfused}

// Valid reports whether m is a known mood or MoodNone.
func (m Mood) Valid() bool {
	switch m {
	case MoodNone, MoodGood, MoodNeutral, MoodBad, MoodConfused:
		return true
	default:
		return false
	}
}

// ParseMood accepts a mood name in any case. Empty input yields MoodNone.
func ParseMood(value string) (Mood, error) {
	mood := Mood(strings.ToLower(strings.TrimSpace(value)))
	if !mood.Valid() {
		return MoodNone, fmt.Errorf("unknown mood %q", value)
	}
	return mood, nil
}

// Thought is a persisted journal entry.
type Thought struct {
	ID                 string          `json:"id"`
	CreatedAt          time.Time       `json:"created_at"`
	AudioText          string          `json:"audio_text"`
	Mood               Mood            `json:"mood"`
	ReflectionDialogue json.RawMessage `json:"reflection_dialogue,omitempty"`
	PatternsTagged     []string        `json:"patterns_tagged,omitempty"`
}

// NewThought is the insert payload for a record store.
type NewThought struct {
	AudioText string
	Mood      Mood
}

// Validate enforces the insert contract shared by every store.
func (n NewThought) Validate() error {
	if strings.TrimSpace(n.AudioText) == "" {
		return ErrEmptyThought
	}
	if !n.Mood.Valid() {
		return fmt.Errorf("unknown mood %q", n.Mood)
	}
	return nil
}

// Draft is an in-memory transcript awaiting edits and save.
type Draft struct {
	Text string `json:"text"`
	Mood Mood   `json:"mood"`
}

// Audio is one finalized capture.
type Audio struct {
	Data     []byte
	MimeType string
}

// FileName returns the upload file name matching the audio container.
func (a Audio) FileName() string {
	switch a.MimeType {
	case "audio/flac":
		return "audio.flac"
	case "audio/ogg":
		return "audio.ogg"
	case "audio/webm":
		return "audio.webm"
	case "audio/wav", "audio/x-wav":
		return "audio.wav"
	default:
		return "audio.bin"
	}
}

// Notice is the dismissible error shown to the user.
type Notice struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Status summarizes the controller for the UI.
type Status struct {
	State  CaptureState `json:"state"`
	Busy   bool         `json:"busy"`
	Draft  *Draft       `json:"draft,omitempty"`
	Notice *Notice      `json:"notice,omitempty"`
}
