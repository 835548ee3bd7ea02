package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reflex/internal/domain"
	"reflex/internal/ports"
)

var (
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	ErrNoActiveRecording = errors.New("no active recording")
	ErrEmptyDraft        = errors.New("draft text is empty")
	ErrMissingThoughtID  = errors.New("thought id is required")
)

// Config controls capture and listing behavior.
type Config struct {
	Audio        ports.AudioConfig
	ChunkSize    int
	DrainTimeout time.Duration
	ListLimit    int
}

// CaptureController owns the recording lifecycle, the draft and the loaded
// thought list. All exported methods are safe for concurrent use; the
// capture state gates which of them may proceed.
type CaptureController struct {
	audio       ports.AudioCapture
	transcriber ports.Transcriber
	store       ports.ThoughtStore
	events      ports.EventSink
	finalizer   draftFinalizer
	log         zerolog.Logger
	cfg         Config

	mu        sync.Mutex
	state     domain.CaptureState
	recording *activeRecording
	draft     domain.Draft
	notice    *domain.Notice
	thoughts  []domain.Thought

	listIssued  uint64
	listApplied uint64
}

func NewCaptureController(
	audio ports.AudioCapture,
	transcriber ports.Transcriber,
	store ports.ThoughtStore,
	rules ports.RulesEngine,
	events ports.EventSink,
	log zerolog.Logger,
	cfg Config,
) *CaptureController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 3 * time.Second
	}
	if cfg.ListLimit <= 0 || cfg.ListLimit > domain.MaxThoughts {
		cfg.ListLimit = domain.MaxThoughts
	}
	return &CaptureController{
		audio:       audio,
		transcriber: transcriber,
		store:       store,
		events:      events,
		finalizer:   newDraftFinalizer(rules, log),
		log:         log.With().Str("component", "capture").Logger(),
		cfg:         cfg,
		state:       domain.CaptureStateIdle,
	}
}

// Start acquires the microphone and begins recording.
func (c *CaptureController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.CaptureStateIdle {
		return fmt.Errorf("%w: cannot start while %s", ErrInvalidTransition, c.state)
	}
	c.notice = nil

	sessionCtx, cancel := context.WithCancel(ctx)
	session, err := c.audio.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		cancel()
		kind := domain.KindOf(err, domain.ErrorKindDeviceFailed)
		if !domain.IsDeviceKind(kind) {
			kind = domain.ErrorKindDeviceFailed
		}
		c.raiseLocked(kind, err)
		c.events.StateChanged(domain.CaptureStateIdle, domain.ReasonDeviceFailed)
		return withKind(err, kind)
	}

	c.recording = startRecording(cancel, session, c.cfg.ChunkSize)
	c.setStateLocked(domain.CaptureStateRecording, domain.ReasonRecordingStarted)
	return nil
}

// Stop ends the recording, transcribes it and, on success, exposes the
// transcript as an editable draft.
func (c *CaptureController) Stop(ctx context.Context) (domain.Draft, error) {
	c.mu.Lock()
	if c.state != domain.CaptureStateRecording || c.recording == nil {
		c.mu.Unlock()
		return domain.Draft{}, ErrNoActiveRecording
	}
	active := c.recording
	c.recording = nil
	c.setStateLocked(domain.CaptureStateProcessing, domain.ReasonTranscribing)
	c.mu.Unlock()

	audio, err := active.finish(c.cfg.DrainTimeout)
	if err != nil {
		c.log.Warn().Err(err).Msg("capture did not stop cleanly")
	}
	c.log.Debug().
		Int("bytes", len(audio.Data)).
		Dur("duration", time.Since(active.startedAt)).
		Msg("recording finished")

	if len(audio.Data) == 0 {
		return domain.Draft{}, c.failTranscription(errors.New("no audio captured"), domain.ReasonNoTranscript)
	}

	raw, err := c.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return domain.Draft{}, c.failTranscription(err, domain.ReasonTranscriptionFailed)
	}

	text := c.finalizer.Finalize(raw)
	if text == "" {
		return domain.Draft{}, c.failTranscription(errors.New("transcript is empty"), domain.ReasonNoTranscript)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = domain.Draft{Text: text}
	draft := c.draft
	c.events.DraftChanged(&draft)
	c.setStateLocked(domain.CaptureStateDraftReady, domain.ReasonDraftReady)
	return draft, nil
}

// Abort discards an in-progress recording without transcription.
func (c *CaptureController) Abort() error {
	c.mu.Lock()
	if c.state != domain.CaptureStateRecording || c.recording == nil {
		c.mu.Unlock()
		return ErrNoActiveRecording
	}
	active := c.recording
	c.recording = nil
	c.mu.Unlock()

	active.discard(c.cfg.DrainTimeout)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(domain.CaptureStateIdle, domain.ReasonRecordingDiscarded)
	return nil
}

// Close releases the capture device if a recording is still open.
func (c *CaptureController) Close() {
	if err := c.Abort(); err != nil && !errors.Is(err, ErrNoActiveRecording) {
		c.log.Warn().Err(err).Msg("failed to release capture device")
	}
}

// EditDraft replaces the draft text.
func (c *CaptureController) EditDraft(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.CaptureStateDraftReady {
		return fmt.Errorf("%w: cannot edit while %s", ErrInvalidTransition, c.state)
	}
	c.draft.Text = text
	draft := c.draft
	c.events.DraftChanged(&draft)
	return nil
}

// SelectMood sets the draft mood; selecting the current mood clears it.
func (c *CaptureController) SelectMood(mood domain.Mood) (domain.Mood, error) {
	if !mood.Valid() {
		return c.draftMood(), fmt.Errorf("unknown mood %q", mood)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.CaptureStateDraftReady {
		return c.draft.Mood, fmt.Errorf("%w: cannot select mood while %s", ErrInvalidTransition, c.state)
	}
	if c.draft.Mood == mood {
		c.draft.Mood = domain.MoodNone
	} else {
		c.draft.Mood = mood
	}
	draft := c.draft
	c.events.DraftChanged(&draft)
	return draft.Mood, nil
}

// DiscardDraft drops the draft and returns to idle.
func (c *CaptureController) DiscardDraft() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.CaptureStateDraftReady {
		return fmt.Errorf("%w: no draft to discard", ErrInvalidTransition)
	}
	c.draft = domain.Draft{}
	c.events.DraftChanged(nil)
	c.setStateLocked(domain.CaptureStateIdle, domain.ReasonDraftDiscarded)
	return nil
}

// Save persists the draft as a new thought and refreshes the list.
// Empty drafts are rejected before the store is contacted.
func (c *CaptureController) Save(ctx context.Context) (domain.Thought, error) {
	c.mu.Lock()
	if c.state != domain.CaptureStateDraftReady {
		state := c.state
		c.mu.Unlock()
		return domain.Thought{}, fmt.Errorf("%w: cannot save while %s", ErrInvalidTransition, state)
	}
	text := strings.TrimSpace(c.draft.Text)
	if text == "" {
		c.mu.Unlock()
		return domain.Thought{}, ErrEmptyDraft
	}
	pending := domain.NewThought{AudioText: text, Mood: c.draft.Mood}
	c.setStateLocked(domain.CaptureStateSaving, domain.ReasonSaving)
	c.mu.Unlock()

	saved, err := c.store.Insert(ctx, pending)
	if err != nil {
		c.mu.Lock()
		c.raiseLocked(domain.ErrorKindStoreWriteFailed, err)
		c.setStateLocked(domain.CaptureStateDraftReady, domain.ReasonSaveFailed)
		c.mu.Unlock()
		return domain.Thought{}, withKind(err, domain.ErrorKindStoreWriteFailed)
	}

	c.mu.Lock()
	c.draft = domain.Draft{}
	c.events.DraftChanged(nil)
	c.setStateLocked(domain.CaptureStateIdle, domain.ReasonThoughtSaved)
	c.mu.Unlock()

	c.log.Info().Str("id", saved.ID).Str("mood", string(saved.Mood)).Msg("thought saved")

	// A failed refresh is surfaced as a notice; the save itself succeeded.
	_, _ = c.Refresh(ctx)
	return saved, nil
}

// Status returns the current capture status.
func (c *CaptureController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := domain.Status{
		State: c.state,
		Busy:  c.state == domain.CaptureStateProcessing || c.state == domain.CaptureStateSaving,
	}
	if c.state == domain.CaptureStateDraftReady || c.state == domain.CaptureStateSaving {
		draft := c.draft
		status.Draft = &draft
	}
	if c.notice != nil {
		notice := *c.notice
		status.Notice = &notice
	}
	return status
}

// DismissError clears the current notice.
func (c *CaptureController) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = nil
}

func (c *CaptureController) draftMood() domain.Mood {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Mood
}

func (c *CaptureController) failTranscription(err error, reason domain.StateReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft = domain.Draft{}
	c.raiseLocked(domain.ErrorKindTranscriptionFailed, err)
	c.setStateLocked(domain.CaptureStateIdle, reason)
	return withKind(err, domain.ErrorKindTranscriptionFailed)
}

func (c *CaptureController) setStateLocked(state domain.CaptureState, reason domain.StateReason) {
	c.log.Debug().Str("from", string(c.state)).Str("to", string(state)).Str("reason", string(reason)).Msg("state changed")
	c.state = state
	c.events.StateChanged(state, reason)
}

func (c *CaptureController) raiseLocked(kind domain.ErrorKind, err error) {
	detail := domain.Detail(err)
	c.log.Error().Err(err).Str("kind", string(kind)).Msg("operation failed")
	c.notice = &domain.Notice{Kind: kind, Detail: detail}
	c.events.ErrorRaised(kind, detail)
}

// withKind keeps an existing *domain.Error of the same kind, otherwise wraps.
func withKind(err error, kind domain.ErrorKind) error {
	var kinded *domain.Error
	if errors.As(err, &kinded) && kinded.Kind == kind {
		return err
	}
	return domain.NewError(kind, err)
}
