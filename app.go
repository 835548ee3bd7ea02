package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"reflex/internal/bootstrap"
	"reflex/internal/display"
	"reflex/internal/domain"
	"reflex/internal/usecase"
)

const (
	eventState    = "reflex:state"
	eventDraft    = "reflex:draft"
	eventThoughts = "reflex:thoughts"
	eventError    = "reflex:error"
)

// ThoughtView is a thought prepared for the journal list.
type ThoughtView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Recency   string    `json:"recency"`
	Text      string    `json:"text"`
	Mood      string    `json:"mood"`
	MoodEmoji string    `json:"moodEmoji"`
	MoodLabel string    `json:"moodLabel"`
}

// MoodOption is one entry of the mood picker.
type MoodOption struct {
	Value string `json:"value"`
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

// App is the Wails application root.
type App struct {
	ctx context.Context

	services   bootstrap.Services
	controller *usecase.CaptureController
	locale     display.Locale
	log        zerolog.Logger
	bootErr    error

	emit func(ctx context.Context, name string, data ...any)
	now  func() time.Time
}

func NewApp() *App {
	return &App{
		locale: display.LocaleRU,
		log:    zerolog.Nop(),
		emit:   runtime.EventsEmit,
		now:    time.Now,
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.ErrorRaised(domain.ErrorKindStartup, err.Error())
		return
	}

	a.services = services
	a.controller = services.Controller
	a.locale = services.Locale
	a.log = services.Logger
	a.StateChanged(domain.CaptureStateIdle, domain.ReasonMicCold)

	if _, err := a.controller.Refresh(ctx); err != nil {
		a.log.Warn().Err(err).Msg("initial thought list failed")
	}
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Close()
	}
	if err := a.services.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close services")
	}
}

// StartRecording acquires the microphone and starts capturing.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Start(a.ctx); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// StopRecording stops capturing and returns the transcribed draft.
func (a *App) StopRecording() (domain.Draft, error) {
	if err := a.requireReady(); err != nil {
		return domain.Draft{}, err
	}
	return a.controller.Stop(a.ctx)
}

// AbortRecording discards an in-progress recording.
func (a *App) AbortRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.controller.Abort(); err != nil && !errors.Is(err, usecase.ErrNoActiveRecording) {
		return err
	}
	return nil
}

func (a *App) EditDraft(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.EditDraft(text)
}

// SelectMood sets the draft mood; picking the current mood again clears it.
func (a *App) SelectMood(value string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	mood, err := domain.ParseMood(value)
	if err != nil {
		return "", err
	}
	selected, err := a.controller.SelectMood(mood)
	return string(selected), err
}

func (a *App) DiscardDraft() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.DiscardDraft()
}

// SaveThought stores the draft and returns the saved entry.
func (a *App) SaveThought() (ThoughtView, error) {
	if err := a.requireReady(); err != nil {
		return ThoughtView{}, err
	}
	thought, err := a.controller.Save(a.ctx)
	if err != nil {
		return ThoughtView{}, err
	}
	return a.view(thought), nil
}

// ListThoughts reloads the journal from the store.
func (a *App) ListThoughts() ([]ThoughtView, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	thoughts, err := a.controller.Refresh(a.ctx)
	return a.views(thoughts), err
}

// RecentThoughts returns the capture screen preview from the loaded list.
func (a *App) RecentThoughts() []ThoughtView {
	if a.controller == nil {
		return []ThoughtView{}
	}
	thoughts := a.controller.Thoughts()
	if len(thoughts) > display.PreviewCount {
		thoughts = thoughts[:display.PreviewCount]
	}
	return a.views(thoughts)
}

func (a *App) DeleteThought(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Delete(a.ctx, id)
}

func (a *App) DismissError() {
	if a.controller != nil {
		a.controller.DismissError()
	}
}

// GetStatus returns the current capture status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		status := domain.Status{State: domain.CaptureStateIdle}
		if a.bootErr != nil {
			status.Notice = &domain.Notice{Kind: domain.ErrorKindStartup, Detail: a.bootErr.Error()}
		}
		return status
	}
	return a.controller.Status()
}

// MoodOptions lists the selectable moods in display order.
func (a *App) MoodOptions() []MoodOption {
	options := make([]MoodOption, 0, len(domain.Moods))
	for _, mood := range domain.Moods {
		options = append(options, MoodOption{
			Value: string(mood),
			Emoji: display.MoodEmoji(mood),
			Label: display.MoodLabel(mood, a.locale),
		})
	}
	return options
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	cfg := a.services.Config
	return map[string]string{
		"transcriber":      cfg.Transcriber,
		"store":            cfg.Store,
		"locale":           string(a.locale),
		"rulesFile":        cfg.Rules.Path,
		"audioInput":       cfg.Audio.InputDevice,
		"audioInputFormat": cfg.Audio.InputFormat,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) view(thought domain.Thought) ThoughtView {
	return ThoughtView{
		ID:        thought.ID,
		CreatedAt: thought.CreatedAt,
		Recency:   display.RecencyLabel(thought.CreatedAt, a.now(), a.locale),
		Text:      thought.AudioText,
		Mood:      string(thought.Mood),
		MoodEmoji: display.MoodEmoji(thought.Mood),
		MoodLabel: display.MoodLabel(thought.Mood, a.locale),
	}
}

func (a *App) views(thoughts []domain.Thought) []ThoughtView {
	views := make([]ThoughtView, 0, len(thoughts))
	for _, thought := range thoughts {
		views = append(views, a.view(thought))
	}
	return views
}

// StateChanged emits capture lifecycle updates to the frontend.
func (a *App) StateChanged(state domain.CaptureState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventState, map[string]string{
		"state":  string(state),
		"reason": string(reason),
		"hint":   display.StateHint(state, a.locale),
	})
}

// DraftChanged emits the current draft, or null once it is gone.
func (a *App) DraftChanged(draft *domain.Draft) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventDraft, draft)
}

// ThoughtsChanged emits the refreshed journal list.
func (a *App) ThoughtsChanged(thoughts []domain.Thought) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventThoughts, a.views(thoughts))
}

// ErrorRaised emits a dismissible notice to the UI.
func (a *App) ErrorRaised(kind domain.ErrorKind, detail string) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventError, map[string]string{
		"kind":    string(kind),
		"message": display.ErrorMessage(kind, a.locale),
		"detail":  detail,
	})
}
