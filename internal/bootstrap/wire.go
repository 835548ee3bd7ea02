package bootstrap

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"reflex/internal/audio"
	"reflex/internal/config"
	"reflex/internal/display"
	"reflex/internal/logging"
	"reflex/internal/ports"
	"reflex/internal/providers/deepgram"
	"reflex/internal/providers/httpstt"
	"reflex/internal/providers/openai"
	"reflex/internal/rules"
	"reflex/internal/store/postgrest"
	"reflex/internal/store/sqlite"
	"reflex/internal/usecase"
)

const (
	captureSampleRate = 44100
	captureChannels   = 1
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.CaptureController
	Config     config.Config
	Locale     display.Locale
	Logger     zerolog.Logger

	db *sql.DB
}

// Close releases resources owned by the graph. The controller is closed by
// its owner first.
func (s Services) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	rulesEngine, err := rules.Load(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return Services{}, err
	}

	transcriber, err := newTranscriber(cfg)
	if err != nil {
		return Services{}, err
	}

	store, db, err := newStore(cfg)
	if err != nil {
		return Services{}, err
	}

	controller := usecase.NewCaptureController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		transcriber,
		store,
		rulesEngine,
		eventSink,
		log,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:       captureSampleRate,
				Channels:         captureChannels,
				InputFormat:      cfg.Audio.InputFormat,
				InputDevice:      cfg.Audio.InputDevice,
				EchoCancellation: cfg.Audio.EchoCancellation,
				EchoCancelSource: cfg.Audio.EchoCancelSource,
				NoiseSuppression: cfg.Audio.NoiseSuppression,
			},
			ChunkSize:    cfg.Session.ChunkSize,
			DrainTimeout: cfg.Session.DrainTimeout,
		},
	)

	log.Info().
		Str("transcriber", cfg.Transcriber).
		Str("store", cfg.Store).
		Int("rules", rulesEngine.Len()).
		Msg("services ready")

	return Services{
		Controller: controller,
		Config:     cfg,
		Locale:     display.ParseLocale(cfg.Locale),
		Logger:     log,
		db:         db,
	}, nil
}

func newTranscriber(cfg config.Config) (ports.Transcriber, error) {
	switch cfg.Transcriber {
	case "http", "":
		return httpstt.NewTranscriber(httpstt.Config{
			URL:     cfg.HTTPTranscriber.URL,
			Token:   cfg.HTTPTranscriber.Token,
			Timeout: cfg.HTTPTranscriber.Timeout,
		}), nil
	case "openai":
		return openai.NewTranscriber(openai.Config{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Language: cfg.OpenAI.Language,
		}), nil
	case "deepgram":
		return deepgram.NewTranscriber(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			Language:    cfg.Deepgram.Language,
			SmartFormat: cfg.Deepgram.SmartFormat,
		}), nil
	default:
		return nil, fmt.Errorf("unknown transcriber %q (want http, openai or deepgram)", cfg.Transcriber)
	}
}

func newStore(cfg config.Config) (ports.ThoughtStore, *sql.DB, error) {
	switch cfg.Store {
	case "supabase", "":
		store, err := postgrest.New(postgrest.Config{
			URL:     cfg.Supabase.URL,
			APIKey:  cfg.Supabase.AnonKey,
			Table:   cfg.Supabase.Table,
			Timeout: cfg.Supabase.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlite.New(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want supabase or sqlite)", cfg.Store)
	}
}
