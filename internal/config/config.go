package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the journaling client.
type Config struct {
	LogLevel    string `env:"REFLEX_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"REFLEX_LOG_FORMAT" envDefault:"console"`
	Locale      string `env:"REFLEX_LOCALE" envDefault:"ru"`
	Transcriber string `env:"REFLEX_TRANSCRIBER" envDefault:"http"`
	Store       string `env:"REFLEX_STORE" envDefault:"supabase"`

	HTTPTranscriber HTTPTranscriberConfig
	OpenAI          OpenAIConfig
	Deepgram        DeepgramConfig
	Supabase        SupabaseConfig
	SQLite          SQLiteConfig
	Audio           AudioConfig
	Rules           RulesConfig
	Session         SessionConfig
}

type HTTPTranscriberConfig struct {
	URL     string        `env:"REFLEX_TRANSCRIBE_URL"`
	Token   string        `env:"REFLEX_TRANSCRIBE_TOKEN"`
	Timeout time.Duration `env:"REFLEX_TRANSCRIBE_TIMEOUT" envDefault:"60s"`
}

type OpenAIConfig struct {
	APIKey   string `env:"OPENAI_API_KEY"`
	BaseURL  string `env:"OPENAI_BASE_URL"`
	Model    string `env:"OPENAI_TRANSCRIBE_MODEL" envDefault:"whisper-1"`
	Language string `env:"OPENAI_TRANSCRIBE_LANGUAGE"`
}

type DeepgramConfig struct {
	APIKey      string `env:"DEEPGRAM_API_KEY"`
	APIBaseURL  string `env:"DEEPGRAM_API_BASE" envDefault:"https://api.deepgram.com/v1"`
	Model       string `env:"DEEPGRAM_MODEL" envDefault:"nova-2"`
	Language    string `env:"DEEPGRAM_LANGUAGE"`
	SmartFormat bool   `env:"DEEPGRAM_SMART_FORMAT" envDefault:"true"`
}

type SupabaseConfig struct {
	URL     string        `env:"SUPABASE_URL"`
	AnonKey string        `env:"SUPABASE_ANON_KEY"`
	Table   string        `env:"SUPABASE_TABLE" envDefault:"thoughts"`
	Timeout time.Duration `env:"SUPABASE_TIMEOUT" envDefault:"15s"`
}

type SQLiteConfig struct {
	Path string `env:"REFLEX_DB_PATH"`
}

type AudioConfig struct {
	RecorderCommand  string `env:"REFLEX_FFMPEG_COMMAND" envDefault:"ffmpeg"`
	InputFormat      string `env:"REFLEX_AUDIO_INPUT_FORMAT" envDefault:"pulse"`
	InputDevice      string `env:"REFLEX_AUDIO_INPUT_DEVICE" envDefault:"default"`
	EchoCancellation bool   `env:"REFLEX_ECHO_CANCELLATION" envDefault:"true"`
	EchoCancelSource string `env:"REFLEX_ECHO_CANCEL_SOURCE"`
	NoiseSuppression bool   `env:"REFLEX_NOISE_SUPPRESSION" envDefault:"true"`
}

type RulesConfig struct {
	Path           string `env:"REFLEX_RULES_FILE"`
	IterationLimit int    `env:"REFLEX_RULE_ITERATION_LIMIT" envDefault:"30"`
}

type SessionConfig struct {
	ChunkSize    int           `env:"REFLEX_AUDIO_CHUNK_SIZE" envDefault:"4096"`
	DrainTimeout time.Duration `env:"REFLEX_DRAIN_TIMEOUT" envDefault:"3s"`
}

// Load reads optional env files, then resolves configuration from the
// environment with defaults. Variables already set win over file values.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	configDir := filepath.Join(home, ".config", "reflex")

	if err := loadEnvFiles(
		os.Getenv("REFLEX_ENV_FILE"),
		filepath.Join(configDir, "reflex.env"),
		".env",
	); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.Locale = strings.ToLower(strings.TrimSpace(cfg.Locale))
	cfg.Transcriber = strings.ToLower(strings.TrimSpace(cfg.Transcriber))
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))

	if strings.TrimSpace(cfg.Rules.Path) == "" {
		cfg.Rules.Path = filepath.Join(configDir, "substitutions.rules")
	}
	if strings.TrimSpace(cfg.SQLite.Path) == "" {
		cfg.SQLite.Path = filepath.Join(home, ".local", "share", "reflex", "journal.db")
	}
	if strings.TrimSpace(cfg.Audio.InputDevice) == "" {
		cfg.Audio.InputDevice = "default"
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Session.DrainTimeout <= 0 {
		cfg.Session.DrainTimeout = 3 * time.Second
	}
	if cfg.HTTPTranscriber.Timeout <= 0 {
		cfg.HTTPTranscriber.Timeout = 60 * time.Second
	}
	if cfg.Supabase.Timeout <= 0 {
		cfg.Supabase.Timeout = 15 * time.Second
	}

	return cfg, nil
}

// loadEnvFiles loads each existing file in order. An explicitly named file
// that does not exist is an error; the well-known locations are optional.
func loadEnvFiles(explicit string, optional ...string) error {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if err := godotenv.Load(explicit); err != nil {
			return fmt.Errorf("load env file %q: %w", explicit, err)
		}
	}
	for _, path := range optional {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %q: %w", path, err)
		}
	}
	return nil
}
