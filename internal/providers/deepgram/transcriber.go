package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"reflex/internal/domain"
)

const (
	defaultBaseURL   = "https://api.deepgram.com/v1"
	defaultModel     = "nova-2"
	defaultChunkSize = 8192
)

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	ChunkSize   int
}

// Transcriber streams a finished recording over Deepgram's live endpoint and
// collects the final segments into one transcript.
type Transcriber struct {
	cfg    Config
	dialer *websocket.Dialer
}

func NewTranscriber(cfg Config) *Transcriber {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Transcriber{cfg: cfg, dialer: websocket.DefaultDialer}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio domain.Audio) (string, error) {
	if strings.TrimSpace(t.cfg.APIKey) == "" {
		return "", domain.Errorf(domain.ErrorKindTranscriptionFailed, "DEEPGRAM_API_KEY is not configured")
	}
	if len(audio.Data) == 0 {
		return "", domain.Errorf(domain.ErrorKindTranscriptionFailed, "recording is empty")
	}

	wsURL, err := buildListenURL(t.cfg)
	if err != nil {
		return "", domain.NewError(domain.ErrorKindTranscriptionFailed, err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+t.cfg.APIKey)

	conn, _, err := t.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return "", domain.NewError(domain.ErrorKindTranscriptionFailed, fmt.Errorf("failed to connect to Deepgram websocket: %w", err))
	}
	defer conn.Close()

	var (
		collector transcriptCollector
		readErr   error
		wg        sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		readErr = readResults(conn, &collector)
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	writeErr := sendAudio(conn, audio.Data, t.cfg.ChunkSize)
	if writeErr != nil {
		_ = conn.Close()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return "", domain.NewError(domain.ErrorKindTranscriptionFailed, err)
	}
	if err := errors.Join(writeErr, readErr); err != nil {
		return "", domain.NewError(domain.ErrorKindTranscriptionFailed, err)
	}
	return collector.Text(), nil
}

func sendAudio(conn *websocket.Conn, data []byte, chunkSize int) error {
	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))
		if err := conn.WriteMessage(websocket.BinaryMessage, data[start:end]); err != nil {
			return fmt.Errorf("failed to send audio: %w", err)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}

// readResults consumes provider messages until the server closes the socket.
func readResults(conn *websocket.Conn, collector *transcriptCollector) error {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return nil
			}
			return fmt.Errorf("failed to read provider event: %w", err)
		}

		var response deepgramResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			return errors.New(message)
		}

		collector.Add(extractTranscript(response), response.IsFinal || response.SpeechFinal)
	}
}

type alternative struct {
	Transcript string `json:"transcript"`
}

type deepgramResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []alternative `json:"alternatives"`
	} `json:"channel"`
}

func extractTranscript(response deepgramResponse) string {
	if len(response.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(response.Channel.Alternatives[0].Transcript)
}

// buildListenURL leaves encoding unset so Deepgram sniffs the container.
func buildListenURL(cfg Config) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		base = defaultBaseURL
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("punctuate", "true")
	query.Set("smart_format", fmt.Sprintf("%t", cfg.SmartFormat))
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
