// Package openai transcribes recordings with any OpenAI-compatible
// /audio/transcriptions endpoint.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"reflex/internal/domain"
)

// Config selects the endpoint and model.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

type Transcriber struct {
	client   *goopenai.Client
	model    string
	language string
	ready    bool
}

func NewTranscriber(cfg Config) *Transcriber {
	clientCfg := goopenai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Transcriber{
		client:   goopenai.NewClientWithConfig(clientCfg),
		model:    model,
		language: strings.TrimSpace(cfg.Language),
		ready:    strings.TrimSpace(cfg.APIKey) != "" || strings.TrimSpace(cfg.BaseURL) != "",
	}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio domain.Audio) (string, error) {
	if !t.ready {
		return "", domain.Errorf(domain.ErrorKindTranscriptionFailed, "OPENAI_API_KEY is not configured")
	}
	if len(audio.Data) == 0 {
		return "", domain.Errorf(domain.ErrorKindTranscriptionFailed, "recording is empty")
	}

	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.model,
		FilePath: audio.FileName(),
		Reader:   bytes.NewReader(audio.Data),
		Language: t.language,
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", domain.Errorf(domain.ErrorKindTranscriptionFailed, "transcription error (%d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", domain.NewError(domain.ErrorKindTranscriptionFailed, fmt.Errorf("transcription request failed: %w", err))
	}
	return strings.TrimSpace(resp.Text), nil
}
