// Package httpstt posts a recording to a plain multipart transcription
// endpoint and reads back {"text": "..."}.
package httpstt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"reflex/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Config points the transcriber at an endpoint.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type Transcriber struct {
	url        string
	httpClient *resty.Client
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func NewTranscriber(cfg Config) *Transcriber {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	httpClient := resty.New().
		SetHeader("User-Agent", "Reflex/1.0").
		SetTimeout(cfg.Timeout)
	if token := strings.TrimSpace(cfg.Token); token != "" {
		httpClient.SetAuthToken(token)
	}
	return &Transcriber{url: strings.TrimSpace(cfg.URL), httpClient: httpClient}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio domain.Audio) (string, error) {
	if t.url == "" {
		return "", domain.Errorf(domain.ErrorKindTranscriptionFailed, "transcription endpoint is not configured")
	}
	if len(audio.Data) == 0 {
		return "", domain.Errorf(domain.ErrorKindTranscriptionFailed, "recording is empty")
	}

	var result transcribeResponse
	httpResp, err := t.httpClient.R().
		SetContext(ctx).
		SetMultipartField("file", audio.FileName(), audio.MimeType, bytes.NewReader(audio.Data)).
		SetResult(&result).
		SetError(&result).
		Post(t.url)
	if err != nil {
		return "", domain.NewError(domain.ErrorKindTranscriptionFailed, fmt.Errorf("transcription request failed: %w", err))
	}
	if httpResp.IsError() {
		detail := strings.TrimSpace(result.Error)
		if detail == "" {
			detail = strings.TrimSpace(httpResp.String())
		}
		return "", domain.Errorf(domain.ErrorKindTranscriptionFailed, "transcription error (%d): %s", httpResp.StatusCode(), detail)
	}
	return strings.TrimSpace(result.Text), nil
}
