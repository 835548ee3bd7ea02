// Package postgrest keeps thoughts in a Supabase table through its
// PostgREST HTTP API.
package postgrest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"reflex/internal/domain"
)

const (
	defaultTable   = "thoughts"
	defaultTimeout = 15 * time.Second
)

// Config locates the project and table.
type Config struct {
	URL     string
	APIKey  string
	Table   string
	Timeout time.Duration
}

type Store struct {
	table      string
	httpClient *resty.Client
}

type insertPayload struct {
	AudioText string  `json:"audio_text"`
	Mood      *string `json:"mood"`
}

// apiError is PostgREST's error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func New(cfg Config) (*Store, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("SUPABASE_URL is not configured")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("SUPABASE_ANON_KEY is not configured")
	}
	if cfg.Table == "" {
		cfg.Table = defaultTable
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(base+"/rest/v1").
		SetHeader("apikey", cfg.APIKey).
		SetAuthToken(cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Reflex/1.0").
		SetTimeout(cfg.Timeout)

	return &Store{table: cfg.Table, httpClient: httpClient}, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]domain.Thought, error) {
	if limit <= 0 || limit > domain.MaxThoughts {
		limit = domain.MaxThoughts
	}

	var thoughts []domain.Thought
	var apiErr apiError
	httpResp, err := s.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select": "*",
			"order":  "created_at.desc",
			"limit":  strconv.Itoa(limit),
		}).
		SetResult(&thoughts).
		SetError(&apiErr).
		Get("/" + s.table)
	if err != nil {
		return nil, domain.NewError(domain.ErrorKindStoreReadFailed, fmt.Errorf("list thoughts request failed: %w", err))
	}
	if httpResp.IsError() {
		return nil, domain.NewError(domain.ErrorKindStoreReadFailed, responseError("list thoughts", httpResp, apiErr))
	}
	if thoughts == nil {
		thoughts = []domain.Thought{}
	}
	return thoughts, nil
}

func (s *Store) Insert(ctx context.Context, thought domain.NewThought) (domain.Thought, error) {
	if err := thought.Validate(); err != nil {
		return domain.Thought{}, domain.NewError(domain.ErrorKindStoreWriteFailed, err)
	}

	payload := insertPayload{AudioText: thought.AudioText}
	if thought.Mood != domain.MoodNone {
		mood := string(thought.Mood)
		payload.Mood = &mood
	}

	var created []domain.Thought
	var apiErr apiError
	httpResp, err := s.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetBody(payload).
		SetResult(&created).
		SetError(&apiErr).
		Post("/" + s.table)
	if err != nil {
		return domain.Thought{}, domain.NewError(domain.ErrorKindStoreWriteFailed, fmt.Errorf("insert thought request failed: %w", err))
	}
	if httpResp.IsError() {
		return domain.Thought{}, domain.NewError(domain.ErrorKindStoreWriteFailed, responseError("insert thought", httpResp, apiErr))
	}
	if len(created) == 0 {
		return domain.Thought{}, domain.Errorf(domain.ErrorKindStoreWriteFailed, "insert thought returned no row")
	}
	return created[0], nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Errorf(domain.ErrorKindStoreDeleteFailed, "thought id is empty")
	}

	var apiErr apiError
	httpResp, err := s.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetError(&apiErr).
		Delete("/" + s.table)
	if err != nil {
		return domain.NewError(domain.ErrorKindStoreDeleteFailed, fmt.Errorf("delete thought request failed: %w", err))
	}
	if httpResp.IsError() {
		return domain.NewError(domain.ErrorKindStoreDeleteFailed, responseError("delete thought", httpResp, apiErr))
	}
	return nil
}

func responseError(op string, resp *resty.Response, apiErr apiError) error {
	message := strings.TrimSpace(apiErr.Message)
	if message == "" {
		message = strings.TrimSpace(resp.String())
	}
	if apiErr.Code != "" {
		return fmt.Errorf("%s error (%d %s): %s", op, resp.StatusCode(), apiErr.Code, message)
	}
	return fmt.Errorf("%s error (%d): %s", op, resp.StatusCode(), message)
}
