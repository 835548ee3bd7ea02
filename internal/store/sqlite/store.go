package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reflex/internal/domain"
)

// timeLayout is fixed-width so text order in SQLite equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps thoughts in a local SQLite journal.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store bound to an open, migrated database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]domain.Thought, error) {
	if limit <= 0 || limit > domain.MaxThoughts {
		limit = domain.MaxThoughts
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, audio_text, mood, reflection_dialogue, patterns_tagged
		FROM thoughts
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, domain.NewError(domain.ErrorKindStoreReadFailed, fmt.Errorf("list thoughts: query: %w", err))
	}
	defer rows.Close()

	thoughts := []domain.Thought{}
	for rows.Next() {
		thought, err := scanThought(rows)
		if err != nil {
			return nil, domain.NewError(domain.ErrorKindStoreReadFailed, fmt.Errorf("list thoughts: %w", err))
		}
		thoughts = append(thoughts, thought)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.ErrorKindStoreReadFailed, fmt.Errorf("list thoughts: rows: %w", err))
	}
	return thoughts, nil
}

func (s *Store) Insert(ctx context.Context, newThought domain.NewThought) (domain.Thought, error) {
	if err := newThought.Validate(); err != nil {
		return domain.Thought{}, domain.NewError(domain.ErrorKindStoreWriteFailed, err)
	}

	thought := domain.Thought{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		AudioText: newThought.AudioText,
		Mood:      newThought.Mood,
	}

	var mood any
	if thought.Mood != domain.MoodNone {
		mood = string(thought.Mood)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO thoughts (id, created_at, audio_text, mood) VALUES (?, ?, ?, ?)`,
		thought.ID, thought.CreatedAt.Format(timeLayout), thought.AudioText, mood)
	if err != nil {
		return domain.Thought{}, domain.NewError(domain.ErrorKindStoreWriteFailed, fmt.Errorf("insert thought: %w", err))
	}
	return thought, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Errorf(domain.ErrorKindStoreDeleteFailed, "thought id is empty")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM thoughts WHERE id = ?`, id); err != nil {
		return domain.NewError(domain.ErrorKindStoreDeleteFailed, fmt.Errorf("delete thought: %w", err))
	}
	return nil
}

func scanThought(rows *sql.Rows) (domain.Thought, error) {
	var (
		thought    domain.Thought
		createdAt  string
		mood       sql.NullString
		reflection sql.NullString
		patterns   sql.NullString
	)
	if err := rows.Scan(&thought.ID, &createdAt, &thought.AudioText, &mood, &reflection, &patterns); err != nil {
		return domain.Thought{}, fmt.Errorf("scan: %w", err)
	}

	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Thought{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	thought.CreatedAt = parsed
	thought.Mood = domain.Mood(mood.String)

	if reflection.Valid && reflection.String != "" {
		thought.ReflectionDialogue = json.RawMessage(reflection.String)
	}
	if patterns.Valid && patterns.String != "" {
		if err := json.Unmarshal([]byte(patterns.String), &thought.PatternsTagged); err != nil {
			return domain.Thought{}, fmt.Errorf("decode patterns_tagged: %w", err)
		}
	}
	return thought, nil
}
