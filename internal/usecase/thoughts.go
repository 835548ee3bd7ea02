package usecase

import (
	"context"
	"strings"

	"reflex/internal/domain"
)

// Refresh reloads the most recent thoughts. On failure the previously
// loaded list is kept and a store read notice is raised.
func (c *CaptureController) Refresh(ctx context.Context) ([]domain.Thought, error) {
	c.mu.Lock()
	c.listIssued++
	ticket := c.listIssued
	c.mu.Unlock()

	thoughts, err := c.store.List(ctx, c.cfg.ListLimit)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.raiseLocked(domain.ErrorKindStoreReadFailed, err)
		return cloneThoughts(c.thoughts), withKind(err, domain.ErrorKindStoreReadFailed)
	}
	if len(thoughts) > c.cfg.ListLimit {
		thoughts = thoughts[:c.cfg.ListLimit]
	}

	// A slower, older refresh must not overwrite a newer result.
	if ticket < c.listApplied {
		return cloneThoughts(c.thoughts), nil
	}
	c.listApplied = ticket
	c.thoughts = cloneThoughts(thoughts)
	c.events.ThoughtsChanged(cloneThoughts(c.thoughts))
	return cloneThoughts(c.thoughts), nil
}

// Delete removes a thought and reloads the list. Deleting an id the store
// no longer holds is not an error.
func (c *CaptureController) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingThoughtID
	}

	if err := c.store.Delete(ctx, id); err != nil {
		c.mu.Lock()
		c.raiseLocked(domain.ErrorKindStoreDeleteFailed, err)
		c.mu.Unlock()
		return withKind(err, domain.ErrorKindStoreDeleteFailed)
	}
	c.log.Info().Str("id", id).Msg("thought deleted")

	_, _ = c.Refresh(ctx)
	return nil
}

// Thoughts returns the currently loaded list, most recent first.
func (c *CaptureController) Thoughts() []domain.Thought {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneThoughts(c.thoughts)
}

func cloneThoughts(in []domain.Thought) []domain.Thought {
	out := make([]domain.Thought, len(in))
	copy(out, in)
	return out
}
