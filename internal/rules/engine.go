// Package rules rewrites transcripts with user-defined substitutions before
// they become drafts, e.g. fixing names the speech model keeps mishearing.
package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const defaultPassLimit = 30

// Engine applies substitutions repeatedly until the text stops changing.
type Engine struct {
	subs      []substitution
	passLimit int
}

// Load reads a rules file. A missing file yields an engine with no rules.
func Load(path string, passLimit int) (*Engine, error) {
	if passLimit <= 0 {
		passLimit = defaultPassLimit
	}
	if strings.TrimSpace(path) == "" {
		return &Engine{passLimit: passLimit}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{passLimit: passLimit}, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	subs, err := parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}
	return &Engine{subs: subs, passLimit: passLimit}, nil
}

// Len returns the number of loaded rules.
func (e *Engine) Len() int {
	return len(e.subs)
}

// Apply runs every rule in file order, repeating passes while any rule still
// changes the text, up to the pass limit.
func (e *Engine) Apply(text string) (string, error) {
	result := text
	for pass := 0; pass < e.passLimit && len(e.subs) > 0; pass++ {
		changed := false
		for _, sub := range e.subs {
			next := sub.apply(result)
			if next != result {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result, nil
}
