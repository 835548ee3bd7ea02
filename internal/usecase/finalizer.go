package usecase

import (
	"strings"

	"github.com/rs/zerolog"

	"reflex/internal/ports"
)

// draftFinalizer turns a raw transcript into draft text.
type draftFinalizer struct {
	rules ports.RulesEngine
	log   zerolog.Logger
}

func newDraftFinalizer(rules ports.RulesEngine, log zerolog.Logger) draftFinalizer {
	return draftFinalizer{rules: rules, log: log}
}

// Finalize applies the rules engine. A rules failure is not fatal: the
// user edits the draft anyway, so the raw transcript is kept.
func (f draftFinalizer) Finalize(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" || f.rules == nil {
		return text
	}

	transformed, err := f.rules.Apply(text)
	if err != nil {
		f.log.Warn().Err(err).Msg("transcript rules failed, keeping raw transcript")
		return text
	}
	return strings.TrimSpace(transformed)
}
