package deepgram

import "strings"

// transcriptCollector joins final segments. When the stream ends on an
// interim result that never finalized, that tail is appended.
type transcriptCollector struct {
	finals  []string
	pending string
}

func (c *transcriptCollector) Add(text string, final bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if final {
		c.finals = append(c.finals, text)
		c.pending = ""
		return
	}
	c.pending = text
}

func (c *transcriptCollector) Text() string {
	parts := c.finals
	if c.pending != "" {
		parts = append(parts[:len(parts):len(parts)], c.pending)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
