package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "substitutions.rules")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestEngineLiteralAndRegexRules(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `
# literal
рефлекс => Reflex
# regex, case-insensitive by default
s/\bsupa\s*base\b/Supabase/g
`)

	engine, err := Load(path, 30)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if engine.Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", engine.Len())
	}

	output, err := engine.Apply("supa base sync in рефлекс")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output != "Supabase sync in Reflex" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEngineIteratesUntilStable(t *testing.T) {
	t.Parallel()

	engine, err := Load(writeRules(t, "a => b\nb => c\n"), 5)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	output, _ := engine.Apply("a")
	if output != "c" {
		t.Fatalf("expected c, got %q", output)
	}
}

func TestEnginePassLimitStopsCycles(t *testing.T) {
	t.Parallel()

	engine, err := Load(writeRules(t, "x => y\ny => x\n"), 3)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := engine.Apply("x"); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
}

func TestEngineLiteralRuleStartingWithS(t *testing.T) {
	t.Parallel()

	engine, err := Load(writeRules(t, "so to speak => \n"), 30)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	output, _ := engine.Apply("buy milk so to speak")
	if output != "buy milk " {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEngineLiteralReplacementIsVerbatim(t *testing.T) {
	t.Parallel()

	engine, err := Load(writeRules(t, "price => $1\n"), 30)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	output, _ := engine.Apply("the price")
	if output != "the $1" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEngineMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	engine, err := Load(filepath.Join(t.TempDir(), "missing.rules"), 0)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if engine.Len() != 0 {
		t.Fatalf("expected no rules")
	}
	output, _ := engine.Apply("unchanged")
	if output != "unchanged" {
		t.Fatalf("unexpected output: %q", output)
	}

	engine, err = Load("", 0)
	if err != nil || engine.Len() != 0 {
		t.Fatalf("expected empty engine for empty path, err=%v", err)
	}
}

func TestSedRuleWithoutGlobalReplacesFirstMatchOnly(t *testing.T) {
	t.Parallel()

	sub, err := parseSedRule(`s/(fo)o/${1}x/`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if output := sub.apply("foo foo"); output != "fox foo" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestSedRuleEscapedDelimiter(t *testing.T) {
	t.Parallel()

	sub, err := parseSedRule(`s/a\/b/ab/g`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if output := sub.apply("a/b a/b"); output != "ab ab" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := []string{
		"not-a-rule",
		`s/foo/bar/x`,
		`s/foo/bar`,
		`s/(/x/`,
		" => empty source",
	}
	for _, contents := range cases {
		if _, err := parse(contents); err == nil {
			t.Fatalf("expected parse error for %q", contents)
		}
	}
}
