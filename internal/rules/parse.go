package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// substitution is one compiled rule. Literal rules replace every match
// verbatim; sed-style rules expand $1 references and honour the g flag.
type substitution struct {
	re          *regexp.Regexp
	replacement string
	literal     bool
	global      bool
}

func (s substitution) apply(input string) string {
	if s.literal {
		return s.re.ReplaceAllLiteralString(input, s.replacement)
	}
	if s.global {
		return s.re.ReplaceAllString(input, s.replacement)
	}

	loc := s.re.FindStringSubmatchIndex(input)
	if loc == nil {
		return input
	}
	expanded := s.re.ExpandString(nil, s.replacement, input, loc)
	return input[:loc[0]] + string(expanded) + input[loc[1]:]
}

// parse compiles a rules document. Blank lines and lines starting with # are
// skipped. Supported forms:
//
//	from => to           case-insensitive literal replacement
//	s/pattern/repl/flags sed-style regex, flags i g m s (i is implied)
func parse(contents string) ([]substitution, error) {
	var subs []substitution
	for number, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			sub substitution
			err error
		)
		switch {
		case isSedRule(line):
			sub, err = parseSedRule(line)
		case strings.Contains(line, "=>"):
			sub, err = parseLiteralRule(line)
		default:
			err = errors.New("unsupported rule format")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", number+1, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func parseLiteralRule(line string) (substitution, error) {
	from, to, _ := strings.Cut(line, "=>")
	from = strings.TrimSpace(from)
	if from == "" {
		return substitution{}, errors.New("literal rule source cannot be empty")
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(from))
	return substitution{re: re, replacement: strings.TrimSpace(to), literal: true, global: true}, nil
}

func parseSedRule(line string) (substitution, error) {
	delim := line[1]
	pattern, rest, err := splitDelimited(line[2:], delim)
	if err != nil {
		return substitution{}, fmt.Errorf("invalid regex pattern: %w", err)
	}
	replacement, rest, err := splitDelimited(rest, delim)
	if err != nil {
		return substitution{}, fmt.Errorf("invalid regex replacement: %w", err)
	}

	inline := "i"
	global := false
	for _, flag := range strings.TrimSpace(rest) {
		switch flag {
		case 'i':
		case 'g':
			global = true
		case 'm', 's':
			inline += string(flag)
		case ' ':
		default:
			return substitution{}, fmt.Errorf("unsupported regex flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + inline + ")" + pattern)
	if err != nil {
		return substitution{}, fmt.Errorf("invalid regex: %w", err)
	}
	return substitution{re: re, replacement: replacement, global: global}, nil
}

// splitDelimited reads up to the next unescaped delim. Escapes are kept so
// the regex engine sees them.
func splitDelimited(input string, delim byte) (string, string, error) {
	escaped := false
	for i := 0; i < len(input); i++ {
		switch {
		case escaped:
			escaped = false
		case input[i] == '\\':
			escaped = true
		case input[i] == delim:
			return input[:i], input[i+1:], nil
		}
	}
	return "", "", errors.New("unterminated expression")
}

// isSedRule distinguishes "s/a/b/" from literal rules that merely start with s.
func isSedRule(line string) bool {
	if len(line) < 2 || line[0] != 's' {
		return false
	}
	c := line[1]
	isWord := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	return !isWord && c != ' ' && c != '\t'
}
