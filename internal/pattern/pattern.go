// Package pattern compiles ignore patterns into predicates over root-relative,
// slash-separated directory paths.
//
// Grammar (version 1):
//
//	literal   matches exactly that path segment
//	*         matches any run of characters inside one segment
//	**        matches zero or more whole segments
//
// Any other glob metacharacter is rejected by Compile.
package pattern

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GrammarVersion identifies the pattern grammar accepted by Compile.
const GrammarVersion = 1

// Mode selects how a compiled rule is anchored against a directory path.
type Mode int

const (
	// MatchAnchored requires the pattern to match the whole path or a leading
	// run of its segments, so excluding a directory excludes its subtree.
	MatchAnchored Mode = iota

	// MatchSubstring lets the pattern match anywhere inside the path.
	MatchSubstring
)

// String returns the config spelling of the mode.
func (m Mode) String() string {
	switch m {
	case MatchSubstring:
		return "substring"
	default:
		return "anchored"
	}
}

// ParseMode converts a config value ("anchored", "substring") into a Mode.
// An empty string selects MatchAnchored.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "anchored":
		return MatchAnchored, nil
	case "substring":
		return MatchSubstring, nil
	default:
		return MatchAnchored, fmt.Errorf("unknown ignore mode %q (want anchored or substring)", s)
	}
}

// Rule is one compiled ignore pattern.
type Rule struct {
	// Pattern is the normalized source text.
	Pattern string

	mode Mode
	re   *regexp.Regexp
}

// Match reports whether the rule matches the given root-relative directory.
func (r *Rule) Match(relDir string) bool {
	rel := Normalize(relDir)
	if r.mode == MatchSubstring {
		return r.re.MatchString(rel)
	}

	segments := strings.Split(rel, "/")
	for i := len(segments); i > 0; i-- {
		ok, err := doublestar.Match(r.Pattern, strings.Join(segments[:i], "/"))
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Set is an ordered collection of rules. The zero value matches nothing.
type Set struct {
	rules []*Rule
}

// Compile normalizes and compiles raw patterns. Empty entries are skipped.
func Compile(patterns []string, mode Mode) (*Set, error) {
	s := &Set{}
	for _, raw := range patterns {
		p := Normalize(raw)
		if p == "" || p == "." {
			continue
		}
		if i := strings.IndexAny(p, "?[]{}"); i >= 0 {
			return nil, fmt.Errorf("ignore pattern %q: unsupported syntax %q", raw, p[i])
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("ignore pattern %q: invalid pattern", raw)
		}

		rule := &Rule{Pattern: p, mode: mode}
		if mode == MatchSubstring {
			re, err := regexp.Compile(toRegexp(p))
			if err != nil {
				return nil, fmt.Errorf("ignore pattern %q: %w", raw, err)
			}
			rule.re = re
		}
		s.rules = append(s.rules, rule)
	}
	return s, nil
}

// Match reports whether any rule matches relDir.
func (s *Set) Match(relDir string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.rules {
		if r.Match(relDir) {
			return true
		}
	}
	return false
}

// Patterns returns the normalized pattern text of every rule.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Pattern
	}
	return out
}

// Len returns the number of compiled rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Normalize converts p to the slash-separated, cleaned form that rules are
// evaluated against: backslashes become slashes and any leading "./" or
// trailing "/" is removed.
func Normalize(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	return p
}

// SplitList flattens repeated, comma-separated flag values into one list.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// toRegexp translates a grammar-1 pattern into an unanchored expression.
func toRegexp(p string) string {
	var sb strings.Builder
	for i := 0; i < len(p); i++ {
		if p[i] != '*' {
			sb.WriteString(regexp.QuoteMeta(string(p[i])))
			continue
		}
		if i+1 < len(p) && p[i+1] == '*' {
			sb.WriteString(".*")
			i++
			continue
		}
		sb.WriteString("[^/]*")
	}
	return sb.String()
}
