// Package identifier decides, per filetype, which runs of characters form an
// identifier and where the identifier ending at a cursor begins.
package identifier

import (
	"fmt"
	"regexp"
	"sort"
)

// DefaultPattern matches a letter or underscore followed by letters, digits or
// underscores. It applies to every filetype without a rule of its own.
const DefaultPattern = `[\p{L}_][\p{L}\p{N}_]*`

// builtinRules holds the filetypes whose identifiers differ from the default.
var builtinRules = map[string]string{
	// CSS identifiers may start with a single dash and contain dashes.
	"css": `-?[\p{L}_][\p{L}\p{N}_-]*`,
	// HTML tag and attribute names.
	"html": `[a-zA-Z][^\s/>='"}{.]*`,
	// Clojure symbols, with an optional namespace separator.
	"clojure": `[-*+!_?:.a-zA-Z][-*+!_?:.\p{L}\p{N}]*/?[-*+!_?:.\p{L}\p{N}]*`,
	// Haskell identifiers may contain primes.
	"haskell": `[_a-zA-Z][\p{L}\p{N}_']+`,
	// TeX labels and commands may start with a digit.
	"tex": `[\p{L}\p{N}_]+`,
}

var builtinAliases = map[string]string{
	"scss":  "css",
	"sass":  "css",
	"less":  "css",
	"jinja": "html",
	"xml":   "html",
	"elisp": "clojure",
	"lisp":  "clojure",
}

// Scanner maps filetypes to identifier rules. It is immutable once built and
// safe for concurrent use.
type Scanner struct {
	rules    map[string]*regexp.Regexp
	aliases  map[string]string
	fallback *regexp.Regexp
}

var defaultScanner = mustNewScanner(nil, nil)

// Default returns the scanner with only the built-in rules.
func Default() *Scanner {
	return defaultScanner
}

// NewScanner builds a scanner from the built-in rules overlaid with rules
// (filetype to pattern) and aliases (filetype to the filetype whose rule it
// shares). Patterns are matched against the whole candidate identifier.
func NewScanner(rules map[string]string, aliases map[string]string) (*Scanner, error) {
	fallback, err := compileRule(DefaultPattern)
	if err != nil {
		return nil, err
	}
	s := &Scanner{
		rules:    make(map[string]*regexp.Regexp, len(builtinRules)+len(rules)),
		aliases:  make(map[string]string, len(builtinAliases)+len(aliases)),
		fallback: fallback,
	}
	for _, src := range []map[string]string{builtinRules, rules} {
		for ft, pattern := range src {
			re, err := compileRule(pattern)
			if err != nil {
				return nil, fmt.Errorf("identifier rule for filetype %q: %w", ft, err)
			}
			s.rules[ft] = re
		}
	}
	for _, src := range []map[string]string{builtinAliases, aliases} {
		for ft, target := range src {
			s.aliases[ft] = target
		}
	}
	return s, nil
}

func mustNewScanner(rules, aliases map[string]string) *Scanner {
	s, err := NewScanner(rules, aliases)
	if err != nil {
		panic(err)
	}
	return s
}

func compileRule(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

// Filetypes returns the filetypes that have a rule or alias, sorted.
func (s *Scanner) Filetypes() []string {
	out := make([]string, 0, len(s.rules)+len(s.aliases))
	for ft := range s.rules {
		out = append(out, ft)
	}
	for ft := range s.aliases {
		if _, ok := s.rules[ft]; !ok {
			out = append(out, ft)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Scanner) ruleFor(filetype string) *regexp.Regexp {
	if re, ok := s.rules[filetype]; ok {
		return re
	}
	if target, ok := s.aliases[filetype]; ok {
		if re, ok := s.rules[target]; ok {
			return re
		}
	}
	return s.fallback
}

// IsIdentifier reports whether the whole of text is an identifier for
// filetype. An empty filetype selects the default rule.
func (s *Scanner) IsIdentifier(text, filetype string) bool {
	if text == "" {
		return false
	}
	return s.ruleFor(filetype).MatchString(text)
}

// StartOfLongestIdentifierEndingAtIndex returns the 0-based codepoint index at
// which the longest identifier ending just before index begins. When no
// identifier ends there, or index is outside (0, len], index is returned.
func (s *Scanner) StartOfLongestIdentifierEndingAtIndex(text string, index int, filetype string) int {
	runes := []rune(text)
	if len(runes) == 0 || index < 1 || index > len(runes) {
		return index
	}
	re := s.ruleFor(filetype)
	for i := 0; i < index; i++ {
		if re.MatchString(string(runes[i:index])) {
			return i
		}
	}
	return index
}

// IsIdentifier reports whether text is an identifier under the built-in rules.
func IsIdentifier(text, filetype string) bool {
	return defaultScanner.IsIdentifier(text, filetype)
}

// StartOfLongestIdentifierEndingAtIndex applies the built-in rules; see
// Scanner.StartOfLongestIdentifierEndingAtIndex.
func StartOfLongestIdentifierEndingAtIndex(text string, index int, filetype string) int {
	return defaultScanner.StartOfLongestIdentifierEndingAtIndex(text, index, filetype)
}
