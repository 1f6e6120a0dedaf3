// Package selector decides which declarations are wrapped by the loader.
package selector

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	ignore "github.com/sabhiram/go-gitignore"
)

// ErrNoSymbolPatterns is returned when a selector would have no rules.
var ErrNoSymbolPatterns = errors.New("no symbol patterns")

// Rule is a single symbol matching rule.
type Rule interface {
	Match(name string) bool
	String() string
}

// ExactNames matches names by string equality.
type ExactNames map[string]struct{}

// NewExactNames returns a rule matching exactly the given names. Blank
// names are dropped since no declaration can carry them.
func NewExactNames(names ...string) ExactNames {
	set := make(ExactNames, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

func (e ExactNames) Match(name string) bool {
	_, ok := e[name]
	return ok
}

func (e ExactNames) String() string {
	return fmt.Sprintf("exact(%d names)", len(e))
}

// Pattern matches names with a regular expression that must match at offset 0.
// The end of the name is not anchored: "foo" matches "foobar".
type Pattern struct {
	source   string
	anchored *regexp.Regexp
}

// NewPattern compiles expr as a prefix-anchored pattern.
func NewPattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(`\A(?:` + expr + `)`)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling symbol regex %q", expr)
	}
	return &Pattern{source: expr, anchored: re}, nil
}

func (p *Pattern) Match(name string) bool {
	return p.anchored.MatchString(name)
}

func (p *Pattern) String() string {
	return "regex(" + p.source + ")"
}

// Glob matches whole names with gitignore-style wildcards, e.g. "ZSTD_*".
type Glob struct {
	patterns []string
	gi       *ignore.GitIgnore
}

// NewGlob compiles the given glob patterns into one rule.
func NewGlob(patterns ...string) *Glob {
	var kept []string
	for _, p := range patterns {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return &Glob{patterns: kept, gi: ignore.CompileIgnoreLines(kept...)}
}

func (g *Glob) Match(name string) bool {
	if name == "" || strings.Contains(name, "/") {
		return false
	}
	return g.gi.MatchesPath(name)
}

func (g *Glob) String() string {
	return "glob(" + strings.Join(g.patterns, " ") + ")"
}

// ListFile holds the literal names read from a newline-delimited file.
// Each entry is escaped and compiled as a whole-name pattern.
type ListFile struct {
	path     string
	patterns []*regexp.Regexp
}

// ReadListFile reads path and compiles one exact pattern per non-empty line.
func ReadListFile(path string) (*ListFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading symbol list %s", path)
	}
	return ParseList(path, string(data)), nil
}

// ParseList builds a ListFile from already-read content. Blank lines, including
// the one produced by a trailing newline, are skipped.
func ParseList(path, content string) *ListFile {
	lf := &ListFile{path: path}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lf.patterns = append(lf.patterns, regexp.MustCompile(`\A`+regexp.QuoteMeta(line)+`\z`))
	}
	return lf
}

// Len returns the number of names in the list.
func (l *ListFile) Len() int {
	return len(l.patterns)
}

func (l *ListFile) Match(name string) bool {
	for _, re := range l.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (l *ListFile) String() string {
	return fmt.Sprintf("list(%s, %d names)", l.path, len(l.patterns))
}

// Selector is the union of its rules.
type Selector struct {
	rules []Rule
}

// New returns a selector over rules. Rules that can never match (empty name
// sets, empty lists) do not count; with none left, ErrNoSymbolPatterns is returned.
func New(rules ...Rule) (*Selector, error) {
	var kept []Rule
	for _, r := range rules {
		if isEmpty(r) {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil, errors.WithHint(ErrNoSymbolPatterns,
			"select functions with --symbol, --symbol-regex, --symbol-glob or --symbol-list")
	}
	return &Selector{rules: kept}, nil
}

// FromOptions builds a selector from the raw selection inputs. listPath may be empty.
func FromOptions(symbols, regexes, globs []string, listPath string) (*Selector, error) {
	var rules []Rule
	if len(symbols) > 0 {
		rules = append(rules, NewExactNames(symbols...))
	}
	for _, expr := range regexes {
		p, err := NewPattern(expr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, p)
	}
	if len(globs) > 0 {
		rules = append(rules, NewGlob(globs...))
	}
	if listPath != "" {
		lf, err := ReadListFile(listPath)
		if err != nil {
			return nil, err
		}
		rules = append(rules, lf)
	}
	return New(rules...)
}

// Selected reports whether name matches at least one rule.
func (s *Selector) Selected(name string) bool {
	for _, r := range s.rules {
		if r.Match(name) {
			return true
		}
	}
	return false
}

// Rules returns the active rules in construction order.
func (s *Selector) Rules() []Rule {
	return s.rules
}

// ExactNames returns the union of all exact names, for reporting names that
// never matched a declaration.
func (s *Selector) ExactNames() []string {
	var names []string
	for _, r := range s.rules {
		if e, ok := r.(ExactNames); ok {
			for n := range e {
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names
}

func isEmpty(r Rule) bool {
	switch v := r.(type) {
	case nil:
		return true
	case ExactNames:
		return len(v) == 0
	case *ListFile:
		return v == nil || v.Len() == 0
	case *Glob:
		return v == nil || len(v.patterns) == 0
	case *Pattern:
		return v == nil
	}
	return false
}
