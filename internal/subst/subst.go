// Package subst replaces @TOKEN@ placeholders in template text.
package subst

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnknownToken is returned when a template references a token that is not
// in the table. An unknown token is never replaced with an empty string.
var ErrUnknownToken = errors.New("unknown template token")

// placeholderRe matches non-greedily between '@' pairs on a single line.
// "@@" has an empty name and renders a literal '@'.
var placeholderRe = regexp.MustCompile(`@(.*?)@`)

// Render substitutes every placeholder in text from tokens. A name missing
// from tokens fails with ErrUnknownToken.
func Render(text string, tokens map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	pos := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[pos:m[0]])
		name := text[m[2]:m[3]]
		if name == "" {
			b.WriteByte('@')
		} else {
			v, ok := tokens[name]
			if !ok {
				line := strings.Count(text[:m[0]], "\n") + 1
				return "", errors.Wrapf(ErrUnknownToken, "@%s@ at line %d", name, line)
			}
			b.WriteString(v)
		}
		pos = m[1]
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}

// Tokens returns the sorted, de-duplicated token names referenced by text.
// The "@@" escape is not reported.
func Tokens(text string) []string {
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			seen[m[1]] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Missing returns the names referenced by text that tokens does not define.
func Missing(text string, tokens map[string]string) []string {
	var missing []string
	for _, name := range Tokens(text) {
		if _, ok := tokens[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
