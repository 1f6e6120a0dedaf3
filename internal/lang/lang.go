// Package lang wraps the tree-sitter C grammar and the embedded query that
// finds function declarators in it.
package lang

import (
	_ "embed"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

//go:embed queries/declarations.scm
var declarationQuery []byte

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language is the C grammar plus its compiled declaration query.
type Language struct {
	grammar   *sitter.Language
	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error
}

var (
	cOnce sync.Once
	cLang *Language
)

// C returns the shared C language.
func C() *Language {
	cOnce.Do(func() {
		cLang = &Language{grammar: c.GetLanguage()}
	})
	return cLang
}

// NewParser creates a tree-sitter parser for C. Parsers are not safe for
// concurrent use.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.grammar)
	return p
}

// DeclarationQuery returns the compiled query capturing @name, @parameters
// and @declarator.function. It is compiled once and may be shared.
func (l *Language) DeclarationQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		q, err := sitter.NewQuery(declarationQuery, l.grammar)
		if err != nil {
			l.queryErr = errors.Wrap(err, "compiling declaration query")
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// IsCSource reports whether path has a C source or header extension.
func IsCSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h", ".c":
		return true
	}
	return false
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
