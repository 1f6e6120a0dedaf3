// Package parse extracts top-level C function declarations using tree-sitter.
package parse

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/phobologic/dlwrap/internal/lang"
	"github.com/phobologic/dlwrap/internal/model"
)

// Parser turns a header into the function declarations it contains.
type Parser interface {
	Parse(ctx context.Context, path string, args []string) ([]model.Function, error)
}

// TreeSitter is the tree-sitter C implementation of Parser.
type TreeSitter struct {
	log  *zap.SugaredLogger
	lang *lang.Language
}

// New returns a tree-sitter backed Parser.
func New(log *zap.SugaredLogger) *TreeSitter {
	return &TreeSitter{log: log, lang: lang.C()}
}

// containers are the nodes a top-level declaration may sit in.
var containers = map[string]bool{
	"translation_unit":      true,
	"preproc_if":            true,
	"preproc_ifdef":         true,
	"preproc_else":          true,
	"preproc_elif":          true,
	"preproc_elifdef":       true,
	"linkage_specification": true,
	"declaration_list":      true,
}

// Extraction is the result of scanning one source buffer.
type Extraction struct {
	Functions []model.Function
	// SyntaxErrors holds the 1-based lines of ERROR and missing nodes.
	SyntaxErrors []int
	// InError counts function declarators skipped because their declaration
	// holds or sits inside a syntax error.
	InError int
}

// Parse reads path, applies the parser arguments and extracts its
// top-level functions in source order, first declaration wins.
func (t *TreeSitter) Parse(ctx context.Context, path string, args []string) ([]model.Function, error) {
	opts, err := ParseArgs(args, t.log)
	if err != nil {
		return nil, errors.Wrap(err, "parser arguments")
	}
	if opts.ResourceDir != "" {
		t.log.Debugw("resource dir has no effect on the tree-sitter parser", "dir", opts.ResourceDir)
	}
	if !lang.IsCSource(path) {
		t.log.Debugw("parsing as C", "path", path, "ext", filepath.Ext(path))
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	source = Preprocess(source, opts.Defines)

	query, err := t.lang.DeclarationQuery()
	if err != nil {
		return nil, err
	}
	parser := t.lang.NewParser()
	defer parser.Close()

	ex, err := Extract(ctx, parser, query, source)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	for _, line := range ex.SyntaxErrors {
		t.log.Warnw("syntax error", "path", path, "line", line)
	}
	if ex.InError > 0 {
		t.log.Warnw("skipped declarations inside syntax errors", "path", path, "count", ex.InError)
	}
	t.log.Debugw("parsed", "path", path, "functions", len(ex.Functions))
	return ex.Functions, nil
}

// Extract parses source with a C parser and returns its top-level function
// declarations. The parser must be created for the C language.
func Extract(ctx context.Context, parser *sitter.Parser, query *sitter.Query, source []byte) (Extraction, error) {
	var ex Extraction
	if len(source) == 0 {
		return ex, nil
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return ex, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		ex.SyntaxErrors = errorLines(root, nil)
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	seen := make(map[string]bool)
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}

		var nameNode, fnNode *sitter.Node
		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "name":
				nameNode = c.Node
			case "declarator.function":
				fnNode = c.Node
			}
		}
		if nameNode == nil || fnNode == nil {
			continue
		}

		owner, chain := declarationOf(fnNode)
		if owner == nil {
			continue
		}
		switch topLevel(owner) {
		case inError:
			ex.InError++
			continue
		case nested:
			continue
		}
		if signatureHasError(owner) {
			ex.InError++
			continue
		}

		name := lang.NodeText(nameNode, source)
		if seen[name] {
			continue
		}
		seen[name] = true
		ex.Functions = append(ex.Functions, function(name, owner, fnNode, chain, source))
	}

	return ex, nil
}

// declarationOf climbs from a function declarator to the declaration or
// definition that owns it. The declarators passed on the way make up the
// return type, innermost first: pointers, and for functions returning
// function pointers the parentheses and outer parameter list. It returns nil
// when the declarator is not the one a declaration or definition declares.
func declarationOf(fn *sitter.Node) (*sitter.Node, []*sitter.Node) {
	var chain []*sitter.Node
	for node := fn.Parent(); node != nil; node = node.Parent() {
		switch node.Type() {
		case "pointer_declarator", "parenthesized_declarator", "array_declarator", "function_declarator":
			chain = append(chain, node)
		case "attributed_declarator":
		case "declaration", "function_definition":
			return node, chain
		default:
			return nil, nil
		}
	}
	return nil, nil
}

// signatureHasError reports a syntax error in the part of a declaration that
// spells its type and declarators. Definition bodies are not checked.
func signatureHasError(owner *sitter.Node) bool {
	if owner.IsMissing() {
		return true
	}
	for i := 0; i < int(owner.ChildCount()); i++ {
		child := owner.Child(i)
		if child.Type() == "compound_statement" {
			continue
		}
		if child.Type() == "ERROR" || child.IsMissing() || child.HasError() {
			return true
		}
	}
	return false
}

type placement int

const (
	top placement = iota
	nested
	inError
)

func topLevel(owner *sitter.Node) placement {
	for node := owner.Parent(); node != nil; node = node.Parent() {
		t := node.Type()
		if t == "ERROR" {
			return inError
		}
		if !containers[t] {
			return nested
		}
	}
	return top
}

func function(name string, owner, fn *sitter.Node, chain []*sitter.Node, source []byte) model.Function {
	base := baseType(owner, source)
	ret := spell(base, chain, source)

	f := model.Function{
		Name:       name,
		ReturnType: ret,
		VoidReturn: len(chain) == 0 && isVoid(owner, source),
		Line:       int(owner.StartPoint().Row) + 1,
	}
	if list := fn.ChildByFieldName("parameters"); list != nil {
		f.Params, f.Variadic, _ = readParams(list, source)
	}
	return f
}

func isVoid(owner *sitter.Node, source []byte) bool {
	typ := owner.ChildByFieldName("type")
	return typ != nil && typ.Type() == "primitive_type" && lang.NodeText(typ, source) == "void"
}

func errorLines(node *sitter.Node, lines []int) []int {
	if node.Type() == "ERROR" || node.IsMissing() {
		return append(lines, int(node.StartPoint().Row)+1)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.HasError() || child.IsMissing() {
			lines = errorLines(child, lines)
		}
	}
	return lines
}
