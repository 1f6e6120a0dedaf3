// Package generator produces the dlopen loader source, header and function
// listing for a C header.
package generator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/phobologic/dlwrap/internal/config"
	"github.com/phobologic/dlwrap/internal/model"
	"github.com/phobologic/dlwrap/internal/parse"
	"github.com/phobologic/dlwrap/internal/selector"
	"github.com/phobologic/dlwrap/internal/subst"
	"github.com/phobologic/dlwrap/internal/templates"
)

// Error classes. Every error returned by Generate and Select is marked
// with exactly one of them.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrParse         = errors.New("parse error")
	ErrIO            = errors.New("i/o error")
	ErrTemplate      = errors.New("template error")
)

// Generator renders loader artifacts. It holds no per-run state.
type Generator struct {
	parser    parse.Parser
	templates *templates.Set
	log       *zap.SugaredLogger
}

// New creates a Generator.
func New(parser parse.Parser, tmpl *templates.Set, log *zap.SugaredLogger) *Generator {
	return &Generator{parser: parser, templates: tmpl, log: log}
}

// LoadTemplates returns the template set in dir, or the embedded set when
// dir is empty.
func LoadTemplates(dir string) (*templates.Set, error) {
	if dir == "" {
		return templates.Default(), nil
	}
	s, err := templates.LoadDir(dir)
	if err != nil {
		return nil, errors.Mark(err, ErrConfiguration)
	}
	return s, nil
}

// Result describes a completed generation.
type Result struct {
	Source    string
	Header    string
	Functions string
	Selected  []model.Function
	Skipped   int
}

// plan is the validated configuration of one run.
type plan struct {
	resolved config.Resolved
	selector *selector.Selector
	args     []string
}

func (g *Generator) prepare(opts config.Options) (*plan, error) {
	// Rules are checked before the license file is opened.
	sel, err := selector.FromOptions(opts.Symbols, opts.SymbolRegexes, opts.SymbolGlobs, opts.SymbolList)
	if err != nil {
		return nil, errors.Mark(err, ErrConfiguration)
	}
	if err := opts.ReadLicenseFile(); err != nil {
		return nil, errors.Mark(err, ErrConfiguration)
	}
	r, err := config.Resolve(opts)
	if err != nil {
		return nil, errors.Mark(err, ErrConfiguration)
	}
	for _, rule := range sel.Rules() {
		g.log.Debugw("selection rule", "rule", rule.String())
	}

	args := append([]string(nil), opts.ParserArgs...)
	if opts.ResourceDir != "" {
		args = append(args, "-resource-dir", opts.ResourceDir)
	}
	return &plan{resolved: r, selector: sel, args: args}, nil
}

func (g *Generator) selectFunctions(ctx context.Context, p *plan) ([]model.Function, int, error) {
	fns, err := g.parser.Parse(ctx, p.resolved.Input, p.args)
	if err != nil {
		return nil, 0, errors.Mark(err, ErrParse)
	}

	var selected []model.Function
	found := make(map[string]bool, len(fns))
	for _, fn := range fns {
		found[fn.Name] = true
		if p.selector.Selected(fn.Name) {
			selected = append(selected, fn)
		}
	}
	for _, name := range p.selector.ExactNames() {
		if !found[name] {
			g.log.Warnw("symbol not found in input", "symbol", name, "input", p.resolved.Input)
		}
	}

	skipped := len(fns) - len(selected)
	g.log.Debugw("selected functions", "selected", len(selected), "skipped", skipped)
	return selected, skipped, nil
}

// Select parses the input and returns the functions the configuration
// selects. No files are written.
func (g *Generator) Select(ctx context.Context, opts config.Options) ([]model.Function, error) {
	p, err := g.prepare(opts)
	if err != nil {
		return nil, err
	}
	selected, _, err := g.selectFunctions(ctx, p)
	return selected, err
}

// Generate writes <basename>.c, <basename>.h and <basename>funcs.h into the
// output directory. Configuration errors are reported before the input is
// parsed or any output is touched. Earlier files are not removed when a
// later write fails.
func (g *Generator) Generate(ctx context.Context, opts config.Options) (*Result, error) {
	p, err := g.prepare(opts)
	if err != nil {
		return nil, err
	}
	tokens := p.resolved.Tokens()
	if err := g.templates.Validate(tokens); err != nil {
		return nil, errors.Mark(err, ErrTemplate)
	}

	selected, skipped, err := g.selectFunctions(ctx, p)
	if err != nil {
		return nil, err
	}
	listing := Listing(filepath.Base(p.resolved.Input), p.resolved.License, selected)

	source, err := subst.Render(g.templates.Source, tokens)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, templates.SourceName), ErrTemplate)
	}
	header, err := subst.Render(g.templates.Header, tokens)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, templates.HeaderName), ErrTemplate)
	}

	if err := os.MkdirAll(p.resolved.OutputDir, 0o755); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "creating %s", p.resolved.OutputDir), ErrIO)
	}

	res := &Result{Selected: selected, Skipped: skipped}
	res.Source, res.Header, res.Functions = p.resolved.Paths()
	for _, out := range []struct {
		path    string
		content string
	}{
		{res.Source, source},
		{res.Header, header},
		{res.Functions, listing},
	} {
		if err := os.WriteFile(out.path, []byte(out.content), 0o644); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "writing %s", out.path), ErrIO)
		}
		g.log.Debugw("wrote", "path", out.path)
	}

	return res, nil
}
