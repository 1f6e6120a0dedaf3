// dlwrap generates dlopen loader bindings for functions declared in a C header.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phobologic/dlwrap/internal/config"
	"github.com/phobologic/dlwrap/internal/generator"
	"github.com/phobologic/dlwrap/internal/logging"
	"github.com/phobologic/dlwrap/internal/parse"
	"github.com/phobologic/dlwrap/internal/toon"
)

var version = "dev"

// defaultConfig is loaded from the working directory when --config is not given.
const defaultConfig = "dlwrap.yaml"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "error: %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		_, _ = fmt.Fprintf(w, "hint: %s\n", hint)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// genFlags holds the flags shared by the generate and list commands.
type genFlags struct {
	opts       config.Options
	parserArgs string
	configPath string
	verbose    bool
}

func (f *genFlags) register(fs *pflag.FlagSet) {
	o := &f.opts
	fs.StringVarP(&o.Input, "input", "i", "", "C header to wrap")
	fs.StringVarP(&o.OutputDir, "output-dir", "o", "", "directory for generated files (default \".\")")
	fs.StringVar(&o.ResourceDir, "clang-resource-dir", "", "compiler resource directory passed to the parser")
	fs.StringVar(&f.parserArgs, "parser-args", "", "extra parser arguments, shell quoted (e.g. \"-DAPI= -DNDEBUG\")")

	fs.StringArrayVarP(&o.Symbols, "symbol", "s", nil, "select a function by exact name (repeatable)")
	fs.StringArrayVar(&o.SymbolRegexes, "symbol-regex", nil, "select functions whose name starts with a regex match (repeatable)")
	fs.StringArrayVar(&o.SymbolGlobs, "symbol-glob", nil, "select functions whose whole name matches a glob (repeatable)")
	fs.StringVarP(&o.SymbolList, "symbol-list", "l", "", "file of exact function names, one per line")

	fs.StringVar(&o.LoaderBasename, "loader-basename", "", "base name of generated files (default: input stem)")
	fs.StringVar(&o.Prefix, "prefix", "", "library prefix (default: input stem)")
	fs.StringVar(&o.SymbolPrefix, "symbol-prefix", "", "prefix of symbol pointers (default: <prefix>_sym)")
	fs.StringVar(&o.FunctionPrefix, "function-prefix", "", "prefix of wrapper functions (default: <prefix>_func)")
	fs.StringVar(&o.Soname, "soname", "", "macro holding the library soname (default: <PREFIX>_SONAME)")
	fs.StringVar(&o.Wrapper, "wrapper", "", "wrapper macro name (default: <PREFIX>_FUNC)")
	fs.StringArrayVar(&o.Includes, "include", nil, "header to include from the loader header (repeatable)")
	fs.StringVar(&o.License, "license", "", "license text for the function listing")
	fs.StringVar(&o.LicenseFile, "license-file", "", "file holding the license text")
	fs.StringVar(&o.HeaderGuard, "header-guard", "", "include guard of the loader header")
	fs.StringVar(&o.TemplateDir, "template-dir", "", "directory with loader.c.in, loader.h.in and VERSION")

	fs.StringVarP(&f.configPath, "config", "c", "", "config file (YAML, JSON or TOML); default ./"+defaultConfig+" if present")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug output")
}

// options layers command-line flags over the config file.
func (f *genFlags) options() (config.Options, error) {
	o := config.New()

	path := f.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfig); err == nil {
			path = defaultConfig
		}
	}
	if path != "" {
		if err := o.LoadFile(path); err != nil {
			return config.Options{}, errors.Mark(
				errors.WithHint(err, "check the file passed with --config"),
				generator.ErrConfiguration)
		}
	}

	flags := f.opts
	if f.parserArgs != "" {
		words, err := shellquote.Split(f.parserArgs)
		if err != nil {
			return config.Options{}, errors.Mark(errors.Wrap(err, "--parser-args"), generator.ErrConfiguration)
		}
		flags.ParserArgs = words
	}
	if flags.License != "" || flags.LicenseFile != "" {
		o.License, o.LicenseFile = "", ""
	}
	o.Merge(&flags)
	return *o, nil
}

func (f *genFlags) generator(stderr io.Writer, templateDir string) (*generator.Generator, func(), error) {
	log := logging.New(stderr, f.verbose)
	tmpl, err := generator.LoadTemplates(templateDir)
	if err != nil {
		return nil, nil, err
	}
	return generator.New(parse.New(log), tmpl, log), func() { _ = log.Sync() }, nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f genFlags

	root := &cobra.Command{
		Use:   "dlwrap",
		Short: "Generate dlopen loader bindings for a C header",
		Long: `dlwrap parses a C header, selects functions by name, regex, glob or list
file, and writes <basename>.c, <basename>.h and <basename>funcs.h. The
generated loader resolves the selected functions with dlopen/dlsym at run
time, or calls them directly when built with dlopen disabled.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			g, done, err := f.generator(stderr, opts.TemplateDir)
			if err != nil {
				return err
			}
			defer done()

			res, err := g.Generate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "wrote %s, %s and %s (%d functions)\n",
				res.Source, res.Header, res.Functions, len(res.Selected))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("dlwrap {{.Version}}\n")
	f.register(root.Flags())

	root.AddCommand(newListCmd(stdout, stderr), newInitCmd(stdout, stderr))
	return root
}

func newListCmd(stdout, stderr io.Writer) *cobra.Command {
	var f genFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the selected declarations without writing files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			g, done, err := f.generator(stderr, opts.TemplateDir)
			if err != nil {
				return err
			}
			defer done()

			fns, err := g.Select(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, toon.EncodeFunctions(filepath.Base(opts.Input), fns))
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}
