package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultLicense is embedded in the declaration listing when no license is given.
const DefaultLicense = "TODO: INSERT LICENSE"

// ErrNoInput is returned by Resolve when no input file is configured.
var ErrNoInput = errors.New("no input file")

// Resolved holds every identifier and file name used by a generation run.
type Resolved struct {
	Input          string
	OutputDir      string
	LoaderBasename string
	Prefix         string
	SymbolPrefix   string
	FunctionPrefix string
	Soname         string
	Wrapper        string
	EnableDlopen   string
	EnablePthread  string
	HeaderGuard    string
	License        string

	// IncludeLines are complete "#include ..." directives.
	IncludeLines []string

	HeaderFile    string
	SourceFile    string
	FunctionsFile string
}

// Resolve applies the default derivation rules:
//
//   - LoaderBasename and Prefix default to the input file's stem.
//   - SymbolPrefix = lower(Prefix)+"_sym", FunctionPrefix = lower(Prefix)+"_func".
//   - Soname = upper(Prefix)+"_SONAME", Wrapper = upper(Prefix)+"_FUNC".
//   - HeaderGuard is derived from "<basename>.h": uppercased, every character outside
//     [A-Za-z0-9_] replaced with '_', then suffixed with '_'.
//
// Prefix itself is never sanitized. Resolve performs no I/O.
func Resolve(o Options) (Resolved, error) {
	if o.Input == "" {
		return Resolved{}, errors.WithHint(ErrNoInput, "pass the header to wrap with --input")
	}

	stem := fileStem(o.Input)

	r := Resolved{
		Input:          o.Input,
		OutputDir:      orDefault(o.OutputDir, "."),
		LoaderBasename: orDefault(o.LoaderBasename, stem),
		Prefix:         orDefault(o.Prefix, stem),
		License:        orDefault(o.License, DefaultLicense),
	}

	lower := strings.ToLower(r.Prefix)
	upper := strings.ToUpper(r.Prefix)
	r.SymbolPrefix = orDefault(o.SymbolPrefix, lower+"_sym")
	r.FunctionPrefix = orDefault(o.FunctionPrefix, lower+"_func")
	r.Soname = orDefault(o.Soname, upper+"_SONAME")
	r.Wrapper = orDefault(o.Wrapper, upper+"_FUNC")
	r.EnableDlopen = upper + "_ENABLE_DLOPEN"
	r.EnablePthread = upper + "_ENABLE_PTHREAD"

	r.HeaderFile = r.LoaderBasename + ".h"
	r.SourceFile = r.LoaderBasename + ".c"
	r.FunctionsFile = r.LoaderBasename + "funcs.h"
	r.HeaderGuard = orDefault(o.HeaderGuard, Guard(r.HeaderFile))

	for _, inc := range o.Includes {
		if line := IncludeLine(inc); line != "" {
			r.IncludeLines = append(r.IncludeLines, line)
		}
	}

	return r, nil
}

// Guard derives an include guard macro from a header file name.
func Guard(fileName string) string {
	upper := strings.ToUpper(fileName)
	var b strings.Builder
	for _, c := range upper {
		if c == '_' || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteByte('_')
	return b.String()
}

// IncludeLine turns a header reference into an #include directive.
// "<time.h>" and "\"foo.h\"" are used verbatim; a bare "time.h" becomes <time.h>.
func IncludeLine(header string) string {
	header = strings.TrimSpace(header)
	switch {
	case header == "":
		return ""
	case strings.HasPrefix(header, "#include"):
		return header
	case strings.HasPrefix(header, "<"), strings.HasPrefix(header, `"`):
		return "#include " + header
	default:
		return "#include <" + header + ">"
	}
}

// Paths returns the output paths of the source, header and listing files.
func (r *Resolved) Paths() (source, header, functions string) {
	return filepath.Join(r.OutputDir, r.SourceFile),
		filepath.Join(r.OutputDir, r.HeaderFile),
		filepath.Join(r.OutputDir, r.FunctionsFile)
}

// Tokens returns the template token table for this configuration.
func (r *Resolved) Tokens() map[string]string {
	return map[string]string{
		"LIBRARY_PREFIX":  r.Prefix,
		"SYMBOL_PREFIX":   r.SymbolPrefix,
		"FUNCTION_PREFIX": r.FunctionPrefix,
		"FUNCTIONS_H":     r.FunctionsFile,
		"LIBRARY_SONAME":  r.Soname,
		"WRAPPER":         r.Wrapper,
		"ENABLE_DLOPEN":   r.EnableDlopen,
		"ENABLE_PTHREAD":  r.EnablePthread,
		"INCLUDES":        strings.Join(r.IncludeLines, "\n"),
		"LOADER_H":        r.HeaderFile,
		"LOADER_H_GUARD":  r.HeaderGuard,
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
