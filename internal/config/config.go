// Package config loads dlwrap options and derives loader naming defaults.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Options is the raw, user-supplied configuration. Empty fields take the
// defaults documented on Resolve.
type Options struct {
	Input       string   `yaml:"input" json:"input" toml:"input"`
	OutputDir   string   `yaml:"outputDir" json:"outputDir" toml:"outputDir"`
	ResourceDir string   `yaml:"resourceDir" json:"resourceDir" toml:"resourceDir"`
	ParserArgs  []string `yaml:"parserArgs" json:"parserArgs" toml:"parserArgs"`

	Symbols       []string `yaml:"symbols" json:"symbols" toml:"symbols"`
	SymbolRegexes []string `yaml:"symbolRegexes" json:"symbolRegexes" toml:"symbolRegexes"`
	SymbolGlobs   []string `yaml:"symbolGlobs" json:"symbolGlobs" toml:"symbolGlobs"`
	SymbolList    string   `yaml:"symbolList" json:"symbolList" toml:"symbolList"`

	LoaderBasename string   `yaml:"loaderBasename" json:"loaderBasename" toml:"loaderBasename"`
	Prefix         string   `yaml:"prefix" json:"prefix" toml:"prefix"`
	SymbolPrefix   string   `yaml:"symbolPrefix" json:"symbolPrefix" toml:"symbolPrefix"`
	FunctionPrefix string   `yaml:"functionPrefix" json:"functionPrefix" toml:"functionPrefix"`
	Soname         string   `yaml:"soname" json:"soname" toml:"soname"`
	Wrapper        string   `yaml:"wrapper" json:"wrapper" toml:"wrapper"`
	HeaderGuard    string   `yaml:"headerGuard" json:"headerGuard" toml:"headerGuard"`
	Includes       []string `yaml:"includes" json:"includes" toml:"includes"`
	License        string   `yaml:"license" json:"license" toml:"license"`
	LicenseFile    string   `yaml:"licenseFile" json:"licenseFile" toml:"licenseFile"`

	TemplateDir string `yaml:"templateDir" json:"templateDir" toml:"templateDir"`
}

// New creates an empty Options value.
func New() *Options {
	return &Options{}
}

// LoadFile loads configuration from a file (YAML, JSON or TOML based on
// extension) and merges it over the current values. Relative paths in the
// file are resolved against the file's directory.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}

	var loaded Options
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return errors.Wrap(err, "parsing YAML config")
		}
	case ".json":
		if err := json.Unmarshal(data, &loaded); err != nil {
			return errors.Wrap(err, "parsing JSON config")
		}
	case ".toml":
		if err := toml.Unmarshal(data, &loaded); err != nil {
			return errors.Wrap(err, "parsing TOML config")
		}
	default:
		// Try YAML first, then JSON
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			if err := json.Unmarshal(data, &loaded); err != nil {
				return errors.Newf("unable to parse %s as YAML or JSON", path)
			}
		}
	}

	loaded.relativeTo(filepath.Dir(path))
	o.Merge(&loaded)
	return nil
}

// relativeTo rewrites relative file paths to be relative to dir.
func (o *Options) relativeTo(dir string) {
	for _, p := range []*string{&o.Input, &o.OutputDir, &o.ResourceDir, &o.SymbolList, &o.LicenseFile, &o.TemplateDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Merge copies every non-empty field of loaded over o.
func (o *Options) Merge(loaded *Options) {
	mergeString(&o.Input, loaded.Input)
	mergeString(&o.OutputDir, loaded.OutputDir)
	mergeString(&o.ResourceDir, loaded.ResourceDir)
	mergeList(&o.ParserArgs, loaded.ParserArgs)
	mergeList(&o.Symbols, loaded.Symbols)
	mergeList(&o.SymbolRegexes, loaded.SymbolRegexes)
	mergeList(&o.SymbolGlobs, loaded.SymbolGlobs)
	mergeString(&o.SymbolList, loaded.SymbolList)
	mergeString(&o.LoaderBasename, loaded.LoaderBasename)
	mergeString(&o.Prefix, loaded.Prefix)
	mergeString(&o.SymbolPrefix, loaded.SymbolPrefix)
	mergeString(&o.FunctionPrefix, loaded.FunctionPrefix)
	mergeString(&o.Soname, loaded.Soname)
	mergeString(&o.Wrapper, loaded.Wrapper)
	mergeString(&o.HeaderGuard, loaded.HeaderGuard)
	mergeList(&o.Includes, loaded.Includes)
	mergeString(&o.License, loaded.License)
	mergeString(&o.LicenseFile, loaded.LicenseFile)
	mergeString(&o.TemplateDir, loaded.TemplateDir)
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeList(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// ReadLicenseFile loads LicenseFile into License. It is a no-op when no
// license file is configured.
func (o *Options) ReadLicenseFile() error {
	if o.LicenseFile == "" {
		return nil
	}
	if o.License != "" {
		return errors.WithHint(
			errors.New("both license text and license file are set"),
			"pass either --license or --license-file")
	}
	data, err := os.ReadFile(o.LicenseFile)
	if err != nil {
		return errors.Wrapf(err, "reading license file %s", o.LicenseFile)
	}
	o.License = string(data)
	return nil
}
