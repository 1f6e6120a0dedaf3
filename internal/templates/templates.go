// Package templates provides the loader template assets rendered by the generator.
package templates

import (
	"embed"
	"io/fs"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"

	"github.com/phobologic/dlwrap/internal/subst"
)

//go:embed loader.c.in loader.h.in VERSION
var embedded embed.FS

const (
	SourceName  = "loader.c.in"
	HeaderName  = "loader.h.in"
	VersionName = "VERSION"

	// Compatible is the range of template set versions this generator can fill.
	Compatible = "^1"
)

// ErrIncompatible is returned for template sets outside the Compatible range.
var ErrIncompatible = errors.New("incompatible template set")

// Set is an immutable pair of loader templates.
type Set struct {
	Source  string
	Header  string
	Version *semver.Version
}

// Default returns the embedded template set.
func Default() *Set {
	s, err := Load(embedded)
	if err != nil {
		panic("embedded templates: " + err.Error())
	}
	return s
}

// LoadDir loads a template set from a directory.
func LoadDir(dir string) (*Set, error) {
	s, err := Load(os.DirFS(dir))
	if err != nil {
		return nil, errors.Wrapf(err, "loading templates from %s", dir)
	}
	return s, nil
}

// Load reads loader.c.in, loader.h.in and an optional VERSION file from fsys.
// A set without VERSION is taken to be 1.0.0.
func Load(fsys fs.FS) (*Set, error) {
	source, err := fs.ReadFile(fsys, SourceName)
	if err != nil {
		return nil, errors.Wrap(err, "reading source template")
	}
	header, err := fs.ReadFile(fsys, HeaderName)
	if err != nil {
		return nil, errors.Wrap(err, "reading header template")
	}

	raw := "1.0.0"
	if data, err := fs.ReadFile(fsys, VersionName); err == nil {
		raw = strings.TrimSpace(string(data))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "reading template version")
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing template version %q", raw)
	}
	c, err := semver.NewConstraint(Compatible)
	if err != nil {
		return nil, errors.Wrap(err, "parsing template constraint")
	}
	if !c.Check(v) {
		return nil, errors.WithHintf(
			errors.Wrapf(ErrIncompatible, "version %s", v),
			"this dlwrap fills template sets matching %s", Compatible)
	}

	return &Set{Source: string(source), Header: string(header), Version: v}, nil
}

// Validate checks that every token referenced by the set is defined in tokens.
func (s *Set) Validate(tokens map[string]string) error {
	missing := subst.Missing(s.Source, tokens)
	for _, name := range subst.Missing(s.Header, tokens) {
		if !contains(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(subst.ErrUnknownToken, "template set %s references %s", s.Version, strings.Join(missing, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
