package generator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/phobologic/dlwrap/internal/model"
	"github.com/phobologic/dlwrap/internal/signature"
)

const listingHeader = `/*
 * This file was automatically generated from %s,
 * which is covered by the following license:
%s
 */
`

// Listing renders the X-macro function listing: a license comment naming
// the input file, then one FUNC or VOID_FUNC line per function.
func Listing(inputName, license string, fns []model.Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, listingHeader, inputName, strings.Join(licenseLines(license), "\n"))
	for i := range fns {
		b.WriteString(signature.Line(&fns[i]))
		b.WriteByte('\n')
	}
	return b.String()
}

// licenseLines prefixes each license line with " * " and trims trailing
// whitespace. A final newline does not produce an extra line.
func licenseLines(license string) []string {
	if license == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(license, "\n"), "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimRightFunc(" * "+line, unicode.IsSpace)
	}
	return lines
}
