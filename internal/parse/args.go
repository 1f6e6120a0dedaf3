package parse

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Options are the parser arguments this front end understands.
type Options struct {
	// Defines maps object-like macro names to their replacement text.
	Defines     map[string]string
	ResourceDir string
}

// ParseArgs interprets clang-style parser arguments. -DNAME, -DNAME=VALUE,
// -D NAME and -resource-dir DIR are recognized; anything else is logged and
// ignored.
func ParseArgs(args []string, log *zap.SugaredLogger) (Options, error) {
	opts := Options{Defines: map[string]string{}}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-D":
			if i+1 >= len(args) {
				return opts, errors.New("missing macro name after -D")
			}
			i++
			addDefine(opts.Defines, args[i])
		case strings.HasPrefix(arg, "-D"):
			addDefine(opts.Defines, arg[2:])
		case arg == "-resource-dir":
			if i+1 >= len(args) {
				return opts, errors.New("missing directory after -resource-dir")
			}
			i++
			opts.ResourceDir = args[i]
		case strings.HasPrefix(arg, "-resource-dir="):
			opts.ResourceDir = strings.TrimPrefix(arg, "-resource-dir=")
		default:
			log.Debugw("ignoring parser argument", "arg", arg)
		}
	}
	for name := range opts.Defines {
		if !identRe.MatchString(name) {
			return opts, errors.Newf("invalid macro name %q", name)
		}
	}
	return opts, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func addDefine(defines map[string]string, def string) {
	name, value, ok := strings.Cut(def, "=")
	if !ok {
		value = "1"
	}
	defines[name] = value
}

var (
	directiveRe   = regexp.MustCompile(`^#\s*(\w+)`)
	cppPositiveRe = regexp.MustCompile(`^#\s*(?:ifdef\s+__cplusplus\b|if\s+(?:defined\s*\(?\s*)?__cplusplus\b)`)
	cppNegativeRe = regexp.MustCompile(`^#\s*(?:ifndef\s+__cplusplus\b|if\s+!\s*(?:defined\s*\(?\s*)?__cplusplus\b)`)
)

type condFrame struct {
	cpp   bool
	blank bool
}

// srcLine is one physical line of a header. Directive lines keep the
// joined text of their logical directive on the first physical line.
type srcLine struct {
	raw       string
	body      string
	directive bool
	blank     bool
	logical   string
}

func scan(source []byte) []srcLine {
	var (
		lines     []srcLine
		stack     []condFrame
		continued bool
	)
	open := -1
	for _, raw := range strings.SplitAfter(string(source), "\n") {
		body := strings.TrimRight(raw, "\r\n")
		trimmed := strings.TrimLeft(body, " \t")
		directive := continued || strings.HasPrefix(trimmed, "#")
		wasContinued := continued
		continued = directive && strings.HasSuffix(body, "\\")

		l := srcLine{raw: raw, body: body, directive: directive}
		switch {
		case directive && !wasContinued:
			stack = applyDirective(stack, trimmed)
			l.logical = strings.TrimSuffix(trimmed, "\\")
			open = len(lines)
		case wasContinued && open >= 0:
			lines[open].logical += " " + strings.TrimSuffix(trimmed, "\\")
		}
		l.blank = blanked(stack)
		lines = append(lines, l)
	}
	return lines
}

// Preprocess prepares header text for the C grammar. Lines only compiled
// when __cplusplus is defined are blanked, and each define replaces whole
// identifier occurrences outside directive lines. Object-like macros the
// header defines as empty or as an attribute are erased too, unless
// defines names them. Line numbers are kept.
func Preprocess(source []byte, defines map[string]string) []byte {
	lines := scan(source)
	replace := definesReplacer(withHeaderDefines(lines, defines))

	var b strings.Builder
	b.Grow(len(source))
	for _, l := range lines {
		switch {
		case l.directive:
			b.WriteString(l.raw)
		case l.blank:
			b.WriteString(l.raw[len(l.body):])
		case replace != nil:
			b.WriteString(replace(l.body))
			b.WriteString(l.raw[len(l.body):])
		default:
			b.WriteString(l.raw)
		}
	}
	return []byte(b.String())
}

var (
	defineRe  = regexp.MustCompile(`^#\s*define\s+([A-Za-z_]\w*)(?:\s+(.*))?$`)
	commentRe = regexp.MustCompile(`/\*.*?\*/|//.*$`)
)

// withHeaderDefines returns defines plus the header's own erasable macros:
// "#define API", "#define API __attribute__((...))", "#define API __declspec(...)"
// and aliases of an already erased name, such as "#define API API_VISIBLE".
func withHeaderDefines(lines []srcLine, defines map[string]string) map[string]string {
	merged := make(map[string]string, len(defines))
	for name, value := range defines {
		merged[name] = value
	}
	erased := func(name string) bool {
		v, ok := merged[name]
		return ok && v == ""
	}

	for _, l := range lines {
		if l.logical == "" || l.blank {
			continue
		}
		m := defineRe.FindStringSubmatch(l.logical)
		if m == nil {
			continue
		}
		name := m[1]
		if _, ok := defines[name]; ok {
			continue
		}
		value := strings.TrimSpace(commentRe.ReplaceAllString(m[2], ""))
		switch {
		case value == "",
			strings.HasPrefix(value, "__attribute__"),
			strings.HasPrefix(value, "__declspec"),
			identRe.MatchString(value) && erased(value):
			merged[name] = ""
		}
	}
	return merged
}

func applyDirective(stack []condFrame, line string) []condFrame {
	m := directiveRe.FindStringSubmatch(line)
	if m == nil {
		return stack
	}
	switch m[1] {
	case "if", "ifdef", "ifndef":
		switch {
		case cppPositiveRe.MatchString(line):
			return append(stack, condFrame{cpp: true, blank: true})
		case cppNegativeRe.MatchString(line):
			return append(stack, condFrame{cpp: true})
		}
		return append(stack, condFrame{})
	case "else", "elif", "elifdef", "elifndef":
		if n := len(stack); n > 0 && stack[n-1].cpp {
			stack[n-1].blank = !stack[n-1].blank
		}
	case "endif":
		if n := len(stack); n > 0 {
			return stack[:n-1]
		}
	}
	return stack
}

func blanked(stack []condFrame) bool {
	for _, f := range stack {
		if f.blank {
			return true
		}
	}
	return false
}

func definesReplacer(defines map[string]string) func(string) string {
	if len(defines) == 0 {
		return nil
	}
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, regexp.QuoteMeta(name))
	}
	sort.Strings(names)
	re := regexp.MustCompile(`\b(?:` + strings.Join(names, "|") + `)\b`)
	return func(s string) string {
		return re.ReplaceAllStringFunc(s, func(name string) string {
			return defines[name]
		})
	}
}
