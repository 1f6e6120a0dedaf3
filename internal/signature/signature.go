// Package signature renders C parameter lists and X-macro lines for declarations.
package signature

import (
	"fmt"
	"strings"

	"github.com/phobologic/dlwrap/internal/model"
)

const (
	// FuncMacro wraps a value-returning function in the declaration listing.
	FuncMacro = "FUNC"
	// VoidFuncMacro wraps a function with no return value.
	VoidFuncMacro = "VOID_FUNC"
)

// Signature is the rendered form of one declaration.
type Signature struct {
	// Params is the typed parameter list without parentheses; "void" when empty.
	Params string
	// Args is the comma-joined parameter names used to forward a call.
	Args string
	Void bool
}

// Render renders fn's typed parameters and forwarding arguments.
func Render(fn *model.Function) Signature {
	sig := Signature{
		Params: "void",
		Args:   strings.Join(fn.ParamNames(), ", "),
		Void:   fn.VoidReturn,
	}
	if len(fn.Params) > 0 {
		params := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = Declarator(p.Type, p.Name)
		}
		sig.Params = strings.Join(params, ", ")
	}
	return sig
}

// Declarator joins a type spelling and a name into C declarator syntax.
// An array suffix moves after the name ("int[4]", "x" -> "int x[4]") and no
// space follows a trailing '*' ("char *", "s" -> "char *s").
func Declarator(typ, name string) string {
	base, suffix := typ, ""
	if i := strings.IndexByte(typ, '['); i >= 0 {
		base, suffix = typ[:i], typ[i:]
	}
	delim := " "
	if strings.HasSuffix(base, "*") {
		delim = ""
	}
	return base + delim + name + suffix
}

// Macro returns the listing macro for fn.
func Macro(fn *model.Function) string {
	if fn.VoidReturn {
		return VoidFuncMacro
	}
	return FuncMacro
}

// Line renders fn as one declaration-listing entry, without a newline:
//
//	FUNC(int, add, (int a, int b), (a, b))
func Line(fn *model.Function) string {
	sig := Render(fn)
	return fmt.Sprintf("%s(%s, %s, (%s), (%s))", Macro(fn), fn.ReturnType, fn.Name, sig.Params, sig.Args)
}
