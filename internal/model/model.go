// Package model defines core data structures for dlwrap.
package model

// Param is a single function parameter as spelled by the parser.
// Type may end with an array suffix, e.g. "int[4]".
type Param struct {
	Type string
	Name string
}

// Function is the projection of a top-level C function declaration.
type Function struct {
	Name       string
	ReturnType string
	// VoidReturn is true only for a plain void return, never for void *.
	VoidReturn bool
	Params     []Param
	Variadic   bool
	Line       int
}

// ParamNames returns the display names of the parameters in order.
func (f *Function) ParamNames() []string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return names
}
