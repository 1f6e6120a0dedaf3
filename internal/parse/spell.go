package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/dlwrap/internal/lang"
	"github.com/phobologic/dlwrap/internal/model"
)

var qualifiers = map[string]bool{
	"const":    true,
	"volatile": true,
	"restrict": true,
	"_Atomic":  true,
}

// baseType spells the type specifier of a declaration or parameter with
// its qualifiers in front, as clang prints them.
func baseType(node *sitter.Node, source []byte) string {
	var parts []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "type_qualifier" {
			continue
		}
		if q := lang.NodeText(child, source); qualifiers[q] {
			parts = append(parts, q)
		}
	}
	if typ := node.ChildByFieldName("type"); typ != nil {
		parts = append(parts, typeName(typ, source))
	}
	return strings.Join(parts, " ")
}

func typeName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		if name := node.ChildByFieldName("name"); name != nil {
			tag := strings.TrimSuffix(node.Type(), "_specifier")
			return tag + " " + lang.NodeText(name, source)
		}
	case "sized_type_specifier":
		text := lang.CollapseWhitespace(lang.NodeText(node, source))
		if text == "unsigned" {
			return "unsigned int"
		}
		return text
	}
	return lang.CollapseWhitespace(lang.NodeText(node, source))
}

// kind strips the abstract_ prefix so named and abstract declarators share
// one spelling path.
func kind(node *sitter.Node) string {
	return strings.TrimPrefix(node.Type(), "abstract_")
}

// innerDeclarator returns the declarator nested inside node, or nil.
func innerDeclarator(node *sitter.Node) *sitter.Node {
	if kind(node) == "parenthesized_declarator" {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if t := child.Type(); t == "identifier" || strings.HasSuffix(t, "declarator") {
				return child
			}
		}
		return nil
	}
	return node.ChildByFieldName("declarator")
}

// unwind walks a declarator down to its identifier. It returns the name
// ("" for abstract declarators) and the chain of declarators ordered from
// the innermost outwards.
func unwind(decl *sitter.Node, source []byte) (string, []*sitter.Node) {
	var chain []*sitter.Node
	name := ""
	for node := decl; node != nil; node = innerDeclarator(node) {
		if node.Type() == "identifier" {
			name = lang.NodeText(node, source)
			break
		}
		chain = append(chain, node)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return name, chain
}

// spell renders base plus an inside-out declarator chain as a clang-style
// type name: "char *const", "int[4]", "int *[4]", "void (*)(int)".
func spell(base string, chain []*sitter.Node, source []byte) string {
	s := ""
	for _, node := range chain {
		switch kind(node) {
		case "pointer_declarator":
			p := "*" + strings.Join(pointerQualifiers(node, source), " ")
			if p != "*" && s != "" {
				p += " "
			}
			s = p + s
		case "array_declarator":
			size := ""
			if n := node.ChildByFieldName("size"); n != nil {
				size = lang.CollapseWhitespace(lang.NodeText(n, source))
			}
			s += "[" + size + "]"
		case "function_declarator":
			s += "(" + paramTypes(node.ChildByFieldName("parameters"), source) + ")"
		case "parenthesized_declarator":
			s = "(" + s + ")"
		}
	}
	switch {
	case s == "":
		return base
	case s[0] == '[':
		return base + s
	}
	return base + " " + s
}

func pointerQualifiers(node *sitter.Node, source []byte) []string {
	var quals []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "type_qualifier" {
			continue
		}
		if q := lang.NodeText(child, source); qualifiers[q] {
			quals = append(quals, q)
		}
	}
	return quals
}

// paramTypes spells the parameter types of a nested function type, e.g.
// the "int, char *" of a callback parameter.
func paramTypes(list *sitter.Node, source []byte) string {
	if list == nil {
		return ""
	}
	ps, variadic, explicitVoid := readParams(list, source)
	if explicitVoid {
		return "void"
	}
	types := make([]string, 0, len(ps)+1)
	for _, p := range ps {
		types = append(types, p.Type)
	}
	if variadic {
		types = append(types, "...")
	}
	return strings.Join(types, ", ")
}

// readParams reads a parameter_list. explicitVoid reports the (void) form;
// both (void) and () yield no parameters.
func readParams(list *sitter.Node, source []byte) (ps []model.Param, variadic, explicitVoid bool) {
	for i := 0; i < int(list.ChildCount()); i++ {
		child := list.Child(i)
		switch child.Type() {
		case "variadic_parameter", "...":
			variadic = true
		case "parameter_declaration":
			base := baseType(child, source)
			decl := child.ChildByFieldName("declarator")
			if decl == nil && base == "void" {
				explicitVoid = true
				continue
			}
			name, chain := "", []*sitter.Node(nil)
			if decl != nil {
				name, chain = unwind(decl, source)
			}
			ps = append(ps, model.Param{Type: spell(base, chain, source), Name: name})
		}
	}
	if explicitVoid && len(ps) > 0 {
		explicitVoid = false
	}
	return ps, variadic, explicitVoid
}
