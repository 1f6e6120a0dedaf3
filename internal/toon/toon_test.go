package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/dlwrap/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "include/zstd.h", "include/zstd.h"},
		{"pointer type", "const char *", "const char *"},
		{"array type", "int[4]", `"int[4]"`},
		{"function pointer", "void (*)(int)", "void (*)(int)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeFunctions(t *testing.T) {
	t.Parallel()

	fns := []model.Function{
		{Name: "add", ReturnType: "int", Params: []model.Param{{Type: "int", Name: "a"}, {Type: "int", Name: "b"}}, Line: 12},
		{Name: "noop", ReturnType: "void", VoidReturn: true, Line: 13},
		{Name: "version", ReturnType: "const char *", Line: 20},
	}

	got := EncodeFunctions("array.h", fns)
	want := strings.Join([]string{
		"input: array.h",
		"functions[3]{name,macro,return,params,args,line}:",
		`  add,FUNC,int,"int a, int b","a, b",12`,
		`  noop,VOID_FUNC,void,void,"",13`,
		`  version,FUNC,const char *,void,"",20`,
	}, "\n")
	if got != want {
		t.Errorf("EncodeFunctions() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeFunctionsEmpty(t *testing.T) {
	t.Parallel()

	got := EncodeFunctions("my lib.h", nil)
	if !strings.Contains(got, "input: my lib.h") {
		t.Errorf("missing input line:\n%s", got)
	}
	if !strings.HasSuffix(got, "functions[0]{name,macro,return,params,args,line}:") {
		t.Errorf("missing empty functions table:\n%s", got)
	}
}
