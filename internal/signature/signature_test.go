package signature

import (
	"testing"

	"github.com/phobologic/dlwrap/internal/model"
)

func TestDeclarator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  string
		id   string
		want string
	}{
		{"plain", "int", "a", "int a"},
		{"pointer", "int *", "p", "int *p"},
		{"double pointer", "char **", "argv", "char **argv"},
		{"const pointer", "const char *", "s", "const char *s"},
		{"pointer const", "char *const", "s", "char *const s"},
		{"array", "int[4]", "x", "int x[4]"},
		{"unsized array", "int[]", "x", "int x[]"},
		{"matrix", "double[2][3]", "m", "double m[2][3]"},
		{"array of pointers", "int *[4]", "v", "int *v[4]"},
		{"struct", "struct timespec *", "tp", "struct timespec *tp"},
		{"unnamed", "int", "", "int "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Declarator(tt.typ, tt.id); got != tt.want {
				t.Errorf("Declarator(%q, %q) = %q, want %q", tt.typ, tt.id, got, tt.want)
			}
		})
	}
}

func TestRenderZeroParams(t *testing.T) {
	t.Parallel()

	fn := &model.Function{Name: "noop", ReturnType: "void", VoidReturn: true}
	sig := Render(fn)
	if sig.Params != "void" {
		t.Errorf("Params = %q, want void", sig.Params)
	}
	if sig.Args != "" {
		t.Errorf("Args = %q, want empty", sig.Args)
	}
	if !sig.Void {
		t.Error("Void = false, want true")
	}
}

func TestRenderParams(t *testing.T) {
	t.Parallel()

	fn := &model.Function{
		Name:       "compress",
		ReturnType: "int",
		Params: []model.Param{
			{Type: "unsigned char[16]", Name: "dst"},
			{Type: "const void *", Name: "src"},
			{Type: "size_t", Name: "len"},
		},
	}
	sig := Render(fn)
	if want := "unsigned char dst[16], const void *src, size_t len"; sig.Params != want {
		t.Errorf("Params = %q, want %q", sig.Params, want)
	}
	if want := "dst, src, len"; sig.Args != want {
		t.Errorf("Args = %q, want %q", sig.Args, want)
	}
	if sig.Void {
		t.Error("Void = true, want false")
	}
}

func TestLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   model.Function
		want string
	}{
		{
			name: "value return",
			fn: model.Function{
				Name:       "add",
				ReturnType: "int",
				Params:     []model.Param{{Type: "int", Name: "a"}, {Type: "int", Name: "b"}},
			},
			want: "FUNC(int, add, (int a, int b), (a, b))",
		},
		{
			name: "void return",
			fn:   model.Function{Name: "noop", ReturnType: "void", VoidReturn: true},
			want: "VOID_FUNC(void, noop, (void), ())",
		},
		{
			name: "void pointer return",
			fn: model.Function{
				Name:       "xmalloc",
				ReturnType: "void *",
				Params:     []model.Param{{Type: "size_t", Name: "n"}},
			},
			want: "FUNC(void *, xmalloc, (size_t n), (n))",
		},
		{
			name: "pointer return and params",
			fn: model.Function{
				Name:       "clock_gettime",
				ReturnType: "int",
				Params: []model.Param{
					{Type: "clockid_t", Name: "clock_id"},
					{Type: "struct timespec *", Name: "tp"},
				},
			},
			want: "FUNC(int, clock_gettime, (clockid_t clock_id, struct timespec *tp), (clock_id, tp))",
		},
		{
			name: "array param",
			fn: model.Function{
				Name:       "fill",
				ReturnType: "void",
				VoidReturn: true,
				Params:     []model.Param{{Type: "int[4]", Name: "x"}},
			},
			want: "VOID_FUNC(void, fill, (int x[4]), (x))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Line(&tt.fn); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMacro(t *testing.T) {
	t.Parallel()

	if got := Macro(&model.Function{VoidReturn: true}); got != VoidFuncMacro {
		t.Errorf("Macro(void) = %q", got)
	}
	if got := Macro(&model.Function{}); got != FuncMacro {
		t.Errorf("Macro(value) = %q", got)
	}
}
