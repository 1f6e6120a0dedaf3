package generator

import (
	"testing"

	"github.com/phobologic/dlwrap/internal/model"
)

func TestListingLicense(t *testing.T) {
	t.Parallel()

	const prefix = "/*\n * This file was automatically generated from foo.h,\n * which is covered by the following license:\n"

	tests := []struct {
		name    string
		license string
		want    string
	}{
		{"single line", "MIT", " * MIT\n */\n"},
		{"trailing newline", "MIT\n", " * MIT\n */\n"},
		{"blank line and trailing spaces", "A  \n\nB\t\n", " * A\n *\n * B\n */\n"},
		{"crlf", "A\r\nB\r\n", " * A\n * B\n */\n"},
		{"empty", "", "\n */\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Listing("foo.h", tt.license, nil)
			if got != prefix+tt.want {
				t.Errorf("Listing() =\n%q\nwant\n%q", got, prefix+tt.want)
			}
		})
	}
}

func TestListingFunctions(t *testing.T) {
	t.Parallel()

	fns := []model.Function{
		{Name: "fill", ReturnType: "void", VoidReturn: true, Params: []model.Param{{Type: "int[4]", Name: "a"}}},
		{Name: "name", ReturnType: "const char *"},
	}
	got := Listing("foo.h", "X", fns)
	want := "/*\n * This file was automatically generated from foo.h,\n * which is covered by the following license:\n * X\n */\n" +
		"VOID_FUNC(void, fill, (int a[4]), (a))\n" +
		"FUNC(const char *, name, (void), ())\n"
	if got != want {
		t.Errorf("Listing() =\n%s\nwant\n%s", got, want)
	}
}
