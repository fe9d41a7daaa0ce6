package textnorm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \t\n ", want: ""},
		{name: "inner runs", in: "bar   baz", want: "bar baz"},
		{name: "case and newlines", in: "  Foo\n\nBAR\tbaz ", want: "foo bar baz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Fold(tt.in)); diff != "" {
				t.Errorf("Fold() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollapseKeepsCase(t *testing.T) {
	if diff := cmp.Diff("Hello World", Collapse(" Hello \n World ")); diff != "" {
		t.Errorf("Collapse() mismatch (-want +got):\n%s", diff)
	}
}
