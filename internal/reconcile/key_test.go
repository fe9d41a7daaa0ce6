package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"studentpress/internal/model"
)

func TestMatchKey(t *testing.T) {
	tests := []struct {
		name     string
		author   string
		postType model.PostType
		title    string
		content  string
		wantOK   bool
	}{
		{name: "complete", author: "u1", postType: model.PostTypeSMNow, title: "Foo", content: "Bar baz", wantOK: true},
		{name: "missing post type", author: "u1", title: "Foo", content: "Bar", wantOK: false},
		{name: "missing title", author: "u1", postType: model.PostTypeSMNow, content: "Bar", wantOK: false},
		{name: "missing content", author: "u1", postType: model.PostTypeSMNow, title: "Foo", wantOK: false},
		{name: "whitespace title", author: "u1", postType: model.PostTypeSMNow, title: " \n\t", content: "Bar", wantOK: false},
		{name: "whitespace content", author: "u1", postType: model.PostTypeSMNow, title: "Foo", content: "   ", wantOK: false},
		{name: "empty author still builds", postType: model.PostTypeSMNow, title: "Foo", content: "Bar", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := MatchKey(tt.author, tt.postType, tt.title, tt.content)
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Errorf("MatchKey() ok mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchKeyNormalisation(t *testing.T) {
	a, _ := MatchKey("u1", model.PostTypeSMNow, "Foo", "Bar baz")
	b, _ := MatchKey("u1", model.PostTypeSMNow, "  foo ", "bar   BAZ\n")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("normalised keys differ (-a +b):\n%s", diff)
	}

	other, _ := MatchKey("u2", model.PostTypeSMNow, "Foo", "Bar baz")
	if a == other {
		t.Error("keys for different authors must differ")
	}
	poem, _ := MatchKey("u1", model.PostTypePoem, "Foo", "Bar baz")
	if a == poem {
		t.Error("keys for different post types must differ")
	}
}

func TestMatchKeySeparatorIsUnambiguous(t *testing.T) {
	a, _ := MatchKey("u1", model.PostTypeSMNow, "a b", "c")
	b, _ := MatchKey("u1", model.PostTypeSMNow, "a", "b c")
	if a == b {
		t.Error("title/content boundary must be part of the key")
	}
}
