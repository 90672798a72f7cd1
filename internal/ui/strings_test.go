package ui

import (
	"reflect"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"a long listing title", 10, "a long ..."},
		{"abcdef", 3, "abc"},
		{"  padded  ", 0, "padded"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"like_new":  "Like New",
		"outerwear": "Outerwear",
		"xl":        "XL",
		"m":         "M",
		"":          "",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a.jpg , ,b.png,")
	if want := []string{"a.jpg", "b.png"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("splitList() = %v, want %v", got, want)
	}
	if got := splitList("  "); got != nil {
		t.Fatalf("splitList(blank) = %v, want nil", got)
	}
}
