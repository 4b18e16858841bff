package irc

import (
	"reflect"
	"testing"
)

func TestSplitLineExamples(t *testing.T) {
	cases := []struct {
		max  int
		in   string
		want []string
	}{
		{10, "hello world of irc", []string{"hello", "world of", "irc"}},
		{3, "abcdefgh", []string{"abc", "def", "gh"}},
	}
	for _, tc := range cases {
		got := splitLine(tc.in, tc.max)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitLine(%q, %d) = %v, want %v", tc.in, tc.max, got, tc.want)
		}
		for _, part := range got {
			if len(part) > tc.max {
				t.Errorf("splitLine(%q, %d): part %q exceeds max", tc.in, tc.max, part)
			}
		}
	}
}

func TestSplitLineShortInput(t *testing.T) {
	got := splitLine("hi", 10)
	want := []string{"hi"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitLine short = %v, want %v", got, want)
	}
}
