package sanitize

import (
	"strings"
	"testing"
)

func TestTextStripsMarkup(t *testing.T) {
	cases := map[string]string{
		"":                         "",
		"Ivan":                     "Ivan",
		"O'Brien, Smith":           "O'Brien, Smith",
		"<b>Ivan</b>":              "Ivan",
		`<a href="x">Link</a> end`: "Link end",
		"Tom & Jerry":              "Tom & Jerry",
		" spaced ":                 " spaced ",
		"&lt;b&gt;x&lt;/b&gt;":     "x",
		"a < b":                    "a < b",
		"&amp;lt;i&amp;gt;deep":    "deep",
	}
	for input, want := range cases {
		if got := Text(input); got != want {
			t.Fatalf("Text(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNoneKeepsInput(t *testing.T) {
	if got := None("<b>x</b>"); got != "<b>x</b>" {
		t.Fatalf("None changed input: %q", got)
	}
}

func TestTextIsStable(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&lt;b&gt;x&lt;/b&gt;",
		"Tom &amp; Jerry",
		"O'Brien",
		"<p>a &lt; b</p>",
	}
	for _, input := range inputs {
		once := Text(input)
		if strings.Contains(once, "<") && strings.Contains(once, ">") {
			t.Fatalf("Text(%q) = %q still carries markup", input, once)
		}
		if twice := Text(once); twice != once {
			t.Fatalf("Text not stable for %q: %q then %q", input, once, twice)
		}
	}
}
