package textnorm

import "testing"

func TestClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"html tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"urls", "Read more at https://example.com/post today", "Read more at today"},
		{"whitespace runs", "too   many\n\nspaces\there", "too many spaces here"},
		{"ellipsis collapse", "wait for it......", "wait for it..."},
		{"zero width", "zero\u200bwidth", "zerowidth"},
		{"keeps punctuation", "Really? Yes, (mostly) - fine: ok; done!", "Really? Yes, (mostly) - fine: ok; done!"},
		{"drops specials", "price $100 & 50% *wow*", "price 100 50 wow"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"plain text stays put",
		"<div>Some <a href=\"https://x.org\">link</a> inside.....</div>",
		"mixed\u200b   content https://a.b/c?d=e <br/> done",
		"ALL CAPS!!! And $ymbols @everywhere",
	}

	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Fatalf("Clean not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short stays", "hello", 10, "hello"},
		{"exact stays", "hello", 5, "hello"},
		{"cut with ellipsis", "hello world", 8, "hello..."},
		{"tiny max untouched", "hello", 3, "hello"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tc.in, tc.maxLen); got != tc.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestTruncateBoundsLength(t *testing.T) {
	t.Parallel()

	long := make([]rune, 500)
	for i := range long {
		long[i] = 'a'
	}

	got := Truncate(string(long), 200)
	if n := len([]rune(got)); n != 200 {
		t.Fatalf("truncated length = %d, want 200", n)
	}
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	in := `<div><h1>Title</h1><p>Body with <em>emphasis</em>.</p></div>`
	got := StripHTML(in)
	if got != "TitleBody with emphasis." {
		t.Fatalf("StripHTML = %q", got)
	}

	if StripHTML("") != "" {
		t.Fatal("StripHTML of empty input must be empty")
	}
}
