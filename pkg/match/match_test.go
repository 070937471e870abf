package match

import "testing"

func TestNameWithoutStarIsWholeWordCaseInsensitive(t *testing.T) {
	cases := []struct {
		pattern, input string
		want           bool
	}{
		{"look", "look", true},
		{"look", "LOOK", true},
		{"look", "looking", false},
		{"look", "loo", false},
	}
	for _, c := range cases {
		if got := Name(c.pattern, c.input); got != c.want {
			t.Errorf("Name(%q,%q) = %v, want %v", c.pattern, c.input, got, c.want)
		}
	}
}

func TestNameWithStarMatchesProgressiveCompletion(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"dname", true},
		{"dnamec", true},
		{"dnam", false},
		{"dnamex", false},
		{"dnamecx", false},
	}
	for _, c := range cases {
		if got := Name("dname*c", c.input); got != c.want {
			t.Errorf("Name(dname*c,%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestTrailingStarMatchesAnyRemainder(t *testing.T) {
	for _, input := range []string{"look_", "look_s", "look_self", "look_a", "look_at", "look_anything"} {
		if !Name("look_*", input) {
			t.Errorf("Name(look_*, %q) = false, want true", input)
		}
	}
	for _, input := range []string{"look", "lookX", "elsewhere"} {
		if Name("look_*", input) {
			t.Errorf("Name(look_*, %q) = true, want false", input)
		}
	}
}

func TestAnyTriesEveryNameToken(t *testing.T) {
	// A verb's Names string is space-separated tokens; the bare "look" token
	// and the "look_*" wildcard token together cover look, look_self, and
	// look_at, the way a real verb definition would declare them.
	names := []string{"look", "look_*"}
	for _, input := range []string{"look", "look_self", "look_at"} {
		if !Any(names, input) {
			t.Errorf("Any(%v, %q) = false, want true", names, input)
		}
	}
	for _, input := range []string{"loo", "looker"} {
		if Any(names, input) {
			t.Errorf("Any(%v, %q) = true, want false", names, input)
		}
	}
}

func TestTwoWildcardNameTokensEachMatchIndependently(t *testing.T) {
	names := []string{"dname*c", "iname*c"}
	for _, input := range []string{"dname", "dnamec", "iname", "inamec"} {
		if !Any(names, input) {
			t.Errorf("Any(%v, %q) = false, want true", names, input)
		}
	}
	if Any(names, "dnam") {
		t.Errorf("Any(%v, %q) = true, want false", names, "dnam")
	}
}
