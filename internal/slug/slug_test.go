package slug

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var suffixPattern = regexp.MustCompile(`^[a-zA-Z0-9]{10}$`)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{input: "Groceries", want: "groceries"},
		{input: "Weekly Plan 2024", want: "weekly-plan-2024"},
		{input: "  spaced  out  ", want: "spaced-out"},
		{input: "Crème brûlée!", want: "creme-brulee"},
		{input: "already-a-slug", want: "already-a-slug"},
		{input: "Tabs\tand\nlines", want: "tabs-and-lines"},
	}
	for _, testCase := range testCases {
		if got := Slugify(testCase.input); got != testCase.want {
			t.Fatalf("Slugify(%q) = %q, want %q", testCase.input, got, testCase.want)
		}
	}
}

func TestRandomStringRejectsNonPositiveLength(t *testing.T) {
	for _, length := range []int{0, -3} {
		if _, err := RandomString(length); !errors.Is(err, ErrInvalidLength) {
			t.Fatalf("expected ErrInvalidLength for %d, got %v", length, err)
		}
	}
}

func TestGenerateExample(t *testing.T) {
	generated, err := NewGenerator().Generate("Groceries")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(generated, "groceries_") {
		t.Fatalf("unexpected slug %q", generated)
	}
	if !suffixPattern.MatchString(strings.TrimPrefix(generated, "groceries_")) {
		t.Fatalf("unexpected suffix in %q", generated)
	}
}

func TestGeneratePropagatesRandomFailure(t *testing.T) {
	failure := errors.New("entropy exhausted")
	generator := &Generator{random: func(int) (string, error) { return "", failure }}
	if _, err := generator.Generate("title"); !errors.Is(err, failure) {
		t.Fatalf("expected random failure, got %v", err)
	}
}

func TestGeneratedSlugHasPrefixAndSuffix(t *testing.T) {
	generator := NewGenerator()
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.String().Draw(t, "title")
		generated, err := generator.Generate(title)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		prefix := Prefix(title)
		if !strings.HasPrefix(generated, prefix) {
			t.Fatalf("slug %q does not start with %q", generated, prefix)
		}
		if !suffixPattern.MatchString(strings.TrimPrefix(generated, prefix)) {
			t.Fatalf("slug %q has malformed suffix", generated)
		}
	})
}

func TestRandomStringLengthAndAlphabet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(1, 64).Draw(t, "length")
		value, err := RandomString(length)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(value) != length {
			t.Fatalf("expected %d characters, got %d", length, len(value))
		}
		for _, character := range value {
			if !strings.ContainsRune(alphabet, character) {
				t.Fatalf("unexpected character %q", character)
			}
		}
	})
}
