package normalize

import (
	"strings"
	"testing"
)

func TestTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		// Basic normalization
		{"lowercase", "DRAGONS", []string{"dragons"}},
		{"split on spaces", "cat dog", []string{"cat", "dog"}},
		{"split on commas", "cat,dog", []string{"cat", "dog"}},
		{"mixed separators", "cat, dog ,bird", []string{"cat", "dog", "bird"}},
		{"separator runs", "cat,,   ,dog", []string{"cat", "dog"}},
		{"underscore kept", "slow_burn", []string{"slow_burn"}},

		// Character stripping
		{"punctuation stripped", "don't c-3po!", []string{"dont", "c3po"}},
		{"emoji stripped", "🐉dragons", []string{"dragons"}},
		{"accents stripped", "héllo wörld", []string{"hllo", "wrld"}},
		{"only special chars dropped", "!@# $%^", nil},

		// Dedup preserving first-seen order
		{"dedupe", "cat dog cat", []string{"cat", "dog"}},
		{"dedupe after strip", "Cat c.a.t", []string{"cat"}},

		// Edge cases
		{"empty input", "", nil},
		{"whitespace only", "   \t\n", nil},
		{"numbers allowed", "top10", []string{"top10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tags(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("Tags(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Tags(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestTags_DropsOverlongTokens(t *testing.T) {
	long := strings.Repeat("a", 51)
	max := strings.Repeat("b", 50)

	got := Tags(long + " " + max)
	if len(got) != 1 || got[0] != max {
		t.Errorf("expected only the 50-char token to survive, got %v", got)
	}
}

func TestTags_TruncatesToMax(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("tag")
		sb.WriteByte(byte('a' + i))
		sb.WriteByte(' ')
	}

	got := Tags(sb.String())
	if len(got) != 20 {
		t.Fatalf("expected 20 tags, got %d", len(got))
	}
	// First-seen order preserved up to the cap.
	if got[0] != "taga" || got[19] != "tagt" {
		t.Errorf("unexpected boundary tags: first=%q last=%q", got[0], got[19])
	}
}

func TestTags_Idempotent(t *testing.T) {
	inputs := []string{
		"Cat, DOG cat",
		"slow_burn Found-Family 🐉",
		"a b c d e f",
	}

	for _, in := range inputs {
		once := Tags(in)
		twice := Tags(strings.Join(once, " "))
		if len(once) != len(twice) {
			t.Fatalf("renormalizing %v changed length: %v", once, twice)
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Errorf("renormalizing %v changed element %d: %v", once, i, twice)
			}
		}
	}
}
