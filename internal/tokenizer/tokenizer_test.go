package tokenizer

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcdefgh", 2},
		{"abc", 1}, // rounds up
		{"你好", 2}, // non-ASCII at one char per token
		{"hi你好", 3},
	}
	for _, tt := range tests {
		if got := (Estimate{}).Count(tt.text); got != tt.want {
			t.Errorf("Estimate.Count(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestWords(t *testing.T) {
	// UAX #29 counts whitespace runs as segments too; the point here is
	// determinism and monotonicity, not exact values.
	a := (Words{}).Count("hello world")
	b := (Words{}).Count("hello world and more words")
	if a <= 0 {
		t.Fatalf("expected positive count, got %d", a)
	}
	if b <= a {
		t.Errorf("longer text should count more segments: %d vs %d", b, a)
	}
	if again := (Words{}).Count("hello world"); again != a {
		t.Errorf("count not deterministic: %d vs %d", again, a)
	}
}

func TestForName(t *testing.T) {
	if _, err := ForName("estimate", ""); err != nil {
		t.Errorf("estimate: %v", err)
	}
	if _, err := ForName("words", ""); err != nil {
		t.Errorf("words: %v", err)
	}
	if _, err := ForName("bogus", ""); err == nil {
		t.Error("expected error for unknown tokenizer name")
	}
}
