package splitter

import "testing"

func TestCharWeight(t *testing.T) {
	tests := []struct {
		r    rune
		want Weight
	}{
		{'\n', WeightParagraph},
		{'\r', WeightParagraph},
		{'\u2028', WeightParagraph}, // line separator
		{'\u2029', WeightParagraph}, // paragraph separator
		{'.', WeightSentence},
		{'!', WeightSentence},
		{'?', WeightSentence},
		{'。', WeightSentence}, // ideographic full stop
		{'！', WeightSentence}, // fullwidth exclamation mark
		{'？', WeightSentence}, // fullwidth question mark
		{',', WeightPunctuation},
		{';', WeightPunctuation},
		{':', WeightPunctuation},
		{'，', WeightPunctuation}, // fullwidth comma
		{'、', WeightPunctuation}, // ideographic comma
		{' ', WeightSpace},
		{'\u00a0', WeightSpace}, // no-break space
		{'　', WeightSpace}, // ideographic space
		{'a', WeightNone},
		{'Z', WeightNone},
		{'7', WeightNone},
		{'中', WeightNone}, // CJK ideograph
		{'\t', WeightNone},     // tab is Cc, not Zs
		{'(', WeightNone},      // Ps, not Po
	}
	for _, tt := range tests {
		if got := CharWeight(tt.r); got != tt.want {
			t.Errorf("CharWeight(%q) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestWeightTable_MatchesClassifier(t *testing.T) {
	table := NewWeightTable(0x500)
	for r := rune(0); r < 0x600; r++ {
		if got, want := table.Weight(r), CharWeight(r); got != want {
			t.Fatalf("table.Weight(%q) = %v, want %v", r, got, want)
		}
	}
}

func TestWeightOrdering(t *testing.T) {
	if !(WeightParagraph > WeightSentence && WeightSentence > WeightPunctuation &&
		WeightPunctuation > WeightSpace && WeightSpace > WeightNone) {
		t.Fatal("separator weights are not totally ordered")
	}
}
