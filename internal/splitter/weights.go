package splitter

import "unicode"

// Weight ranks how strongly a character suggests a natural text boundary.
// Higher weights are preferred split points.
type Weight int

const (
	WeightNone Weight = iota
	WeightSpace
	WeightPunctuation
	WeightSentence
	WeightParagraph
)

func (w Weight) String() string {
	switch w {
	case WeightParagraph:
		return "paragraph"
	case WeightSentence:
		return "sentence"
	case WeightPunctuation:
		return "punctuation"
	case WeightSpace:
		return "space"
	}
	return "none"
}

// CharWeight classifies a single rune. The rules are checked in priority
// order: paragraph separators (CR, LF, U+2028, U+2029), Unicode sentence
// terminators (STerm), other punctuation (Po), space separators (Zs),
// then everything else.
func CharWeight(r rune) Weight {
	switch {
	case r == '\n' || r == '\r' || unicode.Is(unicode.Zl, r) || unicode.Is(unicode.Zp, r):
		return WeightParagraph
	case unicode.Is(unicode.STerm, r):
		return WeightSentence
	case unicode.Is(unicode.Po, r):
		return WeightPunctuation
	case unicode.Is(unicode.Zs, r):
		return WeightSpace
	}
	return WeightNone
}

// WeightTable is a precomputed rune-to-weight lookup. The mapping never
// changes within a process lifetime, so a table built once can be shared
// freely across goroutines; it is read-only after construction.
type WeightTable struct {
	direct []Weight
}

// NewWeightTable precomputes weights for all runes below limit. Runes at or
// above the limit fall back to CharWeight.
func NewWeightTable(limit rune) *WeightTable {
	t := &WeightTable{direct: make([]Weight, limit)}
	for r := rune(0); r < limit; r++ {
		t.direct[r] = CharWeight(r)
	}
	return t
}

// Weight returns the separator weight for r.
func (t *WeightTable) Weight(r rune) Weight {
	if r >= 0 && int(r) < len(t.direct) {
		return t.direct[r]
	}
	return CharWeight(r)
}

// defaultWeights covers the BMP, which includes every separator class the
// classifier distinguishes. Built once at init and never mutated.
var defaultWeights = NewWeightTable(0x3000)
