package splitter

import (
	"errors"
	"strings"
	"testing"
)

// pairTokenizer returns fixed counts for known texts and falls back to rune
// counting, letting tests pin down exact merge arithmetic.
type pairTokenizer struct {
	counts map[string]int
}

func (t pairTokenizer) Count(text string) int {
	if n, ok := t.counts[text]; ok {
		return n
	}
	return runeTokenizer{}.Count(text)
}

func TestOptimize_MergesAdjacentChunks(t *testing.T) {
	chunks := []Chunk{
		{Start: 0, Text: "Para one. ", Tokens: 5},
		{Start: 10, Text: "Para two.", Tokens: 4},
	}
	out, err := Optimize(chunks, Config{MaxTokens: 10, Tokenizer: pairTokenizer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 merged chunk, got %d", len(out))
	}
	if out[0].Text != "Para one. Para two." {
		t.Errorf("merged text = %q", out[0].Text)
	}
	if out[0].Tokens != 9 {
		t.Errorf("merged tokens = %d, want 9", out[0].Tokens)
	}
	if out[0].Start != 0 {
		t.Errorf("merged start = %d, want 0", out[0].Start)
	}
}

func TestOptimize_RedistributesAtHighestWeight(t *testing.T) {
	// "abc. defgh " + "ij" cannot merge under a budget of 9, but moving the
	// tail after the period into the second chunk balances both. The space
	// positions are also valid split points; the sentence terminator must
	// win anyway.
	chunks := []Chunk{
		{Start: 0, Text: "abc. defgh ", Tokens: 11},
		{Start: 11, Text: "ij", Tokens: 2},
	}
	out, err := Optimize(chunks, Config{MaxTokens: 9, Tokenizer: runeTokenizer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(out), out)
	}
	if out[0].Text != "abc." {
		t.Errorf("first chunk = %q, want %q", out[0].Text, "abc.")
	}
	if out[1].Text != " defgh ij" {
		t.Errorf("second chunk = %q, want %q", out[1].Text, " defgh ij")
	}
	if out[1].Start != 4 {
		t.Errorf("second chunk start = %d, want 4", out[1].Start)
	}
	if out[0].Tokens != 4 || out[1].Tokens != 9 {
		t.Errorf("token counts = %d/%d, want 4/9", out[0].Tokens, out[1].Tokens)
	}
}

func TestOptimize_NoImprovementLeavesChunksAlone(t *testing.T) {
	// No internal separators, so nothing can move.
	chunks := []Chunk{
		{Start: 0, Text: strings.Repeat("a", 9), Tokens: 9},
		{Start: 9, Text: strings.Repeat("b", 9), Tokens: 9},
	}
	out, err := Optimize(chunks, Config{MaxTokens: 9, Tokenizer: runeTokenizer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(out))
	}
	for i := range out {
		if out[i] != chunks[i] {
			t.Errorf("chunk %d changed: %+v vs %+v", i, out[i], chunks[i])
		}
	}
}

func TestOptimize_DropsTrailingWhitespaceChunk(t *testing.T) {
	chunks := []Chunk{
		{Start: 0, Text: "Content here.", Tokens: 13},
		{Start: 13, Text: "   ", Tokens: 3},
	}
	out, err := Optimize(chunks, Config{MaxTokens: 13, Tokenizer: runeTokenizer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected trailing whitespace chunk to be dropped, got %d chunks", len(out))
	}
	if out[0].Text != "Content here." {
		t.Errorf("remaining chunk = %q", out[0].Text)
	}
}

func TestOptimize_SingleChunkPassthrough(t *testing.T) {
	chunks := []Chunk{{Start: 0, Text: "alone", Tokens: 5}}
	out, err := Optimize(chunks, Config{MaxTokens: 5, Tokenizer: runeTokenizer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0] != chunks[0] {
		t.Errorf("single chunk should pass through unchanged, got %+v", out)
	}
}

func TestOptimize_ConfigError(t *testing.T) {
	if _, err := Optimize(nil, Config{MaxTokens: 0, Tokenizer: runeTokenizer{}}); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestSplitThenOptimize_PreservesInvariants(t *testing.T) {
	text := "One. Two. Three. Four. Five.\n\nSix. Seven. Eight. Nine. Ten. " +
		strings.Repeat("pad ", 30)
	for _, budget := range []int{10, 20, 45} {
		cfg := Config{MaxTokens: budget, Tokenizer: runeTokenizer{}}
		chunks, err := Split(text, cfg)
		if err != nil {
			t.Fatalf("Split(%d): %v", budget, err)
		}
		packed, err := Optimize(chunks, cfg)
		if err != nil {
			t.Fatalf("Optimize(%d): %v", budget, err)
		}
		if len(packed) > len(chunks) {
			t.Errorf("budget %d: optimizer grew the chunk count %d -> %d", budget, len(chunks), len(packed))
		}
		checkInvariants(t, text, packed, budget, runeTokenizer{})
	}
}
