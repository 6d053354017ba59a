// Package splitter breaks documents into token-bounded chunks, preferring
// the most semantically meaningful boundary available: paragraph breaks over
// sentence ends over punctuation over spaces over arbitrary characters.
package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Tokenizer counts tokens in a piece of text. Counts must be deterministic
// for a fixed input. Implementations may truncate internally, but only above
// the caller's token budget, so that every count at or below the budget is
// exact. The splitter invokes it synchronously from the calling goroutine.
type Tokenizer interface {
	Count(text string) int
}

// Chunk is a contiguous substring of the original input annotated with its
// byte offset within that input and its token count.
type Chunk struct {
	Start  int    `json:"start"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// End returns the byte offset just past the chunk.
func (c Chunk) End() int {
	return c.Start + len(c.Text)
}

// Config controls splitting behavior.
type Config struct {
	// MaxTokens is the token budget per chunk. Must be positive.
	MaxTokens int
	// Tokenizer measures candidate segments. Required.
	Tokenizer Tokenizer
	// Weights is the separator classification table. Defaults to a shared
	// precomputed table when nil.
	Weights *WeightTable
}

func (cfg *Config) check() error {
	if cfg.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrConfig, cfg.MaxTokens)
	}
	if cfg.Tokenizer == nil {
		return fmt.Errorf("%w: tokenizer is required", ErrConfig)
	}
	if cfg.Weights == nil {
		cfg.Weights = defaultWeights
	}
	return nil
}

// Split chunks text so that no chunk exceeds cfg.MaxTokens, breaking at the
// highest-weight separators available. Separator characters belong to the
// chunk that precedes them. Concatenating the returned chunk texts in order
// reproduces text exactly, and offsets form a gapless partition starting at 0.
//
// Within one weight level the boundary choice is greedy left to right: each
// chunk takes as many segments as fit the budget before the next one starts.
// A segment that alone exceeds the budget is re-split at the next lower
// weight level; if no level remains, Split fails with
// *UnsplittableSegmentError and no chunks are returned.
func Split(text string, cfg Config) ([]Chunk, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	run := splitRun{cfg: cfg}
	return run.splitLevel(text, WeightParagraph, 0)
}

type splitRun struct {
	cfg Config
}

// splitLevel scans text for separators of at least the given weight, packing
// segments greedily into chunks of at most the budget. base is the byte
// offset of text within the original input; emitted chunk offsets are always
// absolute. Recursion depth is bounded by the number of weight levels.
func (s *splitRun) splitLevel(text string, level Weight, base int) ([]Chunk, error) {
	var chunks []Chunk
	var cur strings.Builder
	curTokens := 0
	curStart := base
	segStart := 0

	// The running chunk keeps a sum of per-segment counts instead of
	// re-encoding the whole chunk each time a segment is accepted; only the
	// candidate segment itself is tokenized per boundary.
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{Start: curStart, Text: cur.String(), Tokens: curTokens})
		curStart += cur.Len()
		cur.Reset()
		curTokens = 0
	}

	accept := func(seg string, end int) error {
		segTokens := s.cfg.Tokenizer.Count(seg)
		if curTokens+segTokens <= s.cfg.MaxTokens {
			cur.WriteString(seg)
			curTokens += segTokens
			segStart = end
			return nil
		}
		flush()
		switch {
		case segTokens > s.cfg.MaxTokens && level > WeightNone:
			sub, err := s.splitLevel(seg, level-1, curStart)
			if err != nil {
				return err
			}
			chunks = append(chunks, sub...)
			curStart += len(seg)
			segStart = end
		case segTokens <= s.cfg.MaxTokens:
			cur.WriteString(seg)
			curTokens = segTokens
			segStart = end
		default:
			return &UnsplittableSegmentError{Start: curStart, Length: len(seg), Tokens: segTokens}
		}
		return nil
	}

	for i, r := range text {
		if s.cfg.Weights.Weight(r) < level {
			continue
		}
		// The separator closes the candidate segment and stays inside it.
		if err := accept(text[segStart:i+utf8.RuneLen(r)], i+utf8.RuneLen(r)); err != nil {
			return nil, err
		}
	}

	if segStart < len(text) {
		if err := accept(text[segStart:], len(text)); err != nil {
			return nil, err
		}
	}

	flush()
	return chunks, nil
}
