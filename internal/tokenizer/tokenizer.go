// Package tokenizer provides token counters for the splitter. All counters
// are deterministic and safe for concurrent use.
package tokenizer

import (
	"fmt"

	"github.com/clipperhouse/uax29/words"
	"github.com/pkoukk/tiktoken-go"
)

// TikToken counts tokens with a tiktoken BPE encoding. Counts are exact for
// any input length; there is no truncation ceiling to worry about.
type TikToken struct {
	tke *tiktoken.Tiktoken
}

// NewTikToken creates a counter for the named encoding, e.g. "cl100k_base".
func NewTikToken(encoding string) (*TikToken, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding %q: %w", encoding, err)
	}
	return &TikToken{tke: tke}, nil
}

func (t *TikToken) Count(text string) int {
	return len(t.tke.Encode(text, nil, nil))
}

// Words counts UAX #29 word segments. A reasonable stand-in when the exact
// model tokenizer is unavailable but whitespace splitting is too crude.
type Words struct{}

func (Words) Count(text string) int {
	return len(words.SegmentAll([]byte(text)))
}

// Estimate approximates token counts with a Unicode-aware heuristic: ASCII
// runs at ~4 characters per token, everything else at ~1 character per
// token. Cheap enough to call per candidate segment.
type Estimate struct{}

func (Estimate) Count(text string) int {
	if text == "" {
		return 0
	}
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight++
		} else {
			weight += 4
		}
	}
	return (weight + 3) / 4
}

// ForName returns the counter selected by config: "tiktoken", "words" or
// "estimate".
func ForName(name, encoding string) (Counter, error) {
	switch name {
	case "tiktoken":
		return NewTikToken(encoding)
	case "words":
		return Words{}, nil
	case "estimate", "":
		return Estimate{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}

// Counter is the common shape of all counters in this package. It matches
// the splitter's Tokenizer interface.
type Counter interface {
	Count(text string) int
}
