package splitter

import (
	"strings"
	"unicode/utf8"
)

// Optimize raises token utilization of a chunk sequence produced by Split.
// It walks adjacent pairs once, left to right:
//
//   - when two neighbours fit the budget together they are merged;
//   - otherwise the tail of the first chunk is handed to its successor at
//     the best available separator (highest weight wins, ties go to the
//     position closest to the end) provided both pieces still fit;
//   - failing both, the chunk is kept as is.
//
// A final chunk left empty or whitespace-only by redistribution is dropped.
// The pass runs once, not to a fixed point. Losslessness and contiguity of
// the input sequence are preserved.
func Optimize(chunks []Chunk, cfg Config) ([]Chunk, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if len(chunks) <= 1 {
		return chunks, nil
	}

	work := make([]Chunk, len(chunks))
	copy(work, chunks)
	out := make([]Chunk, 0, len(work))

	i := 0
	for i < len(work)-1 {
		cur, next := work[i], work[i+1]

		if cur.Tokens+next.Tokens <= cfg.MaxTokens {
			out = append(out, Chunk{
				Start:  cur.Start,
				Text:   cur.Text + next.Text,
				Tokens: cur.Tokens + next.Tokens,
			})
			i += 2
			continue
		}

		if first, second, ok := redistribute(cur, next, cfg); ok {
			out = append(out, first)
			work[i+1] = second
		} else {
			out = append(out, cur)
		}
		i++
	}
	if i < len(work) {
		out = append(out, work[i])
	}

	if n := len(out); n > 0 && strings.TrimSpace(out[n-1].Text) == "" {
		out = out[:n-1]
	}
	return out, nil
}

// redistribute scans backward through cur for the best position to split it
// so that the tail moves into next. Separators stay with the piece that
// precedes them. Candidates are only evaluated when their weight beats the
// best valid split found so far, so the backward scan naturally prefers the
// latest position within each weight class.
func redistribute(cur, next Chunk, cfg Config) (first, second Chunk, ok bool) {
	bestPos := -1
	bestWeight := Weight(-1)
	bestFirstTokens, bestSecondTokens := 0, 0

	for j := len(cur.Text); j > 0; {
		r, size := utf8.DecodeLastRuneInString(cur.Text[:j])
		j -= size
		if j == 0 {
			// Splitting before the first character moves the whole chunk,
			// which is the failed merge again.
			break
		}
		w := cfg.Weights.Weight(r)
		if w <= bestWeight {
			continue
		}
		splitPos := j + size
		firstText := cur.Text[:splitPos]
		secondText := cur.Text[splitPos:] + next.Text
		firstTokens := cfg.Tokenizer.Count(firstText)
		if firstTokens > cfg.MaxTokens {
			continue
		}
		secondTokens := cfg.Tokenizer.Count(secondText)
		if secondTokens > cfg.MaxTokens {
			continue
		}
		bestPos = splitPos
		bestWeight = w
		bestFirstTokens = firstTokens
		bestSecondTokens = secondTokens
		if bestWeight == WeightParagraph {
			break
		}
	}

	if bestPos < 0 {
		return Chunk{}, Chunk{}, false
	}
	first = Chunk{Start: cur.Start, Text: cur.Text[:bestPos], Tokens: bestFirstTokens}
	second = Chunk{Start: cur.Start + bestPos, Text: cur.Text[bestPos:] + next.Text, Tokens: bestSecondTokens}
	return first, second, true
}
