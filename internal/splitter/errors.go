package splitter

import (
	"errors"
	"fmt"
)

// ErrConfig reports an unusable splitter configuration, such as a
// non-positive token budget or a missing tokenizer.
var ErrConfig = errors.New("invalid splitter configuration")

// UnsplittableSegmentError reports a segment with no boundary fine-grained
// enough to fit the token budget. The caller must either raise the budget
// or drop the input; no partial chunk list is returned.
type UnsplittableSegmentError struct {
	// Start is the byte offset of the segment in the original input.
	Start int
	// Length is the segment length in bytes.
	Length int
	// Tokens is the segment's token count, which exceeds the budget.
	Tokens int
}

func (e *UnsplittableSegmentError) Error() string {
	return fmt.Sprintf("segment at offset %d (%d bytes, %d tokens) cannot be split within the token limit; consider increasing max tokens", e.Start, e.Length, e.Tokens)
}
