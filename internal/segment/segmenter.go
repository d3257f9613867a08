// Package segment splits text into bounded, overlapping token windows.
//
// Window boundaries are measured with the same tokenizer the embedding model
// uses, so a window of N tokens is N model-visible units, not N characters.
package segment

import (
	"errors"
	"fmt"
	"iter"
)

// Defaults used when configuration leaves the window unset.
const (
	DefaultMaxTokens     = 300
	DefaultOverlapTokens = 50
)

// ErrInvalidWindow signals a window configuration that cannot make progress.
var ErrInvalidWindow = errors.New("invalid segment window")

// TextMeasurer is the tokenization capability shared with the embedding backend.
type TextMeasurer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Window is one segment of a text: tokens [Start, End) rendered back to text.
type Window struct {
	Index int
	Start int
	End   int
	Text  string
}

// Segmenter produces token windows of at most maxTokens, each starting
// maxTokens-overlap tokens after the previous one. It holds no per-call state.
type Segmenter struct {
	measurer  TextMeasurer
	maxTokens int
	overlap   int
}

// New validates the window and returns a Segmenter.
// overlap must be in [0, maxTokens) so every step advances by at least one token.
func New(measurer TextMeasurer, maxTokens, overlap int) (*Segmenter, error) {
	if measurer == nil {
		return nil, fmt.Errorf("text measurer is required: %w", ErrInvalidWindow)
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d: %w", maxTokens, ErrInvalidWindow)
	}
	if overlap < 0 || overlap >= maxTokens {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d: %w", maxTokens, overlap, ErrInvalidWindow)
	}
	return &Segmenter{measurer: measurer, maxTokens: maxTokens, overlap: overlap}, nil
}

// MaxTokens returns the window size.
func (s *Segmenter) MaxTokens() int { return s.maxTokens }

// Overlap returns the number of tokens shared by consecutive windows.
func (s *Segmenter) Overlap() int { return s.overlap }

// Windows lazily yields the windows of text. Text with no tokens yields nothing.
// Iteration stops at the first window that reaches the end of the token sequence,
// so a text of at most maxTokens tokens yields exactly one window.
func (s *Segmenter) Windows(text string) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		tokens := s.measurer.Encode(text)
		step := s.maxTokens - s.overlap
		for idx, start := 0, 0; start < len(tokens); idx, start = idx+1, start+step {
			end := min(start+s.maxTokens, len(tokens))
			w := Window{
				Index: idx,
				Start: start,
				End:   end,
				Text:  s.measurer.Decode(tokens[start:end]),
			}
			if !yield(w) || end == len(tokens) {
				return
			}
		}
	}
}

// Split collects every window of text.
func (s *Segmenter) Split(text string) []Window {
	var out []Window
	for w := range s.Windows(text) {
		out = append(out, w)
	}
	return out
}
