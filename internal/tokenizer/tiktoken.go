// Package tokenizer adapts the BPE encodings used by OpenAI-compatible
// embedding models to the segmenter's TextMeasurer.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// BPE ranks ship inside the binary; nothing is fetched at startup.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// FallbackEncoding is used when the embedding model is unknown to tiktoken.
const FallbackEncoding = "cl100k_base"

// Tiktoken encodes and decodes text with a model's BPE ranks.
// Safe for concurrent use.
type Tiktoken struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

// ForModel resolves the encoding of model, falling back to cl100k_base for
// models tiktoken does not know (self-hosted or proxied embedders).
func ForModel(model string) (*Tiktoken, error) {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return &Tiktoken{enc: enc, encoding: "model:" + model}, nil
	}
	return ForEncoding(FallbackEncoding)
}

// ForEncoding loads a named encoding.
func ForEncoding(name string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", name, err)
	}
	return &Tiktoken{enc: enc, encoding: name}, nil
}

// Encode returns the token ids of text. Special tokens are treated as plain text.
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode renders tokens back to text.
func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Encoding names the loaded encoding, for startup logs.
func (t *Tiktoken) Encoding() string { return t.encoding }
