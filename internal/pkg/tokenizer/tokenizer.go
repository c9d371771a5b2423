package tokenizer

import (
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// Counter reports how many model tokens a text occupies.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts with the cl100k_base encoding. The BPE ranks are
// embedded in the library so no download happens at runtime.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

func NewTiktokenCounter() (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{codec: codec}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return Approximate(text)
	}
	return len(ids)
}

// Approximate is the fallback estimate used when no encoder is available:
// roughly four characters per token, never less than the word count.
func Approximate(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	byChars := (len([]rune(text)) + 3) / 4
	if words > byChars {
		return words
	}
	return byChars
}

// ApproximateCounter implements Counter with Approximate.
type ApproximateCounter struct{}

func (ApproximateCounter) Count(text string) int {
	return Approximate(text)
}
