package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts and trims text in model tokens. Retrieval uses it to
// keep assembled context under a token budget instead of guessing from
// character counts.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New resolves an encoding by model name first, then by encoding name.
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		// try by name
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

// Truncate returns the longest prefix of text that fits in maxTokens.
func (t *Tokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	ids := t.Encode(text)
	if len(ids) <= maxTokens {
		return text
	}
	return t.Decode(ids[:maxTokens])
}
