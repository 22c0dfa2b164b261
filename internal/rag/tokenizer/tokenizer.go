// Package tokenizer wraps tiktoken behind the pipeline's Tokenizer
// contract.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"propertyrag/internal/rag/interfaces"
)

// Tiktoken is the production tokenizer. It uses the cl100k_base encoding,
// which matches text-embedding-3-small and the GPT-4 family, so stored
// token counts line up with what the embedding API sees.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewCL100K initializes a cl100k_base tokenizer.
func NewCL100K() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

var _ interfaces.Tokenizer = (*Tiktoken)(nil)
