package contextmgr

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with the cl100k_base encoding shared by the
// GPT-4 family; Gemini tokenization differs slightly but the estimate is
// close enough for a truncation budget.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding: %w", err)
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

var _ Counter = (*TiktokenCounter)(nil)
