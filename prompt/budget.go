package prompt

import (
	"github.com/pkoukk/tiktoken-go"
	"github.com/sweetpotato0/roundtable/message"
)

// HistoryBudget trims conversation history to a token budget before it is
// handed to a backend, dropping the oldest entries first. The most recent
// message is always kept.
type HistoryBudget struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
}

// NewHistoryBudget creates a budget using the named encoding (a model name
// like "gpt-4" or an encoding name like "cl100k_base"). maxTokens <= 0
// disables trimming.
func NewHistoryBudget(encoding string, maxTokens int) (*HistoryBudget, error) {
	if maxTokens <= 0 {
		return &HistoryBudget{maxTokens: 0}, nil
	}
	enc, err := tiktoken.EncodingForModel(encoding)
	if err != nil {
		enc, err = tiktoken.GetEncoding(encoding)
		if err != nil {
			return nil, err
		}
	}
	return &HistoryBudget{enc: enc, maxTokens: maxTokens}, nil
}

// CountTokens returns the token count of the given text.
func (b *HistoryBudget) CountTokens(text string) int {
	if b.enc == nil {
		return 0
	}
	return len(b.enc.Encode(text, nil, nil))
}

// Trim returns the longest suffix of msgs that fits the budget. The slice
// and its messages are shared, not copied; callers must not mutate them.
func (b *HistoryBudget) Trim(msgs []*message.Message) []*message.Message {
	if b.maxTokens <= 0 || len(msgs) <= 1 {
		return msgs
	}

	total := 0
	cut := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		total += b.CountTokens(msgs[i].Content)
		if total > b.maxTokens && i < len(msgs)-1 {
			break
		}
		cut = i
	}
	return msgs[cut:]
}
