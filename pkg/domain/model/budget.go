package model

// SearchRecord is a single knowledge/web search performed in a turn
type SearchRecord struct {
	Query    string  `json:"query"`
	TopScore float64 `json:"top_score"`
}

// BudgetState is the per-turn token accounting computed by the caller
type BudgetState struct {
	SystemTokens   int            `json:"system_tokens"`
	MessagesTokens int            `json:"messages_tokens"`
	MemoriesTokens int            `json:"memories_tokens"`
	TotalTokens    int            `json:"total_tokens"`
	ContextLimit   int            `json:"context_limit"`
	SearchHistory  []SearchRecord `json:"search_history,omitempty"`
}

// UsageRatio returns TotalTokens / ContextLimit, or 0 without a limit
func (b *BudgetState) UsageRatio() float64 {
	if b == nil || b.ContextLimit <= 0 {
		return 0
	}
	return float64(b.TotalTokens) / float64(b.ContextLimit)
}

// IsContextFull reports whether usage reached ratio of the context window
func (b *BudgetState) IsContextFull(ratio float64) bool {
	if b == nil || b.ContextLimit <= 0 {
		return false
	}
	return b.UsageRatio() >= ratio
}

// HasLowQualitySearchStreak reports whether the last streak searches all
// scored below minScore.
func (b *BudgetState) HasLowQualitySearchStreak(streak int, minScore float64) bool {
	if b == nil || streak <= 0 || len(b.SearchHistory) < streak {
		return false
	}
	for _, s := range b.SearchHistory[len(b.SearchHistory)-streak:] {
		if s.TopScore >= minScore {
			return false
		}
	}
	return true
}

// RemainingTokens returns the tokens left before the context limit
func (b *BudgetState) RemainingTokens() int {
	if b == nil || b.ContextLimit <= 0 {
		return 0
	}
	if r := b.ContextLimit - b.TotalTokens; r > 0 {
		return r
	}
	return 0
}
