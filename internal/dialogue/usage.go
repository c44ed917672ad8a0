package dialogue

// Usage accumulates token accounting across dialogue exchanges. The narrative
// layer reports real counts when its backend provides them; [EstimateTokens]
// stands in otherwise.
type Usage struct {
	// PromptTokens counts tokens consumed by constraint envelopes and
	// situation context handed downstream.
	PromptTokens int

	// CompletionTokens counts tokens in generated NPC speech.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// Add records one exchange.
func (u *Usage) Add(prompt, completion int) {
	u.PromptTokens += prompt
	u.CompletionTokens += completion
	u.TotalTokens += prompt + completion
}

// Merge folds another accumulator into this one.
func (u *Usage) Merge(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// EstimateTokens approximates the token count of text at roughly four bytes
// per token. Good enough for budget tracking; never used for billing.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}
