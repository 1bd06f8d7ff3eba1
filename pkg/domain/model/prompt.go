package model

// PromptRoleSystem is the only role emitted by the prompt assembler
const PromptRoleSystem = "system"

// PromptBlock is one system message. Order of blocks is significant: later
// blocks take precedence.
type PromptBlock struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelConfig describes the model a prompt is assembled for
type ModelConfig struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextWindow int    `json:"context_window"`
}

// EstimateTokens approximates the token count of s (1 token per 4 chars)
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + 3) / 4
}
