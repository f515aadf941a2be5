package domain

// Usage reports token consumption of a completion call.
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

// TurnResult is the outcome of one orchestrated turn. Reply is always
// displayable, even when Err is set. Err is for logs and callers only and
// never reaches a JSON response.
type TurnResult struct {
	Reply      string `json:"response"`
	Statistics *Usage `json:"statistics"`
	Err        error  `json:"-"`
}
