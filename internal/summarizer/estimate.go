package summarizer

import "unicode/utf8"

// EstimateTokens approximates the total token cost of one call: the input
// characters times TokensPerChar, plus the prompt overhead and the output budget.
func (c Config) EstimateTokens(input string, maxOutputTokens int) int {
	chars := utf8.RuneCountInString(input)
	return int(float64(chars)*c.TokensPerChar) + c.PromptOverhead + maxOutputTokens
}
