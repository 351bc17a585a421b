package llm

// ModelConfig describes a model the gateway can route to.
// The table is static; pricing is USD per 1K tokens.
type ModelConfig struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Provider        string  `json:"provider"`
	MaxTokens       int     `json:"max_tokens"`
	InputCostPer1K  float64 `json:"input_cost_per_1k"`
	OutputCostPer1K float64 `json:"output_cost_per_1k"`
}

var availableModels = []ModelConfig{
	// Anthropic
	{
		ID:              "claude-sonnet-4-20250514",
		Name:            "Claude Sonnet 4",
		Provider:        "anthropic",
		MaxTokens:       8192,
		InputCostPer1K:  0.003,
		OutputCostPer1K: 0.015,
	},
	{
		ID:              "claude-opus-4-0-20250514",
		Name:            "Claude Opus 4",
		Provider:        "anthropic",
		MaxTokens:       4096,
		InputCostPer1K:  0.015,
		OutputCostPer1K: 0.075,
	},
	{
		ID:              "claude-3-5-haiku-20241022",
		Name:            "Claude 3.5 Haiku",
		Provider:        "anthropic",
		MaxTokens:       8192,
		InputCostPer1K:  0.001,
		OutputCostPer1K: 0.005,
	},
	// OpenAI
	{
		ID:              "gpt-4",
		Name:            "GPT-4",
		Provider:        "openai",
		MaxTokens:       8192,
		InputCostPer1K:  0.03,
		OutputCostPer1K: 0.06,
	},
	{
		ID:              "gpt-4o",
		Name:            "GPT-4o",
		Provider:        "openai",
		MaxTokens:       16384,
		InputCostPer1K:  0.005,
		OutputCostPer1K: 0.015,
	},
	{
		ID:              "gpt-4-turbo",
		Name:            "GPT-4 Turbo",
		Provider:        "openai",
		MaxTokens:       4096,
		InputCostPer1K:  0.01,
		OutputCostPer1K: 0.03,
	},
	// Google Gemini
	{
		ID:              "gemini-1.5-pro",
		Name:            "Gemini 1.5 Pro",
		Provider:        "google",
		MaxTokens:       8192,
		InputCostPer1K:  0.00125,
		OutputCostPer1K: 0.005,
	},
}

// Lookup returns the config for a model id.
func Lookup(modelID string) (ModelConfig, bool) {
	for _, m := range availableModels {
		if m.ID == modelID {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// Cost computes the USD cost of a call. Unknown models cost zero, so a
// zero cost is not a signal that the model was priced.
func Cost(modelID string, inputTokens, outputTokens int) float64 {
	m, ok := Lookup(modelID)
	if !ok {
		return 0
	}
	inputCost := float64(inputTokens) / 1000.0 * m.InputCostPer1K
	outputCost := float64(outputTokens) / 1000.0 * m.OutputCostPer1K
	return inputCost + outputCost
}

// All returns the full model table.
func All() []ModelConfig {
	out := make([]ModelConfig, len(availableModels))
	copy(out, availableModels)
	return out
}

// ByProvider groups the table for display, preserving table order
// within each provider.
func ByProvider() map[string][]ModelConfig {
	grouped := make(map[string][]ModelConfig)
	for _, m := range availableModels {
		grouped[m.Provider] = append(grouped[m.Provider], m)
	}
	return grouped
}
