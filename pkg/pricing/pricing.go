// Package pricing converts raw token counts into USD cost.
//
// Rates are fixed per model family for the lifetime of the process. Cost
// calculation is a pure function: the same model and token counts always
// produce the same cost.
package pricing

import "strings"

// Model identifies a known model family for pricing purposes.
//
// The set is closed: every model name reported in the logs resolves to
// exactly one of these variants, with ModelUnknown as the deliberate
// fallback rather than an implicit lookup miss.
type Model int

const (
	// ModelSonnet is the baseline model family. Records without a model
	// name, and unknown model names, are priced at Sonnet rates.
	ModelSonnet Model = iota

	// ModelOpus is the high-capability model family.
	ModelOpus

	// ModelHaiku is the fast, low-cost model family.
	ModelHaiku

	// ModelUnknown is any model name not matching a known family.
	ModelUnknown
)

// DefaultModelName is the model assumed when a log record carries none.
const DefaultModelName = "claude-sonnet-4-20250514"

// Rates holds USD rates per 1000 tokens for the four token classes.
type Rates struct {
	Input         float64
	Output        float64
	CacheCreation float64
	CacheRead     float64
}

// Per-1k USD rates by family. Cache creation is 1.25x input, cache read
// is 1/10 of input, matching published Anthropic pricing.
var rates = map[Model]Rates{
	ModelOpus:   {Input: 0.015, Output: 0.075, CacheCreation: 0.01875, CacheRead: 0.0015},
	ModelSonnet: {Input: 0.003, Output: 0.015, CacheCreation: 0.00375, CacheRead: 0.0003},
	ModelHaiku:  {Input: 0.0008, Output: 0.004, CacheCreation: 0.001, CacheRead: 0.00008},
}

// Resolve maps a raw model name from the logs to a pricing family.
//
// Matching is by family substring ("opus", "haiku", "sonnet") so that
// dated and undated variants of the same family price identically.
// Anything else resolves to ModelUnknown.
func Resolve(modelName string) Model {
	name := strings.ToLower(modelName)
	switch {
	case strings.Contains(name, "opus"):
		return ModelOpus
	case strings.Contains(name, "haiku"):
		return ModelHaiku
	case strings.Contains(name, "sonnet"):
		return ModelSonnet
	default:
		return ModelUnknown
	}
}

// RatesFor returns the rate tuple for a model family.
// ModelUnknown deliberately prices at the baseline Sonnet rates.
func RatesFor(m Model) Rates {
	if r, ok := rates[m]; ok {
		return r
	}
	return rates[ModelSonnet]
}

// Cost prices four token counts against the named model's rates.
//
// The returned value is Σ (tokens_i / 1000) × rate_i over the four token
// classes. Unknown model names fall back to baseline rates rather than
// erroring; a priced-but-approximate fact is more useful than a hole in
// the aggregation.
func Cost(modelName string, inputTokens, outputTokens, cacheCreationTokens, cacheReadTokens int) float64 {
	r := RatesFor(Resolve(modelName))

	return float64(inputTokens)/1000*r.Input +
		float64(outputTokens)/1000*r.Output +
		float64(cacheCreationTokens)/1000*r.CacheCreation +
		float64(cacheReadTokens)/1000*r.CacheRead
}
