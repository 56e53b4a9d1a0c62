// Package parser reads Claude Code JSONL session logs and converts
// assistant records into validated, priced usage facts.
//
// Each line of a log file is parsed independently; a malformed or
// incomplete line never fails the surrounding file or scan. The wire
// records are transient -- callers only ever see UsageFact values.
//
// Example usage:
//
//	p := parser.New(logger.Default())
//	facts, err := p.ParseFile("/path/to/session.jsonl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range facts {
//	    fmt.Printf("%s: $%.4f\n", f.MessageID, f.Cost)
//	}
package parser

import (
	"time"

	"github.com/shinagaki/ccmonitor/pkg/pricing"
)

// rawRecord is the wire shape of one log line. Only assistant records
// carry a message payload worth keeping.
type rawRecord struct {
	Timestamp time.Time   `json:"timestamp"`
	Type      string      `json:"type"`
	Message   *rawMessage `json:"message,omitempty"`
}

// rawMessage is the nested assistant message payload.
type rawMessage struct {
	ID    string    `json:"id"`
	Model string    `json:"model"`
	Usage *rawUsage `json:"usage,omitempty"`
}

// rawUsage carries the four token counters. Absent fields decode as 0.
type rawUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// total returns the sum of all token classes.
func (u rawUsage) total() int {
	return u.InputTokens + u.OutputTokens +
		u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// UsageFact is one validated, priced unit of token consumption derived
// from a single assistant log line.
//
// Invariant: at least one token count is positive.
// Invariant: MessageID is non-empty.
// A UsageFact is immutable after creation; deduplication and aggregation
// are downstream concerns.
type UsageFact struct {
	MessageID           string
	Timestamp           time.Time
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Model               string
	Cost                float64
}

// TotalTokens returns the sum of all four token classes.
func (f UsageFact) TotalTokens() int {
	return f.InputTokens + f.OutputTokens +
		f.CacheCreationTokens + f.CacheReadTokens
}

// validate checks that a raw record can become a UsageFact.
func (r *rawRecord) validate() error {
	if r.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if r.Type != "assistant" {
		return ErrNotAssistant
	}
	if r.Message == nil || r.Message.Usage == nil {
		return ErrMissingUsage
	}
	if r.Message.ID == "" {
		return ErrMissingMessageID
	}
	if r.Message.Usage.InputTokens < 0 ||
		r.Message.Usage.OutputTokens < 0 ||
		r.Message.Usage.CacheCreationInputTokens < 0 ||
		r.Message.Usage.CacheReadInputTokens < 0 {
		return ErrNegativeTokenCount
	}
	if r.Message.Usage.total() == 0 {
		return ErrZeroTokens
	}
	return nil
}

// fact converts a validated raw record into a priced UsageFact.
// A missing model name defaults to the baseline model.
func (r *rawRecord) fact() UsageFact {
	model := r.Message.Model
	if model == "" {
		model = pricing.DefaultModelName
	}

	u := r.Message.Usage
	return UsageFact{
		MessageID:           r.Message.ID,
		Timestamp:           r.Timestamp,
		InputTokens:         u.InputTokens,
		OutputTokens:        u.OutputTokens,
		CacheCreationTokens: u.CacheCreationInputTokens,
		CacheReadTokens:     u.CacheReadInputTokens,
		Model:               model,
		Cost: pricing.Cost(model,
			u.InputTokens, u.OutputTokens,
			u.CacheCreationInputTokens, u.CacheReadInputTokens),
	}
}
