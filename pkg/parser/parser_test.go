package parser

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shinagaki/ccmonitor/pkg/logger"
	"github.com/shinagaki/ccmonitor/pkg/pricing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
		check   func(t *testing.T, fact *UsageFact)
	}{
		{
			name: "valid assistant record",
			line: `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_001","model":"claude-sonnet-4-20250514","usage":{"input_tokens":100,"output_tokens":50,"cache_creation_input_tokens":20,"cache_read_input_tokens":10}}}`,
			check: func(t *testing.T, fact *UsageFact) {
				if fact.MessageID != "msg_001" {
					t.Errorf("MessageID = %s, want msg_001", fact.MessageID)
				}
				if fact.InputTokens != 100 || fact.OutputTokens != 50 {
					t.Errorf("tokens = %d/%d, want 100/50", fact.InputTokens, fact.OutputTokens)
				}
				if fact.TotalTokens() != 180 {
					t.Errorf("TotalTokens = %d, want 180", fact.TotalTokens())
				}
				want := pricing.Cost("claude-sonnet-4-20250514", 100, 50, 20, 10)
				if math.Abs(fact.Cost-want) > 1e-12 {
					t.Errorf("Cost = %f, want %f", fact.Cost, want)
				}
			},
		},
		{
			name: "missing model defaults to baseline",
			line: `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_002","usage":{"input_tokens":10}}}`,
			check: func(t *testing.T, fact *UsageFact) {
				if fact.Model != pricing.DefaultModelName {
					t.Errorf("Model = %s, want %s", fact.Model, pricing.DefaultModelName)
				}
			},
		},
		{
			name: "absent counters decode as zero",
			line: `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_003","model":"claude-sonnet-4-20250514","usage":{"output_tokens":5}}}`,
			check: func(t *testing.T, fact *UsageFact) {
				if fact.InputTokens != 0 || fact.CacheReadTokens != 0 {
					t.Error("absent token fields should decode as zero")
				}
			},
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: ErrMalformedJSON,
		},
		{
			name:    "invalid json",
			line:    `{"timestamp":"2024-01-15T10:`,
			wantErr: ErrMalformedJSON,
		},
		{
			name:    "missing timestamp",
			line:    `{"type":"assistant","message":{"id":"msg_004","usage":{"input_tokens":10}}}`,
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "user record",
			line:    `{"timestamp":"2024-01-15T10:30:00Z","type":"user","message":{"id":"msg_005","usage":{"input_tokens":10}}}`,
			wantErr: ErrNotAssistant,
		},
		{
			name:    "missing usage payload",
			line:    `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_006"}}`,
			wantErr: ErrMissingUsage,
		},
		{
			name:    "missing message id",
			line:    `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"usage":{"input_tokens":10}}}`,
			wantErr: ErrMissingMessageID,
		},
		{
			name:    "all token counts zero",
			line:    `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_007","usage":{"input_tokens":0,"output_tokens":0}}}`,
			wantErr: ErrZeroTokens,
		},
		{
			name:    "negative token count",
			line:    `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_008","usage":{"input_tokens":-1,"output_tokens":5}}}`,
			wantErr: ErrNegativeTokenCount,
		},
	}

	p := New(logger.Noop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fact, err := p.ParseLine(tt.line)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseLine() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseLine() error = %v", err)
			}
			if fact == nil {
				t.Fatal("ParseLine() returned nil fact")
			}
			if tt.check != nil {
				tt.check(t, fact)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name      string
		content   string
		wantFacts int
	}{
		{
			name: "mixed valid and skippable lines",
			content: `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_1","model":"claude-sonnet-4-20250514","usage":{"input_tokens":100,"output_tokens":50}}}
{"timestamp":"2024-01-15T10:31:00Z","type":"user"}
not json at all
{"timestamp":"2024-01-15T10:32:00Z","type":"assistant","message":{"id":"msg_2","model":"claude-opus-4-20250514","usage":{"input_tokens":200,"output_tokens":80}}}
`,
			wantFacts: 2,
		},
		{
			name:      "empty file",
			content:   "",
			wantFacts: 0,
		},
		{
			name: "partial final line from writer mid-append",
			content: `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_3","usage":{"input_tokens":10}}}
{"timestamp":"2024-01-15T10:31:00Z","type":"assi`,
			wantFacts: 1,
		},
		{
			name: "zero token lines produce no facts",
			content: `{"timestamp":"2024-01-15T10:30:00Z","type":"assistant","message":{"id":"msg_4","usage":{"input_tokens":0}}}
`,
			wantFacts: 0,
		},
	}

	p := New(logger.Noop())

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, filepath.Base(t.Name())+".jsonl")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			facts, err := p.ParseFile(path)
			if err != nil {
				t.Fatalf("ParseFile() error = %v", err)
			}
			if len(facts) != tt.wantFacts {
				t.Errorf("ParseFile() facts = %d, want %d (case %d)", len(facts), tt.wantFacts, i)
			}
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	p := New(logger.Noop())
	if _, err := p.ParseFile(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Error("ParseFile() on a missing file should error")
	}
}

func TestFactTimestampPreserved(t *testing.T) {
	p := New(logger.Noop())
	fact, err := p.ParseLine(`{"timestamp":"2024-01-15T10:30:45.123Z","type":"assistant","message":{"id":"msg_t","usage":{"input_tokens":1}}}`)
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}

	want := time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)
	if !fact.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", fact.Timestamp, want)
	}
}
