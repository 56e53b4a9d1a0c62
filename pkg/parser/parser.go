package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shinagaki/ccmonitor/pkg/logger"
)

const (
	// MaxFileSize is the maximum allowed JSONL file size (100MB).
	// Larger files are rejected to prevent memory exhaustion.
	MaxFileSize = 100 * 1024 * 1024

	// MaxLineLength is the maximum allowed line length (1MB).
	MaxLineLength = 1024 * 1024
)

// Parser turns Claude Code JSONL log files into usage facts.
type Parser interface {
	// ParseFile reads an entire JSONL file and returns the usage facts
	// it contains.
	//
	// Returns:
	//   - Facts for every parseable assistant line with positive tokens
	//   - Error only if the file itself cannot be read or is too large
	//
	// Malformed, non-assistant, and zero-token lines are skipped. A
	// partial final line (the external writer may be mid-append) is a
	// per-line parse failure, never a file error.
	//
	// Thread-safety: safe to call concurrently with different files.
	ParseFile(path string) ([]UsageFact, error)

	// ParseLine parses a single JSONL line into a UsageFact.
	//
	// Returns an error classifying why the line produced no fact; the
	// caller decides whether that is worth logging.
	//
	// Thread-safety: this method is thread-safe.
	ParseLine(line string) (*UsageFact, error)
}

// jsonlParser implements the Parser interface.
type jsonlParser struct {
	logger logger.Logger
}

// New creates a new Parser instance.
func New(log logger.Logger) Parser {
	return &jsonlParser{logger: log}
}

// ParseFile implements Parser.ParseFile.
func (p *jsonlParser) ParseFile(path string) ([]UsageFact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: size=%d, max=%d", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	f, err := os.Open(path) // nolint:gosec // path comes from the scanned tree
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			p.logger.Warn("failed to close log file", "path", path, "error", closeErr)
		}
	}()

	facts := make([]UsageFact, 0, 100)
	skipped := 0

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, MaxLineLength)

	lineNum := 0
	for scanner.Scan() {
		lineNum++

		fact, parseErr := p.ParseLine(scanner.Text())
		if parseErr != nil {
			// Most skips are routine (user records, zero-token lines),
			// so only count them here.
			skipped++
			continue
		}

		facts = append(facts, *fact)
	}

	if scanErr := scanner.Err(); scanErr != nil {
		// A torn read mid-file still yields whatever parsed cleanly.
		p.logger.Warn("scanner stopped early",
			"path", path,
			"line", lineNum,
			"error", scanErr)
	}

	p.logger.Debug("parsed log file",
		"path", path,
		"facts", len(facts),
		"skipped_lines", skipped)

	return facts, nil
}

// ParseLine implements Parser.ParseLine.
func (p *jsonlParser) ParseLine(line string) (*UsageFact, error) {
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedJSON)
	}

	var record rawRecord
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if err := record.validate(); err != nil {
		return nil, err
	}

	fact := record.fact()
	return &fact, nil
}
