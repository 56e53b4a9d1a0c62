// Package scanner walks the Claude Code projects tree and folds new
// usage facts into the aggregation cache.
//
// The tree is two levels deep: a projects root containing per-project
// subdirectories, each holding JSONL session logs. Files whose
// modification time has not advanced since the previous scan are
// skipped entirely; the deduplicator inside the cache is what keeps a
// re-read file from double counting.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shinagaki/ccmonitor/pkg/cache"
	"github.com/shinagaki/ccmonitor/pkg/logger"
	"github.com/shinagaki/ccmonitor/pkg/parser"
)

// LogFileSuffix is the extension of session log files.
const LogFileSuffix = ".jsonl"

// Config contains scanner configuration.
type Config struct {
	// LogsRoot is the projects root directory. A missing root is zero
	// available data, not an error.
	LogsRoot string

	// Since, when non-zero, drops facts older than this timestamp
	// before folding. It filters facts, not files: every changed file
	// is still opened and its IDs still reach the deduplicator.
	Since time.Time
}

// Result summarizes one scan pass.
type Result struct {
	// FilesRead is the number of files parsed this pass.
	FilesRead int

	// FilesSkipped is the number of files skipped as unchanged.
	FilesSkipped int

	// NewFacts is the number of facts folded into the cache.
	NewFacts int

	// Duplicates is the number of facts discarded by deduplication.
	Duplicates int

	// Filtered is the number of facts dropped by the Since filter.
	Filtered int
}

// Scanner runs incremental scan passes over the logs tree.
type Scanner interface {
	// Scan walks the projects tree once, reading changed files and
	// folding their new facts into state.
	//
	// Per-file and per-line failures are logged and skipped; the only
	// returned error is context cancellation.
	Scan(ctx context.Context, state *cache.State) (Result, error)
}

// scanner implements the Scanner interface.
type scanner struct {
	config Config
	parser parser.Parser
	logger logger.Logger
}

// New creates a scanner over the configured logs root.
func New(cfg Config, p parser.Parser, log logger.Logger) Scanner {
	return &scanner{
		config: cfg,
		parser: p,
		logger: log,
	}
}

// Scan implements Scanner.Scan.
func (s *scanner) Scan(ctx context.Context, state *cache.State) (Result, error) {
	var result Result

	root := expandHome(s.config.LogsRoot)
	projects, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("logs root not found", "path", root)
			return result, nil
		}
		s.logger.Warn("logs root unreadable", "path", root, "error", err)
		return result, nil
	}

	for _, project := range projects {
		if !project.IsDir() {
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		projectDir := filepath.Join(root, project.Name())
		if err := s.scanProject(ctx, projectDir, state, &result); err != nil {
			return result, err
		}
	}

	s.logger.Debug("scan complete",
		"files_read", result.FilesRead,
		"files_skipped", result.FilesSkipped,
		"new_facts", result.NewFacts,
		"duplicates", result.Duplicates,
		"filtered", result.Filtered)

	return result, nil
}

// scanProject reads every changed log file in one project directory.
func (s *scanner) scanProject(ctx context.Context, projectDir string, state *cache.State, result *Result) error {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		s.logger.Warn("failed to read project directory",
			"path", projectDir, "error", err)
		return nil
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LogFileSuffix) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(projectDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to stat log file", "path", path, "error", err)
			continue
		}

		if !state.FileChanged(path, info.ModTime()) {
			result.FilesSkipped++
			continue
		}

		s.readFile(path, state, result)

		// Recorded even when the file yielded nothing new, so stable
		// content is never re-scanned.
		state.RecordFileTime(path, info.ModTime())
	}

	return nil
}

// readFile parses one log file and folds its facts.
func (s *scanner) readFile(path string, state *cache.State, result *Result) {
	facts, err := s.parser.ParseFile(path)
	if err != nil {
		s.logger.Warn("failed to parse log file", "path", path, "error", err)
		return
	}
	result.FilesRead++

	for _, f := range facts {
		if !s.config.Since.IsZero() && f.Timestamp.Before(s.config.Since) {
			result.Filtered++
			continue
		}

		folded, err := state.Fold(f)
		if err != nil {
			s.logger.Warn("failed to fold fact",
				"message_id", f.MessageID, "error", err)
			continue
		}

		if folded {
			result.NewFacts++
		} else {
			result.Duplicates++
		}
	}
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
