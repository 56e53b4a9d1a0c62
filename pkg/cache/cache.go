package cache

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shinagaki/ccmonitor/pkg/logger"
	"github.com/shinagaki/ccmonitor/pkg/parser"
)

// Config contains cache configuration.
type Config struct {
	// StorePath is the JSONL file the hourly buckets are persisted to.
	StorePath string

	// Seen is the deduplication store. Defaults to an in-memory store,
	// which is rebuilt from source logs on every cold start.
	Seen SeenStore
}

// State is the process-wide aggregation state: hour buckets, the
// seen-message-ID set, and per-file modification times.
//
// Lifecycle: construct with New, call Hydrate once, fold facts scan by
// scan, Persist after each scan that changed anything. The value lives
// for the process lifetime.
type State struct {
	storePath string
	seen      SeenStore
	logger    logger.Logger

	mu        sync.RWMutex
	buckets   map[string]*HourlyStats
	restored  map[string]HourlyStats
	fileTimes map[string]time.Time
	dirty     bool
}

// New creates an empty cache state.
//
// Parameters:
//   - cfg: cache configuration; StorePath is required
//   - log: logger instance
//
// Returns an error only for invalid configuration.
func New(cfg Config, log logger.Logger) (*State, error) {
	if cfg.StorePath == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if cfg.Seen == nil {
		cfg.Seen = NewMemorySeenStore()
	}

	return &State{
		storePath: cfg.StorePath,
		seen:      cfg.Seen,
		logger:    log,
		buckets:   make(map[string]*HourlyStats),
		restored:  make(map[string]HourlyStats),
		fileTimes: make(map[string]time.Time),
	}, nil
}

// Hydrate restores persisted hourly buckets from the store file.
//
// Each stored line is parsed independently; a corrupt line (including a
// truncated final line from an interrupted persist) is skipped without
// aborting the rest. A missing or unreadable store yields an empty
// cache, never an error.
//
// Restored buckets are held aside until Reconcile: the first scan over
// the source logs re-derives every hour the logs still cover, and only
// hours the logs no longer cover are adopted from the store.
func (s *State) Hydrate() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.storePath) // nolint:gosec // path comes from trusted config
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache store unreadable, starting cold",
				"path", s.storePath, "error", err)
		}
		return 0
	}
	defer func() { _ = f.Close() }()

	restored := 0
	skipped := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var stats HourlyStats
		if err := json.Unmarshal([]byte(line), &stats); err != nil || stats.Hour == "" {
			skipped++
			continue
		}
		if _, err := ParseBucketKey(stats.Hour); err != nil {
			skipped++
			continue
		}

		s.restored[stats.Hour] = stats
		restored++
	}

	if err := scanner.Err(); err != nil {
		s.logger.Warn("cache store read stopped early", "error", err)
	}

	s.logger.Debug("cache hydrated",
		"buckets", restored,
		"skipped_lines", skipped)

	return restored
}

// Fold deduplicates a candidate fact and, if it is new, adds its token
// counts and cost to the fact's hour bucket.
//
// Returns:
//   - true if the fact was folded
//   - false if its message ID had already been seen
//
// A seen-store failure discards the fact rather than risking a double
// count.
func (s *State) Fold(fact parser.UsageFact) (bool, error) {
	newlySeen, err := s.seen.MarkSeen(fact.MessageID)
	if err != nil {
		return false, fmt.Errorf("failed to check message ID: %w", err)
	}
	if !newlySeen {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := BucketKey(fact.Timestamp)
	entry, exists := s.buckets[key]
	if !exists {
		entry = &HourlyStats{Hour: key}
		s.buckets[key] = entry
	}

	entry.InputTokens += fact.InputTokens
	entry.OutputTokens += fact.OutputTokens
	entry.TotalTokens += fact.TotalTokens()
	entry.Cost += fact.Cost
	entry.SessionCount++
	entry.AvgInputPerSession = float64(entry.InputTokens) / float64(entry.SessionCount)
	entry.AvgOutputPerSession = float64(entry.OutputTokens) / float64(entry.SessionCount)

	s.dirty = true
	return true, nil
}

// Reconcile adopts restored buckets for hours the completed first scan
// could not re-derive from source logs (typically because those logs
// have been rotated away). Call once, after the first scan.
//
// Returns the number of buckets adopted.
func (s *State) Reconcile() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	adopted := 0
	for key, stats := range s.restored {
		if _, exists := s.buckets[key]; exists {
			continue
		}
		copied := stats
		s.buckets[key] = &copied
		adopted++
	}

	s.restored = make(map[string]HourlyStats)
	if adopted > 0 {
		s.dirty = true
	}

	return adopted
}

// FileChanged reports whether a file should be re-read: true when its
// current modification time is strictly newer than the last recorded
// one, or when the path has never been recorded.
func (s *State) FileChanged(path string, modTime time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last, exists := s.fileTimes[path]
	if !exists {
		return true
	}
	return modTime.After(last)
}

// RecordFileTime records a file's modification time after it was read,
// regardless of whether the read produced new facts.
func (s *State) RecordFileTime(path string, modTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileTimes[path] = modTime
}

// Dirty reports whether the in-memory buckets have changed since the
// last successful Persist.
func (s *State) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Persist writes every bucket to the store file, one JSON object per
// line, sorted ascending by hour. The file is rewritten in full.
//
// A failure leaves the in-memory state intact and dirty, so the next
// successful scan retries the write.
func (s *State) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.buckets))
	for key := range s.buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		data, err := json.Marshal(s.buckets[key])
		if err != nil {
			return fmt.Errorf("failed to marshal bucket %s: %w", key, err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(s.storePath), 0750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(s.storePath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write cache store: %w", err)
	}

	s.dirty = false
	s.logger.Debug("cache persisted", "buckets", len(keys), "path", s.storePath)
	return nil
}

// Buckets returns a copy of the current hour buckets keyed by bucket key.
func (s *State) Buckets() map[string]HourlyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]HourlyStats, len(s.buckets))
	for key, stats := range s.buckets {
		out[key] = *stats
	}
	return out
}

// SeenCount returns the number of distinct message IDs recorded.
func (s *State) SeenCount() int {
	return s.seen.Len()
}

// Reset clears all state: in-memory buckets, file times, the persisted
// store, and the seen-ID set. Clearing the seen store is what lets a
// subsequent scan re-derive history from surviving source logs.
func (s *State) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[string]*HourlyStats)
	s.restored = make(map[string]HourlyStats)
	s.fileTimes = make(map[string]time.Time)
	s.dirty = false

	if err := s.seen.Clear(); err != nil {
		return fmt.Errorf("failed to clear seen IDs: %w", err)
	}
	if err := os.Remove(s.storePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache store: %w", err)
	}
	return nil
}

// Close releases the seen-ID store.
func (s *State) Close() error {
	return s.seen.Close()
}
