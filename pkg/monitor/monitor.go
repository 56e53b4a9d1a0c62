package monitor

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/shinagaki/ccmonitor/pkg/cache"
	"github.com/shinagaki/ccmonitor/pkg/logger"
	"github.com/shinagaki/ccmonitor/pkg/scanner"
	"github.com/shinagaki/ccmonitor/pkg/window"
)

// scheduler implements the Scheduler interface.
type scheduler struct {
	config  Config
	scanner scanner.Scanner
	state   *cache.State
	logger  logger.Logger

	// watchRoot, when non-empty, is additionally watched with fsnotify
	// so new log data can shorten the wait between passes.
	watchRoot string

	firstPassDone bool
	lastScan      time.Time
}

// New creates a scheduler over an already-hydrated cache state.
//
// Parameters:
//   - cfg: scheduler configuration
//   - sc: scanner for the logs tree
//   - state: cache state; the scheduler calls Reconcile after its
//     first pass
//   - watchRoot: logs root to watch for change events in watch mode
//     (empty disables event triggering)
//   - log: logger instance
func New(cfg Config, sc scanner.Scanner, state *cache.State, watchRoot string, log logger.Logger) Scheduler {
	return &scheduler{
		config:    cfg,
		scanner:   sc,
		state:     state,
		watchRoot: watchRoot,
		logger:    log,
	}
}

// RunOnce implements Scheduler.RunOnce.
func (s *scheduler) RunOnce(ctx context.Context) (View, error) {
	result, err := s.scanner.Scan(ctx, s.state)
	if err != nil {
		return View{}, fmt.Errorf("scan failed: %w", err)
	}
	s.lastScan = time.Now()

	if !s.firstPassDone {
		if adopted := s.state.Reconcile(); adopted > 0 {
			s.logger.Info("adopted persisted buckets for rotated logs",
				"buckets", adopted)
		}
		s.firstPassDone = true
	}

	if s.state.Dirty() {
		if err := s.state.Persist(); err != nil {
			// The in-memory state is intact; the next pass retries.
			s.logger.Error("failed to persist cache", "error", err)
		}
	}

	rows, err := window.RollingView(s.state.Buckets(), window.Options{
		Since:     s.config.Since,
		Until:     s.config.Until,
		Tail:      s.rowLimit(),
		Full:      s.config.Full,
		CostLimit: s.config.CostLimit,
	})
	if err != nil {
		return View{}, fmt.Errorf("evaluation failed: %w", err)
	}

	return View{
		Timestamp: s.lastScan,
		Scan:      result,
		Rows:      rows,
	}, nil
}

// Watch implements Scheduler.Watch.
func (s *scheduler) Watch(ctx context.Context) error {
	if s.config.Interval < MinInterval {
		return fmt.Errorf("%w: %v < %v", ErrIntervalTooShort, s.config.Interval, MinInterval)
	}
	if s.config.Sink == nil {
		return ErrNoSink
	}

	events, closeWatcher := s.startEventWatcher(ctx)
	defer closeWatcher()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("watch mode started",
		"interval", s.config.Interval,
		"cost_limit", s.config.CostLimit)

	// Immediate first pass; the interval only spaces subsequent ones.
	if err := s.tick(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch mode stopped")
			return nil

		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				return err
			}

		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// New log data. Re-scan early, but never more often than
			// the enforced minimum; the ticker covers what we skip.
			if time.Since(s.lastScan) < MinInterval {
				continue
			}
			if err := s.tick(ctx); err != nil {
				return err
			}
		}
	}
}

// tick runs one pass to completion and delivers the view. Cancellation
// is only honored between passes.
func (s *scheduler) tick(ctx context.Context) error {
	view, err := s.RunOnce(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}

	s.config.Sink(view)
	return nil
}

// rowLimit derives the maximum number of result rows per pass: an
// explicit tail wins, otherwise the terminal height minus table
// chrome, otherwise a fixed default.
func (s *scheduler) rowLimit() int {
	if s.config.Tail > 0 {
		return s.config.Tail
	}

	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= chromeRows {
		return defaultRowLimit
	}
	return height - chromeRows
}
