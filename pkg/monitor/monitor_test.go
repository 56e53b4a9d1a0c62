package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinagaki/ccmonitor/pkg/cache"
	"github.com/shinagaki/ccmonitor/pkg/logger"
	"github.com/shinagaki/ccmonitor/pkg/parser"
	"github.com/shinagaki/ccmonitor/pkg/scanner"
	"github.com/shinagaki/ccmonitor/pkg/window"
)

func writeSessionLog(t *testing.T, root string, lines ...string) {
	t.Helper()

	dir := filepath.Join(root, "project-a")
	require.NoError(t, os.MkdirAll(dir, 0750))

	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.jsonl"), []byte(content), 0600))
}

func assistantLine(id, ts string, input int) string {
	return fmt.Sprintf(
		`{"timestamp":"%s","type":"assistant","message":{"id":"%s","model":"claude-sonnet-4-20250514","usage":{"input_tokens":%d,"output_tokens":10}}}`,
		ts, id, input)
}

func newFixture(t *testing.T, cfg Config) (Scheduler, *cache.State, string) {
	t.Helper()

	root := t.TempDir()
	state, err := cache.New(cache.Config{
		StorePath: filepath.Join(t.TempDir(), "usage.jsonl"),
	}, logger.Noop())
	require.NoError(t, err)

	sc := scanner.New(scanner.Config{LogsRoot: root}, parser.New(logger.Noop()), logger.Noop())
	return New(cfg, sc, state, root, logger.Noop()), state, root
}

func TestRunOnce(t *testing.T) {
	sched, state, root := newFixture(t, Config{CostLimit: 10, Tail: 10})
	writeSessionLog(t, root,
		assistantLine("msg_1", "2024-01-15T10:15:00Z", 1000),
		assistantLine("msg_2", "2024-01-15T11:30:00Z", 2000),
	)

	view, err := sched.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, view.Scan.NewFacts)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "2024-01-15 11:00", view.Rows[0].Hour)
	assert.Equal(t, window.BandNominal, view.Rows[0].Band)

	// The pass persisted the folded state.
	assert.False(t, state.Dirty())
}

func TestRunOnceAdoptsPersistedHistory(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "usage.jsonl")
	stored := `{"hour":"2024-01-10 08:00","inputTokens":500,"outputTokens":100,"totalTokens":600,"cost":2.5,"sessionCount":3,"avgInputPerSession":166.7,"avgOutputPerSession":33.3}
`
	require.NoError(t, os.WriteFile(storePath, []byte(stored), 0600))

	root := t.TempDir()
	state, err := cache.New(cache.Config{StorePath: storePath}, logger.Noop())
	require.NoError(t, err)
	require.Equal(t, 1, state.Hydrate())

	sc := scanner.New(scanner.Config{LogsRoot: root}, parser.New(logger.Noop()), logger.Noop())
	sched := New(Config{CostLimit: 10, Tail: 10}, sc, state, root, logger.Noop())

	view, err := sched.RunOnce(context.Background())
	require.NoError(t, err)

	// No source logs remain, so the persisted hour is the whole view.
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "2024-01-10 08:00", view.Rows[0].Hour)
	assert.InDelta(t, 2.5, view.Rows[0].RollingCost, 1e-9)
}

func TestRunOnceTailBoundsRows(t *testing.T) {
	sched, _, root := newFixture(t, Config{CostLimit: 10, Tail: 1})
	writeSessionLog(t, root,
		assistantLine("msg_1", "2024-01-15T10:15:00Z", 1000),
		assistantLine("msg_2", "2024-01-15T11:30:00Z", 2000),
		assistantLine("msg_3", "2024-01-15T12:45:00Z", 3000),
	)

	view, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "2024-01-15 12:00", view.Rows[0].Hour)
}

func TestRunOncePersistFailureIsRetriedNextPass(t *testing.T) {
	root := t.TempDir()

	// The store's parent "directory" is a regular file, so Persist
	// cannot write until it is removed.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("in the way"), 0600))
	storePath := filepath.Join(blocker, "usage.jsonl")

	state, err := cache.New(cache.Config{StorePath: storePath}, logger.Noop())
	require.NoError(t, err)

	sc := scanner.New(scanner.Config{LogsRoot: root}, parser.New(logger.Noop()), logger.Noop())
	sched := New(Config{CostLimit: 10, Tail: 10}, sc, state, root, logger.Noop())

	writeSessionLog(t, root, assistantLine("msg_1", "2024-01-15T10:15:00Z", 1000))

	// The failed persist is not fatal; the pass still yields a view
	// and the state stays dirty for the next attempt.
	view, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.True(t, state.Dirty(), "failed persist must leave the state dirty")

	require.NoError(t, os.Remove(blocker))

	_, err = sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Dirty(), "next pass retries the persist")

	_, statErr := os.Stat(storePath)
	assert.NoError(t, statErr, "retried persist must write the store")
}

func TestWatchRejectsShortInterval(t *testing.T) {
	sched, _, _ := newFixture(t, Config{
		CostLimit: 10,
		Interval:  2 * time.Second,
		Sink:      func(View) {},
	})

	err := sched.Watch(context.Background())
	assert.ErrorIs(t, err, ErrIntervalTooShort)
}

func TestWatchRequiresSink(t *testing.T) {
	sched, _, _ := newFixture(t, Config{
		CostLimit: 10,
		Interval:  MinInterval,
	})

	err := sched.Watch(context.Background())
	assert.ErrorIs(t, err, ErrNoSink)
}

func TestWatchDeliversViewsAndStopsOnCancel(t *testing.T) {
	var mu sync.Mutex
	var views []View

	ctx, cancel := context.WithCancel(context.Background())

	cfg := Config{
		CostLimit: 10,
		Interval:  MinInterval,
		Tail:      10,
		Sink: func(v View) {
			mu.Lock()
			views = append(views, v)
			mu.Unlock()
			cancel()
		},
	}
	sched, _, root := newFixture(t, cfg)
	writeSessionLog(t, root, assistantLine("msg_1", "2024-01-15T10:15:00Z", 1000))

	done := make(chan error, 1)
	go func() { done <- sched.Watch(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean stop")
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, views, "the immediate first pass must deliver a view")
	assert.Equal(t, 1, views[0].Scan.NewFacts)
}
