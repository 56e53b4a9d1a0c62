package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/shinagaki/ccmonitor/pkg/cache"
	"github.com/shinagaki/ccmonitor/pkg/config"
	"github.com/shinagaki/ccmonitor/pkg/display"
	"github.com/shinagaki/ccmonitor/pkg/logger"
	"github.com/shinagaki/ccmonitor/pkg/monitor"
	"github.com/shinagaki/ccmonitor/pkg/parser"
	"github.com/shinagaki/ccmonitor/pkg/scanner"
	"github.com/shinagaki/ccmonitor/pkg/window"
)

// pipeline bundles the wired core components behind one construction
// path shared by every command.
type pipeline struct {
	cfg     *config.Config
	log     logger.Logger
	state   *cache.State
	scanner scanner.Scanner
}

// buildPipeline loads configuration and constructs the hydrated cache
// state and scanner.
func buildPipeline(configPath string) (*pipeline, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})

	var seen cache.SeenStore
	if cfg.Storage.PersistSeenIDs {
		if err := os.MkdirAll(cfg.Storage.CacheDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		db, err := bolt.Open(cfg.SeenDBPath(), 0600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, fmt.Errorf("failed to open seen-ID database: %w", err)
		}
		seen, err = cache.NewBoltSeenStore(db)
		if err != nil {
			return nil, err
		}
	}

	state, err := cache.New(cache.Config{
		StorePath: cfg.StorePath(),
		Seen:      seen,
	}, log)
	if err != nil {
		return nil, err
	}
	state.Hydrate()

	return &pipeline{
		cfg:     cfg,
		log:     log,
		state:   state,
		scanner: scanner.New(scanner.Config{LogsRoot: cfg.LogsRoot}, parser.New(log), log),
	}, nil
}

// close releases pipeline resources.
func (p *pipeline) close() {
	if err := p.state.Close(); err != nil {
		p.log.Warn("failed to close cache state", "error", err)
	}
}

// parseQuery converts the shared CLI flags into window options and a
// formatter. Unparsable time bounds reject the request outright.
func (p *pipeline) parseQuery(q queryFlags) (window.Options, display.Formatter, error) {
	var opts window.Options
	var err error

	if q.since != "" {
		if opts.Since, err = window.ParseTimeBound(q.since); err != nil {
			return opts, nil, err
		}
	}
	if q.until != "" {
		if opts.Until, err = window.ParseTimeBound(q.until); err != nil {
			return opts, nil, err
		}
	}
	opts.Tail = q.tail
	opts.Full = q.full

	format := q.format
	if format == "" {
		format = p.cfg.Display.Format
	}
	formatter, err := display.NewFormatter(format, display.Config{
		ColorEnabled: p.cfg.Display.ColorOn(),
	})
	if err != nil {
		return opts, nil, fmt.Errorf("%w: %s", err, format)
	}

	return opts, formatter, nil
}

// reportCommand renders the hourly usage report.
type reportCommand struct {
	configPath string
	query      queryFlags
}

// Execute runs the report command.
func (c *reportCommand) Execute() error {
	p, err := buildPipeline(c.configPath)
	if err != nil {
		return err
	}
	defer p.close()

	opts, formatter, err := p.parseQuery(c.query)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := p.scanner.Scan(ctx, p.state); err != nil {
		return err
	}
	p.state.Reconcile()

	if p.state.Dirty() {
		if err := p.state.Persist(); err != nil {
			p.log.Error("failed to persist cache", "error", err)
		}
	}

	report, err := window.HourlyReport(p.state.Buckets(), opts)
	if err != nil {
		return err
	}

	return formatter.FormatReport(os.Stdout, report)
}

// monitorCommand renders the rolling-window view, once or repeatedly.
type monitorCommand struct {
	configPath string
	query      queryFlags
	costLimit  float64
	watch      bool
	interval   time.Duration
}

// Execute runs the monitor command.
func (c *monitorCommand) Execute() error {
	p, err := buildPipeline(c.configPath)
	if err != nil {
		return err
	}
	defer p.close()

	opts, formatter, err := p.parseQuery(c.query)
	if err != nil {
		return err
	}

	costLimit := c.costLimit
	if costLimit == 0 {
		costLimit = p.cfg.Monitor.CostLimit
	}

	sched := monitor.New(monitor.Config{
		Interval:  parseInterval(c.interval, p.cfg.Monitor.WatchInterval),
		CostLimit: costLimit,
		Since:     opts.Since,
		Until:     opts.Until,
		Tail:      opts.Tail,
		Full:      opts.Full,
		Sink: func(v monitor.View) {
			if c.watch {
				fmt.Print("\x1b[2J\x1b[H") // clear screen between passes
			}
			if err := formatter.FormatMonitor(os.Stdout, v.Rows, costLimit); err != nil {
				p.log.Error("failed to render view", "error", err)
			}
		},
	}, p.scanner, p.state, p.cfg.LogsRoot, p.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.watch {
		return sched.Watch(ctx)
	}

	view, err := sched.RunOnce(ctx)
	if err != nil {
		return err
	}
	return formatter.FormatMonitor(os.Stdout, view.Rows, costLimit)
}

// resetCommand deletes the persisted aggregation cache.
type resetCommand struct {
	configPath string
}

// Execute runs the reset command.
func (c *resetCommand) Execute() error {
	p, err := buildPipeline(c.configPath)
	if err != nil {
		return err
	}
	defer p.close()

	if err := p.state.Reset(); err != nil {
		return err
	}

	fmt.Println("aggregation cache cleared")
	return nil
}
