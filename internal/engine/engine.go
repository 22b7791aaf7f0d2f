package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"lightbox/internal/batch"
	"lightbox/internal/catalog"
	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/notifications"
	"lightbox/internal/pipeline"
	"lightbox/internal/scanner"
	"lightbox/internal/worker"
)

const drainPollInterval = 100 * time.Millisecond

// Engine ties the batch components into one lifecycle.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	cat      *catalog.Catalog
	proc     *batch.Processor
	scan     *scanner.Scanner
	pool     *worker.Pool
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running    atomic.Bool
	forwarders sync.WaitGroup
}

// New constructs an engine around the supplied per-item pipelines. Pipelines
// are wrapped so that every successfully processed item is recorded in the
// catalog, which is what makes skip-existing scans work across restarts.
func New(cfg *config.Config, logger *slog.Logger, pipelines pipeline.Map) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	cat, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	proc := batch.NewProcessor(logger)
	scan := scanner.New(cfg, proc, logger, scanner.WithSeenPredicate(func(path string) bool {
		seen, err := cat.IsProcessed(context.Background(), path)
		if err != nil {
			logger.Warn("catalog lookup failed; treating file as unseen",
				logging.String("path", path), logging.Error(err))
			return false
		}
		return seen
	}))

	pool := worker.NewPool(cfg, proc, recordingPipelines(pipelines, cat), logger)

	return &Engine{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "engine")),
		cat:      cat,
		proc:     proc,
		scan:     scan,
		pool:     pool,
		notifier: notifications.NewService(cfg),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}, nil
}

// recordingPipelines wraps each pipeline so successful items land in the catalog.
func recordingPipelines(pipelines pipeline.Map, cat *catalog.Catalog) pipeline.Map {
	wrap := func(proc pipeline.ItemProcessor, jobType batch.JobType) pipeline.ItemProcessor {
		if proc == nil {
			return nil
		}
		return pipeline.Func(func(ctx context.Context, path string) (pipeline.Result, error) {
			result, err := proc.Process(ctx, path)
			if err != nil {
				return result, err
			}
			if markErr := cat.MarkProcessed(ctx, path, string(jobType)); markErr != nil {
				return result, fmt.Errorf("record processed file: %w", markErr)
			}
			return result, nil
		})
	}

	wrapped := pipeline.Map{
		Default: wrap(pipelines.Default, batch.JobTypeImageProcessing),
		ByType:  make(map[batch.JobType]pipeline.ItemProcessor, len(pipelines.ByType)),
	}
	for jobType, proc := range pipelines.ByType {
		wrapped.ByType[jobType] = wrap(proc, jobType)
	}
	return wrapped
}

// Start acquires the instance lock and launches the worker pool plus the
// notification forwarder.
func (e *Engine) Start(ctx context.Context) error {
	if e.running.Load() {
		return errors.New("engine already running")
	}

	ok, err := e.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lightbox instance is already running")
	}

	updates, _ := e.proc.Subscribe()
	e.forwarders.Add(1)
	go e.forwardUpdates(updates)

	e.pool.Start(ctx)
	e.running.Store(true)
	e.logger.Info("engine started",
		logging.Int("workers", e.pool.Size()),
		logging.String("lock", e.lockPath),
	)
	return nil
}

// Stop halts the workers, shuts the registry down with the configured bounded
// timeout, and releases the lock. In-flight jobs finish naturally within the
// timeout. Safe to call more than once.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}

	e.pool.Stop()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(e.cfg.Workers.ShutdownTimeout)*time.Second,
	)
	defer cancel()
	if err := e.proc.Shutdown(shutdownCtx); err != nil {
		e.logger.Warn("processor shutdown reported error", logging.Error(err))
	}

	// Shutdown closes subscriber channels, which ends the forwarder.
	e.forwarders.Wait()

	if err := e.lock.Unlock(); err != nil {
		e.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	e.logger.Info("engine stopped")
}

// Close stops the engine and releases the catalog.
func (e *Engine) Close() error {
	e.Stop()
	_ = e.scan.Close()
	return e.cat.Close()
}

func (e *Engine) forwardUpdates(updates <-chan *batch.Job) {
	defer e.forwarders.Done()
	ctx := context.Background()
	for job := range updates {
		switch job.Status {
		case batch.StatusCompleted:
			if err := e.notifier.NotifyJobCompleted(ctx, string(job.Type), job.ProcessedItems); err != nil {
				e.logger.Debug("job notification failed", logging.Error(err))
			}
		case batch.StatusFailed:
			if err := e.notifier.NotifyJobFailed(ctx, string(job.Type), job.ProcessedItems, job.FailedItems); err != nil {
				e.logger.Debug("job notification failed", logging.Error(err))
			}
		}
	}
}

// Scan discovers and enqueues work from a directory tree.
func (e *Engine) Scan(ctx context.Context, root string, opts scanner.Options) (scanner.ScanResult, error) {
	result, err := e.scan.ScanDirectory(ctx, root, opts)
	if err != nil {
		if notifyErr := e.notifier.NotifyError(ctx, err, "directory scan"); notifyErr != nil {
			e.logger.Debug("error notification failed", logging.Error(notifyErr))
		}
		return result, err
	}
	if notifyErr := e.notifier.NotifyScanCompleted(ctx, root, result.DiscoveredFiles, result.BatchesCreated); notifyErr != nil {
		e.logger.Debug("scan notification failed", logging.Error(notifyErr))
	}
	return result, nil
}

// ProcessFiles enqueues an explicit file list.
func (e *Engine) ProcessFiles(ctx context.Context, paths []string, opts scanner.Options) (scanner.ScanResult, error) {
	return e.scan.ProcessFiles(ctx, paths, opts)
}

// Run drives one scan-then-drain session: start the workers, scan root, wait
// for the queue to empty, evict stale terminal jobs, then stop. The registry
// stays readable afterwards for status inspection, but a stopped engine does
// not accept further work; build a fresh engine for another session.
func (e *Engine) Run(ctx context.Context, root string, opts scanner.Options) (scanner.ScanResult, batch.QueueStats, error) {
	if err := e.Start(ctx); err != nil {
		return scanner.ScanResult{}, batch.QueueStats{}, err
	}
	defer e.Stop()

	result, err := e.Scan(ctx, root, opts)
	if err != nil {
		return result, e.proc.Stats(), err
	}

	stats, err := e.WaitForDrain(ctx)
	if err != nil {
		return result, stats, err
	}
	e.Cleanup()
	return result, stats, nil
}

// WaitForDrain blocks until no pending or running jobs remain, then reports
// how the session ended.
func (e *Engine) WaitForDrain(ctx context.Context) (batch.QueueStats, error) {
	start := time.Now()
	for {
		stats := e.proc.Stats()
		if stats.PendingJobs == 0 && stats.RunningJobs == 0 {
			if err := e.notifier.NotifyQueueDrained(ctx, stats.CompletedJobs, stats.FailedJobs, time.Since(start)); err != nil {
				e.logger.Debug("drain notification failed", logging.Error(err))
			}
			return stats, nil
		}
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-time.After(drainPollInterval):
		}
	}
}

// Cleanup evicts terminal jobs past the configured retention window.
func (e *Engine) Cleanup() int {
	maxAge := time.Duration(e.cfg.Cleanup.MaxAgeHours) * time.Hour
	return e.proc.Cleanup(maxAge)
}

// Processor exposes the registry's query surface (job lookups, stats).
func (e *Engine) Processor() *batch.Processor {
	return e.proc
}

// Scanner exposes scan statistics.
func (e *Engine) Scanner() *scanner.Scanner {
	return e.scan
}

// Catalog exposes the processed-file index.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}
