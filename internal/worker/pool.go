package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lightbox/internal/batch"
	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/pipeline"
)

// Pool runs a configured number of symmetric workers against one processor.
type Pool struct {
	workers []*Worker
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewPool builds cfg.Workers.Count workers sharing proc and pipelines.
func NewPool(cfg *config.Config, proc *batch.Processor, pipelines pipeline.Map, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = logging.NewNop()
	}
	pollInterval := time.Duration(cfg.Workers.PollInterval) * time.Second

	workers := make([]*Worker, 0, cfg.Workers.Count)
	for i := 0; i < cfg.Workers.Count; i++ {
		id := fmt.Sprintf("worker-%d", i+1)
		workers = append(workers, New(id, proc, pipelines, logger, pollInterval))
	}
	return &Pool{workers: workers, logger: logger}
}

// Start launches every worker. Idempotent while running.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	for _, w := range p.workers {
		w.Start(ctx)
	}
	p.logger.Info("worker pool started", logging.Int("workers", len(p.workers)))
}

// Stop halts every worker, waiting for in-flight jobs to finish naturally.
// Idempotent.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Stop()
		}(w)
	}
	wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}
