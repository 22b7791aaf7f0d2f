package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lightbox/internal/batch"
	"lightbox/internal/logging"
	"lightbox/internal/pipeline"
)

// Worker claims and processes jobs until stopped.
type Worker struct {
	id           string
	proc         *batch.Processor
	pipelines    pipeline.Map
	logger       *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a Worker draining proc.
func New(id string, proc *batch.Processor, pipelines pipeline.Map, logger *slog.Logger, pollInterval time.Duration) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		id:           id,
		proc:         proc,
		pipelines:    pipelines,
		logger:       logger.With(logging.String(logging.FieldWorkerID, id)),
		pollInterval: pollInterval,
	}
}

// Start begins the claim loop. Calling Start on a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(runCtx)
}

// Stop ends the claim loop and waits for it to exit. A job currently being
// processed finishes all of its items first; there is no mid-item preemption.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.proc.ClaimNext()
		if err != nil {
			if errors.Is(err, batch.ErrShuttingDown) {
				return
			}
			w.logger.Error("claim failed", logging.Error(err))
			w.waitOrDone(ctx)
			continue
		}
		if job == nil {
			w.waitOrDone(ctx)
			continue
		}

		// The claimed job runs to its natural end even if Stop is called
		// meanwhile, so the pipeline sees an uncancelled context.
		if err := w.ProcessJob(context.WithoutCancel(ctx), job); err != nil {
			w.logger.Error("worker fault; job left running for audit",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
		}
	}
}

func (w *Worker) waitOrDone(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

// ProcessJob drives the pipeline over every item of an already-claimed job
// and finalizes it. A failing item is recorded and processing continues with
// the next one. A fault in the worker itself (panic, registry error, missing
// pipeline) is returned to the caller with the job left running; the registry
// is never corrupted by it.
func (w *Worker) ProcessJob(ctx context.Context, job *batch.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("process job %s: panic: %v", job.ID, r)
		}
	}()

	proc, err := w.pipelines.Resolve(job.Type)
	if err != nil {
		return fmt.Errorf("process job %s: %w", job.ID, err)
	}

	w.logger.Info("processing job",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobType, string(job.Type)),
		logging.Int("items", len(job.Payload.FilePaths)),
	)

	for _, path := range job.Payload.FilePaths {
		if _, itemErr := proc.Process(ctx, path); itemErr != nil {
			w.logger.Warn("item failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.String("path", path),
				logging.Error(itemErr),
			)
			if updErr := w.proc.UpdateProgress(job.ID, 0, 1, itemErr.Error()); updErr != nil {
				return fmt.Errorf("process job %s: record item failure: %w", job.ID, updErr)
			}
			continue
		}
		if updErr := w.proc.UpdateProgress(job.ID, 1, 0, ""); updErr != nil {
			return fmt.Errorf("process job %s: record item success: %w", job.ID, updErr)
		}
	}

	if err := w.proc.Complete(job.ID); err != nil {
		return fmt.Errorf("process job %s: finalize: %w", job.ID, err)
	}
	return nil
}
