package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"lightbox/internal/logging"
)

const shutdownPollInterval = 50 * time.Millisecond

// Processor manages the process-wide job registry. All operations are pure
// in-memory state changes guarded by a single mutex; none of them block on
// I/O, so it is safe to call them from many workers concurrently.
type Processor struct {
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	jobs         map[string]*Job
	order        []string // ids in creation order
	pending      []*Job   // creation order; claim scans for best priority
	subscribers  map[int]chan *Job
	nextSubID    int
	subBuffer    int
	shuttingDown bool
	closed       bool
}

// ProcessorOption configures optional Processor behavior.
type ProcessorOption func(*Processor)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSubscriberBuffer sets the per-subscriber channel capacity.
func WithSubscriberBuffer(size int) ProcessorOption {
	return func(p *Processor) {
		if size > 0 {
			p.subBuffer = size
		}
	}
}

// NewProcessor constructs an empty registry.
func NewProcessor(logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Processor{
		logger:      logger.With(logging.String(logging.FieldComponent, "batch")),
		now:         time.Now,
		jobs:        make(map[string]*Job),
		subscribers: make(map[int]chan *Job),
		subBuffer:   64,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddOption configures a job at submission time.
type AddOption func(*Job)

// WithPriority sets the job priority (default normal).
func WithPriority(priority Priority) AddOption {
	return func(j *Job) { j.Priority = priority }
}

// WithTotalItems overrides the item count used for progress accounting.
// Defaults to the payload's file count, or 1 when the payload carries none.
func WithTotalItems(total int) AddOption {
	return func(j *Job) {
		if total > 0 {
			j.TotalItems = total
		}
	}
}

// Add registers a new pending job and returns its id. It never blocks.
func (p *Processor) Add(jobType JobType, payload Payload, opts ...AddOption) (string, error) {
	if _, ok := jobTypeSet[jobType]; !ok {
		return "", fmt.Errorf("add job: unknown job type %q", jobType)
	}

	job := &Job{
		ID:       uuid.NewString(),
		Type:     jobType,
		Priority: PriorityNormal,
		Status:   StatusPending,
		Payload: Payload{
			FilePaths:          append([]string(nil), payload.FilePaths...),
			MaxConcurrentFiles: payload.MaxConcurrentFiles,
		},
		TotalItems: len(payload.FilePaths),
	}
	if job.TotalItems == 0 {
		job.TotalItems = 1
	}
	for _, opt := range opts {
		opt(job)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shuttingDown {
		return "", ErrShuttingDown
	}
	job.CreatedAt = p.now().UTC()
	p.jobs[job.ID] = job
	p.order = append(p.order, job.ID)
	p.pending = append(p.pending, job)

	p.logger.Debug("job added",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobType, string(job.Type)),
		logging.String("priority", job.Priority.String()),
		logging.Int("total_items", job.TotalItems),
	)
	return job.ID, nil
}

// Get returns a copy of the job with the given id.
func (p *Processor) Get(id string) (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get job %s: %w", id, ErrNotFound)
	}
	return job.Clone(), nil
}

// Filter restricts the jobs returned by List. Zero-value fields match all.
type Filter struct {
	Statuses []Status
	Types    []JobType
}

func (f Filter) matches(job *Job) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, status := range f.Statuses {
			if job.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Types) > 0 {
		found := false
		for _, jobType := range f.Types {
			if job.Type == jobType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// List returns copies of matching jobs in creation order.
func (p *Processor) List(filter Filter) []*Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Job
	for _, id := range p.order {
		job := p.jobs[id]
		if job == nil || !filter.matches(job) {
			continue
		}
		out = append(out, job.Clone())
	}
	return out
}

// ClaimNext atomically transitions the most eligible pending job to running
// and returns a copy of it. Eligibility is highest priority first, then
// earliest creation within a tier. Returns (nil, nil) when no job is pending.
func (p *Processor) ClaimNext() (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shuttingDown {
		return nil, ErrShuttingDown
	}
	if len(p.pending) == 0 {
		return nil, nil
	}

	// pending is kept in creation order, so the first job at the best
	// priority is also the oldest in its tier.
	best := 0
	for i, job := range p.pending[1:] {
		if job.Priority > p.pending[best].Priority {
			best = i + 1
		}
	}

	job := p.pending[best]
	p.pending = append(p.pending[:best], p.pending[best+1:]...)

	started := p.now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &started

	p.logger.Debug("job claimed",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("priority", job.Priority.String()),
	)
	return job.Clone(), nil
}

// UpdateProgress applies per-item results to a running job. Deltas are
// non-negative counts of newly processed and newly failed items; a non-empty
// errorMessage is appended to the job's error list. The updated job is
// published to subscribers.
func (p *Processor) UpdateProgress(id string, processedDelta, failedDelta int, errorMessage string) error {
	if processedDelta < 0 || failedDelta < 0 {
		return fmt.Errorf("update progress %s: negative delta", id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return fmt.Errorf("update progress %s: %w", id, ErrNotFound)
	}
	if job.Status != StatusRunning {
		return fmt.Errorf("update progress %s: job is %s: %w", id, job.Status, ErrInvalidTransition)
	}
	done := job.ProcessedItems + job.FailedItems + processedDelta + failedDelta
	if done > job.TotalItems {
		return fmt.Errorf("update progress %s: %d of %d items: %w", id, done, job.TotalItems, ErrProgressOverflow)
	}

	job.ProcessedItems += processedDelta
	job.FailedItems += failedDelta
	if errorMessage != "" {
		job.Errors = append(job.Errors, errorMessage)
	}
	job.recomputeDerived(p.now().UTC())

	p.publishLocked(job)
	return nil
}

// Complete finalizes a running job: completed when every item succeeded,
// failed when any item failed. Partial results stay on the job either way.
func (p *Processor) Complete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return fmt.Errorf("complete job %s: %w", id, ErrNotFound)
	}
	if job.Status != StatusRunning {
		return fmt.Errorf("complete job %s: job is %s: %w", id, job.Status, ErrInvalidTransition)
	}

	completed := p.now().UTC()
	job.CompletedAt = &completed
	job.EstimatedTimeRemaining = 0
	if job.FailedItems == 0 {
		job.Status = StatusCompleted
	} else {
		job.Status = StatusFailed
	}

	p.logger.Info("job finished",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("status", string(job.Status)),
		logging.Int("processed", job.ProcessedItems),
		logging.Int("failed", job.FailedItems),
	)
	p.publishLocked(job)
	return nil
}

// Cancel transitions a pending job to cancelled. Jobs in any other status
// report ErrNotCancellable: once claimed, a job runs to its natural end.
func (p *Processor) Cancel(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return fmt.Errorf("cancel job %s: %w", id, ErrNotFound)
	}
	if job.Status != StatusPending {
		return fmt.Errorf("cancel job %s: job is %s: %w", id, job.Status, ErrNotCancellable)
	}

	for i, pending := range p.pending {
		if pending.ID == id {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			break
		}
	}
	cancelled := p.now().UTC()
	job.Status = StatusCancelled
	job.CompletedAt = &cancelled

	p.logger.Info("job cancelled", logging.String(logging.FieldJobID, job.ID))
	p.publishLocked(job)
	return nil
}

// Cleanup evicts terminal jobs created more than maxAge ago and returns the
// number removed. It is the only path that deletes jobs from the registry.
func (p *Processor) Cleanup(maxAge time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	cutoff := p.now().UTC().Add(-maxAge)

	removed := 0
	kept := p.order[:0]
	for _, id := range p.order {
		job := p.jobs[id]
		if job != nil && job.Status.IsTerminal() && job.CreatedAt.Before(cutoff) {
			delete(p.jobs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept

	if removed > 0 {
		p.logger.Info("evicted terminal jobs", logging.Int("count", removed))
	}
	return removed
}

// Stats returns a snapshot of aggregate counts by status.
func (p *Processor) Stats() QueueStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := QueueStats{TotalJobs: len(p.jobs)}
	for _, job := range p.jobs {
		switch job.Status {
		case StatusPending:
			stats.PendingJobs++
		case StatusRunning:
			stats.RunningJobs++
		case StatusCompleted:
			stats.CompletedJobs++
		case StatusFailed:
			stats.FailedJobs++
		case StatusCancelled:
			stats.CancelledJobs++
		}
	}
	return stats
}

// Subscribe registers an observer of job updates. Every progress update and
// terminal transition is delivered as a job snapshot; updates are dropped
// rather than ever blocking the registry, so consumers must not rely on the
// stream for correctness. The returned cancel func is idempotent.
func (p *Processor) Subscribe() (<-chan *Job, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan *Job, p.subBuffer)
	if p.closed {
		close(ch)
		return ch, func() {}
	}

	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subscribers[id]; ok {
				delete(p.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

func (p *Processor) publishLocked(job *Job) {
	if len(p.subscribers) == 0 {
		return
	}
	snapshot := job.Clone()
	for _, ch := range p.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Shutdown stops accepting submissions and claims, then waits for running
// jobs to reach a terminal state. The wait is bounded by ctx; when it ends
// first, shutdown proceeds regardless and any still-running jobs are logged.
// Safe to call more than once.
func (p *Processor) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.shuttingDown = true
	p.mu.Unlock()

	p.waitForIdle(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for id, ch := range p.subscribers {
		delete(p.subscribers, id)
		close(ch)
	}
	return nil
}

func (p *Processor) waitForIdle(ctx context.Context) {
	for p.runningCount() > 0 {
		select {
		case <-ctx.Done():
			p.logger.Warn("shutdown timeout with jobs still running",
				logging.Int("running", p.runningCount()),
			)
			return
		case <-time.After(shutdownPollInterval):
		}
	}
}

func (p *Processor) runningCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, job := range p.jobs {
		if job.Status == StatusRunning {
			count++
		}
	}
	return count
}
